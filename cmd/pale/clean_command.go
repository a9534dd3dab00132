package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pale/internal/clean"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var annotatedPath string
	var quotesPath string

	cmd := &cobra.Command{
		Use:   "clean [path]",
		Short: "Flag quoted lines and write annotated and quotes-only tables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if annotatedPath == "" {
				annotatedPath = cfg.AnnotatedPath
			}
			if quotesPath == "" {
				quotesPath = cfg.QuotesPath
			}

			rs, err := readRecords(argOr(args, 0, cfg.OutputPath))
			if err != nil {
				return err
			}
			annotated := clean.Annotate(rs)
			quotes := clean.QuotesOnly(annotated)

			if err := writeFile(annotatedPath, func(out io.Writer) error {
				return clean.WriteAnnotated(out, annotated)
			}); err != nil {
				return err
			}
			if err := writeFile(quotesPath, func(out io.Writer) error {
				return clean.WriteQuotes(out, quotes)
			}); err != nil {
				return err
			}

			ctx.logger().Info("cleaned records", "records", len(rs), "quotes", len(quotes))
			fmt.Fprintf(cmd.OutOrStdout(), "Annotated %d records (%s), %d unique quotes (%s)\n",
				len(annotated), annotatedPath, len(quotes), quotesPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&annotatedPath, "annotated", "", "Annotated TSV output path (default from config)")
	cmd.Flags().StringVar(&quotesPath, "quotes", "", "Quotes-only TSV output path (default from config)")
	return cmd
}
