package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pale/internal/pipeline"
	"github.com/dgallion1/pale/internal/records"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var champions []string
	var xlsxPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "parse [path]",
		Short: "Fetch champion audio pages and write their voice lines as TSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger()
			path := argOr(args, 0, cfg.OutputPath)

			c := ctx.newCache(cfg)
			defer c.Close()
			w := pipeline.NewWorker(c, cfg.PageURL, log)

			list, err := championKeys(champions)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				if list, err = championKeys(cfg.Champions); err != nil {
					return err
				}
			}
			if len(list) == 0 {
				if list, err = w.Champions(cmd.Context(), cfg.IndexURL); err != nil {
					return err
				}
			}
			if workers <= 0 {
				workers = cfg.Workers
			}

			results, err := w.RunAll(cmd.Context(), list, workers)
			if err != nil {
				return err
			}
			recs := pipeline.Records(results)

			if err := writeFile(path, func(out io.Writer) error {
				return records.WriteAll(out, recs)
			}); err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := os.MkdirAll(filepath.Dir(xlsxPath), 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
				if err := records.WriteXLSX(xlsxPath, recs); err != nil {
					return err
				}
			}

			log.Info("wrote records", "path", path, "records", len(recs), "champions", len(list))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records for %d champions to %s\n", len(recs), len(list), path)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&champions, "champion", nil, "Champion to parse (repeatable); defaults to config or the index page")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the records to this spreadsheet")
	cmd.Flags().IntVar(&workers, "workers", 0, "Pages processed in parallel (default from config)")
	return cmd
}
