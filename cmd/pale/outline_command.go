package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pale/internal/parser"
	"github.com/dgallion1/pale/internal/pipeline"
	"github.com/dgallion1/pale/internal/records"
)

func newOutlineCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "outline <champion>",
		Short: "Show the section tree of a champion page and its unassigned clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			champion, ok := parser.ChampionKey(args[0])
			if !ok {
				return fmt.Errorf("invalid champion name %q", args[0])
			}

			c := ctx.newCache(cfg)
			defer c.Close()
			w := pipeline.NewWorker(c, cfg.PageURL, ctx.logger())
			res, err := w.Process(cmd.Context(), pipeline.NewJob(champion))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isTerminal(out) {
				return printOutlineTable(out, res)
			}
			return printOutlineTSV(out, res)
		},
	}
}

func outlineRows(res *pipeline.Result) [][]string {
	rows := res.Outline.Rows()
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{records.Normalize(r.Header), records.Normalize(r.Subheader), strconv.Itoa(r.Clips)})
	}
	return out
}

func printOutlineTable(out io.Writer, res *pipeline.Result) error {
	fmt.Fprintln(out, res.Title)
	fmt.Fprintln(out, renderTable(
		[]string{"Header", "Subheader", "Clips"},
		outlineRows(res),
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	))
	if len(res.Outline.Orphans) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(res.Outline.Orphans))
	for _, n := range res.Outline.Orphans {
		rows = append(rows, []string{records.Normalize(n.Text), n.Payload})
	}
	fmt.Fprintf(out, "\n%d unassigned clips\n", len(rows))
	fmt.Fprintln(out, renderTable([]string{"Text", "Source"}, rows, nil))
	return nil
}

func printOutlineTSV(out io.Writer, res *pipeline.Result) error {
	cw := csv.NewWriter(out)
	cw.Comma = '\t'
	if err := cw.Write([]string{"header", "subheader", "clips"}); err != nil {
		return err
	}
	if err := cw.WriteAll(outlineRows(res)); err != nil {
		return err
	}
	for _, n := range res.Outline.Orphans {
		if err := cw.Write([]string{"(unassigned)", records.Normalize(n.Text), "0"}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
