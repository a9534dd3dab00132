package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pale/internal/records"
	"github.com/dgallion1/pale/internal/sound"
)

func newPullSoundCommand(ctx *commandContext) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:     "pull_sound [path] [output]",
		Aliases: []string{"pull-sound"},
		Short:   "Download the audio clip behind every record",
		Args:    cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger()
			output := argOr(args, 1, cfg.SoundDir)
			if workers <= 0 {
				workers = cfg.DownloadWorkers
			}

			rs, err := readRecords(argOr(args, 0, cfg.OutputPath))
			if err != nil {
				return err
			}
			rs, dropped := records.Filter(rs)
			if dropped > 0 {
				log.Warn("skipping records without a usable source", "dropped", dropped)
			}

			assets := sound.Plan(rs, output)
			c := ctx.newCache(cfg)
			defer c.Close()

			sum, err := sound.Pull(cmd.Context(), assets, c, workers, log)
			if err != nil {
				return err
			}
			log.Info("pulled sounds", "output", output, "downloaded", sum.Downloaded, "skipped", sum.Skipped, "failed", sum.Failed)
			fmt.Fprintf(cmd.OutOrStdout(), "%d downloaded, %d already present, %d failed (%s)\n",
				sum.Downloaded, sum.Skipped, sum.Failed, output)
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent downloads (default from config)")
	return cmd
}
