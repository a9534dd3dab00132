package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pale/internal/api"
	"github.com/dgallion1/pale/internal/pipeline"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			log := ctx.logger()

			c := ctx.newCache(cfg)
			defer c.Close()

			orch := pipeline.NewOrchestrator(cfg, pipeline.NewWorker(c, cfg.PageURL, log), log)
			orch.Start(cmd.Context())

			httpServer := &http.Server{
				Addr:         cfg.ListenAddr,
				Handler:      api.NewServer(orch, c.Stats, log, cfg),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: cfg.FetchTimeoutDuration() + 30*time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			errCh := make(chan error, 1)
			go func() {
				log.Info("starting pale", "addr", cfg.ListenAddr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				orch.Stop()
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			log.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err = httpServer.Shutdown(shutdownCtx)
			orch.Stop()
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
