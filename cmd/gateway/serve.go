package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gateway/internal/management"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the management HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*configPath)
			comps, err := buildComponents(cfg)
			if err != nil {
				return fmt.Errorf("build components: %w", err)
			}

			if cfg.RulesSeedPath != "" {
				n, err := comps.seeder.SeedGlobal(cmd.Context(), cfg.RulesSeedPath)
				if err != nil {
					return fmt.Errorf("seed rules: %w", err)
				}
				comps.log.Infof("startup", "seeded %d global rules from %s", n, cfg.RulesSeedPath)
			}

			mgmt := management.New(cfg, comps.metrics, comps.seeder)
			errc := make(chan error, 1)
			go func() { errc <- mgmt.ListenAndServe() }()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errc:
				return err
			case <-quit:
				comps.log.Info("shutdown", "received shutdown signal, exiting")
				return nil
			}
		},
	}
}
