package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newScanCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [text]",
		Short: "Run one ad-hoc scan and print the decision as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*configPath)
			comps, err := buildComponents(cfg)
			if err != nil {
				return fmt.Errorf("build components: %w", err)
			}
			if cfg.RulesSeedPath != "" {
				if _, err := comps.seeder.SeedGlobal(cmd.Context(), cfg.RulesSeedPath); err != nil {
					return fmt.Errorf("seed rules: %w", err)
				}
			}

			result, err := comps.engine.Scan(cmd.Context(), args[0], nil)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
