package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedRulesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-rules",
		Short: "(Re-)load the global rule seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*configPath)
			comps, err := buildComponents(cfg)
			if err != nil {
				return fmt.Errorf("build components: %w", err)
			}
			n, err := comps.seeder.SeedGlobal(cmd.Context(), cfg.RulesSeedPath)
			if err != nil {
				return fmt.Errorf("seed rules: %w", err)
			}
			fmt.Printf("seeded %d rules from %s\n", n, cfg.RulesSeedPath)
			return nil
		},
	}
}
