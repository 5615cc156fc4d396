// Command gateway runs the policy-enforcement gateway: PII/secret
// detection, prompt-injection detection, rule evaluation, and the atomic
// conversation-append protocol, fronted by a management API.
//
// Subcommands:
//
//	gateway serve        run the management HTTP server
//	gateway scan TEXT     run one ad-hoc scan and print the decision as JSON
//	gateway seed-rules    (re-)load the global rule seed file
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gateway/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "gateway",
		Short: "Policy-enforcement gateway for LLM chat messages",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a gateway-config.json (defaults + env still apply)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newScanCmd(&configPath))
	root.AddCommand(newSeedRulesCmd(&configPath))
	return root
}

func loadConfig(path string) *config.Config {
	cfg := config.Load()
	if path != "" {
		// config.Load already reads gateway-config.json from the working
		// directory; an explicit --config path overrides via the same
		// JSON-merge behavior by pointing loadFile at it.
		config.LoadFrom(cfg, path)
	}
	return cfg
}
