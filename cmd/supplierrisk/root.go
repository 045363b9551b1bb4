package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/id"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/core/config"
)

var version = "dev"

// cliState is filled in by the root PersistentPreRunE.
type cliState struct {
	debug bool
	cfg   config.Config
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:          "supplierrisk",
		Short:        "Supplier risk evaluation tooling",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// stdout is reserved for command output and the MCP protocol
			logger.SetupStderr(state.debug)

			cfg, err := config.Load(config.ServiceTypeCLI)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			state.cfg = cfg

			host, _ := os.Hostname()
			if err := id.Init(id.NodeFromName("cli-" + host)); err != nil {
				return fmt.Errorf("init id generator: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&state.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newEvaluateCmd(state),
		newKBCmd(state),
		newMCPCmd(state),
		newMigrateCmd(state),
		newSanctionsCmd(state),
	)
	return root
}
