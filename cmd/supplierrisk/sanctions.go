package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/sanctions"
)

func newSanctionsCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanctions",
		Short: "Sanctions list data",
	}

	var dir string
	combine := &cobra.Command{
		Use:   "combine",
		Short: "Parse the EU, OFAC and UN source files and write the combined snapshot",
		Long: "Loading prefers the combined snapshot, so delete it before combining " +
			"freshly downloaded source files.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = state.cfg.Sanctions.DataDir
			}

			lists, err := sanctions.LoadDir(dir)
			if err != nil {
				return err
			}
			if err := sanctions.SaveCombined(dir, lists); err != nil {
				return err
			}

			entities, individuals := sanctions.NewMatcher(lists).Size()
			fmt.Fprintf(cmd.OutOrStdout(), "%d entities, %d individuals written to %s\n", entities, individuals, dir)
			return nil
		},
	}
	combine.Flags().StringVar(&dir, "dir", "", "sanctions data directory (default SANCTIONS_DATA_DIR)")

	cmd.AddCommand(combine)
	return cmd
}
