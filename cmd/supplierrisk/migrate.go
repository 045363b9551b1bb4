package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/app"
)

func newMigrateCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			infra, err := app.Connect(ctx, state.cfg, false)
			if err != nil {
				return err
			}
			defer infra.Close()

			if err := infra.DB.Migrate(ctx); err != nil {
				return err
			}
			slog.InfoContext(ctx, "migrations applied")
			return nil
		},
	}
}
