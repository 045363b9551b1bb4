package main

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/app"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/mcptool"
)

func newMCPCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the evaluate_supplier and get_evaluation tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			infra, err := app.Connect(ctx, state.cfg, false)
			if err != nil {
				return err
			}
			defer infra.Close()

			p, err := app.NewPipeline(ctx, state.cfg, infra)
			if err != nil {
				return err
			}

			server := mcptool.NewServer(version, mcptool.NewTools(p, infra.Stores().Evaluations()))
			slog.InfoContext(ctx, "mcp server listening on stdio")
			return server.Run(ctx, &mcp.StdioTransport{})
		},
	})

	return cmd
}
