package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/app"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/policy"
)

func newKBCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage the compliance policy knowledge base",
	}
	cmd.AddCommand(newKBIngestCmd(state), newKBSearchCmd(state))
	return cmd
}

func newKBIngestCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file-or-dir>",
		Short: "Chunk, embed and store policy documents (.pdf, .txt, .md)",
		Long: "Each document replaces any chunks previously stored under the same file name, " +
			"so re-running ingest after editing a policy is safe.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := state.cfg

			embedder, err := app.NewEmbedder(cfg)
			if err != nil {
				return err
			}

			infra, err := app.Connect(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer infra.Close()

			if err := infra.DB.Migrate(ctx); err != nil {
				return err
			}

			ingestor := policy.NewIngestor(infra.DB, embedder, policy.IngestConfig{
				Table:        cfg.RAG.Table,
				ChunkTokens:  cfg.RAG.ChunkTokens,
				ChunkOverlap: cfg.RAG.ChunkOverlap,
			})

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			var results []policy.IngestResult
			if info.IsDir() {
				results, err = ingestor.IngestDir(ctx, args[0])
			} else {
				var res policy.IngestResult
				res, err = ingestor.IngestFile(ctx, args[0])
				results = append(results, res)
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d page(s)\t%d chunk(s)\n", r.Document, r.Pages, r.Chunks)
			}
			return err
		},
	}
}

func newKBSearchCmd(state *cliState) *cobra.Command {
	var (
		topK     int
		minScore float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the policy passages the Policy stage would retrieve for a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := state.cfg

			embedder, err := app.NewEmbedder(cfg)
			if err != nil {
				return err
			}

			infra, err := app.Connect(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer infra.Close()

			if !cmd.Flags().Changed("top-k") {
				topK = cfg.RAG.TopK
			}
			if !cmd.Flags().Changed("min-score") {
				minScore = cfg.RAG.MinScore
			}

			retriever := policy.NewRetriever(infra.DB.Conn(), embedder, cfg.RAG.Table)
			passages, err := retriever.Search(ctx, args[0], topK, minScore)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(passages) == 0 {
				fmt.Fprintln(out, "no passages above the score threshold")
				return nil
			}
			for n, p := range passages {
				fmt.Fprintf(out, "[Source %d] %s p.%d (score %.3f)\n%s\n\n", n+1, p.Document, p.Page, p.Score, p.Text)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 5, "maximum passages to return")
	cmd.Flags().Float64Var(&minScore, "min-score", 0.3, "minimum cosine similarity")
	return cmd
}
