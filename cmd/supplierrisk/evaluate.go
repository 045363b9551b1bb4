package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/app"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

func newEvaluateCmd(state *cliState) *cobra.Command {
	var (
		supplier model.SupplierIdentity
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one supplier evaluation and print the report as JSON",
		Example: `  supplierrisk evaluate --name "Acme Ltd" --country UK --registration-number 01234567 \
    --owner "Jane Doe" --document ./docs/acme-financials.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := supplier.Validate(); err != nil {
				return err
			}
			if supplier.DocumentPaths == nil {
				supplier.DocumentPaths = []string{}
			}
			if supplier.OwnerNames == nil {
				supplier.OwnerNames = []string{}
			}

			infra, err := app.Connect(ctx, state.cfg, false)
			if err != nil {
				return err
			}
			defer infra.Close()

			p, err := app.NewPipeline(ctx, state.cfg, infra)
			if err != nil {
				return err
			}

			result := p.Evaluate(ctx, supplier)
			slog.InfoContext(ctx, result.Summary())

			if save {
				if err := infra.Stores().Evaluations().Save(ctx, result); err != nil {
					return fmt.Errorf("save evaluation: %w", err)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&supplier.Name, "name", "", "supplier legal name")
	f.StringVar(&supplier.Country, "country", "", "country of registration")
	f.StringVar(&supplier.BusinessContext, "context", "", "what the supplier will provide")
	f.StringVar(&supplier.RegistrationNumber, "registration-number", "", "company registration number")
	f.StringSliceVar(&supplier.OwnerNames, "owner", nil, "beneficial owner name (repeatable)")
	f.StringSliceVar(&supplier.DocumentPaths, "document", nil, "supplier document path (repeatable)")
	f.BoolVar(&save, "save", false, "store the report in the evaluations table")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("country")

	return cmd
}
