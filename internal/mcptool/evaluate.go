// Package mcptool exposes supplier evaluation to MCP clients.
package mcptool

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/id"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/store"
)

// MetadataEvaluateSupplier describes the evaluate_supplier tool.
var MetadataEvaluateSupplier = &mcp.Tool{
	Name: "evaluate_supplier",
	Description: "Run a full supplier risk evaluation: document analysis, policy questions against the " +
		"compliance knowledge base, registry, news, sanctions and watchlist checks, then a final " +
		"Low/Medium/High risk decision with confidence. Stage failures are reported in errors and " +
		"lower confidence rather than failing the call.",
}

// MetadataGetEvaluation describes the get_evaluation tool.
var MetadataGetEvaluation = &mcp.Tool{
	Name:        "get_evaluation",
	Description: "Fetch a previously stored supplier evaluation by its ID.",
}

// InputEvaluateSupplier is the input for the evaluate_supplier tool.
type InputEvaluateSupplier struct {
	Name               string   `json:"name" jsonschema:"legal name of the supplier"`
	Country            string   `json:"country" jsonschema:"country of registration, e.g. UK, UAE, US"`
	BusinessContext    string   `json:"business_context,omitempty" jsonschema:"what the supplier will provide"`
	DocumentPaths      []string `json:"document_paths,omitempty" jsonschema:"paths of supplier documents readable by the server"`
	RegistrationNumber string   `json:"registration_number,omitempty" jsonschema:"company registration number, enables registry and watchlist checks"`
	OwnerNames         []string `json:"owner_names,omitempty" jsonschema:"beneficial owners to screen against sanctions lists"`
}

// InputGetEvaluation is the input for the get_evaluation tool.
type InputGetEvaluation struct {
	ID string `json:"id" jsonschema:"evaluation ID returned by evaluate_supplier"`
}

// OutputEvaluation is the decision digest returned by both tools.
type OutputEvaluation struct {
	EvaluationID       string   `json:"evaluation_id"`
	Summary            string   `json:"summary"`
	WorkflowStatus     string   `json:"workflow_status"`
	RiskLevel          string   `json:"risk_level"`
	ConfidenceScore    float64  `json:"confidence_score"`
	DecisionSummary    string   `json:"decision_summary"`
	PositiveFactors    []string `json:"positive_factors"`
	NegativeFactors    []string `json:"negative_factors"`
	RecommendedActions []string `json:"recommended_actions"`
	OverrideReasons    []string `json:"override_reasons"`
	Errors             []string `json:"errors"`
}

// Evaluator runs one evaluation to completion.
type Evaluator interface {
	EvaluateWithID(ctx context.Context, evaluationID int64, supplier model.SupplierIdentity) *model.EvaluationState
}

type Tools struct {
	evaluator   Evaluator
	evaluations store.EvaluationStore
}

// NewTools wires the handlers. evaluations may be nil, in which case results
// are not persisted and get_evaluation is not registered.
func NewTools(evaluator Evaluator, evaluations store.EvaluationStore) *Tools {
	return &Tools{evaluator: evaluator, evaluations: evaluations}
}

// EvaluateSupplier runs the pipeline for one supplier.
func (t *Tools) EvaluateSupplier(ctx context.Context, _ *mcp.CallToolRequest, input InputEvaluateSupplier) (*mcp.CallToolResult, OutputEvaluation, error) {
	supplier := model.SupplierIdentity{
		Name:               input.Name,
		Country:            input.Country,
		BusinessContext:    input.BusinessContext,
		DocumentPaths:      nonNil(input.DocumentPaths),
		RegistrationNumber: input.RegistrationNumber,
		OwnerNames:         nonNil(input.OwnerNames),
	}
	if err := supplier.Validate(); err != nil {
		return nil, OutputEvaluation{}, err
	}

	state := t.evaluator.EvaluateWithID(ctx, id.New(), supplier)
	if t.evaluations != nil {
		if err := t.evaluations.Save(ctx, state); err != nil {
			slog.ErrorContext(ctx, "failed to save evaluation", "error", err, "evaluation_id", state.ID)
		}
	}

	return nil, toOutput(state), nil
}

// GetEvaluation loads a stored report.
func (t *Tools) GetEvaluation(ctx context.Context, _ *mcp.CallToolRequest, input InputGetEvaluation) (*mcp.CallToolResult, OutputEvaluation, error) {
	if t.evaluations == nil {
		return nil, OutputEvaluation{}, fmt.Errorf("evaluation history is not configured")
	}

	evaluationID, err := id.Parse(input.ID)
	if err != nil {
		return nil, OutputEvaluation{}, fmt.Errorf("invalid evaluation id %q", input.ID)
	}

	record, err := t.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		return nil, OutputEvaluation{}, fmt.Errorf("get evaluation %d: %w", evaluationID, err)
	}
	if record.Report == nil {
		return nil, OutputEvaluation{}, fmt.Errorf("evaluation %d has no report", evaluationID)
	}

	return nil, toOutput(record.Report), nil
}

func toOutput(state *model.EvaluationState) OutputEvaluation {
	errs := make([]string, 0, len(state.Errors))
	for _, e := range state.Errors {
		errs = append(errs, fmt.Sprintf("%s: %s", e.Stage, e.Message))
	}

	d := state.FinalDecision
	return OutputEvaluation{
		EvaluationID:       strconv.FormatInt(state.ID, 10),
		Summary:            state.Summary(),
		WorkflowStatus:     string(state.WorkflowStatus),
		RiskLevel:          string(d.RiskLevel),
		ConfidenceScore:    d.ConfidenceScore,
		DecisionSummary:    d.DecisionSummary,
		PositiveFactors:    nonNil(d.PositiveFactors),
		NegativeFactors:    nonNil(d.NegativeFactors),
		RecommendedActions: nonNil(d.RecommendedActions),
		OverrideReasons:    nonNil(d.OverrideReasons),
		Errors:             errs,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
