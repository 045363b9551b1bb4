package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/llm"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/store"
)

const (
	decisionPromptVersion = "v1"
	decisionTemperature   = 0.3

	// MaxConfidenceWithErrors caps confidence when an upstream stage failed
	// or an external check could not complete.
	MaxConfidenceWithErrors = 0.49
)

type EvidenceTrail struct {
	Planner  string `json:"planner" jsonschema_description:"One line on what the plan contributed"`
	Document string `json:"document" jsonschema_description:"One line on what the documents showed"`
	Policy   string `json:"policy" jsonschema_description:"One line on what the policy answers showed"`
	External string `json:"external" jsonschema_description:"One line on what registry, news, sanctions and watchlists showed"`
}

type DecisionResponse struct {
	RiskLevel          string        `json:"risk_level" jsonschema:"enum=Low,enum=Medium,enum=High"`
	ConfidenceScore    float64       `json:"confidence_score" jsonschema_description:"0.0-1.0. High only when data is complete and sources agree"`
	Reasoning          string        `json:"reasoning"`
	PositiveFactors    []string      `json:"positive_factors" jsonschema_description:"Every point in the supplier's favour"`
	NegativeFactors    []string      `json:"negative_factors" jsonschema_description:"Every concern, even if the verdict is Low"`
	RecommendedActions []string      `json:"recommended_actions" jsonschema_description:"Concrete next steps, most important first"`
	DecisionSummary    string        `json:"decision_summary" jsonschema_description:"Two sentences for an executive"`
	EvidenceTrail      EvidenceTrail `json:"evidence_trail"`
}

var decisionSchema = llm.GenerateSchema[DecisionResponse]()

// DecisionMaker produces the final verdict and enforces the override policy.
type DecisionMaker struct {
	llm   llm.Client
	calls store.LLMCallStore
	now   func() time.Time
}

func NewDecisionMaker(client llm.Client, calls store.LLMCallStore) *DecisionMaker {
	return &DecisionMaker{llm: client, calls: calls, now: time.Now}
}

// Decide returns a normalized decision. When no decision can be produced it
// returns the safe default, with overrides applied, together with the cause.
func (d *DecisionMaker) Decide(ctx context.Context, state model.EvaluationState) (model.FinalDecision, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "supplierrisk.brain.decision"})

	prompt, err := buildDecisionPrompt(state)
	if err != nil {
		return SafeDecision(state, err, d.now()), err
	}

	var resp DecisionResponse
	err = reason(ctx, d.llm, d.calls, reasoningCall{
		stage:         model.StageDecision,
		schemaName:    "final_decision",
		schema:        decisionSchema,
		systemPrompt:  decisionSystemPrompt,
		userPrompt:    prompt,
		temperature:   decisionTemperature,
		promptVersion: decisionPromptVersion,
	}, &resp)
	if err != nil {
		slog.ErrorContext(ctx, "decision reasoning failed, using safe default", "error", err)
		return SafeDecision(state, err, d.now()), err
	}

	decision := normalizeDecision(ctx, resp, state, d.now())
	if triggers := ApplyOverrides(&decision, state); len(triggers) > 0 {
		slog.InfoContext(ctx, "risk level overridden", "triggers", triggers)
	}

	slog.InfoContext(ctx, "decision made",
		"risk_level", decision.RiskLevel,
		"confidence", decision.ConfidenceScore,
		"negative_factors", len(decision.NegativeFactors),
		"positive_factors", len(decision.PositiveFactors))

	return decision, nil
}

// SafeDecision is the fallback verdict: High, zero confidence, with the
// override policy still applied so its factors stay deterministic.
func SafeDecision(state model.EvaluationState, cause error, now time.Time) model.FinalDecision {
	decision := model.SafeDefaultDecision(state.Supplier.Name, cause, now)
	ApplyOverrides(&decision, state)
	return decision
}

func normalizeDecision(ctx context.Context, resp DecisionResponse, state model.EvaluationState, now time.Time) model.FinalDecision {
	decision := model.EmptyFinalDecision()

	level, ok := model.ParseRiskLevel(resp.RiskLevel)
	if !ok {
		slog.WarnContext(ctx, "unknown risk level from reasoning, using High", "risk_level", resp.RiskLevel)
		level = model.RiskHigh
	}
	decision.RiskLevel = level

	decision.ConfidenceScore = model.Clamp01(resp.ConfidenceScore)
	if state.ChecksIncomplete() {
		decision.ConfidenceScore = min(decision.ConfidenceScore, MaxConfidenceWithErrors)
	}

	decision.Reasoning = strings.TrimSpace(resp.Reasoning)
	decision.PositiveFactors = cleanList(resp.PositiveFactors)
	decision.NegativeFactors = cleanList(resp.NegativeFactors)
	decision.RecommendedActions = cleanList(resp.RecommendedActions)
	decision.DecisionSummary = strings.TrimSpace(resp.DecisionSummary)
	decision.SupplierName = state.Supplier.Name
	decision.EvaluatedAt = now

	trail := map[model.StageName]string{
		model.StagePlanner:  resp.EvidenceTrail.Planner,
		model.StageDocument: resp.EvidenceTrail.Document,
		model.StagePolicy:   resp.EvidenceTrail.Policy,
		model.StageExternal: resp.EvidenceTrail.External,
	}
	for stage, line := range trail {
		if line = strings.TrimSpace(line); line == "" {
			line = DerivedEvidence(stage, state)
		}
		decision.EvidenceTrail[string(stage)] = line
	}
	return decision
}

// DerivedEvidence is a one-line account of a stage's output, used when the
// reasoning call leaves an evidence trail entry empty.
func DerivedEvidence(stage model.StageName, state model.EvaluationState) string {
	switch stage {
	case model.StagePlanner:
		return fmt.Sprintf("Planned %d evaluation task(s)", len(state.EvaluationPlan.Tasks))
	case model.StageDocument:
		da := state.DocumentAnalysis
		if da.Error != "" {
			return "Document analysis failed: " + da.Error
		}
		return fmt.Sprintf("Reviewed %d document(s), confidence %.2f, %d inconsistency(ies)",
			len(da.DocumentSummaries), da.ConfidenceScore, len(da.Inconsistencies))
	case model.StagePolicy:
		return fmt.Sprintf("Answered %d policy question(s)", len(state.RAGAnswers.Answers))
	case model.StageExternal:
		ext := state.ExternalIntelligence
		line := fmt.Sprintf("Checked %d data source(s), found %d risk signal(s)", len(ext.DataSources), len(ext.RiskSignals))
		if incomplete := ext.IncompleteChecks(); len(incomplete) > 0 {
			line += "; incomplete: " + strings.Join(incomplete, ", ")
		}
		return line
	default:
		return ""
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type decisionInput struct {
	Supplier             model.SupplierIdentity     `json:"supplier"`
	EvaluationPlan       model.EvaluationPlan       `json:"evaluation_plan"`
	DocumentAnalysis     model.DocumentAnalysis     `json:"document_analysis"`
	RAGAnswers           model.RAGAnswers           `json:"rag_answers"`
	ExternalIntelligence model.ExternalIntelligence `json:"external_intelligence"`
	Errors               []model.StageError         `json:"errors"`
}

func buildDecisionPrompt(state model.EvaluationState) (string, error) {
	raw, err := json.MarshalIndent(decisionInput{
		Supplier:             state.Supplier,
		EvaluationPlan:       state.EvaluationPlan,
		DocumentAnalysis:     state.DocumentAnalysis,
		RAGAnswers:           state.RAGAnswers,
		ExternalIntelligence: state.ExternalIntelligence,
		Errors:               state.Errors,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode decision input: %w", err)
	}
	return "## Evaluation so far\n```json\n" + string(raw) + "\n```\n", nil
}

const decisionSystemPrompt = `You are the final reviewer in a supplier risk evaluation.

Weigh everything gathered so far and give one verdict: Low, Medium or High risk.

## Confidence

- High (0.8+) only when data is complete and several sources agree
- Low when data is sparse, sources conflict, or any stage reported an error

## Factors

- List every positive and every negative factor, whatever the verdict. Never hide contrary evidence
- Recommended actions are concrete and ordered by priority

## Always High

- Company or any owner blocked on a sanctions list
- Evidence of fraud or criminal activity
- Registry status inactive, dissolved, in liquidation or struck off
- Two or more major compliance violations

## Evidence trail

One line per stage (planner, document, policy, external) saying what it contributed.`
