package brain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/llm"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/store"
)

const (
	plannerPromptVersion = "v1"
	// The only stage allowed some creativity in what it proposes.
	plannerTemperature = 0.7
)

const fallbackPlanReasoning = "Generic evaluation plan (reasoning call failed)"

type PlanResponse struct {
	Tasks     []string `json:"tasks" jsonschema_description:"5 to 8 short, actionable evaluation tasks in execution order"`
	Reasoning string   `json:"reasoning" jsonschema_description:"Why these tasks matter for this supplier"`
}

var planSchema = llm.GenerateSchema[PlanResponse]()

// Planner drafts the task list that the later stages key off.
type Planner struct {
	llm   llm.Client
	calls store.LLMCallStore
}

func NewPlanner(client llm.Client, calls store.LLMCallStore) *Planner {
	return &Planner{llm: client, calls: calls}
}

// Plan always returns a usable plan. When the reasoning call fails or its
// output is out of bounds, the fixed fallback plan is returned together
// with the cause.
func (p *Planner) Plan(ctx context.Context, supplier model.SupplierIdentity) (model.EvaluationPlan, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "supplierrisk.brain.planner"})

	var resp PlanResponse
	err := reason(ctx, p.llm, p.calls, reasoningCall{
		stage:         model.StagePlanner,
		schemaName:    "evaluation_plan",
		schema:        planSchema,
		systemPrompt:  plannerSystemPrompt,
		userPrompt:    buildPlannerPrompt(supplier),
		temperature:   plannerTemperature,
		promptVersion: plannerPromptVersion,
	}, &resp)
	if err != nil {
		slog.WarnContext(ctx, "planner falling back to generic plan", "error", err)
		return FallbackPlan(supplier), err
	}

	plan := model.EvaluationPlan{Tasks: resp.Tasks, Reasoning: strings.TrimSpace(resp.Reasoning)}
	if err := plan.Validate(); err != nil {
		slog.WarnContext(ctx, "planner output rejected", "error", err, "task_count", len(resp.Tasks))
		return FallbackPlan(supplier), err
	}

	slog.InfoContext(ctx, "evaluation plan created", "task_count", len(plan.Tasks))
	return plan, nil
}

// FallbackPlan is the fixed seven-task plan used whenever planning fails.
func FallbackPlan(supplier model.SupplierIdentity) model.EvaluationPlan {
	return model.EvaluationPlan{
		Tasks: []string{
			fmt.Sprintf("Verify company registration status for %s in %s", supplier.Name, supplier.Country),
			"Extract key information from supplier documents",
			"Check export compliance requirements and licences",
			"Search for recent news and media coverage",
			"Check international sanctions and watchlists",
			"Assess financial health indicators",
			"Identify red flags and data inconsistencies",
		},
		Reasoning: fallbackPlanReasoning,
	}
}

func buildPlannerPrompt(s model.SupplierIdentity) string {
	var sb strings.Builder
	sb.WriteString("## Supplier\n")
	fmt.Fprintf(&sb, "Name: %s\n", s.Name)
	fmt.Fprintf(&sb, "Country: %s\n", s.Country)
	if s.HasRegistrationNumber() {
		fmt.Fprintf(&sb, "Registration number: %s\n", s.RegistrationNumber)
	}
	if bc := strings.TrimSpace(s.BusinessContext); bc != "" {
		sb.WriteString("\n## Business context\n")
		sb.WriteString(bc)
		sb.WriteString("\n")
	}
	if len(s.DocumentPaths) > 0 {
		fmt.Fprintf(&sb, "\n%d supporting document(s) supplied.\n", len(s.DocumentPaths))
	}
	return sb.String()
}

const plannerSystemPrompt = `You plan supplier risk evaluations for a procurement compliance team.

Given a supplier, list the checks an analyst should run, most important first.

## Cover

- Company registration and legal status
- Document extraction and cross-checking
- Export compliance, licences and regulations that apply to the business
- Recent news and reputation
- Sanctions lists and risk watchlists
- Financial health
- Red flags and inconsistencies

## Rules

- Between 5 and 8 tasks
- Each task is one short imperative sentence
- Name the supplier or country where it makes the task concrete
- Use words like "export", "licence", "compliance", "regulation" or "due diligence" when a task concerns them`
