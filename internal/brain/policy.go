package brain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/llm"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/store"
)

const (
	policyPromptVersion = "v1"
	policyTemperature   = 0.2

	DefaultPolicyTopK     = 5
	DefaultPolicyMinScore = 0.3

	// ConfidenceBoost scales mean passage similarity into answer confidence.
	// Tunable; the result is capped at 1.0.
	ConfidenceBoost = 1.2
)

type PolicyResponse struct {
	Answer         string   `json:"answer" jsonschema_description:"Answer using only the numbered sources, citing them as [Source N]. Say so plainly if they do not cover the question."`
	CitedSources   []int    `json:"cited_sources" jsonschema_description:"Source numbers the answer relies on"`
	Contradictions []string `json:"contradictions" jsonschema_description:"Points where sources disagree, empty if none"`
}

var policySchema = llm.GenerateSchema[PolicyResponse]()

type PolicyConfig struct {
	TopK     int
	MinScore float64
}

// PolicyAnswerer answers the plan's compliance questions from the policy
// knowledge base.
type PolicyAnswerer struct {
	llm       llm.Client
	calls     store.LLMCallStore
	retriever provider.PolicyRetriever
	topK      int
	minScore  float64
}

func NewPolicyAnswerer(client llm.Client, calls store.LLMCallStore, retriever provider.PolicyRetriever, cfg PolicyConfig) *PolicyAnswerer {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultPolicyTopK
	}
	if cfg.MinScore < 0 {
		cfg.MinScore = DefaultPolicyMinScore
	}
	return &PolicyAnswerer{
		llm:       client,
		calls:     calls,
		retriever: retriever,
		topK:      cfg.TopK,
		minScore:  cfg.MinScore,
	}
}

// Answer never fails as a whole: a question whose retrieval or reasoning
// fails carries the error on its own answer with confidence 0.
func (p *PolicyAnswerer) Answer(ctx context.Context, plan model.EvaluationPlan) (model.RAGAnswers, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "supplierrisk.brain.policy"})

	questions := DeriveQuestions(plan.Tasks)
	result := model.EmptyRAGAnswers("")
	if len(questions) == 0 {
		slog.InfoContext(ctx, "no policy questions apply to plan", "task_count", len(plan.Tasks))
		return result, nil
	}

	answers := make([]model.PolicyAnswer, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range questions {
		g.Go(func() error {
			answers[i] = p.answerOne(gctx, q)
			return nil
		})
	}
	_ = g.Wait()

	result.Questions = questions
	result.Answers = answers

	slog.InfoContext(ctx, "policy questions answered", "question_count", len(questions))
	return result, nil
}

func (p *PolicyAnswerer) answerOne(ctx context.Context, question string) model.PolicyAnswer {
	answer := model.PolicyAnswer{Question: question, Sources: []model.PolicySource{}}

	passages, err := p.retriever.Search(ctx, question, p.topK, p.minScore)
	if err != nil {
		slog.WarnContext(ctx, "policy retrieval failed", "question", question, "error", err)
		answer.Answer = "Knowledge base search failed"
		answer.Error = err.Error()
		return answer
	}

	answer.RetrievedChunks = len(passages)
	if len(passages) == 0 {
		answer.Answer = model.NoPolicyAnswer
		return answer
	}
	answer.Sources = dedupeSources(passages)

	var resp PolicyResponse
	err = reason(ctx, p.llm, p.calls, reasoningCall{
		stage:         model.StagePolicy,
		schemaName:    "policy_answer",
		schema:        policySchema,
		systemPrompt:  policySystemPrompt,
		userPrompt:    buildPolicyPrompt(question, passages),
		temperature:   policyTemperature,
		promptVersion: policyPromptVersion,
	}, &resp)
	if err != nil {
		answer.Answer = "Unable to answer from the knowledge base"
		answer.Error = err.Error()
		return answer
	}

	answer.Answer = strings.TrimSpace(resp.Answer)
	if len(resp.Contradictions) > 0 {
		answer.Answer += "\n\nSources disagree: " + strings.Join(resp.Contradictions, "; ")
	}
	answer.Confidence = PassageConfidence(passages)
	return answer
}

// PassageConfidence is min(mean(score) * ConfidenceBoost, 1).
func PassageConfidence(passages []provider.Passage) float64 {
	if len(passages) == 0 {
		return 0
	}
	var sum float64
	for _, p := range passages {
		sum += p.Score
	}
	return min(sum/float64(len(passages))*ConfidenceBoost, 1.0)
}

// dedupeSources keeps the first (highest ranked) passage per document page.
func dedupeSources(passages []provider.Passage) []model.PolicySource {
	type key struct {
		doc  string
		page int
	}
	seen := map[key]bool{}
	out := []model.PolicySource{}
	for _, p := range passages {
		k := key{p.Document, p.Page}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, model.PolicySource{Document: p.Document, Page: p.Page, Relevance: p.Score})
	}
	return out
}

func buildPolicyPrompt(question string, passages []provider.Passage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Question\n%s\n\n## Sources\n", question)
	for i, p := range passages {
		fmt.Fprintf(&sb, "[Source %d] %s, page %d (similarity %.2f)\n%s\n\n", i+1, p.Document, p.Page, p.Score, p.Text)
	}
	return sb.String()
}

const policySystemPrompt = `You answer compliance questions for a procurement team using ONLY the numbered sources provided.

## Rules

- Cite every claim as [Source N]
- If the sources do not cover the question, say that the knowledge base does not cover it. Do not answer from general knowledge
- If sources contradict each other, list each contradiction
- Keep the answer under 200 words`
