// Package brain implements the five evaluation stages. Each stage owns one
// field of the evaluation state and degrades to a well-formed fallback
// instead of failing the run.
package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/id"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/llm"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/store"
)

// Reasoning calls retry transient provider errors with 1s, 2s backoff.
const reasoningAttempts = 3

type reasoningCall struct {
	stage         model.StageName
	schemaName    string
	schema        any
	systemPrompt  string
	userPrompt    string
	temperature   float64
	promptVersion string
}

// reason runs one structured call and records it in the call audit log when
// calls is non-nil. The evaluation ID comes from the context log fields.
func reason(ctx context.Context, client llm.Client, calls store.LLMCallStore, c reasoningCall, out any) error {
	start := time.Now()
	resp, err := llm.ChatWithRetry(ctx, client, llm.Request{
		SystemPrompt: c.systemPrompt,
		UserPrompt:   c.userPrompt,
		SchemaName:   c.schemaName,
		Schema:       c.schema,
		Temperature:  llm.Temp(c.temperature),
	}, out, reasoningAttempts)
	latency := time.Since(start)

	logCall(ctx, client, calls, c, out, resp, latency, err)

	if err != nil {
		return fmt.Errorf("%s reasoning: %w", c.stage, err)
	}

	attrs := []any{
		"stage", c.stage,
		"schema", c.schemaName,
		"latency_ms", latency.Milliseconds(),
	}
	if resp != nil {
		attrs = append(attrs, "prompt_tokens", resp.PromptTokens, "completion_tokens", resp.CompletionTokens)
	}
	slog.DebugContext(ctx, "reasoning call completed", attrs...)
	return nil
}

func logCall(ctx context.Context, client llm.Client, calls store.LLMCallStore, c reasoningCall, out any, resp *llm.Response, latency time.Duration, callErr error) {
	if calls == nil {
		return
	}

	entry := &model.LLMCall{
		ID:            id.New(),
		EvaluationID:  logger.GetLogFields(ctx).EvaluationID,
		Stage:         c.stage,
		InputText:     c.userPrompt,
		Model:         client.Model(),
		Temperature:   llm.Temp(c.temperature),
		PromptVersion: c.promptVersion,
		LatencyMs:     intPtr(int(latency.Milliseconds())),
	}

	if callErr != nil {
		entry.Error = callErr.Error()
	} else if output, err := json.Marshal(out); err == nil {
		entry.OutputJSON = output
	} else {
		slog.ErrorContext(ctx, "failed to marshal reasoning output for audit", "error", err, "stage", c.stage)
	}

	if resp != nil {
		entry.PromptTokens = intPtr(resp.PromptTokens)
		entry.CompletionTokens = intPtr(resp.CompletionTokens)
	}

	if _, err := calls.Create(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to record llm call", "error", err, "stage", c.stage)
	}
}

func intPtr(i int) *int { return &i }
