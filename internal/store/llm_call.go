package store

import (
	"context"
	"fmt"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/core/db"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

type llmCallStore struct {
	conn db.DBTX
}

func newLLMCallStore(conn db.DBTX) LLMCallStore {
	return &llmCallStore{conn: conn}
}

func (s *llmCallStore) Create(ctx context.Context, call *model.LLMCall) (*model.LLMCall, error) {
	var output []byte
	if len(call.OutputJSON) > 0 {
		output = call.OutputJSON
	}
	var callErr *string
	if call.Error != "" {
		callErr = &call.Error
	}
	var promptVersion *string
	if call.PromptVersion != "" {
		promptVersion = &call.PromptVersion
	}

	err := s.conn.QueryRow(ctx, `
		INSERT INTO llm_calls (id, evaluation_id, stage, input_text, output_json, model, temperature,
			prompt_version, latency_ms, prompt_tokens, completion_tokens, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`,
		call.ID,
		call.EvaluationID,
		string(call.Stage),
		call.InputText,
		output,
		call.Model,
		call.Temperature,
		promptVersion,
		call.LatencyMs,
		call.PromptTokens,
		call.CompletionTokens,
		callErr,
	).Scan(&call.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert llm call: %w", err)
	}
	return call, nil
}

func (s *llmCallStore) ListByEvaluation(ctx context.Context, evaluationID int64) ([]model.LLMCall, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, evaluation_id, stage, input_text, output_json, model, temperature,
			coalesce(prompt_version, ''), latency_ms, prompt_tokens, completion_tokens,
			coalesce(error, ''), created_at
		FROM llm_calls
		WHERE evaluation_id = $1
		ORDER BY id`, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("list llm calls: %w", err)
	}
	defer rows.Close()

	var out []model.LLMCall
	for rows.Next() {
		var (
			c     model.LLMCall
			stage string
		)
		if err := rows.Scan(
			&c.ID,
			&c.EvaluationID,
			&stage,
			&c.InputText,
			&c.OutputJSON,
			&c.Model,
			&c.Temperature,
			&c.PromptVersion,
			&c.LatencyMs,
			&c.PromptTokens,
			&c.CompletionTokens,
			&c.Error,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan llm call: %w", err)
		}
		c.Stage = model.StageName(stage)
		out = append(out, c)
	}
	return out, rows.Err()
}
