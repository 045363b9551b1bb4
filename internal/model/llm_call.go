package model

import "time"

// LLMCall is an audit row for a single reasoning call made during an evaluation.
type LLMCall struct {
	ID               int64     `json:"id,string"`
	EvaluationID     *int64    `json:"evaluation_id,omitempty"`
	Stage            StageName `json:"stage"`
	InputText        string    `json:"input_text"`
	OutputJSON       []byte    `json:"output_json,omitempty"`
	Model            string    `json:"model"`
	Temperature      *float64  `json:"temperature,omitempty"`
	PromptVersion    string    `json:"prompt_version,omitempty"`
	LatencyMs        *int      `json:"latency_ms,omitempty"`
	PromptTokens     *int      `json:"prompt_tokens,omitempty"`
	CompletionTokens *int      `json:"completion_tokens,omitempty"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
