package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiClient asks for application/json and carries the schema in the
// system instruction.
type geminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func newGeminiClient(ctx context.Context, cfg Config) (*geminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &geminiClient{client: client, model: model, maxTokens: cfg.MaxTokens}, nil
}

func (c *geminiClient) Chat(ctx context.Context, req Request, result any) (*Response, error) {
	system, err := geminiSystemInstruction(req)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		CandidateCount:    1,
		ResponseMIMEType:  "application/json",
		MaxOutputTokens:   int32(firstPositive(req.MaxTokens, c.maxTokens, 2000)),
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.UserPrompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini chat: %w", err)
	}

	out := &Response{}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	slog.DebugContext(ctx, "llm chat completed",
		"provider", ProviderGemini,
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", out.PromptTokens,
		"completion_tokens", out.CompletionTokens)

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrDecode)
	}
	if err := json.Unmarshal([]byte(text), result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

func (c *geminiClient) Model() string {
	return c.model
}

func geminiSystemInstruction(req Request) (string, error) {
	if req.Schema == nil {
		return req.SystemPrompt, nil
	}
	schema, err := json.Marshal(req.Schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return req.SystemPrompt + "\n\nRespond with a single JSON object matching this JSON Schema:\n" + string(schema), nil
}
