package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, req EvaluationRequest) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, req EvaluationRequest) error {
	attempt := req.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	supplier, err := json.Marshal(req.Supplier)
	if err != nil {
		return fmt.Errorf("encode supplier: %w", err)
	}

	fields := map[string]any{
		"evaluation_id": req.EvaluationID,
		"supplier":      string(supplier),
		"attempt":       attempt,
	}

	if req.TraceID != nil && *req.TraceID != "" {
		fields["trace_id"] = *req.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue evaluation: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued evaluation request", "evaluation_id", req.EvaluationID, "supplier", req.Supplier.Name, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
