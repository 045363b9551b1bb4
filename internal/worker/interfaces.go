package worker

import (
	"context"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Evaluator abstracts the pipeline for testability.
type Evaluator interface {
	EvaluateWithID(ctx context.Context, evaluationID int64, supplier model.SupplierIdentity) *model.EvaluationState
}

// Claimer hands over requests another consumer left unacked.
type Claimer interface {
	ClaimStale(ctx context.Context, claimant string, minIdle time.Duration, count int64) ([]queue.StaleMessage, error)
}
