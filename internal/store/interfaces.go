package store

import (
	"context"
	"errors"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// EvaluationStore persists evaluation reports. Save upserts by ID so the
// same evaluation can be written when queued and again when finished.
type EvaluationStore interface {
	Save(ctx context.Context, state *model.EvaluationState) error
	GetByID(ctx context.Context, id int64) (*model.EvaluationRecord, error)
	ListBySupplier(ctx context.Context, supplierName string, limit int32) ([]model.EvaluationRecord, error)
}

// LLMCallStore is the audit log of reasoning calls.
type LLMCallStore interface {
	Create(ctx context.Context, call *model.LLMCall) (*model.LLMCall, error)
	ListByEvaluation(ctx context.Context, evaluationID int64) ([]model.LLMCall, error)
}
