package queue

import "github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"

// EvaluationRequest asks a worker to evaluate one supplier under an ID the
// API has already returned to the caller.
type EvaluationRequest struct {
	EvaluationID int64
	Supplier     model.SupplierIdentity
	TraceID      *string
	Attempt      int
}
