package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/id"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/http/dto"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/queue"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/store"
)

const maxListLimit = 100

// Evaluator runs one evaluation to completion.
type Evaluator interface {
	EvaluateWithID(ctx context.Context, evaluationID int64, supplier model.SupplierIdentity) *model.EvaluationState
}

type EvaluationHandler struct {
	evaluator   Evaluator
	producer    queue.Producer
	evaluations store.EvaluationStore
	traceHeader string
	now         func() time.Time
}

// NewEvaluationHandler wires the handler. producer may be nil, in which case
// asynchronous requests are refused.
func NewEvaluationHandler(evaluator Evaluator, producer queue.Producer, evaluations store.EvaluationStore, traceHeader string) *EvaluationHandler {
	return &EvaluationHandler{
		evaluator:   evaluator,
		producer:    producer,
		evaluations: evaluations,
		traceHeader: traceHeader,
		now:         time.Now,
	}
}

// Create evaluates a supplier. With ?async=true the request is queued for a
// worker and 202 is returned with the evaluation ID to poll.
func (h *EvaluationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.EvaluateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid evaluation request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	supplier := req.Supplier()
	if err := supplier.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		h.enqueue(c, supplier)
		return
	}

	state := h.evaluator.EvaluateWithID(ctx, id.New(), supplier)
	if err := h.evaluations.Save(ctx, state); err != nil {
		// the report is still returned; only history is lost
		slog.ErrorContext(ctx, "failed to save evaluation", "error", err, "evaluation_id", state.ID)
	}

	c.JSON(http.StatusOK, state)
}

func (h *EvaluationHandler) enqueue(c *gin.Context, supplier model.SupplierIdentity) {
	ctx := c.Request.Context()

	if h.producer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "asynchronous evaluation not configured"})
		return
	}

	state := model.NewEvaluationState(id.New(), supplier, h.now())
	if err := h.evaluations.Save(ctx, state); err != nil {
		slog.ErrorContext(ctx, "failed to save pending evaluation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept evaluation"})
		return
	}

	req := queue.EvaluationRequest{EvaluationID: state.ID, Supplier: supplier}
	if traceID := h.traceID(c); traceID != "" {
		req.TraceID = &traceID
	}

	if err := h.producer.Enqueue(ctx, req); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue evaluation", "error", err, "evaluation_id", state.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept evaluation"})
		return
	}

	slog.InfoContext(ctx, "evaluation queued", "evaluation_id", state.ID, "supplier", supplier.Name)
	c.JSON(http.StatusAccepted, dto.EvaluationAcceptedResponse{
		ID:     strconv.FormatInt(state.ID, 10),
		Status: state.WorkflowStatus,
	})
}

func (h *EvaluationHandler) traceID(c *gin.Context) string {
	if h.traceHeader != "" {
		if v := c.GetHeader(h.traceHeader); v != "" {
			return v
		}
	}
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// Get returns the stored record with its full report.
func (h *EvaluationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	evaluationID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid evaluation id"})
		return
	}

	record, err := h.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "evaluation not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load evaluation", "error", err, "evaluation_id", evaluationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load evaluation"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// List returns recent evaluations, newest first, optionally for one supplier.
func (h *EvaluationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var limit int32
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = int32(n)
	}

	records, err := h.evaluations.ListBySupplier(ctx, c.Query("supplier"), limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list evaluations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list evaluations"})
		return
	}

	resp := dto.ListEvaluationsResponse{Evaluations: make([]dto.EvaluationSummaryResponse, 0, len(records))}
	for _, r := range records {
		resp.Evaluations = append(resp.Evaluations, dto.ToEvaluationSummary(r))
	}
	c.JSON(http.StatusOK, resp)
}
