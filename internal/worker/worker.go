package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/queue"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/store"
)

type Config struct {
	MaxAttempts int

	// ErrorBackoff is the pause after a failed read.
	ErrorBackoff time.Duration
}

type Worker struct {
	consumer    Consumer
	evaluator   Evaluator
	evaluations store.EvaluationStore
	cfg         Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, evaluator Evaluator, evaluations store.EvaluationStore, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		consumer:    consumer,
		evaluator:   evaluator,
		evaluations: evaluations,
		cfg:         cfg,
		stopCh:      make(chan struct{}),
		stoppedCh:   make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "supplierrisk.worker"})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-ctx.Done():
				case <-time.After(w.cfg.ErrorBackoff):
				}
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		w.handle(ctx, msg)
	}

	return nil
}

// handle processes msg and routes a failure to requeue or the DLQ.
func (w *Worker) handle(ctx context.Context, msg queue.Message) {
	if err := w.processMessageSafe(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "message processing failed",
			"error", err,
			"message_id", msg.ID,
			"evaluation_id", msg.EvaluationID)
		w.handleFailedMessage(ctx, msg, err)
	}
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"evaluation_id", msg.EvaluationID)
			err = NewFatalError(fmt.Errorf("panic: %v", r))
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage evaluates the requested supplier and stores the report,
// acking only once the report is saved. A request whose report is already
// final is acked without evaluating again.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EvaluationID: logger.Ptr(msg.EvaluationID),
		MessageID:    logger.Ptr(msg.ID),
		Supplier:     logger.Ptr(msg.Supplier.Name),
	})

	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.evaluate")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.Int64("evaluation.id", msg.EvaluationID),
		attribute.Int("message.attempt", msg.Attempt),
	)

	slog.InfoContext(ctx, "processing evaluation request", "attempt", msg.Attempt)

	existing, err := w.evaluations.GetByID(ctx, msg.EvaluationID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		sc.RecordError(err)
		return NewRetryableError(fmt.Errorf("loading evaluation: %w", err))
	case existing.Status != model.WorkflowStatusRunning:
		slog.InfoContext(ctx, "evaluation already finished, skipping", "status", existing.Status)
		w.ack(ctx, msg)
		return nil
	}

	start := time.Now()
	state := w.evaluator.EvaluateWithID(ctx, msg.EvaluationID, msg.Supplier)

	if err := w.evaluations.Save(ctx, state); err != nil {
		sc.RecordError(err)
		return NewRetryableError(fmt.Errorf("saving evaluation: %w", err))
	}

	w.ack(ctx, msg)

	slog.InfoContext(ctx, "evaluation request processed",
		"workflow_status", state.WorkflowStatus,
		"risk_level", state.FinalDecision.RiskLevel,
		"errors", len(state.Errors),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (w *Worker) ack(ctx context.Context, msg queue.Message) {
	if err := w.consumer.Ack(ctx, msg); err != nil {
		// The reclaimer will see it again; the saved report makes that a no-op.
		slog.WarnContext(ctx, "failed to ACK message",
			"error", err,
			"message_id", msg.ID)
	}
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	var perr *ProcessError
	fatal := errors.As(err, &perr) && !perr.Retryable

	if fatal || msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "giving up on message, sending to DLQ",
			"message_id", msg.ID,
			"evaluation_id", msg.EvaluationID,
			"attempts", msg.Attempt,
			"fatal", fatal)
		w.abandon(ctx, msg, err)
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"evaluation_id", msg.EvaluationID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}

// abandon settles the stored evaluation as failed and dead-letters msg, so a
// client polling the evaluation sees a final status.
func (w *Worker) abandon(ctx context.Context, msg queue.Message, cause error) {
	w.markFailed(ctx, msg, cause)
	if err := w.consumer.SendDLQ(ctx, msg, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "failed to send to DLQ", "error", err)
	}
}

// markFailed keeps whatever stages the stored report already holds. A report
// that is already final is left alone.
func (w *Worker) markFailed(ctx context.Context, msg queue.Message, cause error) {
	now := time.Now()
	state := model.NewEvaluationState(msg.EvaluationID, msg.Supplier, now)

	existing, err := w.evaluations.GetByID(ctx, msg.EvaluationID)
	switch {
	case err == nil && existing.Status != model.WorkflowStatusRunning:
		return
	case err == nil && existing.Report != nil:
		state = existing.Report
	case err != nil && !errors.Is(err, store.ErrNotFound):
		slog.WarnContext(ctx, "could not load evaluation before abandoning it", "error", err)
	}

	failure := fmt.Errorf("evaluation abandoned after %d attempt(s): %w", msg.Attempt, cause)
	state.FinalDecision = model.SafeDefaultDecision(msg.Supplier.Name, failure, now)
	state.Fail(model.StageWorkflow, failure, now)
	state.Normalize()

	if err := w.evaluations.Save(ctx, state); err != nil {
		slog.ErrorContext(ctx, "failed to mark abandoned evaluation as failed", "error", err)
	}
}
