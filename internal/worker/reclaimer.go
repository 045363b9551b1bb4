package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
)

type ReclaimerConfig struct {
	// Consumer is the name stale requests are claimed under.
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64

	// MaxDeliveries abandons a request once the group has delivered it this
	// many times without an ack. Zero means no limit.
	MaxDeliveries int64
}

// Reclaimer picks up evaluation requests left unacked by a worker that died
// mid-evaluation and runs them through this worker.
type Reclaimer struct {
	claimer Claimer
	worker  *Worker
	cfg     ReclaimerConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewReclaimer(claimer Claimer, w *Worker, cfg ReclaimerConfig) *Reclaimer {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &Reclaimer{
		claimer:   claimer,
		worker:    w,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run sweeps every Interval until ctx ends or Stop is called.
func (r *Reclaimer) Run(ctx context.Context) {
	defer close(r.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "supplierrisk.worker.reclaimer"})
	slog.InfoContext(ctx, "reclaimer started", "interval", r.cfg.Interval, "min_idle", r.cfg.MinIdle)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if err := r.ReclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim sweep failed", "error", err)
			}
		}
	}
}

func (r *Reclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// ReclaimOnce claims one batch of stale requests. Each goes through the
// worker's normal retry and dead-letter handling, except one that already hit
// MaxDeliveries, which is abandoned without another evaluation.
func (r *Reclaimer) ReclaimOnce(ctx context.Context) error {
	stale, err := r.claimer.ClaimStale(ctx, r.cfg.Consumer, r.cfg.MinIdle, r.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("claiming stale requests: %w", err)
	}

	for _, s := range stale {
		msgCtx := logger.WithLogFields(ctx, logger.LogFields{
			EvaluationID: logger.Ptr(s.Message.EvaluationID),
			MessageID:    logger.Ptr(s.Message.ID),
		})

		if r.cfg.MaxDeliveries > 0 && s.Deliveries >= r.cfg.MaxDeliveries {
			slog.WarnContext(msgCtx, "stale request exceeded max deliveries", "deliveries", s.Deliveries)
			r.worker.abandon(msgCtx, s.Message, fmt.Errorf("exceeded %d deliveries", r.cfg.MaxDeliveries))
			continue
		}

		slog.InfoContext(msgCtx, "retrying stale request", "deliveries", s.Deliveries)
		r.worker.handle(msgCtx, s.Message)
	}
	return nil
}
