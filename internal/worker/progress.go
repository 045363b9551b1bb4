package worker

import (
	"context"
	"log/slog"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/store"
)

// ProgressRecorder saves the partial report after every stage so a polling
// client can follow a running evaluation. Save failures are logged only;
// the final save in ProcessMessage is the one that counts.
type ProgressRecorder struct {
	evaluations store.EvaluationStore
}

func NewProgressRecorder(evaluations store.EvaluationStore) *ProgressRecorder {
	return &ProgressRecorder{evaluations: evaluations}
}

func (p *ProgressRecorder) OnStageComplete(ctx context.Context, stage model.StageName, state *model.EvaluationState, err error) {
	// The final report is saved by the caller once Evaluate returns.
	if stage == model.StageDecision {
		return
	}
	if saveErr := p.evaluations.Save(ctx, state); saveErr != nil {
		slog.WarnContext(ctx, "failed to save evaluation progress",
			"error", saveErr,
			"completed_stage", stage)
	}
}
