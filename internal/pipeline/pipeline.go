// Package pipeline runs the five evaluation stages in order over one shared
// state. A failing stage never stops the run: its error is recorded and a
// fallback value takes its place so later stages always see every field.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/id"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/brain"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

type Planner interface {
	Plan(ctx context.Context, supplier model.SupplierIdentity) (model.EvaluationPlan, error)
}

type DocumentAnalyzer interface {
	Analyze(ctx context.Context, supplier model.SupplierIdentity) (model.DocumentAnalysis, error)
}

type PolicyAnswerer interface {
	Answer(ctx context.Context, plan model.EvaluationPlan) (model.RAGAnswers, error)
}

type ExternalGatherer interface {
	Gather(ctx context.Context, supplier model.SupplierIdentity) (model.ExternalIntelligence, error)
}

type DecisionMaker interface {
	Decide(ctx context.Context, state model.EvaluationState) (model.FinalDecision, error)
}

// Stages are the stage implementations, all required.
type Stages struct {
	Planner  Planner
	Document DocumentAnalyzer
	Policy   PolicyAnswerer
	External ExternalGatherer
	Decision DecisionMaker
}

func (s Stages) validate() error {
	switch {
	case s.Planner == nil:
		return errors.New("planner stage is required")
	case s.Document == nil:
		return errors.New("document stage is required")
	case s.Policy == nil:
		return errors.New("policy stage is required")
	case s.External == nil:
		return errors.New("external stage is required")
	case s.Decision == nil:
		return errors.New("decision stage is required")
	}
	return nil
}

// Observer is told about every stage as soon as its field is written. err is
// the stage error, nil on success.
type Observer interface {
	OnStageComplete(ctx context.Context, stage model.StageName, state *model.EvaluationState, err error)
}

type Option func(*Pipeline)

func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDs replaces the evaluation ID source used by Evaluate.
func WithIDs(next func() (int64, error)) Option {
	return func(p *Pipeline) { p.nextID = next }
}

type Pipeline struct {
	stages   Stages
	observer Observer
	now      func() time.Time
	nextID   func() (int64, error)
}

func New(stages Stages, opts ...Option) (*Pipeline, error) {
	if err := stages.validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{stages: stages, now: time.Now, nextID: id.Next}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Evaluate runs one evaluation end to end. It always returns a populated
// state; failures are reported through state.Errors and WorkflowStatus.
func (p *Pipeline) Evaluate(ctx context.Context, supplier model.SupplierIdentity) *model.EvaluationState {
	evaluationID, err := p.nextID()
	if err != nil {
		err = fmt.Errorf("assign evaluation id: %w", err)
		slog.ErrorContext(ctx, "evaluation not started", "supplier", supplier.Name, "error", err)
		state := model.NewEvaluationState(0, supplier, p.now())
		state.FinalDecision = brain.SafeDecision(*state, err, p.now())
		state.Fail(model.StageWorkflow, err, p.now())
		state.Normalize()
		return state
	}
	return p.EvaluateWithID(ctx, evaluationID, supplier)
}

// EvaluateWithID is Evaluate under an ID assigned by the caller, as when the
// request was accepted asynchronously and the ID already handed out.
func (p *Pipeline) EvaluateWithID(ctx context.Context, evaluationID int64, supplier model.SupplierIdentity) (state *model.EvaluationState) {
	state = model.NewEvaluationState(evaluationID, supplier, p.now())

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EvaluationID: logger.Ptr(state.ID),
		Supplier:     logger.Ptr(supplier.Name),
		Country:      logger.Ptr(supplier.Country),
		Component:    "supplierrisk.pipeline",
	})
	sc := logger.StartSpan(ctx, "pipeline.evaluate")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.Int64("evaluation.id", state.ID),
		attribute.String("supplier.name", supplier.Name),
		attribute.String("supplier.country", supplier.Country),
	)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("workflow panicked: %v", r)
			slog.ErrorContext(ctx, "evaluation workflow panicked",
				"panic", r,
				"stack", string(debug.Stack()))
			sc.RecordError(err)
			if state.FinalDecision.RiskLevel == "" {
				state.FinalDecision = brain.SafeDecision(*state, err, p.now())
			}
			state.Fail(model.StageWorkflow, err, p.now())
			state.Normalize()
		}
	}()

	slog.InfoContext(ctx, "evaluation started",
		"documents", len(supplier.DocumentPaths),
		"owners", len(supplier.OwnerNames),
		"has_registration_number", supplier.HasRegistrationNumber())

	if err := supplier.Validate(); err != nil {
		slog.WarnContext(ctx, "invalid supplier identity", "error", err)
		sc.RecordError(err)
		state.FinalDecision = brain.SafeDecision(*state, err, p.now())
		state.Fail(model.StageWorkflow, err, p.now())
		state.Normalize()
		return state
	}

	p.run(ctx, state)

	state.Normalize()
	state.Complete(p.now())

	slog.InfoContext(ctx, "evaluation finished",
		"summary", state.Summary(),
		"workflow_status", state.WorkflowStatus,
		"risk_level", state.FinalDecision.RiskLevel,
		"errors", len(state.Errors),
		"duration_ms", state.CompletedAt.Sub(state.StartedAt).Milliseconds())

	return state
}

func (p *Pipeline) run(ctx context.Context, state *model.EvaluationState) {
	supplier := state.Supplier

	runStage(ctx, p, state, model.StagePlanner,
		func(ctx context.Context) (model.EvaluationPlan, error) {
			return p.stages.Planner.Plan(ctx, supplier)
		},
		func(plan model.EvaluationPlan, err error) {
			if len(plan.Tasks) == 0 {
				plan = brain.FallbackPlan(supplier)
			}
			state.EvaluationPlan = plan
		})

	runStage(ctx, p, state, model.StageDocument,
		func(ctx context.Context) (model.DocumentAnalysis, error) {
			return p.stages.Document.Analyze(ctx, supplier)
		},
		func(da model.DocumentAnalysis, err error) {
			if err != nil && da.Error == "" {
				da = model.EmptyDocumentAnalysis(err.Error())
			}
			state.DocumentAnalysis = da
		})

	runStage(ctx, p, state, model.StagePolicy,
		func(ctx context.Context) (model.RAGAnswers, error) {
			return p.stages.Policy.Answer(ctx, state.EvaluationPlan)
		},
		func(answers model.RAGAnswers, err error) {
			if err != nil && answers.Error == "" {
				answers = model.EmptyRAGAnswers(err.Error())
			}
			state.RAGAnswers = answers
		})

	runStage(ctx, p, state, model.StageExternal,
		func(ctx context.Context) (model.ExternalIntelligence, error) {
			return p.stages.External.Gather(ctx, supplier)
		},
		func(ext model.ExternalIntelligence, err error) {
			if err != nil && ext.Error == "" {
				ext = model.EmptyExternalIntelligence(err.Error())
			}
			state.ExternalIntelligence = ext
		})

	// Decision sees a normalized snapshot of everything above.
	state.Normalize()

	runStage(ctx, p, state, model.StageDecision,
		func(ctx context.Context) (model.FinalDecision, error) {
			return p.stages.Decision.Decide(ctx, *state)
		},
		func(d model.FinalDecision, err error) {
			if err == nil {
				state.FinalDecision = d
				return
			}
			if d.RiskLevel == "" {
				d = brain.SafeDecision(*state, err, p.now())
			}
			state.FinalDecision = d
			state.WorkflowStatus = model.WorkflowStatusFailed
		})
}

// runStage calls fn inside its own span with panics turned into errors, then
// hands the result to apply, which writes the stage's field. apply receives
// the zero value when fn panicked.
func runStage[T any](ctx context.Context, p *Pipeline, state *model.EvaluationState, stage model.StageName,
	fn func(context.Context) (T, error), apply func(T, error),
) {
	sc := logger.StartSpan(ctx, "pipeline."+string(stage))
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{Stage: logger.Ptr(string(stage))})

	start := time.Now()
	out, err := guard(ctx, stage, fn)
	apply(out, err)

	if err != nil {
		state.AddError(stage, err)
		sc.RecordError(err)
		slog.WarnContext(ctx, "stage failed, continuing with fallback",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		slog.InfoContext(ctx, "stage completed", "duration_ms", time.Since(start).Milliseconds())
	}

	if p.observer != nil {
		p.observer.OnStageComplete(ctx, stage, state, err)
	}
}

func guard[T any](ctx context.Context, stage model.StageName, fn func(context.Context) (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "stage panicked",
				"panic", r,
				"stack", string(debug.Stack()))
			var zero T
			out, err = zero, fmt.Errorf("%s stage panicked: %v", stage, r)
		}
	}()
	return fn(ctx)
}
