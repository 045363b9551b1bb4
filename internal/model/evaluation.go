package model

import (
	"fmt"
	"time"
)

type WorkflowStatus string

const (
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
)

type StageName string

const (
	StagePlanner  StageName = "planner"
	StageDocument StageName = "document"
	StagePolicy   StageName = "policy"
	StageExternal StageName = "external"
	StageDecision StageName = "decision"
	// StageWorkflow marks errors raised outside any single stage.
	StageWorkflow StageName = "workflow"
)

// Stages lists the pipeline stages in execution order.
var Stages = []StageName{StagePlanner, StageDocument, StagePolicy, StageExternal, StageDecision}

type StageError struct {
	Stage   StageName `json:"stage_name"`
	Message string    `json:"message"`
}

// EvaluationState is the record every stage reads from and writes its own
// field into. After Evaluate returns every field is populated, even when the
// stage that owns it failed.
type EvaluationState struct {
	ID                   int64                `json:"id,string"`
	Supplier             SupplierIdentity     `json:"supplier"`
	EvaluationPlan       EvaluationPlan       `json:"evaluation_plan"`
	DocumentAnalysis     DocumentAnalysis     `json:"document_analysis"`
	RAGAnswers           RAGAnswers           `json:"rag_answers"`
	ExternalIntelligence ExternalIntelligence `json:"external_intelligence"`
	FinalDecision        FinalDecision        `json:"final_decision"`
	WorkflowStatus       WorkflowStatus       `json:"workflow_status"`
	Errors               []StageError         `json:"errors"`
	StartedAt            time.Time            `json:"started_at"`
	CompletedAt          *time.Time           `json:"completed_at,omitempty"`
}

// NewEvaluationState returns a running state whose stage fields already hold
// well-formed empty values.
func NewEvaluationState(id int64, supplier SupplierIdentity, now time.Time) *EvaluationState {
	return &EvaluationState{
		ID:                   id,
		Supplier:             supplier,
		EvaluationPlan:       EvaluationPlan{Tasks: []string{}},
		DocumentAnalysis:     EmptyDocumentAnalysis(""),
		RAGAnswers:           EmptyRAGAnswers(""),
		ExternalIntelligence: EmptyExternalIntelligence(""),
		FinalDecision:        EmptyFinalDecision(),
		WorkflowStatus:       WorkflowStatusRunning,
		Errors:               []StageError{},
		StartedAt:            now,
	}
}

func (s *EvaluationState) AddError(stage StageName, err error) {
	s.Errors = append(s.Errors, StageError{Stage: stage, Message: err.Error()})
}

// HasUpstreamErrors reports whether any stage before Decision recorded an error.
func (s *EvaluationState) HasUpstreamErrors() bool {
	for _, e := range s.Errors {
		if e.Stage != StageDecision {
			return true
		}
	}
	return false
}

// ChecksIncomplete reports whether the evidence behind the decision has
// gaps: an upstream stage failed or an external check did not complete.
func (s *EvaluationState) ChecksIncomplete() bool {
	return s.HasUpstreamErrors() || len(s.ExternalIntelligence.IncompleteChecks()) > 0
}

func (s *EvaluationState) ErrorsFor(stage StageName) []StageError {
	var out []StageError
	for _, e := range s.Errors {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// Complete marks the run finished. Status moves to completed unless
// something already marked it failed.
func (s *EvaluationState) Complete(now time.Time) {
	if s.WorkflowStatus != WorkflowStatusFailed {
		s.WorkflowStatus = WorkflowStatusCompleted
	}
	s.CompletedAt = &now
}

func (s *EvaluationState) Fail(stage StageName, err error, now time.Time) {
	if err != nil {
		s.AddError(stage, err)
	}
	s.WorkflowStatus = WorkflowStatusFailed
	s.CompletedAt = &now
}

// Summary is a one-line human readable digest of the outcome.
func (s *EvaluationState) Summary() string {
	return fmt.Sprintf("%s (%s): %s risk, confidence %.2f, status %s, %d error(s)",
		s.Supplier.Name, s.Supplier.Country,
		s.FinalDecision.RiskLevel, s.FinalDecision.ConfidenceScore,
		s.WorkflowStatus, len(s.Errors))
}

// Normalize replaces nil collections with empty ones so the serialized
// report always carries every key with a concrete value.
func (s *EvaluationState) Normalize() {
	if s.EvaluationPlan.Tasks == nil {
		s.EvaluationPlan.Tasks = []string{}
	}
	s.DocumentAnalysis.normalize()
	s.RAGAnswers.normalize()
	s.ExternalIntelligence.normalize()
	s.FinalDecision.normalize()
	if s.Errors == nil {
		s.Errors = []StageError{}
	}
	if s.Supplier.DocumentPaths == nil {
		s.Supplier.DocumentPaths = []string{}
	}
	if s.Supplier.OwnerNames == nil {
		s.Supplier.OwnerNames = []string{}
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Clamp01 bounds a confidence value to [0,1].
func Clamp01(v float64) float64 {
	return clamp01(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
