package model

import (
	"fmt"
	"strings"
	"time"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ParseRiskLevel canonicalizes case. ok is false for anything outside the enum.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, true
	case "medium":
		return RiskMedium, true
	case "high":
		return RiskHigh, true
	default:
		return "", false
	}
}

const (
	AssessmentIncomplete  = "Assessment incomplete due to technical error"
	ReevaluateAction      = "Re-evaluate supplier with complete data"
	DecisionFailedSummary = "Risk assessment failed - manual review required"
)

type FinalDecision struct {
	RiskLevel          RiskLevel         `json:"risk_level"`
	ConfidenceScore    float64           `json:"confidence_score"`
	Reasoning          string            `json:"reasoning"`
	PositiveFactors    []string          `json:"positive_factors"`
	NegativeFactors    []string          `json:"negative_factors"`
	RecommendedActions []string          `json:"recommended_actions"`
	DecisionSummary    string            `json:"decision_summary"`
	EvidenceTrail      map[string]string `json:"evidence_trail"`
	OverrideReasons    []string          `json:"override_reasons"`
	SupplierName       string            `json:"supplier_name"`
	EvaluatedAt        time.Time         `json:"evaluated_at"`
	Error              string            `json:"error,omitempty"`
}

// EmptyFinalDecision is the placeholder held until the Decision stage runs.
func EmptyFinalDecision() FinalDecision {
	return FinalDecision{
		PositiveFactors:    []string{},
		NegativeFactors:    []string{},
		RecommendedActions: []string{},
		EvidenceTrail:      map[string]string{},
		OverrideReasons:    []string{},
	}
}

// SafeDefaultDecision is returned when no decision could be produced.
func SafeDefaultDecision(supplierName string, cause error, now time.Time) FinalDecision {
	d := EmptyFinalDecision()
	d.RiskLevel = RiskHigh
	d.ConfidenceScore = 0
	d.Reasoning = "Unable to complete risk assessment due to error"
	if cause != nil {
		d.Reasoning = fmt.Sprintf("Unable to complete risk assessment due to error: %v", cause)
		d.Error = cause.Error()
	}
	d.NegativeFactors = []string{AssessmentIncomplete}
	d.RecommendedActions = []string{ReevaluateAction}
	d.DecisionSummary = DecisionFailedSummary
	d.SupplierName = supplierName
	d.EvaluatedAt = now
	return d
}

func (d *FinalDecision) Validate() error {
	if _, ok := ParseRiskLevel(string(d.RiskLevel)); !ok {
		return fmt.Errorf("%w: risk level %q", ErrMalformedOutput, d.RiskLevel)
	}
	if d.ConfidenceScore < 0 || d.ConfidenceScore > 1 {
		return fmt.Errorf("%w: decision confidence %.2f outside [0,1]", ErrMalformedOutput, d.ConfidenceScore)
	}
	return nil
}

func (d *FinalDecision) normalize() {
	d.PositiveFactors = nonNil(d.PositiveFactors)
	d.NegativeFactors = nonNil(d.NegativeFactors)
	d.RecommendedActions = nonNil(d.RecommendedActions)
	d.OverrideReasons = nonNil(d.OverrideReasons)
	if d.EvidenceTrail == nil {
		d.EvidenceTrail = map[string]string{}
	}
}
