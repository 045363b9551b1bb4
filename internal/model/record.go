package model

import "time"

// EvaluationRecord is a persisted evaluation summary row plus its full report.
type EvaluationRecord struct {
	ID           int64            `json:"id,string"`
	SupplierName string           `json:"supplier_name"`
	Country      string           `json:"country"`
	Status       WorkflowStatus   `json:"status"`
	RiskLevel    RiskLevel        `json:"risk_level,omitempty"`
	Confidence   *float64         `json:"confidence,omitempty"`
	ErrorCount   int              `json:"error_count"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	Report       *EvaluationState `json:"report,omitempty"`
}
