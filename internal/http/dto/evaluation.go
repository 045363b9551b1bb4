package dto

import (
	"strconv"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

type EvaluateSupplierRequest struct {
	Name               string   `json:"name" binding:"required"`
	Country            string   `json:"country" binding:"required"`
	BusinessContext    string   `json:"business_context,omitempty"`
	DocumentPaths      []string `json:"document_paths,omitempty"`
	RegistrationNumber string   `json:"registration_number,omitempty"`
	OwnerNames         []string `json:"owner_names,omitempty"`
}

func (r EvaluateSupplierRequest) Supplier() model.SupplierIdentity {
	docs := r.DocumentPaths
	if docs == nil {
		docs = []string{}
	}
	owners := r.OwnerNames
	if owners == nil {
		owners = []string{}
	}
	return model.SupplierIdentity{
		Name:               r.Name,
		Country:            r.Country,
		BusinessContext:    r.BusinessContext,
		DocumentPaths:      docs,
		RegistrationNumber: r.RegistrationNumber,
		OwnerNames:         owners,
	}
}

type EvaluationAcceptedResponse struct {
	ID     string               `json:"id"`
	Status model.WorkflowStatus `json:"status"`
}

type EvaluationSummaryResponse struct {
	ID           string               `json:"id"`
	SupplierName string               `json:"supplier_name"`
	Country      string               `json:"country"`
	Status       model.WorkflowStatus `json:"status"`
	RiskLevel    model.RiskLevel      `json:"risk_level,omitempty"`
	Confidence   *float64             `json:"confidence,omitempty"`
	ErrorCount   int                  `json:"error_count"`
	StartedAt    time.Time            `json:"started_at"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
}

type ListEvaluationsResponse struct {
	Evaluations []EvaluationSummaryResponse `json:"evaluations"`
}

func ToEvaluationSummary(r model.EvaluationRecord) EvaluationSummaryResponse {
	return EvaluationSummaryResponse{
		ID:           strconv.FormatInt(r.ID, 10),
		SupplierName: r.SupplierName,
		Country:      r.Country,
		Status:       r.Status,
		RiskLevel:    r.RiskLevel,
		Confidence:   r.Confidence,
		ErrorCount:   r.ErrorCount,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
}
