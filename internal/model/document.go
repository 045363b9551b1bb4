package model

import (
	"fmt"
	"strings"
)

const NoDocumentsProvided = "No documents provided"

type DocumentType string

const (
	DocumentTypeInvoice            DocumentType = "invoice"
	DocumentTypeCertificate        DocumentType = "certificate"
	DocumentTypeRegistration       DocumentType = "registration"
	DocumentTypeFinancialStatement DocumentType = "financial_statement"
	DocumentTypeOther              DocumentType = "other"
	// DocumentTypeUnreadable is recorded for documents the reader failed on.
	DocumentTypeUnreadable DocumentType = "unreadable"
)

type DocumentSummary struct {
	Filename     string       `json:"filename"`
	DocumentType DocumentType `json:"document_type"`
	KeyFindings  string       `json:"key_findings"`
	Error        string       `json:"error,omitempty"`
}

type DocumentAnalysis struct {
	ExtractedData     map[string]any    `json:"extracted_data"`
	MissingData       []string          `json:"missing_data"`
	Inconsistencies   []string          `json:"inconsistencies"`
	DocumentSummaries []DocumentSummary `json:"document_summaries"`
	ConfidenceScore   float64           `json:"confidence_score"`
	Error             string            `json:"error,omitempty"`
}

// EmptyDocumentAnalysis is the schema-valid value written when the stage has
// nothing to report. A non-empty errMsg flags it as a failure value.
func EmptyDocumentAnalysis(errMsg string) DocumentAnalysis {
	return DocumentAnalysis{
		ExtractedData:     map[string]any{},
		MissingData:       []string{},
		Inconsistencies:   []string{},
		DocumentSummaries: []DocumentSummary{},
		Error:             errMsg,
	}
}

func (d *DocumentAnalysis) Validate() error {
	if d.ConfidenceScore < 0 || d.ConfidenceScore > 1 {
		return fmt.Errorf("%w: document confidence %.2f outside [0,1]", ErrMalformedOutput, d.ConfidenceScore)
	}
	for i, s := range d.DocumentSummaries {
		if strings.TrimSpace(s.Filename) == "" {
			return fmt.Errorf("%w: document summary %d has no filename", ErrMalformedOutput, i)
		}
	}
	return nil
}

func (d *DocumentAnalysis) normalize() {
	if d.ExtractedData == nil {
		d.ExtractedData = map[string]any{}
	}
	d.MissingData = nonNil(d.MissingData)
	d.Inconsistencies = nonNil(d.Inconsistencies)
	if d.DocumentSummaries == nil {
		d.DocumentSummaries = []DocumentSummary{}
	}
}
