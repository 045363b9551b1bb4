package brain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/llm"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/store"
)

const (
	documentPromptVersion = "v1"
	documentTemperature   = 0.3

	// DefaultMaxDocumentChars caps the text sent per document.
	DefaultMaxDocumentChars = 10000

	maxParallelReads = 4
)

const analysisFailedMissing = "Analysis failed - check documents"

type NamedValue struct {
	Label string `json:"label" jsonschema_description:"What the value is, e.g. 'annual revenue 2024' or 'incorporation date'"`
	Value string `json:"value" jsonschema_description:"The value as written in the document"`
}

type ExtractedFacts struct {
	CompanyName        string       `json:"company_name" jsonschema_description:"Legal company name, empty if absent"`
	RegistrationNumber string       `json:"registration_number" jsonschema_description:"Company registration number, empty if absent"`
	TaxID              string       `json:"tax_id" jsonschema_description:"VAT or tax identifier, empty if absent"`
	Addresses          []string     `json:"addresses"`
	FinancialFigures   []NamedValue `json:"financial_figures"`
	Dates              []NamedValue `json:"dates"`
	Certifications     []string     `json:"certifications"`
	Owners             []string     `json:"owners" jsonschema_description:"Owners, directors or beneficial owners named in the documents"`
}

type DocumentSummaryItem struct {
	Filename     string `json:"filename"`
	DocumentType string `json:"document_type" jsonschema:"enum=invoice,enum=certificate,enum=registration,enum=financial_statement,enum=other"`
	KeyFindings  string `json:"key_findings" jsonschema_description:"One or two sentences"`
}

type DocumentResponse struct {
	ExtractedData     ExtractedFacts        `json:"extracted_data"`
	MissingData       []string              `json:"missing_data" jsonschema_description:"Critical fields that no document supplies"`
	Inconsistencies   []string              `json:"inconsistencies" jsonschema_description:"Fields that disagree across documents, naming both values"`
	DocumentSummaries []DocumentSummaryItem `json:"document_summaries"`
	ConfidenceScore   float64               `json:"confidence_score" jsonschema_description:"0.0-1.0, see rubric"`
}

var documentSchema = llm.GenerateSchema[DocumentResponse]()

type DocumentAnalyzer struct {
	llm      llm.Client
	calls    store.LLMCallStore
	reader   provider.DocumentReader
	tables   provider.TableExtractor
	maxChars int
}

func NewDocumentAnalyzer(client llm.Client, calls store.LLMCallStore, reader provider.DocumentReader, tables provider.TableExtractor) *DocumentAnalyzer {
	return &DocumentAnalyzer{
		llm:      client,
		calls:    calls,
		reader:   reader,
		tables:   tables,
		maxChars: DefaultMaxDocumentChars,
	}
}

type readResult struct {
	filename   string
	text       string
	pageCount  int
	tableCount int
	err        error
}

// Analyze reads every document, then makes one extraction call over the
// readable ones. Unreadable documents are listed in the summaries with
// document_type "unreadable" rather than failing the stage. The returned
// error is non-nil only when the extraction call itself failed.
func (d *DocumentAnalyzer) Analyze(ctx context.Context, supplier model.SupplierIdentity) (model.DocumentAnalysis, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "supplierrisk.brain.document"})

	if len(supplier.DocumentPaths) == 0 {
		analysis := model.EmptyDocumentAnalysis("")
		analysis.MissingData = []string{model.NoDocumentsProvided}
		slog.InfoContext(ctx, "no documents to analyze")
		return analysis, nil
	}

	results := d.readAll(ctx, supplier.DocumentPaths)

	var readable []readResult
	var failed []model.DocumentSummary
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, model.DocumentSummary{
				Filename:     r.filename,
				DocumentType: model.DocumentTypeUnreadable,
				KeyFindings:  "Document could not be read",
				Error:        r.err.Error(),
			})
			continue
		}
		readable = append(readable, r)
	}

	slog.InfoContext(ctx, "documents read",
		"total", len(results),
		"readable", len(readable),
		"failed", len(failed))

	if len(readable) == 0 {
		analysis := model.EmptyDocumentAnalysis("")
		for _, f := range failed {
			analysis.MissingData = append(analysis.MissingData, fmt.Sprintf("Could not read %s: %s", f.Filename, f.Error))
		}
		analysis.DocumentSummaries = failed
		return analysis, nil
	}

	var resp DocumentResponse
	err := reason(ctx, d.llm, d.calls, reasoningCall{
		stage:         model.StageDocument,
		schemaName:    "document_analysis",
		schema:        documentSchema,
		systemPrompt:  documentSystemPrompt,
		userPrompt:    buildDocumentPrompt(supplier.Name, readable),
		temperature:   documentTemperature,
		promptVersion: documentPromptVersion,
	}, &resp)
	if err != nil {
		return documentFallback(err, failed), err
	}

	analysis := toDocumentAnalysis(resp)
	if err := analysis.Validate(); err != nil {
		return documentFallback(err, failed), err
	}
	analysis.DocumentSummaries = append(analysis.DocumentSummaries, failed...)

	slog.InfoContext(ctx, "document analysis complete",
		"confidence", analysis.ConfidenceScore,
		"missing", len(analysis.MissingData),
		"inconsistencies", len(analysis.Inconsistencies))

	return analysis, nil
}

// readAll reads documents concurrently; results keep input order.
func (d *DocumentAnalyzer) readAll(ctx context.Context, paths []string) []readResult {
	results := make([]readResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = d.readOne(gctx, path)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *DocumentAnalyzer) readOne(ctx context.Context, path string) readResult {
	res := readResult{filename: filepath.Base(path)}

	doc, err := d.reader.Read(ctx, path)
	if err != nil {
		slog.WarnContext(ctx, "document read failed", "file", res.filename, "error", err)
		res.err = err
		return res
	}
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		res.err = fmt.Errorf("no extractable text in %s", res.filename)
		return res
	}
	if len(text) > d.maxChars {
		text = truncateRunes(text, d.maxChars)
	}
	res.text = text
	res.pageCount = doc.PageCount

	if d.tables != nil {
		tables, err := d.tables.ExtractTables(ctx, path)
		if err != nil {
			slog.DebugContext(ctx, "table extraction failed", "file", res.filename, "error", err)
		} else if tables != nil {
			res.tableCount = tables.TableCount
		}
	}
	return res
}

// truncateRunes cuts to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func documentFallback(err error, failed []model.DocumentSummary) model.DocumentAnalysis {
	analysis := model.EmptyDocumentAnalysis(err.Error())
	analysis.MissingData = []string{analysisFailedMissing}
	if failed != nil {
		analysis.DocumentSummaries = failed
	}
	return analysis
}

func toDocumentAnalysis(resp DocumentResponse) model.DocumentAnalysis {
	analysis := model.EmptyDocumentAnalysis("")
	analysis.ExtractedData = factsToMap(resp.ExtractedData)
	analysis.MissingData = append(analysis.MissingData, resp.MissingData...)
	analysis.Inconsistencies = append(analysis.Inconsistencies, resp.Inconsistencies...)
	analysis.ConfidenceScore = model.Clamp01(resp.ConfidenceScore)

	for _, s := range resp.DocumentSummaries {
		dt := model.DocumentType(strings.ToLower(strings.TrimSpace(s.DocumentType)))
		switch dt {
		case model.DocumentTypeInvoice, model.DocumentTypeCertificate, model.DocumentTypeRegistration,
			model.DocumentTypeFinancialStatement:
		default:
			dt = model.DocumentTypeOther
		}
		analysis.DocumentSummaries = append(analysis.DocumentSummaries, model.DocumentSummary{
			Filename:     s.Filename,
			DocumentType: dt,
			KeyFindings:  s.KeyFindings,
		})
	}
	return analysis
}

// factsToMap keeps only the fields the documents actually supplied.
func factsToMap(f ExtractedFacts) map[string]any {
	out := map[string]any{}
	setString := func(key, v string) {
		if v = strings.TrimSpace(v); v != "" {
			out[key] = v
		}
	}
	setString("company_name", f.CompanyName)
	setString("registration_number", f.RegistrationNumber)
	setString("tax_id", f.TaxID)
	if len(f.Addresses) > 0 {
		out["addresses"] = f.Addresses
	}
	if len(f.Certifications) > 0 {
		out["certifications"] = f.Certifications
	}
	if len(f.Owners) > 0 {
		out["owners"] = f.Owners
	}
	if len(f.FinancialFigures) > 0 {
		out["financial_figures"] = namedValues(f.FinancialFigures)
	}
	if len(f.Dates) > 0 {
		out["dates"] = namedValues(f.Dates)
	}
	return out
}

func namedValues(vs []NamedValue) map[string]string {
	out := make(map[string]string, len(vs))
	for _, v := range vs {
		if label := strings.TrimSpace(v.Label); label != "" {
			out[label] = v.Value
		}
	}
	return out
}

func buildDocumentPrompt(expectedName string, docs []readResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Expected supplier name: %s\n\n", expectedName)
	for i, d := range docs {
		fmt.Fprintf(&sb, "## Document %d: %s (%d page(s), %d table(s))\n", i+1, d.filename, d.pageCount, d.tableCount)
		sb.WriteString(d.text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

const documentSystemPrompt = `You extract supplier facts from due-diligence documents.

Read every document, then return one combined record.

## Extract

- Company identifiers: legal name, registration number, tax ID
- Addresses
- Financial figures and the dates they relate to
- Certifications (ISO, export licences, quality marks)
- Owners and directors

## Cross-check

- If the same field differs between documents, add an inconsistency naming both values and both files
- If the company name differs from the expected supplier name, that is an inconsistency
- List critical fields no document supplies under missing_data

## Confidence

- 0.8-1.0: all critical fields present and consistent across at least two documents
- 0.5-0.79: some gaps or minor conflicts
- 0.0-0.49: several missing or conflicting items

Only report what the documents say. Never guess values.`
