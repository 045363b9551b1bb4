package document

import (
	"context"
	"regexp"
	"strings"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
)

var multiSpace = regexp.MustCompile(`\s{2,}|\t`)

// TableDetector finds tabular runs in extracted text: two or more consecutive
// lines that split into the same number (>=2) of cells on pipes, tabs or
// runs of spaces.
type TableDetector struct {
	reader provider.DocumentReader
}

func NewTableDetector(reader provider.DocumentReader) *TableDetector {
	return &TableDetector{reader: reader}
}

func (d *TableDetector) ExtractTables(ctx context.Context, path string) (*provider.TableResult, error) {
	doc, err := d.reader.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	tables := DetectTables(doc.Text)
	return &provider.TableResult{Tables: tables, TableCount: len(tables)}, nil
}

// DetectTables returns each detected table as its raw rows.
func DetectTables(text string) [][]string {
	var (
		tables  [][]string
		current []string
		width   int
	)

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
		width = 0
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(current) > 0 && isRule(line) {
			continue
		}
		cells := splitCells(line)
		if len(cells) < 2 {
			flush()
			continue
		}
		if width != 0 && len(cells) != width {
			flush()
		}
		width = len(cells)
		current = append(current, line)
	}
	flush()

	return tables
}

func splitCells(line string) []string {
	if line == "" {
		return nil
	}
	var parts []string
	if strings.Contains(line, "|") {
		parts = strings.Split(strings.Trim(line, "|"), "|")
	} else {
		parts = multiSpace.Split(line, -1)
	}

	cells := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" && strings.Trim(p, "-: ") != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

// isRule matches markdown header separators such as |---|:--:|.
func isRule(line string) bool {
	return strings.Contains(line, "-") && strings.Trim(line, "|-: +") == ""
}
