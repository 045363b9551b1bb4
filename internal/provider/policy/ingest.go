package policy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/ledongthuc/pdf"
	"github.com/pgvector/pgvector-go"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/id"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/llm"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/core/db"
)

const embedBatchSize = 64

var ingestExtensions = []string{".pdf", ".txt", ".md"}

// TxRunner is satisfied by *db.DB.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx db.DBTX) error) error
}

type IngestConfig struct {
	Table        string
	ChunkTokens  int
	ChunkOverlap int
}

// Ingestor chunks policy documents page by page, embeds the chunks and
// replaces the document's rows in one transaction.
type Ingestor struct {
	tx       TxRunner
	embedder llm.Embedder
	cfg      IngestConfig
}

func NewIngestor(tx TxRunner, embedder llm.Embedder, cfg IngestConfig) *Ingestor {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.ChunkTokens <= 0 {
		cfg.ChunkTokens = 700
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	return &Ingestor{tx: tx, embedder: embedder, cfg: cfg}
}

type IngestResult struct {
	Document string
	Pages    int
	Chunks   int
}

// IngestDir ingests every supported file directly under dir.
func (i *Ingestor) IngestDir(ctx context.Context, dir string) ([]IngestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var results []IngestResult
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(ingestExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		res, err := i.IngestFile(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (i *Ingestor) IngestFile(ctx context.Context, path string) (IngestResult, error) {
	document := filepath.Base(path)
	result := IngestResult{Document: document}

	pages, err := readPages(path)
	if err != nil {
		return result, err
	}
	result.Pages = len(pages)

	type chunkRef struct {
		page  int
		index int
		text  string
	}
	var chunks []chunkRef
	for p, text := range pages {
		for idx, c := range Chunk(text, i.cfg.ChunkTokens, i.cfg.ChunkOverlap) {
			chunks = append(chunks, chunkRef{page: p + 1, index: idx, text: c})
		}
	}
	if len(chunks) == 0 {
		slog.WarnContext(ctx, "no text to ingest", "document", document)
		return result, nil
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.text)
		}
		batch, err := i.embedder.Embed(ctx, texts)
		if err != nil {
			return result, fmt.Errorf("embed %s: %w", document, err)
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(chunks) {
		return result, fmt.Errorf("embed %s: got %d vectors for %d chunks", document, len(vectors), len(chunks))
	}

	table := pgx.Identifier{i.cfg.Table}.Sanitize()
	err = i.tx.WithTx(ctx, func(tx db.DBTX) error {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document = $1`, table), document); err != nil {
			return fmt.Errorf("clear %s: %w", document, err)
		}
		insert := fmt.Sprintf(`
			INSERT INTO %s (id, document, page, chunk_index, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6::vector)`, table)
		for n, c := range chunks {
			vec := pgvector.NewVector(vectors[n]).String()
			if _, err := tx.Exec(ctx, insert, id.New(), document, c.page, c.index, c.text, vec); err != nil {
				return fmt.Errorf("insert chunk %d of %s: %w", n, document, err)
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Chunks = len(chunks)
	slog.InfoContext(ctx, "policy document ingested",
		"document", document,
		"pages", result.Pages,
		"chunks", result.Chunks)
	return result, nil
}

// readPages returns one string per page. Text files are a single page
// unless they contain form feeds.
func readPages(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return readPDFPages(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return strings.Split(string(raw), "\f"), nil
}

func readPDFPages(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for n := 1; n <= reader.NumPage(); n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", n, filepath.Base(path), err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
