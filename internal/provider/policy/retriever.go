// Package policy is the pgvector-backed compliance knowledge base: ingestion
// of policy documents and similarity search for the Policy stage.
package policy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/llm"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/core/db"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
)

const DefaultTable = "compliance_policies"

// Retriever embeds the query and ranks chunks by cosine similarity.
type Retriever struct {
	db       db.DBTX
	embedder llm.Embedder
	table    string
}

func NewRetriever(conn db.DBTX, embedder llm.Embedder, table string) *Retriever {
	if table == "" {
		table = DefaultTable
	}
	return &Retriever{db: conn, embedder: embedder, table: table}
}

func (r *Retriever) Search(ctx context.Context, query string, topK int, minScore float64) ([]provider.Passage, error) {
	if topK <= 0 {
		topK = 5
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}

	sql := fmt.Sprintf(`
		SELECT content, document, page, 1 - (embedding <=> $1::vector) AS score
		FROM %s
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, pgx.Identifier{r.table}.Sanitize())

	rows, err := r.db.Query(ctx, sql, pgvector.NewVector(vectors[0]).String(), topK)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.table, err)
	}
	defer rows.Close()

	passages := make([]provider.Passage, 0, topK)
	for rows.Next() {
		var p provider.Passage
		if err := rows.Scan(&p.Text, &p.Document, &p.Page, &p.Score); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		if p.Score < minScore {
			continue
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passages: %w", err)
	}

	slog.DebugContext(ctx, "policy search",
		"query", query,
		"top_k", topK,
		"min_score", minScore,
		"passages", len(passages))

	return passages, nil
}
