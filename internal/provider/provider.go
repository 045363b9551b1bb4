// Package provider declares the intelligence providers the pipeline stages
// consult. Implementations live in the subpackages; stages only see these
// interfaces so tests can swap in doubles.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

var ErrNotFound = errors.New("not found")

type DocumentText struct {
	Text      string
	PageCount int
}

type DocumentReader interface {
	Read(ctx context.Context, path string) (*DocumentText, error)
}

type TableResult struct {
	Tables     [][]string // each table as its raw rows
	TableCount int
}

type TableExtractor interface {
	ExtractTables(ctx context.Context, path string) (*TableResult, error)
}

type NewsSearcher interface {
	Search(ctx context.Context, query string, window time.Duration, maxResults int) ([]model.NewsArticle, error)
	Source() string
}

// SentimentScorer must be deterministic for a given text.
type SentimentScorer interface {
	Score(text string) (model.Sentiment, float64)
}

type RegistryQuery struct {
	Name               string
	RegistrationNumber string
	Country            string
}

// RegistryLookup returns ErrNotFound when the registry has no such company.
type RegistryLookup interface {
	Lookup(ctx context.Context, q RegistryQuery) (*model.RegistryRecord, error)
	Source(country string) string
}

// CountryVerifier is a RegistryLookup that performs exact, verified lookups
// for the countries it supports.
type CountryVerifier interface {
	RegistryLookup
	Supports(country string) bool
}

type SanctionsMatcher interface {
	Match(ctx context.Context, name string) (model.SanctionsMatch, error)
	Sources() []string
}

type WatchlistChecker interface {
	Check(ctx context.Context, name, registrationNumber, country string) (model.WatchlistCheck, error)
}

type Passage struct {
	Text     string
	Document string
	Page     int
	Score    float64
}

type PolicyRetriever interface {
	Search(ctx context.Context, query string, topK int, minScore float64) ([]Passage, error)
}
