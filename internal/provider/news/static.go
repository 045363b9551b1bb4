package news

import (
	"context"
	"fmt"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

// StaticSearcher returns canned coverage. It is wired in when no NewsAPI key
// is configured so local runs still exercise the news path.
type StaticSearcher struct{}

func (StaticSearcher) Search(_ context.Context, query string, _ time.Duration, maxResults int) ([]model.NewsArticle, error) {
	articles := []model.NewsArticle{
		{
			Title:       fmt.Sprintf("%s Wins Sustainability Award", query),
			Description: fmt.Sprintf("%s has been recognized for its eco-friendly practices and commitment to sustainable manufacturing.", query),
			URL:         "https://example.com/article1",
			PublishedAt: time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC),
			Source:      "Industry Today",
		},
		{
			Title:       fmt.Sprintf("Q4 Growth Report: %s Exceeds Expectations", query),
			Description: fmt.Sprintf("%s reports strong Q4 performance with 15%% year-over-year growth in exports.", query),
			URL:         "https://example.com/article2",
			PublishedAt: time.Date(2025, 12, 10, 14, 30, 0, 0, time.UTC),
			Source:      "Trade Journal",
		},
		{
			Title:       fmt.Sprintf("%s Partners with Major Retailer", query),
			Description: fmt.Sprintf("New partnership announced between %s and a leading retail chain.", query),
			URL:         "https://example.com/article3",
			PublishedAt: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
			Source:      "Business News",
		},
	}
	if maxResults > 0 && len(articles) > maxResults {
		articles = articles[:maxResults]
	}
	return articles, nil
}

func (StaticSearcher) Source() string {
	return "NewsAPI (sample data)"
}
