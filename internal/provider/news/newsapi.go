package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

const SourceNewsAPI = "NewsAPI"

// NewsAPI's hard page size limit.
const maxPageSize = 100

type Config struct {
	APIKey  string
	BaseURL string
	RPS     float64
	Timeout time.Duration
}

// NewsAPIClient queries the /everything endpoint of newsapi.org.
type NewsAPIClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func NewNewsAPIClient(cfg Config) *NewsAPIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://newsapi.org/v2"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	return &NewsAPIClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

type everythingResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

func (c *NewsAPIClient) Search(ctx context.Context, query string, window time.Duration, maxResults int) ([]model.NewsArticle, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("newsapi rate limit: %w", err)
	}

	to := c.now().UTC()
	from := to.Add(-window)

	params := url.Values{}
	params.Set("q", query)
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(min(maxResults, maxPageSize)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	var body everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("newsapi decode (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %d: %s %s", resp.StatusCode, body.Code, body.Message)
	}

	articles := make([]model.NewsArticle, 0, min(len(body.Articles), maxResults))
	for _, a := range body.Articles {
		if len(articles) == maxResults {
			break
		}
		articles = append(articles, model.NewsArticle{
			Title:       orDefault(a.Title, "No title"),
			Description: orDefault(a.Description, "No description"),
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Source:      orDefault(a.Source.Name, "Unknown"),
		})
	}

	slog.DebugContext(ctx, "newsapi search completed",
		"article_count", len(articles),
		"duration_ms", time.Since(start).Milliseconds())

	return articles, nil
}

func (c *NewsAPIClient) Source() string {
	return SourceNewsAPI
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
