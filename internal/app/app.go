// Package app builds the evaluation pipeline and its infrastructure from
// configuration. The server, worker and CLI share it so every entry point
// runs the same stages against the same providers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/llm"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/core/config"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/core/db"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/brain"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/pipeline"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/cache"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/document"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/news"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/policy"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/registry"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/sanctions"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/store"
)

const cachePrefix = "supplierrisk:"

// ErrKnowledgeBaseUnavailable is reported per question when no embeddings
// provider is configured.
var ErrKnowledgeBaseUnavailable = errors.New("policy knowledge base not configured")

// Infra holds the process-wide connections. Redis is optional.
type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

// Connect opens Postgres and, when withRedis is set, Redis.
func Connect(ctx context.Context, cfg config.Config, withRedis bool) (*Infra, error) {
	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	slog.InfoContext(ctx, "database connected")

	infra := &Infra{DB: database}
	if !withRedis {
		return infra, nil
	}

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		database.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.RedisStream)

	infra.Redis = client
	return infra, nil
}

func (i *Infra) Close() {
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			slog.Warn("redis close failed", "error", err)
		}
	}
	if i.DB != nil {
		i.DB.Close()
	}
}

func (i *Infra) Stores() *store.Stores {
	return store.NewStores(i.DB.Conn())
}

// NewEmbedder returns the knowledge base embedder, or an error when none is
// configured.
func NewEmbedder(cfg config.Config) (llm.Embedder, error) {
	if !cfg.Embeddings.Enabled() {
		return nil, fmt.Errorf("EMBEDDINGS_API_KEY (or OPENAI_API_KEY) is required")
	}
	return llm.NewEmbedder(llm.EmbeddingConfig{
		APIKey:     cfg.Embeddings.APIKey,
		BaseURL:    cfg.Embeddings.BaseURL,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
	})
}

// NewPipeline wires the five stages.
func NewPipeline(ctx context.Context, cfg config.Config, infra *Infra, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	stores := infra.Stores()
	calls := stores.LLMCalls()

	plannerLLM, err := newStageClient(ctx, "planner", cfg.PlannerLLM)
	if err != nil {
		return nil, err
	}
	documentLLM, err := newStageClient(ctx, "document", cfg.DocumentLLM)
	if err != nil {
		return nil, err
	}
	policyLLM, err := newStageClient(ctx, "policy", cfg.PolicyLLM)
	if err != nil {
		return nil, err
	}
	decisionLLM, err := newStageClient(ctx, "decision", cfg.DecisionLLM)
	if err != nil {
		return nil, err
	}

	reader := document.NewFileReader()

	var retriever provider.PolicyRetriever = unavailableRetriever{}
	if embedder, err := NewEmbedder(cfg); err == nil {
		retriever = policy.NewRetriever(infra.DB.Conn(), embedder, cfg.RAG.Table)
	} else {
		slog.WarnContext(ctx, "policy knowledge base disabled", "error", err)
	}

	return pipeline.New(pipeline.Stages{
		Planner:  brain.NewPlanner(plannerLLM, calls),
		Document: brain.NewDocumentAnalyzer(documentLLM, calls, reader, document.NewTableDetector(reader)),
		Policy: brain.NewPolicyAnswerer(policyLLM, calls, retriever, brain.PolicyConfig{
			TopK:     cfg.RAG.TopK,
			MinScore: cfg.RAG.MinScore,
		}),
		External: brain.NewExternalGatherer(ExternalSources(ctx, cfg, infra.Redis), brain.ExternalConfig{
			NewsWindow:     daysToDuration(cfg.News.WindowDays),
			NewsMaxResults: cfg.News.MaxResults,
		}),
		Decision: brain.NewDecisionMaker(decisionLLM, calls),
	}, opts...)
}

func newStageClient(ctx context.Context, stage string, cfg config.LLMConfig) (llm.Client, error) {
	client, err := llm.New(ctx, llm.Config{
		Provider:  cfg.Provider,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s llm: %w", stage, err)
	}
	slog.InfoContext(ctx, "llm client ready", "stage", stage, "provider", cfg.Provider, "model", client.Model())
	return client, nil
}

// ExternalSources builds the registry, news, sanctions and watchlist
// providers. Provider responses are cached in Redis when a client is given.
// A source that cannot be loaded is left nil so the External stage reports
// it as unchecked instead of failing the evaluation.
func ExternalSources(ctx context.Context, cfg config.Config, rdb *redis.Client) brain.ExternalSources {
	var cacheStore cache.Store
	if rdb != nil {
		cacheStore = cache.NewRedisStore(rdb, cachePrefix)
	}

	var verifier provider.CountryVerifier = registry.NewCompaniesHouse(registry.CompaniesHouseConfig{
		APIKey:  cfg.Registry.CompaniesHouseAPIKey,
		BaseURL: cfg.Registry.CompaniesHouseBaseURL,
		RPS:     cfg.Registry.RPS,
	})
	if cacheStore != nil {
		verifier = registry.NewCached(verifier, cacheStore, cfg.Registry.CacheTTL)
	}

	var newsSearcher provider.NewsSearcher = news.StaticSearcher{}
	if cfg.News.Enabled() {
		newsSearcher = news.NewNewsAPIClient(news.Config{
			APIKey:  cfg.News.APIKey,
			BaseURL: cfg.News.BaseURL,
			RPS:     cfg.News.RPS,
		})
		if cacheStore != nil {
			newsSearcher = news.NewCachedSearcher(newsSearcher, cacheStore, cfg.News.CacheTTL)
		}
	} else {
		slog.WarnContext(ctx, "NEWS_API_KEY not set, using static news coverage")
	}

	src := brain.ExternalSources{
		Verifiers: []provider.CountryVerifier{verifier},
		Registry:  registry.Generic{},
		News:      newsSearcher,
		Sentiment: news.KeywordScorer{},
	}

	lists, err := sanctions.LoadDir(cfg.Sanctions.DataDir)
	if err != nil {
		slog.WarnContext(ctx, "sanctions lists unavailable", "dir", cfg.Sanctions.DataDir, "error", err)
	} else {
		src.Sanctions = sanctions.NewMatcher(lists)
	}

	watchlist, err := sanctions.LoadWatchlist(cfg.Watchlist.Path)
	if err != nil {
		slog.WarnContext(ctx, "watchlist unavailable", "path", cfg.Watchlist.Path, "error", err)
	} else {
		src.Watchlist = watchlist
	}

	return src
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

type unavailableRetriever struct{}

func (unavailableRetriever) Search(context.Context, string, int, float64) ([]provider.Passage, error) {
	return nil, ErrKnowledgeBaseUnavailable
}
