package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
)

const (
	DefaultNewsWindow     = 30 * 24 * time.Hour
	DefaultNewsMaxResults = 5
)

// Risk signal texts. Owner variants take the owner name.
const (
	SignalCompanySanctioned        = "⛔ CRITICAL: Company found on sanctions list"
	SignalCompanyPartialMatch      = "⚠️ WARNING: Partial match on sanctions list"
	signalOwnerSanctioned          = "⛔ CRITICAL: Owner %s found on sanctions list"
	signalOwnerPartialMatch        = "⚠️ WARNING: Owner %s partially matches sanctions list"
	signalSanctionsIncomplete      = "Sanctions screening incomplete: %s"
	signalOwnerSanctionsIncomplete = "Sanctions screening incomplete for owner %s: %s"
	signalCompanyStatus            = "Company status: %s"
	signalNegativeNews             = "Negative news: %s"
	signalWatchlistMatch           = "Watchlist match on %s: %s"
	signalRegistryNotFound         = "Company not found in %s"
)

const noRegistrationReason = "No registration number provided"

// SourceWatchlists is recorded in data_sources when the watchlist was consulted.
const SourceWatchlists = "Risk Watchlists"

// ExternalSources are the providers the External stage consults. Any of
// them may be nil, in which case that category reports it was not checked.
type ExternalSources struct {
	// Verifiers are tried in order for exact lookups by registration number.
	Verifiers []provider.CountryVerifier
	// Registry is the fallback lookup by name.
	Registry  provider.RegistryLookup
	News      provider.NewsSearcher
	Sentiment provider.SentimentScorer
	Sanctions provider.SanctionsMatcher
	Watchlist provider.WatchlistChecker
}

type ExternalConfig struct {
	NewsWindow     time.Duration
	NewsMaxResults int
}

type ExternalGatherer struct {
	src ExternalSources
	cfg ExternalConfig
}

func NewExternalGatherer(src ExternalSources, cfg ExternalConfig) *ExternalGatherer {
	if cfg.NewsWindow <= 0 {
		cfg.NewsWindow = DefaultNewsWindow
	}
	if cfg.NewsMaxResults <= 0 {
		cfg.NewsMaxResults = DefaultNewsMaxResults
	}
	return &ExternalGatherer{src: src, cfg: cfg}
}

// findings are the side outputs of one category, merged in fixed order.
type findings struct {
	signals []string
	sources []string
}

// Gather runs the registry, news, sanctions and watchlist checks
// concurrently. A failing category records its error on its own field and
// the others are unaffected, so Gather itself never returns an error.
func (e *ExternalGatherer) Gather(ctx context.Context, s model.SupplierIdentity) (model.ExternalIntelligence, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "supplierrisk.brain.external"})

	out := model.EmptyExternalIntelligence("")
	var regF, newsF, sanctionsF, watchF findings

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		guardCategory(gctx, "registry", func() {
			out.CompanyRegistry, regF = e.checkRegistry(gctx, s)
		}, func(err error) {
			out.CompanyRegistry = model.RegistryRecord{Error: err.Error()}
		})
		return nil
	})
	g.Go(func() error {
		guardCategory(gctx, "news", func() {
			out.NewsAnalysis, newsF = e.checkNews(gctx, s)
		}, func(err error) {
			out.NewsAnalysis = failedNews(err)
		})
		return nil
	})
	g.Go(func() error {
		guardCategory(gctx, "sanctions", func() {
			out.SanctionsCheck, sanctionsF = e.checkSanctions(gctx, s)
		}, func(err error) {
			out.SanctionsCheck = failedSanctions(s, err)
			sanctionsF = findings{signals: []string{fmt.Sprintf(signalSanctionsIncomplete, err)}}
		})
		return nil
	})
	g.Go(func() error {
		guardCategory(gctx, "watchlist", func() {
			out.WatchlistCheck, watchF = e.checkWatchlist(gctx, s)
		}, func(err error) {
			out.WatchlistCheck = model.WatchlistCheck{Status: model.WatchlistError, Matches: []model.WatchlistHit{}, Error: err.Error()}
		})
		return nil
	})
	_ = g.Wait()

	for _, f := range []findings{regF, newsF, sanctionsF, watchF} {
		out.RiskSignals = append(out.RiskSignals, f.signals...)
		out.DataSources = append(out.DataSources, f.sources...)
	}

	slog.InfoContext(ctx, "external intelligence gathered",
		"risk_signals", len(out.RiskSignals),
		"data_sources", len(out.DataSources),
		"sanctions_level", out.SanctionsCheck.CompanyMatch.RiskLevel,
		"overall_sentiment", out.NewsAnalysis.OverallSentiment)

	return out, nil
}

// guardCategory turns a panic in one category into that category's error.
func guardCategory(ctx context.Context, name string, fn func(), onPanic func(error)) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "external check panicked",
				"category", name,
				"panic", r,
				"stack", string(debug.Stack()))
			onPanic(fmt.Errorf("%s check panicked: %v", name, r))
		}
	}()
	fn()
}

func (e *ExternalGatherer) checkRegistry(ctx context.Context, s model.SupplierIdentity) (model.RegistryRecord, findings) {
	var f findings

	lookup := e.src.Registry
	if s.HasRegistrationNumber() {
		for _, v := range e.src.Verifiers {
			if v.Supports(s.Country) {
				lookup = v
				break
			}
		}
	}
	if lookup == nil {
		return model.RegistryRecord{Error: "registry lookup not configured"}, f
	}

	source := lookup.Source(s.Country)
	rec, err := lookup.Lookup(ctx, provider.RegistryQuery{
		Name:               s.Name,
		RegistrationNumber: strings.TrimSpace(s.RegistrationNumber),
		Country:            s.Country,
	})
	if errors.Is(err, provider.ErrNotFound) {
		f.sources = append(f.sources, source)
		f.signals = append(f.signals, fmt.Sprintf(signalRegistryNotFound, source))
		return model.RegistryRecord{RegistrySource: source, Error: model.RegistryNotFound}, f
	}
	if err != nil {
		slog.WarnContext(ctx, "registry lookup failed", "source", source, "error", err)
		return model.RegistryRecord{RegistrySource: source, Error: err.Error()}, f
	}

	f.sources = append(f.sources, source)
	if rec.Status != "" && !strings.EqualFold(strings.TrimSpace(rec.Status), "active") {
		f.signals = append(f.signals, fmt.Sprintf(signalCompanyStatus, rec.Status))
	}
	return *rec, f
}

func (e *ExternalGatherer) checkNews(ctx context.Context, s model.SupplierIdentity) (model.NewsAnalysis, findings) {
	var f findings
	if e.src.News == nil {
		return failedNews(errors.New("news search not configured")), f
	}

	articles, err := e.src.News.Search(ctx, s.Name, e.cfg.NewsWindow, e.cfg.NewsMaxResults)
	if err != nil {
		slog.WarnContext(ctx, "news search failed", "error", err)
		return failedNews(err), f
	}
	f.sources = append(f.sources, e.src.News.Source())

	analysis := model.NewsAnalysis{Articles: make([]model.NewsArticle, 0, len(articles))}
	for _, a := range articles {
		a.Sentiment, a.SentimentConfidence = model.SentimentNeutral, 0.5
		if e.src.Sentiment != nil {
			a.Sentiment, a.SentimentConfidence = e.src.Sentiment.Score(a.Title + " " + a.Description)
		}
		switch a.Sentiment {
		case model.SentimentPositive:
			analysis.SentimentSummary.Positive++
		case model.SentimentNegative:
			analysis.SentimentSummary.Negative++
			f.signals = append(f.signals, fmt.Sprintf(signalNegativeNews, a.Title))
		default:
			analysis.SentimentSummary.Neutral++
		}
		analysis.Articles = append(analysis.Articles, a)
	}
	analysis.TotalArticles = len(analysis.Articles)
	analysis.OverallSentiment = analysis.SentimentSummary.Overall()
	return analysis, f
}

func failedNews(err error) model.NewsAnalysis {
	return model.NewsAnalysis{
		Articles:         []model.NewsArticle{},
		OverallSentiment: model.OverallNoCoverage,
		Error:            err.Error(),
	}
}

// checkSanctions screens the company and every owner concurrently. Owner
// results keep input order.
func (e *ExternalGatherer) checkSanctions(ctx context.Context, s model.SupplierIdentity) (model.SanctionsCheck, findings) {
	var f findings
	if e.src.Sanctions == nil {
		err := errors.New("sanctions screening not configured")
		f.signals = append(f.signals, fmt.Sprintf(signalSanctionsIncomplete, err))
		return failedSanctions(s, err), f
	}

	owners := s.Owners()
	check := model.SanctionsCheck{OwnerMatches: make([]model.SanctionsMatch, len(owners))}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		check.CompanyMatch = e.matchName(gctx, s.Name)
		return nil
	})
	for i, owner := range owners {
		g.Go(func() error {
			check.OwnerMatches[i] = e.matchName(gctx, owner)
			return nil
		})
	}
	_ = g.Wait()

	if check.CompanyMatch.Error != "" {
		f.signals = append(f.signals, fmt.Sprintf(signalSanctionsIncomplete, check.CompanyMatch.Error))
	}
	for _, m := range check.OwnerMatches {
		if m.Error != "" {
			f.signals = append(f.signals, fmt.Sprintf(signalOwnerSanctionsIncomplete, m.Name, m.Error))
		}
	}
	// The lists only count as consulted when every name was screened against them.
	if check.Complete() {
		f.sources = append(f.sources, e.src.Sanctions.Sources()...)
	}

	switch check.CompanyMatch.RiskLevel {
	case model.SanctionsBlocked:
		f.signals = append(f.signals, SignalCompanySanctioned)
	case model.SanctionsWarning:
		f.signals = append(f.signals, SignalCompanyPartialMatch)
	}
	for _, m := range check.OwnerMatches {
		switch m.RiskLevel {
		case model.SanctionsBlocked:
			f.signals = append(f.signals, fmt.Sprintf(signalOwnerSanctioned, m.Name))
		case model.SanctionsWarning:
			f.signals = append(f.signals, fmt.Sprintf(signalOwnerPartialMatch, m.Name))
		}
	}
	return check, f
}

func (e *ExternalGatherer) matchName(ctx context.Context, name string) model.SanctionsMatch {
	m, err := e.src.Sanctions.Match(ctx, name)
	if err != nil {
		slog.WarnContext(ctx, "sanctions match failed", "name", name, "error", err)
		return model.SanctionsMatch{Name: name, RiskLevel: model.SanctionsClear, MatchedEntries: []string{}, Error: err.Error()}
	}
	if m.MatchedEntries == nil {
		m.MatchedEntries = []string{}
	}
	return m
}

func failedSanctions(s model.SupplierIdentity, err error) model.SanctionsCheck {
	return model.SanctionsCheck{
		CompanyMatch: model.SanctionsMatch{Name: s.Name, RiskLevel: model.SanctionsClear, MatchedEntries: []string{}},
		OwnerMatches: []model.SanctionsMatch{},
		Error:        err.Error(),
	}
}

func (e *ExternalGatherer) checkWatchlist(ctx context.Context, s model.SupplierIdentity) (model.WatchlistCheck, findings) {
	var f findings
	if !s.HasRegistrationNumber() {
		return model.WatchlistCheck{Status: model.WatchlistSkipped, Reason: noRegistrationReason, Matches: []model.WatchlistHit{}}, f
	}
	if e.src.Watchlist == nil {
		return model.WatchlistCheck{Status: model.WatchlistError, Matches: []model.WatchlistHit{}, Error: "watchlist not configured"}, f
	}

	check, err := e.src.Watchlist.Check(ctx, s.Name, strings.TrimSpace(s.RegistrationNumber), s.Country)
	if err != nil {
		slog.WarnContext(ctx, "watchlist check failed", "error", err)
		return model.WatchlistCheck{Status: model.WatchlistError, Matches: []model.WatchlistHit{}, Error: err.Error()}, f
	}
	if check.Matches == nil {
		check.Matches = []model.WatchlistHit{}
	}

	f.sources = append(f.sources, SourceWatchlists)
	for _, hit := range check.Matches {
		reason := hit.Reason
		if reason == "" {
			reason = hit.Entry
		}
		f.signals = append(f.signals, fmt.Sprintf(signalWatchlistMatch, hit.List, reason))
	}
	return check, f
}
