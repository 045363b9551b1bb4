package model

import "time"

type SanctionsRiskLevel string

const (
	SanctionsClear   SanctionsRiskLevel = "clear"
	SanctionsWarning SanctionsRiskLevel = "warning"
	SanctionsBlocked SanctionsRiskLevel = "blocked"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

type OverallSentiment string

const (
	OverallMostlyPositive OverallSentiment = "mostly_positive"
	OverallMostlyNegative OverallSentiment = "mostly_negative"
	OverallMixed          OverallSentiment = "mixed"
	OverallNeutral        OverallSentiment = "neutral"
	OverallNoCoverage     OverallSentiment = "no_coverage"
)

type WatchlistStatus string

const (
	WatchlistClear   WatchlistStatus = "clear"
	WatchlistFlagged WatchlistStatus = "flagged"
	WatchlistSkipped WatchlistStatus = "skipped"
	WatchlistError   WatchlistStatus = "error"
)

// RegistryNotFound is the registry error for a lookup that ran and found
// nothing. It is a finding, not a failed check.
const RegistryNotFound = "Company not found in registry"

type RegistryRecord struct {
	Success           bool   `json:"success"`
	CompanyName       string `json:"company_name,omitempty"`
	CompanyNumber     string `json:"company_number,omitempty"`
	Status            string `json:"status,omitempty"`
	Address           string `json:"address,omitempty"`
	IncorporationDate string `json:"incorporation_date,omitempty"`
	CompanyType       string `json:"company_type,omitempty"`
	RegistrySource    string `json:"registry_source,omitempty"`
	Verified          bool   `json:"verified"`
	Note              string `json:"note,omitempty"`
	Error             string `json:"error,omitempty"`
}

type NewsArticle struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	URL                 string    `json:"url"`
	PublishedAt         time.Time `json:"published_at"`
	Source              string    `json:"source"`
	Sentiment           Sentiment `json:"sentiment"`
	SentimentConfidence float64   `json:"sentiment_confidence"`
}

type SentimentSummary struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

func (s SentimentSummary) Total() int {
	return s.Positive + s.Negative + s.Neutral
}

// Overall aggregates per-article sentiment. Coverage is mixed when both
// polarities are present and comparable, meaning the smaller side is at
// least half the larger one; otherwise a clear majority decides, and both
// polarities without one is still mixed.
func (s SentimentSummary) Overall() OverallSentiment {
	both := s.Positive > 0 && s.Negative > 0
	switch {
	case s.Total() == 0:
		return OverallNoCoverage
	case both && 2*min(s.Positive, s.Negative) >= max(s.Positive, s.Negative):
		return OverallMixed
	case s.Negative > s.Positive+s.Neutral:
		return OverallMostlyNegative
	case s.Positive > s.Negative+s.Neutral:
		return OverallMostlyPositive
	case both:
		return OverallMixed
	default:
		return OverallNeutral
	}
}

type NewsAnalysis struct {
	TotalArticles    int              `json:"total_articles"`
	Articles         []NewsArticle    `json:"articles"`
	SentimentSummary SentimentSummary `json:"sentiment_summary"`
	OverallSentiment OverallSentiment `json:"overall_sentiment"`
	Error            string           `json:"error,omitempty"`
}

type SanctionsMatch struct {
	Name           string             `json:"name"`
	RiskLevel      SanctionsRiskLevel `json:"risk_level"`
	MatchedEntries []string           `json:"matched_entries"`
	Error          string             `json:"error,omitempty"`
}

type SanctionsCheck struct {
	CompanyMatch SanctionsMatch   `json:"company_match"`
	OwnerMatches []SanctionsMatch `json:"owner_matches"`
	Error        string           `json:"error,omitempty"`
}

// Complete reports whether the company and every owner were screened.
func (c SanctionsCheck) Complete() bool {
	if c.Error != "" || c.CompanyMatch.Error != "" {
		return false
	}
	for _, m := range c.OwnerMatches {
		if m.Error != "" {
			return false
		}
	}
	return true
}

// Blocked reports whether the company or any owner hit a sanctions list exactly.
func (c SanctionsCheck) Blocked() bool {
	if c.CompanyMatch.RiskLevel == SanctionsBlocked {
		return true
	}
	for _, m := range c.OwnerMatches {
		if m.RiskLevel == SanctionsBlocked {
			return true
		}
	}
	return false
}

type WatchlistHit struct {
	List   string `json:"list"`
	Entry  string `json:"entry"`
	Reason string `json:"reason,omitempty"`
}

type WatchlistCheck struct {
	Status  WatchlistStatus `json:"status"`
	Reason  string          `json:"reason,omitempty"`
	Matches []WatchlistHit  `json:"matches"`
	Error   string          `json:"error,omitempty"`
}

type ExternalIntelligence struct {
	CompanyRegistry RegistryRecord `json:"company_registry"`
	NewsAnalysis    NewsAnalysis   `json:"news_analysis"`
	SanctionsCheck  SanctionsCheck `json:"sanctions_check"`
	WatchlistCheck  WatchlistCheck `json:"watchlist_check"`
	RiskSignals     []string       `json:"risk_signals"`
	DataSources     []string       `json:"data_sources"`
	Error           string         `json:"error,omitempty"`
}

func EmptyExternalIntelligence(errMsg string) ExternalIntelligence {
	ei := ExternalIntelligence{
		CompanyRegistry: RegistryRecord{Error: errMsg},
		NewsAnalysis: NewsAnalysis{
			Articles:         []NewsArticle{},
			OverallSentiment: OverallNoCoverage,
		},
		SanctionsCheck: SanctionsCheck{
			CompanyMatch: SanctionsMatch{RiskLevel: SanctionsClear, MatchedEntries: []string{}},
			OwnerMatches: []SanctionsMatch{},
		},
		WatchlistCheck: WatchlistCheck{Status: WatchlistSkipped, Matches: []WatchlistHit{}},
		RiskSignals:    []string{},
		DataSources:    []string{},
		Error:          errMsg,
	}
	if errMsg != "" {
		ei.SanctionsCheck.Error = errMsg
		ei.WatchlistCheck.Status = WatchlistError
		ei.NewsAnalysis.Error = errMsg
	}
	return ei
}

// IncompleteChecks names the categories whose check could not be run to
// completion, in registry, news, sanctions, watchlist order.
func (e ExternalIntelligence) IncompleteChecks() []string {
	var out []string
	if e.CompanyRegistry.Error != "" && e.CompanyRegistry.Error != RegistryNotFound {
		out = append(out, "registry")
	}
	if e.NewsAnalysis.Error != "" {
		out = append(out, "news")
	}
	if !e.SanctionsCheck.Complete() {
		out = append(out, "sanctions")
	}
	if e.WatchlistCheck.Status == WatchlistError {
		out = append(out, "watchlist")
	}
	return out
}

func (e *ExternalIntelligence) normalize() {
	if e.NewsAnalysis.Articles == nil {
		e.NewsAnalysis.Articles = []NewsArticle{}
	}
	if e.NewsAnalysis.OverallSentiment == "" {
		e.NewsAnalysis.OverallSentiment = e.NewsAnalysis.SentimentSummary.Overall()
	}
	if e.SanctionsCheck.CompanyMatch.MatchedEntries == nil {
		e.SanctionsCheck.CompanyMatch.MatchedEntries = []string{}
	}
	if e.SanctionsCheck.OwnerMatches == nil {
		e.SanctionsCheck.OwnerMatches = []SanctionsMatch{}
	}
	for i := range e.SanctionsCheck.OwnerMatches {
		if e.SanctionsCheck.OwnerMatches[i].MatchedEntries == nil {
			e.SanctionsCheck.OwnerMatches[i].MatchedEntries = []string{}
		}
	}
	if e.WatchlistCheck.Matches == nil {
		e.WatchlistCheck.Matches = []WatchlistHit{}
	}
	e.RiskSignals = nonNil(e.RiskSignals)
	e.DataSources = nonNil(e.DataSources)
}
