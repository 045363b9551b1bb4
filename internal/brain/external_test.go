package brain_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/brain"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
)

var _ = Describe("ExternalGatherer", func() {
	var (
		ctx       context.Context
		verifier  *mockRegistry
		generic   *mockRegistry
		news      *mockNews
		scorer    fixedScorer
		sanctions *mockSanctions
		watchlist *mockWatchlist
		supplier  model.SupplierIdentity
	)

	gather := func() model.ExternalIntelligence {
		g := brain.NewExternalGatherer(brain.ExternalSources{
			Verifiers: []provider.CountryVerifier{verifier},
			Registry:  generic,
			News:      news,
			Sentiment: scorer,
			Sanctions: sanctions,
			Watchlist: watchlist,
		}, brain.ExternalConfig{})
		out, err := g.Gather(ctx, supplier)
		Expect(err).NotTo(HaveOccurred())
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		verifier = &mockRegistry{
			source:   "UK Companies House",
			supports: func(c string) bool { return c == "UK" },
			lookupFn: func(_ context.Context, q provider.RegistryQuery) (*model.RegistryRecord, error) {
				return &model.RegistryRecord{Success: true, CompanyName: q.Name, CompanyNumber: q.RegistrationNumber, Status: "active", Verified: true}, nil
			},
		}
		generic = &mockRegistry{
			source: "Generic Registry",
			lookupFn: func(_ context.Context, q provider.RegistryQuery) (*model.RegistryRecord, error) {
				return &model.RegistryRecord{Success: true, CompanyName: q.Name, Verified: false}, nil
			},
		}
		news = &mockNews{articles: []model.NewsArticle{
			{Title: "Acme wins award"},
			{Title: "Acme expands plant"},
			{Title: "Acme faces lawsuit"},
		}}
		scorer = fixedScorer{
			"Acme wins award":    model.SentimentPositive,
			"Acme expands plant": model.SentimentPositive,
			"Acme faces lawsuit": model.SentimentNegative,
		}
		sanctions = &mockSanctions{}
		watchlist = &mockWatchlist{result: model.WatchlistCheck{Status: model.WatchlistClear, Matches: []model.WatchlistHit{}}}
		supplier = model.SupplierIdentity{Name: "Acme Ltd", Country: "UK", RegistrationNumber: "01234567"}
	})

	Describe("registry", func() {
		It("uses the country verifier when a registration number is known", func() {
			out := gather()

			Expect(verifier.callCount).To(Equal(1))
			Expect(generic.callCount).To(BeZero())
			Expect(out.CompanyRegistry.Verified).To(BeTrue())
			Expect(out.DataSources[0]).To(Equal("UK Companies House"))
		})

		It("falls back to the generic lookup without a registration number", func() {
			supplier.RegistrationNumber = ""

			out := gather()

			Expect(verifier.callCount).To(BeZero())
			Expect(generic.callCount).To(Equal(1))
			Expect(out.CompanyRegistry.Verified).To(BeFalse())
		})

		It("falls back to the generic lookup for unsupported countries", func() {
			supplier.Country = "France"

			_ = gather()

			Expect(generic.callCount).To(Equal(1))
		})

		It("raises a signal for a non-active status", func() {
			verifier.lookupFn = func(context.Context, provider.RegistryQuery) (*model.RegistryRecord, error) {
				return &model.RegistryRecord{Success: true, Status: "dissolved"}, nil
			}

			out := gather()

			Expect(out.RiskSignals).To(ContainElement("Company status: dissolved"))
		})

		It("does not flag Active in any case", func() {
			verifier.lookupFn = func(context.Context, provider.RegistryQuery) (*model.RegistryRecord, error) {
				return &model.RegistryRecord{Success: true, Status: "Active"}, nil
			}

			Expect(gather().RiskSignals).NotTo(ContainElement(HavePrefix("Company status")))
		})

		It("keeps the other categories when the registry fails", func() {
			verifier.lookupFn = func(context.Context, provider.RegistryQuery) (*model.RegistryRecord, error) {
				return nil, errors.New("registry timeout")
			}

			out := gather()

			Expect(out.CompanyRegistry.Error).To(Equal("registry timeout"))
			Expect(out.NewsAnalysis.TotalArticles).To(Equal(3))
			Expect(out.DataSources).NotTo(ContainElement("UK Companies House"))
			Expect(out.DataSources).To(ContainElement("NewsAPI"))
		})

		It("contains a panicking registry to its own field", func() {
			verifier.lookupFn = func(context.Context, provider.RegistryQuery) (*model.RegistryRecord, error) {
				panic("nil map")
			}

			out := gather()

			Expect(out.CompanyRegistry.Error).To(ContainSubstring("registry check panicked"))
			Expect(out.SanctionsCheck.CompanyMatch.RiskLevel).To(Equal(model.SanctionsClear))
		})

		It("reports a company missing from the registry", func() {
			verifier.lookupFn = func(context.Context, provider.RegistryQuery) (*model.RegistryRecord, error) {
				return nil, provider.ErrNotFound
			}

			out := gather()

			Expect(out.CompanyRegistry.Success).To(BeFalse())
			Expect(out.RiskSignals).To(ContainElement("Company not found in UK Companies House"))
		})
	})

	Describe("news", func() {
		It("scores articles in order and aggregates mixed coverage", func() {
			out := gather()

			Expect(out.NewsAnalysis.Articles).To(HaveLen(3))
			Expect(out.NewsAnalysis.Articles[2].Sentiment).To(Equal(model.SentimentNegative))
			Expect(out.NewsAnalysis.SentimentSummary).To(Equal(model.SentimentSummary{Positive: 2, Negative: 1}))
			Expect(out.NewsAnalysis.OverallSentiment).To(Equal(model.OverallMixed))
			Expect(out.RiskSignals).To(ContainElement("Negative news: Acme faces lawsuit"))
		})

		It("aggregates all-positive coverage", func() {
			news.articles = news.articles[:2]
			news.articles = append(news.articles, model.NewsArticle{Title: "Acme wins award"})

			Expect(gather().NewsAnalysis.OverallSentiment).To(Equal(model.OverallMostlyPositive))
		})

		It("reports no coverage for zero articles", func() {
			news.articles = nil

			out := gather()

			Expect(out.NewsAnalysis.OverallSentiment).To(Equal(model.OverallNoCoverage))
			Expect(out.NewsAnalysis.Articles).NotTo(BeNil())
		})

		It("records search failures without a data source", func() {
			news.err = errors.New("rate limited")

			out := gather()

			Expect(out.NewsAnalysis.Error).To(Equal("rate limited"))
			Expect(out.DataSources).NotTo(ContainElement("NewsAPI"))
		})
	})

	Describe("sanctions", func() {
		It("escalates a blocked company as critical", func() {
			sanctions.levels = map[string]model.SanctionsRiskLevel{"Acme Ltd": model.SanctionsBlocked}

			out := gather()

			Expect(out.SanctionsCheck.CompanyMatch.RiskLevel).To(Equal(model.SanctionsBlocked))
			Expect(out.RiskSignals).To(ContainElement(brain.SignalCompanySanctioned))
		})

		It("escalates a partial company match as a warning", func() {
			sanctions.levels = map[string]model.SanctionsRiskLevel{"Acme Ltd": model.SanctionsWarning}

			Expect(gather().RiskSignals).To(ContainElement(brain.SignalCompanyPartialMatch))
		})

		It("checks every distinct owner in input order", func() {
			supplier.OwnerNames = []string{"Jane Roe", "John Doe", "jane roe", " "}
			sanctions.levels = map[string]model.SanctionsRiskLevel{
				"John Doe": model.SanctionsBlocked,
				"Jane Roe": model.SanctionsWarning,
			}

			out := gather()

			Expect(out.SanctionsCheck.OwnerMatches).To(HaveLen(2))
			Expect(out.SanctionsCheck.OwnerMatches[0].Name).To(Equal("Jane Roe"))
			Expect(out.SanctionsCheck.OwnerMatches[1].RiskLevel).To(Equal(model.SanctionsBlocked))
			Expect(out.RiskSignals).To(ContainElements(
				"⚠️ WARNING: Owner Jane Roe partially matches sanctions list",
				"⛔ CRITICAL: Owner John Doe found on sanctions list",
			))
		})

		It("records a failed owner check on that owner only", func() {
			supplier.OwnerNames = []string{"Jane Roe"}
			sanctions.errFor = map[string]error{"Jane Roe": errors.New("list unavailable")}

			out := gather()

			Expect(out.SanctionsCheck.OwnerMatches[0].Error).To(Equal("list unavailable"))
			Expect(out.SanctionsCheck.OwnerMatches[0].RiskLevel).To(Equal(model.SanctionsClear))
			Expect(out.SanctionsCheck.CompanyMatch.Error).To(BeEmpty())
			Expect(out.RiskSignals).To(ContainElement("Sanctions screening incomplete for owner Jane Roe: list unavailable"))
			Expect(out.DataSources).NotTo(ContainElement("OFAC SDN List"))
			Expect(out.IncompleteChecks()).To(Equal([]string{"sanctions"}))
		})

		It("does not count the lists as consulted when the company check fails", func() {
			sanctions.errFor = map[string]error{"Acme Ltd": errors.New("list unavailable")}

			out := gather()

			Expect(out.SanctionsCheck.CompanyMatch.Error).To(Equal("list unavailable"))
			Expect(out.RiskSignals).To(ContainElement("Sanctions screening incomplete: list unavailable"))
			Expect(out.DataSources).To(Equal([]string{"UK Companies House", "NewsAPI", brain.SourceWatchlists}))
			Expect(out.SanctionsCheck.Complete()).To(BeFalse())
		})

		It("flags screening as incomplete when no matcher is configured", func() {
			g := brain.NewExternalGatherer(brain.ExternalSources{
				Verifiers: []provider.CountryVerifier{verifier},
				News:      news,
				Sentiment: scorer,
				Watchlist: watchlist,
			}, brain.ExternalConfig{})

			out, err := g.Gather(ctx, supplier)

			Expect(err).NotTo(HaveOccurred())
			Expect(out.SanctionsCheck.Error).To(Equal("sanctions screening not configured"))
			Expect(out.RiskSignals).To(ContainElement("Sanctions screening incomplete: sanctions screening not configured"))
			Expect(out.DataSources).NotTo(ContainElement("EU Consolidated Sanctions List"))
			Expect(out.IncompleteChecks()).To(Equal([]string{"sanctions"}))
		})

		It("lists every sanctions source after a complete screen", func() {
			out := gather()

			Expect(out.SanctionsCheck.Complete()).To(BeTrue())
			Expect(out.IncompleteChecks()).To(BeEmpty())
			Expect(out.DataSources).To(ContainElements("EU Consolidated Sanctions List", "OFAC SDN List"))
		})
	})

	Describe("watchlist", func() {
		It("is skipped without a registration number", func() {
			supplier.RegistrationNumber = "  "

			out := gather()

			Expect(watchlist.callCount).To(BeZero())
			Expect(out.WatchlistCheck.Status).To(Equal(model.WatchlistSkipped))
			Expect(out.WatchlistCheck.Reason).To(Equal("No registration number provided"))
			Expect(out.DataSources).NotTo(ContainElement(brain.SourceWatchlists))
		})

		It("raises a signal per hit", func() {
			watchlist.result = model.WatchlistCheck{
				Status:  model.WatchlistFlagged,
				Matches: []model.WatchlistHit{{List: "Internal Blacklist", Entry: "Acme Ltd", Reason: "Invoice fraud 2024"}},
			}

			out := gather()

			Expect(out.RiskSignals).To(ContainElement("Watchlist match on Internal Blacklist: Invoice fraud 2024"))
		})
	})

	It("merges signals and sources in a fixed category order", func() {
		verifier.lookupFn = func(context.Context, provider.RegistryQuery) (*model.RegistryRecord, error) {
			return &model.RegistryRecord{Success: true, Status: "liquidation"}, nil
		}
		sanctions.levels = map[string]model.SanctionsRiskLevel{"Acme Ltd": model.SanctionsWarning}

		for i := 0; i < 5; i++ {
			out := gather()
			Expect(out.RiskSignals).To(Equal([]string{
				"Company status: liquidation",
				"Negative news: Acme faces lawsuit",
				brain.SignalCompanyPartialMatch,
			}))
			Expect(out.DataSources).To(Equal([]string{
				"UK Companies House",
				"NewsAPI",
				"EU Consolidated Sanctions List",
				"OFAC SDN List",
				brain.SourceWatchlists,
			}))
		}
	})
})
