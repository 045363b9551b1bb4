package model_test

import (
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

var _ = Describe("SupplierIdentity", func() {
	It("requires name and country", func() {
		Expect(model.SupplierIdentity{Country: "UK"}.Validate()).To(MatchError(model.ErrMissingSupplierName))
		Expect(model.SupplierIdentity{Name: "Acme"}.Validate()).To(MatchError(model.ErrMissingSupplierCountry))
		Expect(model.SupplierIdentity{Name: "Acme", Country: "UK"}.Validate()).To(Succeed())
	})

	It("dedupes owners case-insensitively in input order", func() {
		s := model.SupplierIdentity{OwnerNames: []string{" Jane Doe", "", "john roe", "JANE DOE"}}
		Expect(s.Owners()).To(Equal([]string{"Jane Doe", "john roe"}))
	})
})

var _ = Describe("SentimentSummary.Overall", func() {
	DescribeTable("aggregation",
		func(pos, neg, neu int, want model.OverallSentiment) {
			s := model.SentimentSummary{Positive: pos, Negative: neg, Neutral: neu}
			Expect(s.Overall()).To(Equal(want))
		},
		Entry("no articles", 0, 0, 0, model.OverallNoCoverage),
		Entry("positive, positive, negative", 2, 1, 0, model.OverallMixed),
		Entry("one of each", 1, 1, 0, model.OverallMixed),
		Entry("negative majority with one positive", 1, 4, 0, model.OverallMostlyNegative),
		Entry("positive majority with one negative", 5, 1, 1, model.OverallMostlyPositive),
		Entry("one of each among many neutral", 1, 1, 9, model.OverallMixed),
		Entry("lopsided but no majority", 1, 3, 4, model.OverallMixed),
		Entry("all positive", 3, 0, 0, model.OverallMostlyPositive),
		Entry("negative dominant", 0, 3, 1, model.OverallMostlyNegative),
		Entry("neutral heavy", 1, 0, 2, model.OverallNeutral),
		Entry("all neutral", 0, 0, 4, model.OverallNeutral),
	)
})

var _ = Describe("ExternalIntelligence.IncompleteChecks", func() {
	var ext model.ExternalIntelligence

	BeforeEach(func() {
		ext = model.EmptyExternalIntelligence("")
	})

	It("is empty for a clean gather", func() {
		Expect(ext.IncompleteChecks()).To(BeEmpty())
	})

	It("does not count a company missing from the registry", func() {
		ext.CompanyRegistry.Error = model.RegistryNotFound
		Expect(ext.IncompleteChecks()).To(BeEmpty())
	})

	It("names every category that did not complete, in order", func() {
		ext.CompanyRegistry.Error = "registry timeout"
		ext.SanctionsCheck.OwnerMatches = []model.SanctionsMatch{{Name: "Bob", RiskLevel: model.SanctionsClear, Error: "list unavailable"}}
		ext.WatchlistCheck.Status = model.WatchlistError

		Expect(ext.IncompleteChecks()).To(Equal([]string{"registry", "sanctions", "watchlist"}))
	})

	It("treats a failed external stage as incomplete everywhere", func() {
		failed := model.EmptyExternalIntelligence("external panicked")
		Expect(failed.IncompleteChecks()).To(Equal([]string{"registry", "news", "sanctions", "watchlist"}))
	})

	It("makes the state's evidence incomplete without a stage error", func() {
		state := model.NewEvaluationState(1, model.SupplierIdentity{Name: "Acme", Country: "UK"}, time.Now())
		Expect(state.ChecksIncomplete()).To(BeFalse())

		state.ExternalIntelligence.SanctionsCheck.Error = "sanctions screening not configured"

		Expect(state.HasUpstreamErrors()).To(BeFalse())
		Expect(state.ChecksIncomplete()).To(BeTrue())
	})
})

var _ = Describe("EvaluationPlan.Validate", func() {
	It("trims blank tasks before counting", func() {
		p := model.EvaluationPlan{Tasks: []string{" a ", "b", "", "c", "d", "e"}}
		Expect(p.Validate()).To(Succeed())
		Expect(p.Tasks).To(Equal([]string{"a", "b", "c", "d", "e"}))
	})

	It("rejects plans outside 5-8 tasks", func() {
		p := model.EvaluationPlan{Tasks: []string{"a", "b"}}
		Expect(errors.Is(p.Validate(), model.ErrMalformedOutput)).To(BeTrue())
	})
})

var _ = Describe("FinalDecision", func() {
	It("parses risk levels case-insensitively", func() {
		lvl, ok := model.ParseRiskLevel(" high ")
		Expect(ok).To(BeTrue())
		Expect(lvl).To(Equal(model.RiskHigh))
		_, ok = model.ParseRiskLevel("severe")
		Expect(ok).To(BeFalse())
	})

	It("builds the safe default", func() {
		now := time.Now()
		d := model.SafeDefaultDecision("Acme", errors.New("boom"), now)
		Expect(d.RiskLevel).To(Equal(model.RiskHigh))
		Expect(d.ConfidenceScore).To(BeZero())
		Expect(d.NegativeFactors).To(ContainElement(model.AssessmentIncomplete))
		Expect(d.RecommendedActions).To(ContainElement(model.ReevaluateAction))
		Expect(d.Reasoning).To(ContainSubstring("boom"))
		Expect(d.Validate()).To(Succeed())
	})
})

var _ = Describe("EvaluationState", func() {
	It("serializes every top-level field with concrete values", func() {
		state := model.NewEvaluationState(42, model.SupplierIdentity{Name: "Acme", Country: "UK"}, time.Now())
		state.Complete(time.Now())

		raw, err := json.Marshal(state)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
		for _, key := range []string{"evaluation_plan", "document_analysis", "rag_answers", "external_intelligence", "final_decision", "workflow_status", "errors"} {
			Expect(decoded).To(HaveKey(key))
			Expect(decoded[key]).NotTo(BeNil())
		}
		Expect(decoded["workflow_status"]).To(Equal("completed"))
	})

	It("keeps failed status through Complete", func() {
		state := model.NewEvaluationState(1, model.SupplierIdentity{Name: "Acme", Country: "UK"}, time.Now())
		state.Fail(model.StageDecision, errors.New("no decision"), time.Now())
		state.Complete(time.Now())
		Expect(state.WorkflowStatus).To(Equal(model.WorkflowStatusFailed))
		Expect(state.Errors).To(HaveLen(1))
	})

	It("normalizes nil collections", func() {
		state := &model.EvaluationState{}
		state.Normalize()
		Expect(state.EvaluationPlan.Tasks).NotTo(BeNil())
		Expect(state.DocumentAnalysis.ExtractedData).NotTo(BeNil())
		Expect(state.ExternalIntelligence.RiskSignals).NotTo(BeNil())
		Expect(state.FinalDecision.EvidenceTrail).NotTo(BeNil())
		Expect(state.ExternalIntelligence.NewsAnalysis.OverallSentiment).To(Equal(model.OverallNoCoverage))
	})
})
