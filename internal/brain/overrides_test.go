package brain_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/brain"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

var _ = Describe("ApplyOverrides", func() {
	var (
		state    model.EvaluationState
		decision model.FinalDecision
	)

	BeforeEach(func() {
		state = evaluatedState()
		decision = model.EmptyFinalDecision()
		decision.RiskLevel = model.RiskLow
		decision.ConfidenceScore = 0.9
		decision.PositiveFactors = []string{"Strong financials", "ISO 9001 certified"}
	})

	It("leaves a clean evaluation alone", func() {
		Expect(brain.ApplyOverrides(&decision, state)).To(BeEmpty())
		Expect(decision.RiskLevel).To(Equal(model.RiskLow))
		Expect(decision.OverrideReasons).To(BeEmpty())
	})

	It("forces High for a sanctioned company despite positive evidence", func() {
		state.ExternalIntelligence.SanctionsCheck.CompanyMatch.RiskLevel = model.SanctionsBlocked

		triggers := brain.ApplyOverrides(&decision, state)

		Expect(triggers).To(Equal([]string{"Company found on sanctions list"}))
		Expect(decision.RiskLevel).To(Equal(model.RiskHigh))
		Expect(decision.PositiveFactors).To(HaveLen(2))
		Expect(decision.NegativeFactors).To(ContainElement("Company found on sanctions list"))
	})

	It("does not force High for a partial match", func() {
		state.ExternalIntelligence.SanctionsCheck.CompanyMatch.RiskLevel = model.SanctionsWarning

		Expect(brain.ApplyOverrides(&decision, state)).To(BeEmpty())
	})

	It("names each sanctioned owner", func() {
		state.ExternalIntelligence.SanctionsCheck.OwnerMatches = []model.SanctionsMatch{
			{Name: "Jane Roe", RiskLevel: model.SanctionsClear},
			{Name: "John Doe", RiskLevel: model.SanctionsBlocked},
		}

		Expect(brain.ApplyOverrides(&decision, state)).To(Equal([]string{"Owner John Doe found on sanctions list"}))
	})

	It("is idempotent", func() {
		state.ExternalIntelligence.SanctionsCheck.CompanyMatch.RiskLevel = model.SanctionsBlocked
		state.ExternalIntelligence.CompanyRegistry.Status = "Liquidation"

		brain.ApplyOverrides(&decision, state)
		once := decision.NegativeFactors
		onceReasons := decision.OverrideReasons
		brain.ApplyOverrides(&decision, state)

		Expect(decision.NegativeFactors).To(Equal(once))
		Expect(decision.OverrideReasons).To(Equal(onceReasons))
		Expect(decision.OverrideReasons).To(Equal([]string{
			"Company found on sanctions list",
			"Company registry status is Liquidation",
		}))
	})

	It("treats negative fraud coverage as criminal evidence", func() {
		state.ExternalIntelligence.NewsAnalysis.Articles = []model.NewsArticle{
			{Title: "Acme director charged with fraud", Sentiment: model.SentimentNegative},
			{Title: "Acme cleared of fraud claims", Sentiment: model.SentimentPositive},
		}
		state.ExternalIntelligence.RiskSignals = []string{"Negative news: Acme director charged with fraud"}

		Expect(brain.ApplyOverrides(&decision, state)).To(Equal([]string{
			"Evidence of fraud or criminal activity: Acme director charged with fraud",
		}))
	})

	It("counts compliance violations across documents and factors", func() {
		state.DocumentAnalysis.Inconsistencies = []string{"Export licence violation in 2023"}
		decision.NegativeFactors = []string{"Environmental non-compliance reported"}

		triggers := brain.ApplyOverrides(&decision, state)

		Expect(triggers).To(Equal([]string{"Multiple major compliance violations (2)"}))
		Expect(decision.RiskLevel).To(Equal(model.RiskHigh))
	})

	It("needs at least two violations", func() {
		decision.NegativeFactors = []string{"One labour violation"}

		Expect(brain.ApplyOverrides(&decision, state)).To(BeEmpty())
	})

	It("does not count its own violation reason twice", func() {
		state.DocumentAnalysis.Inconsistencies = []string{"violation A", "violation B"}

		brain.ApplyOverrides(&decision, state)
		brain.ApplyOverrides(&decision, state)

		Expect(decision.OverrideReasons).To(Equal([]string{"Multiple major compliance violations (2)"}))
	})
})
