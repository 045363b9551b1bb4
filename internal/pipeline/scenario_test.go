package pipeline_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/brain"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/pipeline"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
)

// These runs wire the real stages over provider doubles.
var _ = Describe("Evaluation scenarios", func() {
	var (
		ctx       context.Context
		reasoning *schemaLLM
		registry  *model.RegistryRecord
		sanctions stubSanctions
		supplier  model.SupplierIdentity
	)

	evaluate := func() *model.EvaluationState {
		p, err := pipeline.New(pipeline.Stages{
			Planner:  brain.NewPlanner(reasoning, nil),
			Document: brain.NewDocumentAnalyzer(reasoning, nil, nopReader{}, nopTables{}),
			Policy:   brain.NewPolicyAnswerer(reasoning, nil, emptyRetriever{}, brain.PolicyConfig{}),
			External: brain.NewExternalGatherer(brain.ExternalSources{
				Verifiers: []provider.CountryVerifier{stubVerifier{record: registry}},
				News:      stubNews{},
				Sanctions: sanctions,
				Watchlist: stubWatchlist{},
			}, brain.ExternalConfig{}),
			Decision: brain.NewDecisionMaker(reasoning, nil),
		})
		Expect(err).NotTo(HaveOccurred())
		return p.Evaluate(ctx, supplier)
	}

	BeforeEach(func() {
		ctx = context.Background()
		reasoning = &schemaLLM{responses: map[string]any{
			"evaluation_plan": brain.PlanResponse{
				Tasks: []string{
					"Verify company registration",
					"Review supplier documents",
					"Check export licence requirements",
					"Search recent news",
					"Screen sanctions lists",
				},
				Reasoning: "Standard checks",
			},
			"final_decision": brain.DecisionResponse{
				RiskLevel:       "Low",
				ConfidenceScore: 0.8,
				Reasoning:       "No concerns found",
				PositiveFactors: []string{"Clean sanctions screening"},
				DecisionSummary: "Low risk.",
			},
		}}
		registry = &model.RegistryRecord{Success: true, CompanyName: "ACME LTD", Status: "active", Verified: true}
		sanctions = stubSanctions{}
		supplier = model.SupplierIdentity{Name: "Acme Ltd", Country: "UK", RegistrationNumber: "00000000"}
	})

	It("keeps the reasoning verdict for a clean supplier", func() {
		state := evaluate()

		Expect(state.WorkflowStatus).To(Equal(model.WorkflowStatusCompleted))
		Expect(state.Errors).To(BeEmpty())
		Expect(state.FinalDecision.RiskLevel).To(Equal(model.RiskLow))
		Expect(state.DocumentAnalysis.MissingData).To(Equal([]string{model.NoDocumentsProvided}))
		Expect(state.RAGAnswers.Answers).NotTo(BeEmpty())
		Expect(state.RAGAnswers.Answers[0].Answer).To(Equal(model.NoPolicyAnswer))
		Expect(state.RAGAnswers.Answers[0].Confidence).To(BeZero())
		Expect(state.ExternalIntelligence.CompanyRegistry.CompanyNumber).To(Equal("00000000"))
		Expect(reasoning.calls).To(Equal([]string{"evaluation_plan", "final_decision"}))
	})

	It("forces High for a dissolved company", func() {
		registry.Status = "dissolved"

		state := evaluate()

		d := state.FinalDecision
		Expect(d.RiskLevel).To(Equal(model.RiskHigh))
		Expect(d.NegativeFactors).To(ContainElement(ContainSubstring("dissolved")))
		Expect(d.OverrideReasons).To(ContainElement("Company registry status is dissolved"))
		Expect(state.ExternalIntelligence.RiskSignals).To(ContainElement("Company status: dissolved"))
		Expect(state.WorkflowStatus).To(Equal(model.WorkflowStatusCompleted))
	})

	It("forces High for a sanctioned company despite positive factors", func() {
		sanctions = stubSanctions{blocked: map[string]bool{"Acme Ltd": true}}

		state := evaluate()

		d := state.FinalDecision
		Expect(d.RiskLevel).To(Equal(model.RiskHigh))
		Expect(d.PositiveFactors).To(ContainElement("Clean sanctions screening"))
		Expect(d.NegativeFactors).To(ContainElement("Company found on sanctions list"))
	})

	It("reaches the same verdict when the same supplier is evaluated twice", func() {
		supplier.OwnerNames = []string{"Bob"}
		sanctions = stubSanctions{blocked: map[string]bool{"Bob": true}}

		first := evaluate().FinalDecision
		second := evaluate().FinalDecision

		Expect(first.RiskLevel).To(Equal(model.RiskHigh))
		Expect(first.NegativeFactors).To(ContainElement("Owner Bob found on sanctions list"))
		Expect(second.RiskLevel).To(Equal(first.RiskLevel))
		Expect(second.PositiveFactors).To(ConsistOf(first.PositiveFactors))
		Expect(second.NegativeFactors).To(ConsistOf(first.NegativeFactors))
		Expect(second.OverrideReasons).To(ConsistOf(first.OverrideReasons))
	})

	It("degrades to the fallback plan and caps confidence when planning fails", func() {
		delete(reasoning.responses, "evaluation_plan")

		state := evaluate()

		Expect(state.EvaluationPlan.Tasks).To(HaveLen(7))
		Expect(state.ErrorsFor(model.StagePlanner)).To(HaveLen(1))
		Expect(state.FinalDecision.RiskLevel).To(Equal(model.RiskLow))
		Expect(state.FinalDecision.ConfidenceScore).To(Equal(brain.MaxConfidenceWithErrors))
		Expect(state.WorkflowStatus).To(Equal(model.WorkflowStatusCompleted))
	})

	It("fails the run with a safe default when the decision cannot be made", func() {
		delete(reasoning.responses, "final_decision")
		registry.Status = "dissolved"

		state := evaluate()

		d := state.FinalDecision
		Expect(state.WorkflowStatus).To(Equal(model.WorkflowStatusFailed))
		Expect(d.RiskLevel).To(Equal(model.RiskHigh))
		Expect(d.ConfidenceScore).To(BeZero())
		Expect(d.NegativeFactors).To(Equal([]string{model.AssessmentIncomplete, "Company registry status is dissolved"}))
	})
})
