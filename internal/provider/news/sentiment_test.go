package news_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/news"
)

var _ = Describe("KeywordScorer", func() {
	DescribeTable("scores by keyword margin",
		func(text string, want model.Sentiment, confidence float64) {
			got, conf := news.KeywordScorer{}.Score(text)
			Expect(got).To(Equal(want))
			Expect(conf).To(BeNumerically("~", confidence, 1e-9))
		},
		Entry("award and record profit", "Company wins sustainability award and reports record profits", model.SentimentPositive, 0.95),
		Entry("fraud investigation", "Fraud investigation launched against company officials", model.SentimentNegative, 0.8),
		Entry("no keywords", "Company announces new product line", model.SentimentNeutral, 0.5),
		Entry("balanced", "Growth offset by lawsuit", model.SentimentNeutral, 0.5),
		Entry("single negative hit", "Regulator opens a lawsuit", model.SentimentNegative, 0.7),
	)

	It("is case insensitive", func() {
		got, _ := news.KeywordScorer{}.Score("FRAUD")
		Expect(got).To(Equal(model.SentimentNegative))
	})
})
