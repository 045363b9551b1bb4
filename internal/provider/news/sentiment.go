package news

import (
	"math"
	"strings"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

var positiveKeywords = []string{
	"award", "win", "success", "growth", "profit", "expansion",
	"innovation", "achievement", "excellence", "breakthrough",
	"record", "leading", "pioneer", "sustainable", "approved",
	"partnership", "collaboration", "contract", "milestone",
}

var negativeKeywords = []string{
	"fraud", "scandal", "lawsuit", "fine", "penalty", "investigation",
	"violation", "bankrupt", "loss", "decline", "failure", "breach",
	"controversy", "criticized", "accused", "suspended", "illegal",
	"complaint", "dispute", "problem", "issue", "concern", "risk",
}

// KeywordScorer counts positive and negative keyword hits (substring, case
// insensitive). The larger count wins; confidence starts at 0.6 and grows
// 0.1 per hit of margin up to 0.95. Ties are neutral at 0.5.
type KeywordScorer struct{}

func (KeywordScorer) Score(text string) (model.Sentiment, float64) {
	lower := strings.ToLower(text)
	pos := countHits(lower, positiveKeywords)
	neg := countHits(lower, negativeKeywords)

	switch {
	case pos > neg:
		return model.SentimentPositive, marginConfidence(pos - neg)
	case neg > pos:
		return model.SentimentNegative, marginConfidence(neg - pos)
	default:
		return model.SentimentNeutral, 0.5
	}
}

func countHits(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

func marginConfidence(margin int) float64 {
	c := math.Min(0.6+float64(margin)*0.1, 0.95)
	// Keep 0.7 as 0.7 rather than 0.7000000000000001.
	return math.Round(c*100) / 100
}
