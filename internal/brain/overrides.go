package brain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

// MinMajorViolations is how many compliance violations force a High rating.
const MinMajorViolations = 2

var (
	criminalKeywords   = []string{"fraud", "criminal", "money laundering", "bribery", "embezzlement"}
	inactiveStatuses   = []string{"inactive", "dissolved", "liquidation", "struck off", "struck-off", "closed", "removed", "receivership", "insolvency"}
	violationKeywords  = []string{"violation", "non-compliance", "non-compliant", "noncompliance"}
	negativeNewsPrefix = strings.SplitN(signalNegativeNews, "%s", 2)[0]
)

// ApplyOverrides forces High risk when hard evidence is present, whatever
// the reasoning call concluded. Each trigger is added once to the negative
// factors and override reasons; applying twice changes nothing. It returns
// the triggers found.
func ApplyOverrides(d *model.FinalDecision, state model.EvaluationState) []string {
	triggers := OverrideTriggers(*d, state)
	if len(triggers) == 0 {
		return nil
	}

	d.RiskLevel = model.RiskHigh
	for _, t := range triggers {
		if !slices.Contains(d.NegativeFactors, t) {
			d.NegativeFactors = append(d.NegativeFactors, t)
		}
		if !slices.Contains(d.OverrideReasons, t) {
			d.OverrideReasons = append(d.OverrideReasons, t)
		}
	}
	return triggers
}

// OverrideTriggers lists the hard-evidence findings in state, in a fixed
// order: sanctions, criminal evidence, registry status, violations.
func OverrideTriggers(d model.FinalDecision, state model.EvaluationState) []string {
	var triggers []string
	add := func(t string) {
		if !slices.Contains(triggers, t) {
			triggers = append(triggers, t)
		}
	}

	ext := state.ExternalIntelligence
	if ext.SanctionsCheck.CompanyMatch.RiskLevel == model.SanctionsBlocked {
		add("Company found on sanctions list")
	}
	for _, m := range ext.SanctionsCheck.OwnerMatches {
		if m.RiskLevel == model.SanctionsBlocked {
			add(fmt.Sprintf("Owner %s found on sanctions list", m.Name))
		}
	}

	for _, a := range ext.NewsAnalysis.Articles {
		if a.Sentiment == model.SentimentNegative && containsAny(strings.ToLower(a.Title+" "+a.Description), criminalKeywords) {
			add(fmt.Sprintf("Evidence of fraud or criminal activity: %s", a.Title))
		}
	}
	for _, sig := range ext.RiskSignals {
		if strings.HasPrefix(sig, negativeNewsPrefix) {
			continue
		}
		if containsAny(strings.ToLower(sig), criminalKeywords) {
			add(fmt.Sprintf("Evidence of fraud or criminal activity: %s", sig))
		}
	}

	if status := strings.TrimSpace(ext.CompanyRegistry.Status); status != "" &&
		containsAny(strings.ToLower(status), inactiveStatuses) {
		add(fmt.Sprintf("Company registry status is %s", status))
	}

	if n := countViolations(d, state); n >= MinMajorViolations {
		add(fmt.Sprintf("Multiple major compliance violations (%d)", n))
	}

	return triggers
}

func countViolations(d model.FinalDecision, state model.EvaluationState) int {
	n := 0
	for _, s := range state.DocumentAnalysis.Inconsistencies {
		if containsAny(strings.ToLower(s), violationKeywords) {
			n++
		}
	}
	for _, s := range d.NegativeFactors {
		if slices.Contains(d.OverrideReasons, s) {
			continue
		}
		if containsAny(strings.ToLower(s), violationKeywords) {
			n++
		}
	}
	return n
}
