// Package sanctions screens names against consolidated sanctions lists and
// a local risk watchlist.
package sanctions

import (
	"context"
	"slices"
	"strings"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

const (
	SourceEU   = "EU Consolidated Sanctions List"
	SourceOFAC = "OFAC SDN List"
	SourceUN   = "UN Security Council Sanctions"
)

// maxPartialMatches bounds matched_entries on a warning.
const maxPartialMatches = 5

// Lists holds normalized (lowercased, trimmed) entity and individual names.
type Lists struct {
	Entities    []string       `json:"entities"`
	Individuals []string       `json:"individuals"`
	Sources     map[string]int `json:"sources"` // source name -> entries loaded
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Matcher classifies names against Lists:
// exact match on either list is blocked, a substring match in either
// direction is a warning, anything else is clear. Partial matching has no
// minimum length, so short names can produce false-positive warnings.
type Matcher struct {
	entities    map[string]struct{}
	individuals map[string]struct{}
	entityList  []string
	personList  []string
	sources     []string
}

func NewMatcher(lists Lists) *Matcher {
	m := &Matcher{
		entities:    make(map[string]struct{}, len(lists.Entities)),
		individuals: make(map[string]struct{}, len(lists.Individuals)),
	}
	for _, e := range lists.Entities {
		if e = normalize(e); e != "" {
			m.entities[e] = struct{}{}
		}
	}
	for _, i := range lists.Individuals {
		if i = normalize(i); i != "" {
			m.individuals[i] = struct{}{}
		}
	}
	m.entityList = sortedKeys(m.entities)
	m.personList = sortedKeys(m.individuals)

	for source := range lists.Sources {
		m.sources = append(m.sources, source)
	}
	slices.Sort(m.sources)
	return m
}

func (m *Matcher) Match(_ context.Context, name string) (model.SanctionsMatch, error) {
	result := model.SanctionsMatch{
		Name:           name,
		RiskLevel:      model.SanctionsClear,
		MatchedEntries: []string{},
	}

	q := normalize(name)
	if q == "" {
		return result, nil
	}

	_, entityHit := m.entities[q]
	_, personHit := m.individuals[q]
	if entityHit || personHit {
		result.RiskLevel = model.SanctionsBlocked
		result.MatchedEntries = []string{q}
		return result, nil
	}

	partial := append(partialMatches(q, m.entityList), partialMatches(q, m.personList)...)
	if len(partial) > 0 {
		result.RiskLevel = model.SanctionsWarning
		result.MatchedEntries = partial
	}
	return result, nil
}

func (m *Matcher) Sources() []string {
	return slices.Clone(m.sources)
}

// Size returns the number of distinct entity and individual names.
func (m *Matcher) Size() (entities, individuals int) {
	return len(m.entities), len(m.individuals)
}

func partialMatches(q string, list []string) []string {
	var out []string
	for _, entry := range list {
		if strings.Contains(entry, q) || strings.Contains(q, entry) {
			out = append(out, entry)
			if len(out) == maxPartialMatches {
				break
			}
		}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
