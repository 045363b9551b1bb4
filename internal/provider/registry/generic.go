package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
)

// Generic records which registry would hold the company without verifying
// it. It is the fallback when no country-specific lookup applies.
type Generic struct{}

func (Generic) Lookup(_ context.Context, q provider.RegistryQuery) (*model.RegistryRecord, error) {
	source, note := registryFor(q.Country)
	return &model.RegistryRecord{
		Success:        true,
		CompanyName:    q.Name,
		CompanyNumber:  q.RegistrationNumber,
		RegistrySource: source,
		Verified:       false,
		Note:           note,
	}, nil
}

func (Generic) Source(country string) string {
	return fmt.Sprintf("%s Business Registry", strings.TrimSpace(country))
}

func registryFor(country string) (source, note string) {
	c := strings.ToLower(strings.TrimSpace(country))
	switch {
	case slices.Contains(UKCountries, c):
		return SourceCompaniesHouse, "UK companies are verified against Companies House when a registration number is supplied"
	case c == "uae" || c == "united arab emirates":
		return "UAE Ministry of Economy", "UAE verification requires the Ministry of Economy register"
	case c == "usa" || c == "us" || c == "united states":
		return "State-specific registries", "US incorporation is recorded by the state of formation"
	default:
		return fmt.Sprintf("%s National Registry", strings.TrimSpace(country)), "No automated registry integration for this country"
	}
}

// IsUK reports whether country is one of the UK spellings.
func IsUK(country string) bool {
	return slices.Contains(UKCountries, strings.ToLower(strings.TrimSpace(country)))
}
