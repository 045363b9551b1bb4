package model

import (
	"errors"
	"strings"
)

var (
	ErrMissingSupplierName    = errors.New("supplier name is required")
	ErrMissingSupplierCountry = errors.New("supplier country is required")
)

// SupplierIdentity is the caller-supplied input to an evaluation. Stages
// receive it by value and never modify it.
type SupplierIdentity struct {
	Name               string   `json:"name"`
	Country            string   `json:"country"`
	BusinessContext    string   `json:"business_context,omitempty"`
	DocumentPaths      []string `json:"document_paths"`
	RegistrationNumber string   `json:"registration_number,omitempty"`
	OwnerNames         []string `json:"owner_names"`
}

func (s SupplierIdentity) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrMissingSupplierName
	}
	if strings.TrimSpace(s.Country) == "" {
		return ErrMissingSupplierCountry
	}
	return nil
}

// HasRegistrationNumber reports whether an exact registry lookup is possible.
func (s SupplierIdentity) HasRegistrationNumber() bool {
	return strings.TrimSpace(s.RegistrationNumber) != ""
}

// Owners returns the distinct, non-blank owner names in input order.
func (s SupplierIdentity) Owners() []string {
	seen := make(map[string]struct{}, len(s.OwnerNames))
	out := make([]string, 0, len(s.OwnerNames))
	for _, n := range s.OwnerNames {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
