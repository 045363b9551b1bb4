package sanctions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

const SourceWatchlists = "Risk Watchlists"

const noRegistrationReason = "No registration number provided"

// WatchlistFile is the on-disk YAML layout:
//
//	lists:
//	  - name: Internal Supplier Blacklist
//	    entries:
//	      - name: Shady Imports Ltd
//	        registration_number: "12345678"
//	        country: UK
//	        reason: Invoice fraud 2024
type WatchlistFile struct {
	Lists []WatchlistList `yaml:"lists"`
}

type WatchlistList struct {
	Name    string           `yaml:"name"`
	Entries []WatchlistEntry `yaml:"entries"`
}

type WatchlistEntry struct {
	Name               string `yaml:"name"`
	RegistrationNumber string `yaml:"registration_number"`
	Country            string `yaml:"country"`
	Reason             string `yaml:"reason"`
}

// Watchlist matches suppliers by registration number (scoped to country when
// the entry names one) or by exact normalized name.
type Watchlist struct {
	lists []WatchlistList
}

func NewWatchlist(file WatchlistFile) *Watchlist {
	return &Watchlist{lists: file.Lists}
}

// LoadWatchlist reads a YAML watchlist. A missing file yields an empty
// watchlist so deployments without one still screen as clear.
func LoadWatchlist(path string) (*Watchlist, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewWatchlist(WatchlistFile{}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open watchlist: %w", err)
	}
	defer f.Close()
	return ParseWatchlist(f)
}

func ParseWatchlist(r io.Reader) (*Watchlist, error) {
	var file WatchlistFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}
	return NewWatchlist(file), nil
}

func (w *Watchlist) Check(_ context.Context, name, registrationNumber, country string) (model.WatchlistCheck, error) {
	result := model.WatchlistCheck{Status: model.WatchlistClear, Matches: []model.WatchlistHit{}}

	regNo := normalize(registrationNumber)
	if regNo == "" {
		result.Status = model.WatchlistSkipped
		result.Reason = noRegistrationReason
		return result, nil
	}
	q := normalize(name)

	for _, list := range w.lists {
		for _, e := range list.Entries {
			if !e.matches(q, regNo, country) {
				continue
			}
			entry := e.Name
			if entry == "" {
				entry = e.RegistrationNumber
			}
			result.Matches = append(result.Matches, model.WatchlistHit{
				List:   list.Name,
				Entry:  entry,
				Reason: e.Reason,
			})
		}
	}

	if len(result.Matches) > 0 {
		result.Status = model.WatchlistFlagged
		result.Reason = fmt.Sprintf("Found on %d watchlist entr%s", len(result.Matches), plural(len(result.Matches)))
	} else {
		result.Reason = "No matches found in risk watchlists"
	}
	return result, nil
}

func (e WatchlistEntry) matches(name, regNo, country string) bool {
	if e.Country != "" && country != "" && !strings.EqualFold(strings.TrimSpace(e.Country), strings.TrimSpace(country)) {
		return false
	}
	if r := normalize(e.RegistrationNumber); r != "" && r == regNo {
		return true
	}
	return name != "" && normalize(e.Name) == name
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
