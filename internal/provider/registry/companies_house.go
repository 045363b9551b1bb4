package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
)

const SourceCompaniesHouse = "UK Companies House"

// UKCountries are the country spellings routed to Companies House.
var UKCountries = []string{"uk", "united kingdom", "gb", "great britain", "england", "scotland", "wales"}

type CompaniesHouseConfig struct {
	APIKey    string
	BaseURL   string
	SearchURL string
	RPS       float64
	Timeout   time.Duration
}

// CompaniesHouse looks companies up by registration number. When the
// profile endpoint rejects the request as unauthorized it retries against
// the public search endpoint.
type CompaniesHouse struct {
	apiKey    string
	baseURL   string
	searchURL string
	http      *http.Client
	limiter   *rate.Limiter
}

func NewCompaniesHouse(cfg CompaniesHouseConfig) *CompaniesHouse {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.company-information.service.gov.uk"
	}
	searchURL := cfg.SearchURL
	if searchURL == "" {
		searchURL = "https://find-and-update.company-information.service.gov.uk/api/search/companies"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	return &CompaniesHouse{
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		searchURL: searchURL,
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, 1),
	}
}

type chAddress struct {
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	Locality     string `json:"locality"`
	PostalCode   string `json:"postal_code"`
}

func (a chAddress) String() string {
	var parts []string
	for _, p := range []string{a.AddressLine1, a.AddressLine2, a.Locality, a.PostalCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type chProfile struct {
	CompanyName    string    `json:"company_name"`
	CompanyNumber  string    `json:"company_number"`
	CompanyStatus  string    `json:"company_status"`
	DateOfCreation string    `json:"date_of_creation"`
	Type           string    `json:"type"`
	Address        chAddress `json:"registered_office_address"`
}

type chSearch struct {
	Items []struct {
		Title          string    `json:"title"`
		CompanyNumber  string    `json:"company_number"`
		CompanyStatus  string    `json:"company_status"`
		DateOfCreation string    `json:"date_of_creation"`
		CompanyType    string    `json:"company_type"`
		Address        chAddress `json:"address"`
	} `json:"items"`
}

func (c *CompaniesHouse) Lookup(ctx context.Context, q provider.RegistryQuery) (*model.RegistryRecord, error) {
	number := strings.TrimSpace(q.RegistrationNumber)
	if number == "" {
		return nil, fmt.Errorf("companies house: registration number is required")
	}

	var profile chProfile
	status, err := c.get(ctx, c.baseURL+"/company/"+url.PathEscape(number), true, &profile)
	switch {
	case err != nil:
		return nil, err
	case status == http.StatusUnauthorized:
		slog.InfoContext(ctx, "companies house profile unauthorized, using public search")
		return c.search(ctx, number)
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("companies house %s: %w", number, provider.ErrNotFound)
	case status != http.StatusOK:
		return nil, fmt.Errorf("companies house status %d", status)
	}

	return &model.RegistryRecord{
		Success:           true,
		CompanyName:       orUnknown(profile.CompanyName),
		CompanyNumber:     orDefault(profile.CompanyNumber, number),
		Status:            orUnknown(profile.CompanyStatus),
		Address:           profile.Address.String(),
		IncorporationDate: orUnknown(profile.DateOfCreation),
		CompanyType:       orUnknown(profile.Type),
		RegistrySource:    SourceCompaniesHouse,
		Verified:          true,
	}, nil
}

func (c *CompaniesHouse) search(ctx context.Context, number string) (*model.RegistryRecord, error) {
	var result chSearch
	status, err := c.get(ctx, c.searchURL+"?q="+url.QueryEscape(number), false, &result)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || (status == http.StatusOK && len(result.Items) == 0) {
		return nil, fmt.Errorf("companies house %s: %w", number, provider.ErrNotFound)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("companies house search status %d", status)
	}

	item := result.Items[0]
	return &model.RegistryRecord{
		Success:           true,
		CompanyName:       orUnknown(item.Title),
		CompanyNumber:     orDefault(item.CompanyNumber, number),
		Status:            orUnknown(item.CompanyStatus),
		Address:           item.Address.String(),
		IncorporationDate: orUnknown(item.DateOfCreation),
		CompanyType:       orUnknown(item.CompanyType),
		RegistrySource:    SourceCompaniesHouse,
		Verified:          true,
		Note:              "Data from Companies House public search",
	}, nil
}

// get decodes a 200 response into dst and reports the status code. Non-200
// bodies are discarded.
func (c *CompaniesHouse) get(ctx context.Context, target string, auth bool, dst any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("companies house rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("companies house request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if auth && c.apiKey != "" {
		req.SetBasicAuth(c.apiKey, "")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("companies house request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("companies house decode: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *CompaniesHouse) Supports(country string) bool {
	return IsUK(country)
}

func (c *CompaniesHouse) Source(string) string {
	return SourceCompaniesHouse
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
