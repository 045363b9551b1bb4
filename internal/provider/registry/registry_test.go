package registry_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/registry"
)

var _ = Describe("CompaniesHouse", func() {
	var (
		mux    *http.ServeMux
		server *httptest.Server
		ch     *registry.CompaniesHouse
	)

	BeforeEach(func() {
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		ch = registry.NewCompaniesHouse(registry.CompaniesHouseConfig{
			APIKey:    "key",
			BaseURL:   server.URL,
			SearchURL: server.URL + "/search",
		})
	})

	AfterEach(func() {
		server.Close()
	})

	It("maps the company profile", func() {
		mux.HandleFunc("/company/00000000", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			user, _, ok := r.BasicAuth()
			Expect(ok).To(BeTrue())
			Expect(user).To(Equal("key"))
			_, _ = w.Write([]byte(`{"company_name":"ACME LTD","company_number":"00000000","company_status":"dissolved",
				"date_of_creation":"2001-02-03","type":"ltd",
				"registered_office_address":{"address_line_1":"1 High St","locality":"London","postal_code":"E1 1AA"}}`))
		})

		rec, err := ch.Lookup(context.Background(), provider.RegistryQuery{RegistrationNumber: "00000000"})
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal("dissolved"))
		Expect(rec.CompanyName).To(Equal("ACME LTD"))
		Expect(rec.Address).To(Equal("1 High St, London, E1 1AA"))
		Expect(rec.Verified).To(BeTrue())
		Expect(rec.RegistrySource).To(Equal(registry.SourceCompaniesHouse))
	})

	It("falls back to public search on 401", func() {
		mux.HandleFunc("/company/123", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Query().Get("q")).To(Equal("123"))
			_, _ = w.Write([]byte(`{"items":[{"title":"FOO LTD","company_number":"123","company_status":"active","company_type":"ltd"}]}`))
		})

		rec, err := ch.Lookup(context.Background(), provider.RegistryQuery{RegistrationNumber: "123"})
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.CompanyName).To(Equal("FOO LTD"))
		Expect(rec.Status).To(Equal("active"))
		Expect(rec.Note).NotTo(BeEmpty())
	})

	It("reports not found", func() {
		mux.HandleFunc("/company/999", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := ch.Lookup(context.Background(), provider.RegistryQuery{RegistrationNumber: "999"})
		Expect(errors.Is(err, provider.ErrNotFound)).To(BeTrue())
	})

	It("requires a registration number", func() {
		_, err := ch.Lookup(context.Background(), provider.RegistryQuery{Name: "Acme"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Generic", func() {
	DescribeTable("names the registry per country",
		func(country, source string) {
			rec, err := registry.Generic{}.Lookup(context.Background(), provider.RegistryQuery{Name: "Acme", Country: country})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.RegistrySource).To(Equal(source))
			Expect(rec.Verified).To(BeFalse())
			Expect(rec.Status).To(BeEmpty())
		},
		Entry("uk", "United Kingdom", registry.SourceCompaniesHouse),
		Entry("uae", "UAE", "UAE Ministry of Economy"),
		Entry("usa", "USA", "State-specific registries"),
		Entry("other", "India", "India National Registry"),
	)

	It("reports a business registry data source", func() {
		Expect(registry.Generic{}.Source("India")).To(Equal("India Business Registry"))
	})

	It("recognises UK spellings", func() {
		Expect(registry.IsUK(" England ")).To(BeTrue())
		Expect(registry.IsUK("Ireland")).To(BeFalse())
	})
})
