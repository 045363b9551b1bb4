package llm_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/llm"
)

type fakeClient struct {
	errs      []error
	callCount int
}

func (f *fakeClient) Chat(_ context.Context, _ llm.Request, _ any) (*llm.Response, error) {
	i := f.callCount
	f.callCount++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return &llm.Response{PromptTokens: 10, CompletionTokens: 5}, nil
}

func (f *fakeClient) Model() string { return "fake" }

type samplePlan struct {
	Tasks     []string `json:"tasks"`
	Reasoning string   `json:"reasoning"`
}

var _ = Describe("ChatWithRetry", func() {
	var restore func()

	BeforeEach(func() {
		restore = llm.SetBackoffForTest(func(int) time.Duration { return time.Millisecond })
	})

	AfterEach(func() {
		restore()
	})

	It("retries network errors until success", func() {
		c := &fakeClient{errs: []error{errors.New("connection reset"), errors.New("connection reset")}}
		resp, err := llm.ChatWithRetry(context.Background(), c, llm.Request{}, &samplePlan{}, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.PromptTokens).To(Equal(10))
		Expect(c.callCount).To(Equal(3))
	})

	It("stops after the attempt budget", func() {
		boom := errors.New("connection reset")
		c := &fakeClient{errs: []error{boom, boom, boom, boom}}
		_, err := llm.ChatWithRetry(context.Background(), c, llm.Request{}, &samplePlan{}, 3)
		Expect(err).To(MatchError(boom))
		Expect(c.callCount).To(Equal(3))
	})

	It("does not retry decode failures", func() {
		c := &fakeClient{errs: []error{fmt.Errorf("%w: bad json", llm.ErrDecode)}}
		_, err := llm.ChatWithRetry(context.Background(), c, llm.Request{}, &samplePlan{}, 3)
		Expect(errors.Is(err, llm.ErrDecode)).To(BeTrue())
		Expect(c.callCount).To(Equal(1))
	})

	It("does not retry a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := &fakeClient{errs: []error{context.Canceled}}
		_, err := llm.ChatWithRetry(ctx, c, llm.Request{}, &samplePlan{}, 3)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(c.callCount).To(Equal(1))
	})
})

var _ = Describe("New", func() {
	It("requires an API key", func() {
		_, err := llm.New(context.Background(), llm.Config{Provider: llm.ProviderOpenAI})
		Expect(err).To(HaveOccurred())
	})

	It("rejects unknown providers", func() {
		_, err := llm.New(context.Background(), llm.Config{Provider: "mistral", APIKey: "k"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})

	It("defaults to openai", func() {
		c, err := llm.New(context.Background(), llm.Config{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Model()).To(Equal("gpt-4o-mini"))
	})
})

var _ = Describe("ToolInputSchema", func() {
	It("lifts properties and required from a reflected schema", func() {
		schema, err := llm.ToolInputSchema(llm.GenerateSchema[samplePlan]())
		Expect(err).NotTo(HaveOccurred())
		Expect(schema.Properties).To(HaveKey("tasks"))
		Expect(schema.Properties).To(HaveKey("reasoning"))
		Expect(schema.Required).To(ConsistOf("tasks", "reasoning"))
	})
})
