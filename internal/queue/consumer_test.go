package queue_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	// Redis returns every stream value as a string.
	entry := func(values map[string]any) redis.XMessage {
		return redis.XMessage{ID: "1700000000000-0", Values: values}
	}

	It("decodes a producer entry", func() {
		msg, err := queue.ParseMessage(entry(map[string]any{
			"evaluation_id": "7321",
			"supplier":      `{"name":"Acme Ltd","country":"UK","registration_number":"00000000","owner_names":["Jane Roe"]}`,
			"attempt":       "2",
			"trace_id":      "4bf92f3577b34da6a3ce929d0e0e4736",
			"last_error":    "store unavailable",
		}))

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.ID).To(Equal("1700000000000-0"))
		Expect(msg.EvaluationID).To(Equal(int64(7321)))
		Expect(msg.Supplier.Name).To(Equal("Acme Ltd"))
		Expect(msg.Supplier.OwnerNames).To(Equal([]string{"Jane Roe"}))
		Expect(msg.Attempt).To(Equal(2))
		Expect(msg.TraceID).To(Equal("4bf92f3577b34da6a3ce929d0e0e4736"))
		Expect(msg.LastError).To(Equal("store unavailable"))
	})

	It("defaults the attempt to one", func() {
		msg, err := queue.ParseMessage(entry(map[string]any{
			"evaluation_id": "1",
			"supplier":      `{"name":"Acme Ltd","country":"UK"}`,
		}))

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Attempt).To(Equal(1))
	})

	DescribeTable("rejects malformed entries",
		func(values map[string]any, want string) {
			_, err := queue.ParseMessage(entry(values))
			Expect(err).To(MatchError(ContainSubstring(want)))
		},
		Entry("missing id", map[string]any{"supplier": `{"name":"A","country":"UK"}`}, "missing evaluation_id"),
		Entry("non-numeric id", map[string]any{"evaluation_id": "abc", "supplier": `{"name":"A","country":"UK"}`}, "parsing evaluation_id"),
		Entry("zero id", map[string]any{"evaluation_id": "0", "supplier": `{"name":"A","country":"UK"}`}, "invalid evaluation_id"),
		Entry("missing supplier", map[string]any{"evaluation_id": "1"}, "missing supplier"),
		Entry("bad supplier json", map[string]any{"evaluation_id": "1", "supplier": "{"}, "decoding supplier"),
		Entry("supplier without country", map[string]any{"evaluation_id": "1", "supplier": `{"name":"A"}`}, "invalid supplier"),
		Entry("bad attempt", map[string]any{"evaluation_id": "1", "supplier": `{"name":"A","country":"UK"}`, "attempt": "x"}, "parsing attempt"),
	)
})

var _ = Describe("MessageValues", func() {
	It("carries the attempt it is given and is readable by ParseMessage", func() {
		msg := queue.Message{
			EvaluationID: 99,
			Supplier:     model.SupplierIdentity{Name: "Acme Ltd", Country: "UK"},
			Attempt:      1,
			TraceID:      "abc",
		}

		values, err := queue.MessageValues(msg, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(values).To(HaveKeyWithValue("attempt", 3))
		Expect(values).NotTo(HaveKey("last_error"))

		back, err := queue.ParseMessage(redis.XMessage{ID: "2-0", Values: values})
		Expect(err).NotTo(HaveOccurred())
		Expect(back.Attempt).To(Equal(3))
		Expect(back.Supplier.Name).To(Equal("Acme Ltd"))
		Expect(back.TraceID).To(Equal("abc"))
	})
})
