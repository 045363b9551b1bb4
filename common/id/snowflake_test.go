package id

import (
	"strconv"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("snowflake ids", func() {
	BeforeEach(func() {
		node = nil
		once = sync.Once{}
	})

	It("reports an uninitialized generator instead of panicking", func() {
		v, err := Next()

		Expect(err).To(MatchError(ErrNotInitialized))
		Expect(v).To(BeZero())
	})

	It("issues increasing ids once initialized", func() {
		Expect(Init(5)).To(Succeed())

		a, err := Next()
		Expect(err).NotTo(HaveOccurred())
		b := New()

		Expect(b).To(BeNumerically(">", a))
	})

	It("round-trips through Parse", func() {
		Expect(Init(5)).To(Succeed())
		v := New()

		Expect(Parse(strconv.FormatInt(v, 10))).To(Equal(v))
	})

	It("rejects non-positive ids", func() {
		_, err := Parse("0")
		Expect(err).To(HaveOccurred())
		_, err = Parse("abc")
		Expect(err).To(HaveOccurred())
	})

	It("keeps node numbers in range", func() {
		Expect(NodeFromName("worker-1")).To(BeNumerically("<", 1024))
		Expect(NodeFromName("worker-1")).To(Equal(NodeFromName("worker-1")))
	})
})
