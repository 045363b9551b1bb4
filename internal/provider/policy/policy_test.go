package policy_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/policy"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "policy"
	}
	return strings.Join(w, " ")
}

var _ = Describe("Chunk", func() {
	It("returns nothing for blank text", func() {
		Expect(policy.Chunk("  \n\t ", 700, 100)).To(BeEmpty())
	})

	It("keeps short documents in one chunk", func() {
		chunks := policy.Chunk(words(100), 700, 100)
		Expect(chunks).To(HaveLen(1))
	})

	It("overlaps consecutive windows", func() {
		// 525 words per chunk, 75 word overlap, step 450
		chunks := policy.Chunk(words(1000), 700, 100)
		Expect(chunks).To(HaveLen(3))
		Expect(strings.Fields(chunks[0])).To(HaveLen(525))
		Expect(strings.Fields(chunks[1])).To(HaveLen(525))
		Expect(strings.Fields(chunks[2])).To(HaveLen(100))
	})

	It("drops fragments of fifty characters or fewer", func() {
		Expect(policy.Chunk("too short to keep", 700, 100)).To(BeEmpty())
	})

	It("ignores an overlap as large as the window", func() {
		// 7 word windows with no overlap; the 2 word tail is dropped
		chunks := policy.Chunk(strings.Repeat("compliance ", 30), 10, 10)
		Expect(chunks).To(HaveLen(4))
	})
})

var _ = Describe("Retriever", func() {
	var (
		ctx      context.Context
		conn     *fakeDB
		embedder *fakeEmbedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = &fakeEmbedder{}
		conn = &fakeDB{rows: [][]any{
			{"Export licences are required for dual-use goods.", "export_policy.pdf", 3, 0.82},
			{"Suppliers must complete due diligence annually.", "dd_guide.pdf", 1, 0.41},
			{"Unrelated cafeteria policy.", "facilities.pdf", 2, 0.12},
		}}
	})

	It("drops passages under the minimum score", func() {
		r := policy.NewRetriever(conn, embedder, "")
		passages, err := r.Search(ctx, "export licence", 5, 0.3)

		Expect(err).NotTo(HaveOccurred())
		Expect(passages).To(HaveLen(2))
		Expect(passages[0].Document).To(Equal("export_policy.pdf"))
		Expect(passages[0].Page).To(Equal(3))
		Expect(passages[0].Score).To(BeNumerically("~", 0.82))
		Expect(embedder.callCount).To(Equal(1))
	})

	It("queries the configured table with a vector literal", func() {
		r := policy.NewRetriever(conn, embedder, "kb_chunks")
		_, err := r.Search(ctx, "q", 2, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(conn.querySQL).To(ContainSubstring(`FROM "kb_chunks"`))
		Expect(conn.queryArgs).To(HaveLen(2))
		Expect(conn.queryArgs[0]).To(HavePrefix("["))
		Expect(conn.queryArgs[1]).To(Equal(2))
	})

	It("fails when embedding fails", func() {
		embedder.err = errors.New("quota")
		r := policy.NewRetriever(conn, embedder, "")

		_, err := r.Search(ctx, "q", 5, 0.3)
		Expect(err).To(MatchError(ContainSubstring("embed query")))
	})
})

var _ = Describe("Ingestor", func() {
	var (
		ctx      context.Context
		conn     *fakeDB
		embedder *fakeEmbedder
		dir      string
	)

	BeforeEach(func() {
		ctx = context.Background()
		conn = &fakeDB{}
		embedder = &fakeEmbedder{}
		dir = GinkgoT().TempDir()
	})

	It("replaces a document's chunks", func() {
		path := filepath.Join(dir, "export_policy.txt")
		Expect(os.WriteFile(path, []byte(words(1000)), 0o644)).To(Succeed())

		ing := policy.NewIngestor(conn, embedder, policy.IngestConfig{ChunkTokens: 700, ChunkOverlap: 100})
		res, err := ing.IngestFile(ctx, path)

		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(policy.IngestResult{Document: "export_policy.txt", Pages: 1, Chunks: 3}))
		Expect(conn.execs).To(HaveLen(4))
		Expect(conn.execs[0].sql).To(ContainSubstring("DELETE FROM"))
		Expect(conn.execs[0].args).To(Equal([]any{"export_policy.txt"}))
		Expect(conn.execs[1].args[1:5]).To(Equal([]any{"export_policy.txt", 1, 0, strings.Repeat("policy ", 524) + "policy"}))
	})

	It("numbers pages split by form feeds", func() {
		path := filepath.Join(dir, "paged.txt")
		Expect(os.WriteFile(path, []byte(words(20)+"\f"+words(20)), 0o644)).To(Succeed())

		ing := policy.NewIngestor(conn, embedder, policy.IngestConfig{})
		res, err := ing.IngestFile(ctx, path)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Pages).To(Equal(2))
		Expect(res.Chunks).To(Equal(2))
		Expect(conn.execs[2].args[2]).To(Equal(2))
	})

	It("writes nothing when embedding fails", func() {
		path := filepath.Join(dir, "policy.md")
		Expect(os.WriteFile(path, []byte(words(200)), 0o644)).To(Succeed())
		embedder.err = errors.New("quota")

		_, err := policy.NewIngestor(conn, embedder, policy.IngestConfig{}).IngestFile(ctx, path)
		Expect(err).To(MatchError(ContainSubstring("embed policy.md")))
		Expect(conn.execs).To(BeEmpty())
	})

	It("ingests only supported files in a directory", func() {
		Expect(os.WriteFile(filepath.Join(dir, "a.txt"), []byte(words(50)), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "b.csv"), []byte(words(50)), 0o644)).To(Succeed())

		results, err := policy.NewIngestor(conn, embedder, policy.IngestConfig{}).IngestDir(ctx, dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Document).To(Equal("a.txt"))
	})
})
