package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
)

// FileReader reads PDFs and plain-text documents from the local filesystem.
type FileReader struct {
	// MaxBytes guards against pathological files. Zero means 25 MiB.
	MaxBytes int64
}

func NewFileReader() *FileReader {
	return &FileReader{}
}

func (r *FileReader) Read(ctx context.Context, path string) (*provider.DocumentText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filepath.Base(path))
	}
	if limit := r.maxBytes(); info.Size() > limit {
		return nil, fmt.Errorf("%s is %d bytes, limit %d", filepath.Base(path), info.Size(), limit)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return readPDF(path)
	}
	return readText(path)
}

func (r *FileReader) maxBytes() int64 {
	if r.MaxBytes > 0 {
		return r.MaxBytes
	}
	return 25 << 20
}

func readPDF(path string) (*provider.DocumentText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text %s: %w", filepath.Base(path), err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, fmt.Errorf("read pdf text %s: %w", filepath.Base(path), err)
	}

	return &provider.DocumentText{
		Text:      strings.TrimSpace(buf.String()),
		PageCount: reader.NumPage(),
	}, nil
}

func readText(path string) (*provider.DocumentText, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%s is not a text or pdf document", filepath.Base(path))
	}
	return &provider.DocumentText{
		Text:      strings.TrimSpace(string(raw)),
		PageCount: 1,
	}, nil
}
