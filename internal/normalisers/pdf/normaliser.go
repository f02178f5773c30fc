package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// progressEvery controls how often page progress is logged.
const progressEvery = 50

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{domain.MIMETypePDF}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every page, in page order.
// When raw.Content is empty the file at raw.URI is opened instead.
// The result is a book document named after the file stem.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var (
		text  string
		pages int
		err   error
	)
	if len(raw.Content) > 0 {
		text, pages, err = extract(ctx, bytes.NewReader(raw.Content), int64(len(raw.Content)))
	} else {
		text, pages, err = extractFile(ctx, raw.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, filepath.Base(raw.URI), err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s: no text found", domain.ErrExtraction, filepath.Base(raw.URI))
	}

	chars := utf8.RuneCountInString(text)
	logger.Info("  Extracted %d characters from %d pages", chars, pages)

	stem := fileStem(raw.URI)
	metadata := copyMetadata(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["mime_type"] = domain.MIMETypePDF
	metadata["pages"] = pages
	metadata["characters"] = chars

	return &driven.NormaliseResult{
		Document: domain.Document{
			SourceName: domain.BookSourceName(stem),
			SourceType: domain.SourceTypeBook,
			URI:        raw.URI,
			Title:      stem,
			Content:    text,
			Metadata:   metadata,
		},
	}, nil
}

// extractFile opens path and extracts its text. The file handle is
// released on every return path.
func extractFile(ctx context.Context, path string) (string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, err
	}
	return extract(ctx, f, info.Size())
}

// extract reads every page of the PDF. The parser panics on some
// malformed inputs; those panics are reported as errors.
func extract(ctx context.Context, r io.ReaderAt, size int64) (text string, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", 0, err
	}

	pages = reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			font := page.Font(name)
			fonts[name] = &font
		}

		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract text from page %d: %v", i, err)
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")

		if i%progressEvery == 0 {
			logger.Info("  Processed %d/%d pages...", i, pages)
		}
	}

	return b.String(), pages, nil
}

// fileStem returns the file name without directory and extension.
func fileStem(uri string) string {
	base := filepath.Base(uri)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// copyMetadata creates a shallow copy of the metadata map.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
