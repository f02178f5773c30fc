package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/logger"
)

// buildPDF assembles a minimal valid PDF with one page per text,
// computing the cross-reference offsets as it goes.
func buildPDF(texts ...string) []byte {
	var objects []string

	kids := ""
	for i := range texts {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(texts)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range texts {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writePDF(t *testing.T, name string, texts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buildPDF(texts...), 0o600))
	return path
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Equal(t, []string{"application/pdf"}, mimeTypes)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_FromFile(t *testing.T) {
	path := writePDF(t, "Decline and Fall.pdf", "The Roman Empire", "Second page text")

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      path,
		MIMEType: domain.MIMETypePDF,
	})

	require.NoError(t, err)
	doc := result.Document
	assert.Equal(t, "[Book] Decline and Fall", doc.SourceName)
	assert.Equal(t, domain.SourceTypeBook, doc.SourceType)
	assert.Equal(t, "Decline and Fall", doc.Title)
	assert.Equal(t, path, doc.URI)
	assert.Contains(t, doc.Content, "The Roman Empire")
	assert.Contains(t, doc.Content, "Second page text")
	assert.Less(t,
		bytes.Index([]byte(doc.Content), []byte("The Roman Empire")),
		bytes.Index([]byte(doc.Content), []byte("Second page text")),
		"pages must be concatenated in order")
	assert.Equal(t, 2, doc.Metadata["pages"])
}

func TestNormalise_FromContent(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      "/remote/Histories.pdf",
		MIMEType: domain.MIMETypePDF,
		Content:  buildPDF("Herodotus"),
		Metadata: map[string]any{"origin": "drive"},
	})

	require.NoError(t, err)
	assert.Equal(t, "[Book] Histories", result.Document.SourceName)
	assert.Contains(t, result.Document.Content, "Herodotus")
	assert.Equal(t, "drive", result.Document.Metadata["origin"])
}

func TestNormalise_CountsCharactersNotBytes(t *testing.T) {
	// \351 is e-acute in WinAnsiEncoding, two bytes once decoded to UTF-8.
	path := writePDF(t, "Cafes.pdf", `Caf\351 society`)

	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: path, MIMEType: domain.MIMETypePDF})
	require.NoError(t, err)

	content := result.Document.Content
	require.Contains(t, content, "Café society")
	chars := utf8.RuneCountInString(content)
	assert.Less(t, chars, len(content))
	assert.Equal(t, chars, result.Document.Metadata["characters"])
	assert.Contains(t, logs.String(), fmt.Sprintf("Extracted %d characters from 1 pages", chars))
}

func TestNormalise_MissingFile(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI: filepath.Join(t.TempDir(), "missing.pdf"),
	})

	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestNormalise_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o600))

	_, err := New().Normalise(context.Background(), &domain.RawDocument{URI: path})

	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestNormalise_NoText(t *testing.T) {
	path := writePDF(t, "blank.pdf", "")

	_, err := New().Normalise(context.Background(), &domain.RawDocument{URI: path})

	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestNormalise_CancelledContext(t *testing.T) {
	path := writePDF(t, "book.pdf", "text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Normalise(ctx, &domain.RawDocument{URI: path})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "My Book", fileStem("/a/b/My Book.pdf"))
	assert.Equal(t, "archive.tar", fileStem("archive.tar.gz"))
	assert.Equal(t, "noext", fileStem("noext"))
}

func TestCopyMetadata(t *testing.T) {
	assert.Nil(t, copyMetadata(nil))

	src := map[string]any{"key": "value"}
	dst := copyMetadata(src)
	dst["key"] = "changed"
	assert.Equal(t, "value", src["key"])
}
