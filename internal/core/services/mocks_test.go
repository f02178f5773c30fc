package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
)

// --- Mock implementations shared by the service tests ---

// mockRegistry implements driven.NormaliserRegistry. PDFs are looked up by
// path; HTML bodies are turned into an article document directly.
type mockRegistry struct {
	books   map[string]string
	bookErr map[string]error
	htmlErr error
}

func (m *mockRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	switch raw.MIMEType {
	case domain.MIMETypePDF:
		if err := m.bookErr[raw.URI]; err != nil {
			return nil, err
		}
		text, ok := m.books[raw.URI]
		if !ok {
			return nil, domain.ErrExtraction
		}
		stem := strings.TrimSuffix(baseName(raw.URI), ".pdf")
		return &driven.NormaliseResult{Document: domain.Document{
			SourceName: domain.BookSourceName(stem),
			SourceType: domain.SourceTypeBook,
			URI:        raw.URI,
			Title:      stem,
			Content:    text,
		}}, nil
	case domain.MIMETypeHTML:
		if m.htmlErr != nil {
			return nil, m.htmlErr
		}
		return &driven.NormaliseResult{Document: domain.Document{
			SourceName: domain.ArticleSourceName("Siege of Vienna", "example.com"),
			SourceType: domain.SourceTypeArticle,
			URI:        raw.URI,
			Title:      "Siege of Vienna",
			Content:    string(raw.Content),
		}}, nil
	}
	return nil, domain.ErrUnsupportedType
}

func (m *mockRegistry) Register(driven.Normaliser) {}

func (m *mockRegistry) SupportedMIMETypes() []string {
	return []string{domain.MIMETypePDF, domain.MIMETypeHTML}
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// mockPipeline implements driven.PostProcessorPipeline by cutting the
// content into fixed-size rune windows.
type mockPipeline struct {
	size int
	err  error
}

func (m *mockPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	runes := []rune(doc.Content)
	var chunks []domain.Chunk
	for i := 0; i < len(runes); i += m.size {
		end := min(i+m.size, len(runes))
		pos := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.SourceName, pos),
			Content:    string(runes[i:end]),
			SourceName: doc.SourceName,
			SourceType: doc.SourceType,
			Position:   pos,
			URL:        urlFor(doc),
		})
	}
	return chunks, nil
}

func urlFor(doc *domain.Document) string {
	if doc.SourceType == domain.SourceTypeArticle {
		return doc.URI
	}
	return ""
}

// mockLibrary implements driven.LocalLibrary.
type mockLibrary struct {
	pdfs     []string
	listErr  error
	listDirs []string
	events   chan string
	watchErr error
}

func (m *mockLibrary) ListPDFs(_ context.Context, dirs ...string) ([]string, error) {
	m.listDirs = dirs
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.pdfs, nil
}

func (m *mockLibrary) Watch(_ context.Context, _ string) (<-chan string, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	return m.events, nil
}

func (m *mockLibrary) Close() error { return nil }

// mockFetcher implements driven.Fetcher.
type mockFetcher struct {
	body string
	err  error
	urls []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string) (*domain.FetchResponse, error) {
	m.urls = append(m.urls, url)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.FetchResponse{URL: url, Status: 200, ContentType: "text/html", Body: []byte(m.body)}, nil
}

// mockSynchronizer implements driving.Synchronizer.
type mockSynchronizer struct {
	err      error
	calls    int
	folderID string
	destDir  string
	force    bool
}

func (m *mockSynchronizer) Sync(_ context.Context, folderID, destDir string, force bool) ([]string, error) {
	m.calls++
	m.folderID = folderID
	m.destDir = destDir
	m.force = force
	if m.err != nil {
		return nil, m.err
	}
	return []string{}, nil
}

// mockVectorStore implements driven.VectorStore around a single
// recording collection.
type mockVectorStore struct {
	coll      *mockCollection
	exists    bool
	getErr    error
	deleted   []string
	deleteErr error
}

func (m *mockVectorStore) Exists(context.Context, string) (bool, error) { return m.exists, nil }

func (m *mockVectorStore) CreateCollection(_ context.Context, name string, _ map[string]any) (driven.Collection, error) {
	m.coll.name = name
	m.exists = true
	return m.coll, nil
}

func (m *mockVectorStore) GetCollection(_ context.Context, name string) (driven.Collection, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if !m.exists {
		return nil, domain.ErrNotFound
	}
	m.coll.name = name
	return m.coll, nil
}

func (m *mockVectorStore) GetOrCreateCollection(ctx context.Context, name string, meta map[string]any) (driven.Collection, error) {
	if m.exists {
		return m.GetCollection(ctx, name)
	}
	return m.CreateCollection(ctx, name, meta)
}

func (m *mockVectorStore) DeleteCollection(_ context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	return m.deleteErr
}

func (m *mockVectorStore) Close() error { return nil }

// mockCollection implements driven.Collection, recording Add batches.
type mockCollection struct {
	name     string
	batches  [][]string
	addErr   error
	queryErr error
	result   *driven.QueryResult
}

func (m *mockCollection) Name() string             { return m.name }
func (m *mockCollection) Metadata() map[string]any { return nil }

func (m *mockCollection) Add(_ context.Context, ids, _ []string, _ []map[string]any) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.batches = append(m.batches, ids)
	return nil
}

func (m *mockCollection) Query(context.Context, []string, int) (*driven.QueryResult, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.result, nil
}

func (m *mockCollection) Count(context.Context) (int, error) {
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n, nil
}

// mockIngest implements driving.IngestService for the watcher.
type mockIngest struct {
	mu    sync.Mutex
	added []string
	errs  map[string]error
}

var _ driving.IngestService = (*mockIngest)(nil)

func (m *mockIngest) Rebuild(context.Context, driving.RebuildOptions) (*domain.IngestReport, error) {
	return nil, errors.New("not implemented")
}

func (m *mockIngest) AddArticle(context.Context, string) (int, error) {
	return 0, errors.New("not implemented")
}

func (m *mockIngest) AddFile(_ context.Context, path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, path)
	if err := m.errs[path]; err != nil {
		return 0, err
	}
	return 3, nil
}

func (m *mockIngest) Added() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.added))
	copy(out, m.added)
	return out
}
