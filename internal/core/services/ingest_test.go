package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/embedding/hashing"
	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/storage/memory"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
)

// ingestFixture holds a service wired to in-memory collaborators and a
// temporary books directory containing the given PDFs.
type ingestFixture struct {
	svc      *IngestService
	store    driven.VectorStore
	registry *mockRegistry
	library  *mockLibrary
	fetcher  *mockFetcher
	sync     *mockSynchronizer
	settings domain.Settings
	paths    map[string]string
}

func newIngestFixture(t *testing.T, books map[string]string) *ingestFixture {
	t.Helper()

	settings := domain.DefaultSettings(t.TempDir())
	settings.KnowledgeBase.BatchSize = 2
	require.NoError(t, os.MkdirAll(settings.BooksDir, 0o755))

	f := &ingestFixture{
		store:    memory.NewVectorStore(hashing.NewEmbeddingService(64)),
		registry: &mockRegistry{books: map[string]string{}, bookErr: map[string]error{}},
		library:  &mockLibrary{},
		fetcher:  &mockFetcher{},
		sync:     &mockSynchronizer{},
		settings: settings,
		paths:    map[string]string{},
	}

	names := make([]string, 0, len(books))
	for name := range books {
		names = append(names, name)
	}
	for _, name := range sortedStrings(names) {
		path := filepath.Join(settings.BooksDir, name)
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
		f.registry.books[path] = books[name]
		f.library.pdfs = append(f.library.pdfs, path)
		f.paths[name] = path
	}

	f.svc = NewIngestService(settings, f.store, f.registry, &mockPipeline{size: 10},
		f.library, f.fetcher, f.sync)
	return f
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func countChunks(t *testing.T, store driven.VectorStore, name string) int {
	t.Helper()
	coll, err := store.GetCollection(context.Background(), name)
	require.NoError(t, err)
	n, err := coll.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestIngestService_Rebuild(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"alpha.pdf": strings.Repeat("a", 25),
		"beta.pdf":  "the   battle\n\nof   tours",
	})

	report, err := f.svc.Rebuild(context.Background(), driving.RebuildOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, domain.DefaultCollectionName, report.Collection)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "[Book] alpha", report.Outcomes[0].SourceName)
	assert.Equal(t, 3, report.Outcomes[0].Chunks)
	// Whitespace is collapsed before chunking: "the battle of tours" is 19 runes.
	assert.Equal(t, 2, report.Outcomes[1].Chunks)
	assert.NoError(t, report.Err())
	assert.Equal(t, 5, report.TotalChunks())

	assert.Equal(t, []string{f.settings.BooksDir, f.settings.Drive.SyncDir}, f.library.listDirs)
	assert.Equal(t, 5, countChunks(t, f.store, domain.DefaultCollectionName))

	coll, err := f.store.GetCollection(context.Background(), domain.DefaultCollectionName)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCollectionDescription, coll.Metadata()["description"])
	assert.Zero(t, f.sync.calls, "drive sync only runs when requested")
}

func TestIngestService_RebuildReplacesCollection(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"alpha.pdf": "short text"})
	ctx := context.Background()

	coll, err := f.store.CreateCollection(ctx, domain.DefaultCollectionName, nil)
	require.NoError(t, err)
	require.NoError(t, coll.Add(ctx, []string{"stale"}, []string{"old"}, []map[string]any{nil}))

	_, err = f.svc.Rebuild(ctx, driving.RebuildOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, countChunks(t, f.store, domain.DefaultCollectionName))
}

func TestIngestService_RebuildSkipsUnreadableBook(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"broken.pdf": "",
		"good.pdf":   "some readable text",
	})
	f.registry.bookErr[f.paths["broken.pdf"]] = domain.ErrExtraction

	report, err := f.svc.Rebuild(context.Background(), driving.RebuildOptions{})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 2)
	assert.ErrorIs(t, report.Outcomes[0].Err, domain.ErrExtraction)
	assert.Equal(t, "[Book] broken", report.Outcomes[0].SourceName)
	assert.True(t, report.Outcomes[1].Succeeded())
	require.Error(t, report.Err())
	assert.Contains(t, report.Err().Error(), "1 of 2 documents failed")
}

func TestIngestService_RebuildMissingBooksDir(t *testing.T) {
	f := newIngestFixture(t, nil)
	require.NoError(t, os.RemoveAll(f.settings.BooksDir))

	_, err := f.svc.Rebuild(context.Background(), driving.RebuildOptions{})
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
	assert.DirExists(t, f.settings.BooksDir)
}

func TestIngestService_RebuildNoPDFs(t *testing.T) {
	f := newIngestFixture(t, nil)

	_, err := f.svc.Rebuild(context.Background(), driving.RebuildOptions{})
	assert.ErrorIs(t, err, domain.ErrNoDocuments)

	exists, err := f.store.Exists(context.Background(), domain.DefaultCollectionName)
	require.NoError(t, err)
	assert.False(t, exists, "the collection is untouched when there is nothing to index")
}

func TestIngestService_RebuildWithDriveSync(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"alpha.pdf": "text"})
	f.svc.settings.Drive.FolderID = "configured-folder"

	_, err := f.svc.Rebuild(context.Background(), driving.RebuildOptions{
		SyncDrive: true,
		DriveDir:  "/tmp/elsewhere",
		Force:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.sync.calls)
	assert.Equal(t, "configured-folder", f.sync.folderID)
	assert.Equal(t, "/tmp/elsewhere", f.sync.destDir)
	assert.True(t, f.sync.force)
	assert.Equal(t, []string{f.settings.BooksDir, "/tmp/elsewhere"}, f.library.listDirs)
}

func TestIngestService_RebuildDriveErrors(t *testing.T) {
	tests := []struct {
		name     string
		folderID string
		sync     driving.Synchronizer
	}{
		{"no folder id", "", &mockSynchronizer{}},
		{"no synchronizer", "folder", nil},
		{"sync failure", "folder", &mockSynchronizer{err: errors.New("401 unauthorized")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestFixture(t, map[string]string{"alpha.pdf": "text"})
			f.svc.sync = tt.sync

			_, err := f.svc.Rebuild(context.Background(), driving.RebuildOptions{
				SyncDrive: true,
				FolderID:  tt.folderID,
			})
			assert.ErrorIs(t, err, domain.ErrSync)

			exists, _ := f.store.Exists(context.Background(), domain.DefaultCollectionName)
			assert.False(t, exists, "a failed sync stops before touching the index")
		})
	}
}

func TestIngestService_RebuildIndexFailureAborts(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"alpha.pdf": "first book",
		"beta.pdf":  "second book",
	})
	addErr := errors.New("disk full")
	store := &mockVectorStore{coll: &mockCollection{addErr: addErr}}
	f.svc.store = store

	report, err := f.svc.Rebuild(context.Background(), driving.RebuildOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, addErr)
	assert.Contains(t, err.Error(), "add batch 1/1")
	assert.Len(t, report.Outcomes, 1, "processing stops at the first index failure")
	assert.Equal(t, []string{domain.DefaultCollectionName}, store.deleted)
}

func TestIngestService_AddChunksBatches(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"alpha.pdf": strings.Repeat("x", 50)})
	store := &mockVectorStore{coll: &mockCollection{}}
	f.svc.store = store

	_, err := f.svc.Rebuild(context.Background(), driving.RebuildOptions{})
	require.NoError(t, err)

	require.Len(t, store.coll.batches, 3)
	assert.Equal(t, []string{"[Book] alpha_0", "[Book] alpha_1"}, store.coll.batches[0])
	assert.Equal(t, []string{"[Book] alpha_4"}, store.coll.batches[2])
}

func TestIngestService_AddArticle(t *testing.T) {
	f := newIngestFixture(t, nil)
	f.fetcher.body = strings.Repeat("v", 35)
	ctx := context.Background()

	n, err := f.svc.AddArticle(ctx, "https://example.com/vienna")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"https://example.com/vienna"}, f.fetcher.urls)

	// A second article appends to the existing collection.
	n, err = f.svc.AddArticle(ctx, "https://example.com/vienna")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, countChunks(t, f.store, domain.DefaultCollectionName), "same source maps onto the same ids")

	svc := NewRetrievalService(f.store, domain.DefaultCollectionName)
	hits, err := svc.Search(ctx, "vvvvvvvvvv", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, domain.SourceTypeArticle, hits[0].SourceType)
	assert.Equal(t, "https://example.com/vienna", hits[0].URL)
}

func TestIngestService_AddArticleErrors(t *testing.T) {
	fetchErr := errors.Join(domain.ErrFetch, errors.New("404"))

	tests := []struct {
		name    string
		url     string
		setup   func(f *ingestFixture)
		wantErr error
	}{
		{"empty url", " ", nil, domain.ErrInvalidInput},
		{"no fetcher", "https://x", func(f *ingestFixture) { f.svc.fetcher = nil }, domain.ErrFetch},
		{"fetch failure", "https://x", func(f *ingestFixture) { f.fetcher.err = fetchErr }, domain.ErrFetch},
		{
			"insufficient content", "https://x",
			func(f *ingestFixture) { f.registry.htmlErr = domain.ErrInsufficientContent },
			domain.ErrInsufficientContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestFixture(t, nil)
			if tt.setup != nil {
				tt.setup(f)
			}

			n, err := f.svc.AddArticle(context.Background(), tt.url)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, n)

			exists, _ := f.store.Exists(context.Background(), domain.DefaultCollectionName)
			assert.False(t, exists)
		})
	}
}

func TestIngestService_AddFile(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"alpha.pdf": strings.Repeat("a", 15)})

	n, err := f.svc.AddFile(context.Background(), f.paths["alpha.pdf"])
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, countChunks(t, f.store, domain.DefaultCollectionName))
}

func TestIngestService_AddFileErrors(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"alpha.pdf": "text"})
	f.registry.bookErr[f.paths["alpha.pdf"]] = domain.ErrExtraction

	notes := filepath.Join(f.settings.BooksDir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("x"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"not a pdf", notes, domain.ErrInvalidInput},
		{"missing", filepath.Join(f.settings.BooksDir, "gone.pdf"), domain.ErrNotFound},
		{"unreadable", f.paths["alpha.pdf"], domain.ErrExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddFile(context.Background(), tt.path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", collapseWhitespace("  a\n\tb   c \n"))
	assert.Equal(t, "", collapseWhitespace(" \n "))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "hi", truncateRunes("hi", 4))
}
