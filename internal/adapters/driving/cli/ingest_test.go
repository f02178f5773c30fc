package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [test [QUERY...]]", ingestCmd.Use)
}

func TestIngestCmd_Flags(t *testing.T) {
	for _, name := range []string{"books-dir", "sync-drive", "drive-folder-id", "drive-dest-dir", "force", "add-article", "add-file"} {
		assert.NotNil(t, ingestCmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestIngestCmd_Rebuild(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingest.report = &domain.IngestReport{
		Collection: domain.DefaultCollectionName,
		Outcomes: []domain.DocumentOutcome{
			{SourceName: "[Book] one", Chunks: 12},
			{SourceName: "[Book] two", Chunks: 30},
			{SourceName: "[Book] broken", Err: domain.ErrExtraction},
		},
	}

	out, err := executeCommand("ingest")
	require.NoError(t, err)

	assert.Contains(t, out, "BOOK INGESTION - Building Knowledge Base")
	assert.Contains(t, out, "INGESTION COMPLETE")
	assert.Contains(t, out, "Total chunks indexed: 42")
	assert.Contains(t, out, "Knowledge base location: "+appSettings.DataDir)
	assert.Contains(t, out, "Collection name: historical_sources")
	assert.Contains(t, out, "Skipped unreadable documents, 1 of 3 documents failed")
	assert.Contains(t, out, "[Book] broken: "+domain.ErrExtraction.Error())
	assert.Contains(t, out, "You can now run the Topic Expert Agent!")

	require.NotNil(t, ts.ingest.opts)
	assert.Equal(t, driving.RebuildOptions{}, *ts.ingest.opts)
}

func TestIngestCmd_RebuildPassesDriveFlags(t *testing.T) {
	ts := setupTestServices(t)

	_, err := executeCommand("ingest", "--sync-drive", "--drive-folder-id", "abc", "--drive-dest-dir", "/tmp/drive", "--force")
	require.NoError(t, err)

	require.NotNil(t, ts.ingest.opts)
	assert.Equal(t, driving.RebuildOptions{
		SyncDrive: true,
		FolderID:  "abc",
		DriveDir:  "/tmp/drive",
		Force:     true,
	}, *ts.ingest.opts)
}

func TestIngestCmd_SyncDriveWithoutFolder(t *testing.T) {
	ts := setupTestServices(t)
	appSettings.Drive.FolderID = ""

	out, err := executeCommand("ingest", "--sync-drive")

	assert.ErrorIs(t, err, domain.ErrSync)
	assert.Contains(t, out, "ERROR: Drive sync requested but no folder ID provided.")
	assert.Contains(t, out, "DRIVE_FOLDER_ID")
	assert.Nil(t, ts.ingest.opts, "rebuild must not run")
}

func TestIngestCmd_SyncDriveUsesConfiguredFolder(t *testing.T) {
	ts := setupTestServices(t)
	appSettings.Drive.FolderID = "configured"

	_, err := executeCommand("ingest", "--sync-drive")
	require.NoError(t, err)
	require.NotNil(t, ts.ingest.opts)
	assert.True(t, ts.ingest.opts.SyncDrive)
	assert.Empty(t, ts.ingest.opts.FolderID, "service falls back to settings")
}

func TestIngestCmd_RebuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
		wantOut string
	}{
		{
			name:    "sync failure",
			err:     fmt.Errorf("%w: 403 forbidden", domain.ErrSync),
			wantErr: true,
			wantOut: "ERROR: Drive sync failed",
		},
		{
			name:    "no documents",
			err:     fmt.Errorf("%w: in /books", domain.ErrNoDocuments),
			wantErr: false,
		},
		{
			name:    "index failure",
			err:     errors.New("disk full"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServices(t)
			ts.ingest.rebuildErr = tt.err

			out, err := executeCommand("ingest")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NotContains(t, out, "INGESTION COMPLETE")
			if tt.wantOut != "" {
				assert.Contains(t, out, tt.wantOut)
			}
		})
	}
}

func TestIngestCmd_AddArticle(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingest.articleChunks = 4

	out, err := executeCommand("ingest", "--add-article", "https://example.com/a")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/a", ts.ingest.articleURL)
	assert.Contains(t, out, "ARTICLE INGESTION")
	assert.Contains(t, out, "ARTICLE ADDED")
	assert.Contains(t, out, "Chunks added: 4")
	assert.Nil(t, ts.ingest.opts, "rebuild must not run")
}

func TestIngestCmd_AddArticleInsufficientContent(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingest.articleErr = fmt.Errorf("%w: 12 characters", domain.ErrInsufficientContent)

	out, err := executeCommand("ingest", "--add-article", "https://example.com/short")

	require.NoError(t, err)
	assert.Contains(t, out, "ERROR: Could not extract meaningful content from the article.")
	assert.NotContains(t, out, "ARTICLE ADDED")
}

func TestIngestCmd_AddArticleFetchError(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingest.articleErr = fmt.Errorf("%w: status 404", domain.ErrFetch)

	_, err := executeCommand("ingest", "--add-article", "https://example.com/missing")
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestIngestCmd_AddFile(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingest.fileChunks = 9

	out, err := executeCommand("ingest", "--add-file", "/books/new.pdf")
	require.NoError(t, err)

	assert.Equal(t, "/books/new.pdf", ts.ingest.filePath)
	assert.Contains(t, out, "BOOK ADDED")
	assert.Contains(t, out, "Chunks added: 9")
}

func TestIngestCmd_AddFileError(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingest.fileErr = domain.ErrInvalidInput

	_, err := executeCommand("ingest", "--add-file", "/books/notes.txt")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestCmd_AddArticleAndFileAreExclusive(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand("ingest", "--add-article", "https://x", "--add-file", "/a.pdf")
	assert.Error(t, err)
}

func TestIngestCmd_TestQuery(t *testing.T) {
	long := strings.Repeat("é", 400)

	tests := []struct {
		name      string
		args      []string
		wantQuery string
	}{
		{"default query", []string{"ingest", "test"}, "What is jihad?"},
		{"joined query", []string{"ingest", "test", "Siege", "of", "Vienna"}, "Siege of Vienna"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServices(t)
			ts.retrieval.evidence = []domain.Evidence{
				{Rank: 1, Content: "short text", SourceName: "[Book] one"},
				{Rank: 2, Content: long, SourceName: "[Article] two (example.com)"},
			}

			out, err := executeCommand(tt.args...)
			require.NoError(t, err)

			assert.Equal(t, tt.wantQuery, ts.retrieval.query)
			assert.Equal(t, domain.DefaultTestQueryResults, ts.retrieval.k)
			assert.Contains(t, out, fmt.Sprintf("Test Query: '%s'", tt.wantQuery))
			assert.Contains(t, out, strings.Repeat("-", 40))
			assert.Contains(t, out, "Result 1 (from [Book] one):")
			assert.Contains(t, out, "  short text...")
			assert.Contains(t, out, "Result 2 (from [Article] two (example.com)):")
			assert.Contains(t, out, "  "+strings.Repeat("é", 300)+"...")
			assert.NotContains(t, out, strings.Repeat("é", 301))
		})
	}
}

func TestIngestCmd_TestQueryNoResults(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand("ingest", "test", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, domain.NoEvidenceMessage)
}

func TestIngestCmd_TestQueryError(t *testing.T) {
	ts := setupTestServices(t)
	ts.retrieval.err = domain.ErrEmbeddingUnavailable

	_, err := executeCommand("ingest", "test", "q")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIngestCmd_UnknownArgument(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand("ingest", "rebuild")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown argument "rebuild"`)
}

func TestPreview(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"", 5, ""},
		{"abc", 5, "abc"},
		{"abcdef", 3, "abc"},
		{"ĀĀĀĀ", 2, "ĀĀ"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, preview(tt.in, tt.n))
	}
}
