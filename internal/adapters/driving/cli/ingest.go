package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
)

const (
	defaultTestQuery = "What is jihad?"
	previewRunes     = 300
	bannerWidth      = 60
)

var (
	ingestSyncDrive     bool
	ingestDriveFolderID string
	ingestDriveDestDir  string
	ingestForce         bool
	ingestAddArticle    string
	ingestAddFile       string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [test [QUERY...]]",
	Short: "Build the knowledge base or add to it",
	Long: `Rebuilds the knowledge base from every PDF in the books directory,
optionally syncing a Google Drive folder first.

With --add-article or --add-file a single source is appended to the
existing knowledge base instead. "ingest test QUERY" runs a query against
the knowledge base and prints the top matches.

Examples:
  engineroom ingest
  engineroom ingest --sync-drive --drive-folder-id 1AbC...
  engineroom ingest --dry-run
  engineroom ingest --add-article https://example.com/history
  engineroom ingest test "Siege of Vienna"`,
	Args: validateIngestArgs,
	RunE: runIngest,
}

func init() {
	flags := ingestCmd.Flags()
	flags.StringVar(&booksDirOverride, "books-dir", "", "local books directory")
	flags.BoolVar(&ingestSyncDrive, "sync-drive", false, "sync PDFs from a Google Drive folder before ingesting")
	flags.StringVar(&ingestDriveFolderID, "drive-folder-id", "", "Google Drive folder ID that contains your PDFs")
	flags.StringVar(&ingestDriveDestDir, "drive-dest-dir", "", "where to download Drive PDFs locally")
	flags.BoolVar(&ingestForce, "force", false, "re-download every Drive file")
	flags.StringVar(&ingestAddArticle, "add-article", "", "add a web article to the knowledge base by URL")
	flags.StringVar(&ingestAddFile, "add-file", "", "add a single PDF to the knowledge base")
	flags.BoolVar(&dryRun, "dry-run", false, "extract and index into memory without touching the knowledge base")
	ingestCmd.MarkFlagsMutuallyExclusive("add-article", "add-file")
	rootCmd.AddCommand(ingestCmd)
}

func validateIngestArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 && args[0] != "test" {
		return fmt.Errorf("unknown argument %q (use 'test QUERY')", args[0])
	}
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}

	switch {
	case ingestAddArticle != "":
		return runAddArticle(cmd, ingestAddArticle)
	case ingestAddFile != "":
		return runAddFile(cmd, ingestAddFile)
	case len(args) > 0:
		query := strings.Join(args[1:], " ")
		if query == "" {
			query = defaultTestQuery
		}
		return runTestQuery(cmd, query)
	default:
		return runRebuild(cmd)
	}
}

func printBanner(cmd *cobra.Command, title string) {
	rule := strings.Repeat("=", bannerWidth)
	cmd.Println(rule)
	cmd.Println(title)
	cmd.Println(rule)
}

func runRebuild(cmd *cobra.Command) error {
	printBanner(cmd, "BOOK INGESTION - Building Knowledge Base")

	opts := driving.RebuildOptions{
		SyncDrive: ingestSyncDrive,
		FolderID:  ingestDriveFolderID,
		DriveDir:  ingestDriveDestDir,
		Force:     ingestForce,
	}
	if opts.SyncDrive && opts.FolderID == "" && appSettings.Drive.FolderID == "" {
		cmd.Println("ERROR: Drive sync requested but no folder ID provided.")
		cmd.Println("Provide --drive-folder-id <FOLDER_ID> or set env var DRIVE_FOLDER_ID.")
		return fmt.Errorf("%w: no Drive folder id", domain.ErrSync)
	}

	report, err := ingestService.Rebuild(cmd.Context(), opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSync):
			cmd.Printf("ERROR: Drive sync failed: %v\n", err)
		case errors.Is(err, domain.ErrNoDocuments):
			// Already reported by the service.
			return nil
		}
		return err
	}

	cmd.Println()
	printBanner(cmd, "INGESTION COMPLETE")
	cmd.Printf("Total chunks indexed: %d\n", report.TotalChunks())
	if dryRun {
		cmd.Println("Knowledge base location: (dry run, nothing written)")
	} else {
		cmd.Printf("Knowledge base location: %s\n", appSettings.DataDir)
	}
	cmd.Printf("Collection name: %s\n", report.Collection)
	if err := report.Err(); err != nil {
		cmd.Printf("Skipped unreadable documents, %v\n", err)
	}
	cmd.Println("\nYou can now run the Topic Expert Agent!")
	return nil
}

func runAddArticle(cmd *cobra.Command, url string) error {
	printBanner(cmd, "ARTICLE INGESTION")

	n, err := ingestService.AddArticle(cmd.Context(), url)
	if errors.Is(err, domain.ErrInsufficientContent) {
		cmd.Println("ERROR: Could not extract meaningful content from the article.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("adding article: %w", err)
	}

	cmd.Println()
	printBanner(cmd, "ARTICLE ADDED")
	cmd.Printf("URL: %s\n", url)
	cmd.Printf("Chunks added: %d\n", n)
	return nil
}

func runAddFile(cmd *cobra.Command, path string) error {
	printBanner(cmd, "BOOK INGESTION")

	n, err := ingestService.AddFile(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("adding %s: %w", path, err)
	}

	cmd.Println()
	printBanner(cmd, "BOOK ADDED")
	cmd.Printf("File: %s\n", path)
	cmd.Printf("Chunks added: %d\n", n)
	return nil
}

func runTestQuery(cmd *cobra.Command, query string) error {
	cmd.Printf("\nTest Query: '%s'\n", query)
	cmd.Println(strings.Repeat("-", 40))

	evidence, err := retrievalService.Search(cmd.Context(), query, domain.DefaultTestQueryResults)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(evidence) == 0 {
		cmd.Println(domain.NoEvidenceMessage)
		return nil
	}

	for _, e := range evidence {
		cmd.Printf("\nResult %d (from %s):\n", e.Rank, e.SourceName)
		cmd.Printf("  %s...\n", preview(e.Content, previewRunes))
	}
	return nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
