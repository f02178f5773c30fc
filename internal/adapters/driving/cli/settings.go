package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure directories, the Drive folder and the embedding provider.

Settings are read from config.toml, then .env and the environment
(BOOKS_DIR, DRIVE_FOLDER_ID, OPENAI_API_KEY, ENGINEROOM_DATA_DIR).`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used to index and query the knowledge base.

Without --provider an interactive menu is shown. Changing the provider or
model requires rebuilding the knowledge base with 'engineroom ingest'.`,
	RunE: runSettingsEmbedding,
}

var settingsBooksDirCmd = &cobra.Command{
	Use:   "books-dir DIR",
	Short: "Set the local books directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsBooksDir,
}

var settingsDriveFolderCmd = &cobra.Command{
	Use:   "drive-folder FOLDER_ID",
	Short: "Set the default Google Drive folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsDriveFolder,
}

func init() {
	settingsEmbeddingCmd.Flags().String("provider", "", "provider: ollama, openai or hashing")
	settingsEmbeddingCmd.Flags().String("model", "", "model name (default depends on provider)")
	settingsEmbeddingCmd.Flags().String("api-key", "", "API key (openai)")
	settingsEmbeddingCmd.Flags().Bool("skip-validation", false, "do not ping the provider")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsBooksDirCmd)
	settingsCmd.AddCommand(settingsDriveFolderCmd)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettingsService() error {
	if settingsService != nil {
		return nil
	}
	if err := wireSettings(); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettingsService(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Paths]")
	cmd.Printf("  Books: %s\n", settings.BooksDir)
	cmd.Printf("  Drive cache: %s\n", settings.Drive.SyncDir)
	cmd.Printf("  Knowledge base: %s\n", settings.DataDir)
	cmd.Println()

	cmd.Println("[Knowledge Base]")
	cmd.Printf("  Collection: %s\n", settings.KnowledgeBase.Collection)
	cmd.Printf("  Chunk size: %d (overlap %d)\n", settings.Chunk.Size, settings.Chunk.Overlap)
	cmd.Printf("  Batch size: %d\n", settings.KnowledgeBase.BatchSize)
	cmd.Println()

	cmd.Println("[Drive]")
	if settings.Drive.FolderID != "" {
		cmd.Printf("  Folder ID: %s\n", settings.Drive.FolderID)
	} else {
		cmd.Printf("  Folder ID: (not set)\n")
	}
	tokenStatus := "missing, run 'engineroom drive auth'"
	if _, err := os.Stat(settings.Drive.TokenPath); err == nil {
		tokenStatus = "present"
	}
	cmd.Printf("  Token: %s (%s)\n", settings.Drive.TokenPath, tokenStatus)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'engineroom settings embedding' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if err := requireSettingsService(); err != nil {
		return err
	}

	providerFlag, _ := cmd.Flags().GetString("provider") //nolint:errcheck // flag is registered
	model, _ := cmd.Flags().GetString("model")           //nolint:errcheck // flag is registered
	apiKey, _ := cmd.Flags().GetString("api-key")        //nolint:errcheck // flag is registered
	skip, _ := cmd.Flags().GetBool("skip-validation")    //nolint:errcheck // flag is registered

	var provider domain.AIProvider
	if providerFlag != "" {
		provider = domain.AIProvider(strings.ToLower(providerFlag))
		if !provider.IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrUnsupportedType, providerFlag)
		}
	} else {
		reader := bufio.NewReader(cmd.InOrStdin())
		var err error
		provider, model, apiKey, err = promptEmbeddingProvider(cmd, reader)
		if err != nil {
			return err
		}
	}

	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	if !skip {
		cmd.Print("Validating configuration... ")
		if err := settingsService.ValidateEmbeddingConfig(); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("embedding configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), model)
	cmd.Println("Rebuild the knowledge base with 'engineroom ingest' to use it.")
	return nil
}

func promptEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) (domain.AIProvider, string, string, error) {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	defaultModel := domain.DefaultEmbeddingModels()[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return "", "", "", errors.New("API key is required for this provider")
		}
	}
	return provider, model, apiKey, nil
}

func runSettingsBooksDir(cmd *cobra.Command, args []string) error {
	if err := requireSettingsService(); err != nil {
		return err
	}
	if err := settingsService.SetBooksDir(args[0]); err != nil {
		return fmt.Errorf("failed to set books directory: %w", err)
	}
	cmd.Printf("Books directory set to: %s\n", args[0])
	return nil
}

func runSettingsDriveFolder(cmd *cobra.Command, args []string) error {
	if err := requireSettingsService(); err != nil {
		return err
	}
	if err := settingsService.SetDriveFolder(args[0]); err != nil {
		return fmt.Errorf("failed to set Drive folder: %w", err)
	}
	cmd.Printf("Drive folder set to: %s\n", args[0])
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, otherwise a
// plain line from reader.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
