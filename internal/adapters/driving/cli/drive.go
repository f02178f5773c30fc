package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driving/oauth"
	"github.com/LeonardSibelius/engineroom-ai/internal/connectors/google"
)

// authTimeout bounds how long drive auth waits for the browser consent.
const authTimeout = 5 * time.Minute

// openBrowser is replaced in tests.
var openBrowser oauth.BrowserOpener = oauth.OpenBrowser

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Google Drive commands",
	Long:  `Authorise Google Drive access and mirror a Drive folder of PDFs locally.`,
}

var driveAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Create the Drive OAuth token",
	Long: `Runs the Google OAuth consent flow in a browser and saves the resulting
read-only Drive token (token_drive.json).

Requires an OAuth client file (credentials.json) of type "Desktop app"
downloaded from the Google Cloud console.`,
	RunE: runDriveAuth,
}

var driveSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download new or changed PDFs from Drive",
	Long: `Mirrors the PDFs of a Drive folder into the local Drive cache without
rebuilding the knowledge base. Unchanged files are skipped.`,
	Args: cobra.NoArgs,
	RunE: runDriveSync,
}

func init() {
	driveAuthCmd.Flags().Bool("force", false, "replace an existing valid token")
	driveAuthCmd.Flags().Bool("no-browser", false, "print the consent URL without opening a browser")
	driveAuthCmd.Flags().Int("port", 0, "callback port (0 = any free port)")

	driveSyncCmd.Flags().String("folder-id", "", "Drive folder ID (default from settings)")
	driveSyncCmd.Flags().String("dest-dir", "", "local cache directory (default from settings)")
	driveSyncCmd.Flags().Bool("force", false, "re-download every file")

	driveCmd.AddCommand(driveAuthCmd)
	driveCmd.AddCommand(driveSyncCmd)
	rootCmd.AddCommand(driveCmd)
}

func runDriveAuth(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")          //nolint:errcheck // flag is registered
	noBrowser, _ := cmd.Flags().GetBool("no-browser") //nolint:errcheck // flag is registered
	port, _ := cmd.Flags().GetInt("port")             //nolint:errcheck // flag is registered

	settings, err := requireSettings()
	if err != nil {
		return err
	}
	tokenPath := settings.Drive.TokenPath
	tokenName := filepath.Base(tokenPath)

	if !force {
		if ts, err := google.NewFileTokenSource(cmd.Context(), tokenPath); err == nil {
			if _, err := ts.Token(); err == nil {
				cmd.Printf("Valid %s already exists.\n", tokenName)
				return nil
			}
			cmd.Println("Existing token could not be refreshed.")
		}
	}

	cfg, err := google.LoadClientConfig(settings.Drive.CredentialsPath)
	if errors.Is(err, google.ErrNoCredentials) {
		cmd.Printf("ERROR: %s not found.\n", settings.Drive.CredentialsPath)
		cmd.Println("Create an OAuth client of type \"Desktop app\" in the Google Cloud console,")
		cmd.Println("download it as credentials.json and run this command again.")
		return err
	}
	if err != nil {
		return err
	}

	cmd.Println("Starting new OAuth flow for Google Drive...")

	open := openBrowser
	if noBrowser {
		open = func(string) error { return nil }
	}
	flow := &oauth.Flow{
		Config: cfg,
		Port:   port,
		Open:   open,
		Prompt: func(url string) {
			cmd.Println("Open this URL to authorise read-only Drive access:")
			cmd.Printf("\n  %s\n\n", url)
		},
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
	defer cancel()

	tok, err := flow.Authorize(ctx)
	if err != nil {
		return fmt.Errorf("drive authorisation failed: %w", err)
	}
	if err := google.SaveToken(tokenPath, cfg, tok); err != nil {
		return err
	}

	cmd.Printf("%s created successfully!\n", tokenName)
	return nil
}

func runDriveSync(cmd *cobra.Command, _ []string) error {
	folderID, _ := cmd.Flags().GetString("folder-id") //nolint:errcheck // flag is registered
	destDir, _ := cmd.Flags().GetString("dest-dir")   //nolint:errcheck // flag is registered
	force, _ := cmd.Flags().GetBool("force")          //nolint:errcheck // flag is registered

	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if synchronizer == nil {
		return errors.New("drive synchronizer not configured")
	}

	if folderID == "" {
		folderID = appSettings.Drive.FolderID
	}
	if destDir == "" {
		destDir = appSettings.Drive.SyncDir
	}

	paths, err := synchronizer.Sync(cmd.Context(), folderID, destDir, force)
	if err != nil {
		cmd.Printf("ERROR: Drive sync failed: %v\n", err)
		return err
	}

	cmd.Printf("%d PDF(s) available in %s\n", len(paths), destDir)
	return nil
}
