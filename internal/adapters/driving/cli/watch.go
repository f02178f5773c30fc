package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [DIR]",
	Short: "Add PDFs to the knowledge base as they appear",
	Long: `Watches a directory (the books directory by default) and appends every
PDF copied into it to the knowledge base. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if watcher == nil {
		return errors.New("watcher not configured")
	}

	dir := appSettings.BooksDir
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	cmd.Printf("Watching %s for new PDFs (Ctrl+C to stop)\n", dir)
	return watcher.Run(cmd.Context(), dir)
}
