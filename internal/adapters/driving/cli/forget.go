package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

var forgetConfirmed bool

var forgetCmd = &cobra.Command{
	Use:   "forget <source>",
	Short: "Delete every file a source wrote, and its manifest",
	Long: `Removes every file recorded in the source's manifest, then the manifest
itself. Files the source did not write are left alone. The source does not
need to be configured any more, which allows cleaning up after removing it.`,
	Args: cobra.ExactArgs(1),
	RunE: runForget,
}

func init() {
	forgetCmd.Flags().BoolVarP(&forgetConfirmed, "yes", "y", false, "confirm deletion")
	rootCmd.AddCommand(forgetCmd)
}

func runForget(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}
	name := args[0]
	if !forgetConfirmed {
		return fmt.Errorf("refusing to delete files of %q without --yes", name)
	}

	src, err := appConfig.Source(name)
	if errors.Is(err, domain.ErrNotFound) {
		src = domain.SourceConfig{Name: name}
	}

	removed, err := syncOrchestrator.Forget(cmd.Context(), src)
	if err != nil {
		return fmt.Errorf("forget %s: removed %d files before failing: %w", name, removed, err)
	}
	cmd.Printf("Forgot %s: removed %d files.\n", name, removed)
	return nil
}
