package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

var showUnchanged bool

var planCmd = &cobra.Command{
	Use:   "plan <source>",
	Short: "Show what a sync would change without writing anything",
	Long: `Fetches and converts a source, then lists the files a sync would write
(+), delete (-) or keep despite a failed fetch (~). Neither the output tree
nor the manifest is touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&showUnchanged, "all", false, "also list unchanged files")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}
	src, err := appConfig.Source(args[0])
	if err != nil {
		return err
	}
	if err := appConfig.Problem(src.Name); err != nil {
		return err
	}

	result := syncOrchestrator.Plan(cmd.Context(), src)
	if !result.Failed() {
		renderChanges(cmd.OutOrStdout(), result, showUnchanged)
	}
	renderSummary(cmd.OutOrStdout(), []*domain.SyncResult{result})
	if result.Failed() {
		return ErrSourcesFailed
	}
	return nil
}
