package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [source]",
	Short: "List recent sync runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	source := ""
	if len(args) == 1 {
		source = args[0]
	}

	runs, err := historyService.List(cmd.Context(), source, historyLimit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No sync runs recorded.")
		return nil
	}

	p := newPalette(cmd.OutOrStdout())
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSOURCE\tSTATUS\tWRITTEN\tUNCHANGED\tDELETED\tERRORS\tDURATION")
	for _, run := range runs {
		status := p.status(run.Status)
		if run.DryRun {
			status += " (dry run)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			run.StartedAt.Local().Format(time.DateTime), run.Source, status,
			run.Written, run.Unchanged, run.Deleted, run.ErrorCount,
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
		if run.Error != "" {
			fmt.Fprintf(tw, "\t\t%s\n", run.Error)
		}
	}
	return tw.Flush()
}
