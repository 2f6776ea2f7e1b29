package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sync/internal/core/services"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync [source...]",
	Short: "Synchronise sources into the output tree",
	Long: `Synchronises the named sources, or every configured source when none
are named. A source that fails validation or fails as a whole does not
stop the others. The exit status is non-zero if any source failed.

With --every, the sources are synchronised again after each interval until
the process is interrupted.`,
	RunE: runSync,
}

var syncEvery time.Duration

func init() {
	syncCmd.Flags().DurationVar(&syncEvery, "every", 0, "repeat the sync at this interval (e.g. 30m)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}
	selected, err := sourcesByName(appConfig, args)
	if err != nil {
		return err
	}

	runnable, rejected := partitionSources(appConfig, selected)
	ctx := cmd.Context()
	if syncEvery > 0 {
		return runScheduled(ctx, cmd, selected, rejected, runnable)
	}

	var synced []*domain.SyncResult
	if len(runnable) == 1 && isTerminal(cmd.OutOrStdout()) {
		synced = []*domain.SyncResult{syncWithProgress(ctx, cmd, syncOrchestrator, runnable[0])}
	} else if len(runnable) > 0 {
		synced = syncOrchestrator.SyncAll(ctx, runnable)
	}

	results := mergeResults(selected, rejected, synced)
	renderSummary(cmd.OutOrStdout(), results)
	if domain.AnyFailed(results) {
		return ErrSourcesFailed
	}
	return nil
}

// runScheduled repeats the sync until ctx is cancelled. Failed sources
// are reported but do not stop the schedule.
func runScheduled(
	ctx context.Context,
	cmd *cobra.Command,
	selected []domain.SourceConfig,
	rejected map[int]*domain.SyncResult,
	runnable []domain.SourceConfig,
) error {
	if len(runnable) == 0 {
		renderSummary(cmd.OutOrStdout(), mergeResults(selected, rejected, nil))
		return ErrSourcesFailed
	}
	scheduler, err := services.NewScheduler(syncOrchestrator, syncEvery, func(results []*domain.SyncResult) {
		cmd.Printf("\n%s\n", time.Now().Format(time.DateTime))
		renderSummary(cmd.OutOrStdout(), mergeResults(selected, rejected, results))
	})
	if err != nil {
		return err
	}
	if err := scheduler.Start(ctx, runnable); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// partitionSources separates sources that pass validation from those that
// do not. Rejected sources get a failed result keyed by position.
func partitionSources(cfg *file.Config, selected []domain.SourceConfig) ([]domain.SourceConfig, map[int]*domain.SyncResult) {
	problems, credErr := cfg.Check()
	if credErr != nil {
		logger.Warn("Invalid credentials: %v", credErr)
	}
	byName := make(map[string]error, len(problems))
	for _, p := range problems {
		if _, ok := byName[p.Source]; !ok {
			byName[p.Source] = p.Err
		}
	}

	var runnable []domain.SourceConfig
	rejected := make(map[int]*domain.SyncResult)
	now := time.Now()
	for i, src := range selected {
		if err, bad := byName[src.Name]; bad {
			logger.Error("Skipping source %s: %v", src.Name, err)
			rejected[i] = &domain.SyncResult{
				Source:     src.Name,
				Type:       src.Type,
				Err:        err,
				StartedAt:  now,
				FinishedAt: now,
			}
			continue
		}
		runnable = append(runnable, src)
	}
	return runnable, rejected
}

// mergeResults restores configuration order across rejected and synced sources.
func mergeResults(selected []domain.SourceConfig, rejected map[int]*domain.SyncResult, synced []*domain.SyncResult) []*domain.SyncResult {
	results := make([]*domain.SyncResult, 0, len(selected))
	next := 0
	for i := range selected {
		if r, ok := rejected[i]; ok {
			results = append(results, r)
			continue
		}
		if next < len(synced) {
			results = append(results, synced[next])
			next++
		}
	}
	return results
}

// syncWithProgress runs one source while displaying progress updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	syncOrch driving.SyncOrchestrator,
	cfg domain.SourceConfig,
) *domain.SyncResult {
	done := make(chan *domain.SyncResult, 1)
	go func() {
		done <- syncOrch.SyncSource(ctx, cfg)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case result := <-done:
			if lastCount > 0 {
				cmd.Println()
			}
			return result
		case <-ticker.C:
			// Best effort; a missing status just skips the update.
			status, err := syncOrch.Status(ctx, cfg.Name)
			if err == nil && status != nil && status.ItemsFetched > lastCount {
				cmd.Printf("\rFetching %s... %d items (%d errors)", cfg.Name, status.ItemsFetched, status.ErrorCount)
				lastCount = status.ItemsFetched
			}
		}
	}
}
