// Command sercha-sync mirrors configured sources into a local directory tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/filesystem"
	storagefile "github.com/custodia-labs/sercha-sync/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-sync/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-sync/internal/connectors"
	"github.com/custodia-labs/sercha-sync/internal/core/services"
)

// Set at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		if !errors.Is(err, cli.ErrSourcesFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// bootstrap wires adapters and services for a loaded configuration.
func bootstrap(_ context.Context, cfg *file.Config) (*cli.Services, error) {
	resolver := auth.NewResolver(cfg.Credentials)

	manifests, err := storagefile.NewManifestStore(cfg.ManifestDir)
	if err != nil {
		return nil, fmt.Errorf("open manifest store: %w", err)
	}

	store, err := sqlite.NewStore(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	history := store.HistoryStore()

	factory := connectors.NewFactory(resolver, filepath.Join(cfg.StateDir, "checkouts"))
	orchestrator := services.NewSyncOrchestrator(
		factory,
		manifests,
		filesystem.NewWriter(),
		history,
		services.SyncOptions{
			OutputDir:   cfg.OutputDir,
			Concurrency: cfg.Concurrency,
		},
	)

	return &cli.Services{
		SyncOrchestrator: orchestrator,
		HistoryService:   services.NewHistoryService(history),
		Close:            store.Close,
	}, nil
}
