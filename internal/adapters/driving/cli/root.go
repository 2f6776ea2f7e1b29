// Package cli provides the sercha-sync command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Command annotations controlling what the root pre-run prepares.
const (
	annotationSkipConfig   = "skip-config"
	annotationSkipServices = "skip-services"
)

// DefaultConfigFiles are tried in order when --config is not given.
var DefaultConfigFiles = []string{"sercha-sync.toml", "sercha-sync.yaml", "sercha-sync.yml"}

// ErrSourcesFailed is returned when at least one source failed as a whole.
var ErrSourcesFailed = errors.New("one or more sources failed")

// Services are the driving ports the commands operate on.
type Services struct {
	SyncOrchestrator driving.SyncOrchestrator
	HistoryService   driving.HistoryService

	// Close releases resources held by the services. May be nil.
	Close func() error
}

// Bootstrap builds the services for a loaded configuration.
type Bootstrap func(ctx context.Context, cfg *file.Config) (*Services, error)

var (
	version = "dev"

	configPath string
	verbose    bool
	logFile    string

	appConfig        *file.Config
	syncOrchestrator driving.SyncOrchestrator
	historyService   driving.HistoryService
	closeServices    func() error

	bootstrap Bootstrap
)

var rootCmd = &cobra.Command{
	Use:   "sercha-sync",
	Short: "Mirror documents, repositories and web pages into a local tree",
	Long: `sercha-sync pulls content from configured sources into a local
directory tree, one subdirectory per source, and keeps it current.

Files that have not changed are left untouched, and files whose origin
disappeared are removed. Each source keeps a manifest of what it wrote.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		fmt.Sprintf("configuration file (default: first of %s)", strings.Join(DefaultConfigFiles, ", ")))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that builds services once the
// configuration is loaded.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// Execute runs the root command and releases any bootstrapped services.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, shutdown())
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd.Annotations[annotationSkipConfig] == "true" || cmd.Name() == "help" {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appConfig = cfg

	path := logFile
	if path == "" {
		path = cfg.LogFile
	}
	if path != "" {
		if err := logger.SetLogFile(path); err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}
	logger.Debug("Loaded configuration from %s (%d sources)", cfg.Path, len(cfg.Sources))

	if cmd.Annotations[annotationSkipServices] == "true" || syncOrchestrator != nil {
		return nil
	}
	if bootstrap == nil {
		return errors.New("services not configured")
	}
	svcs, err := bootstrap(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	syncOrchestrator = svcs.SyncOrchestrator
	historyService = svcs.HistoryService
	closeServices = svcs.Close
	return nil
}

func shutdown() error {
	var errs []error
	if closeServices != nil {
		errs = append(errs, closeServices())
		closeServices = nil
		syncOrchestrator = nil
		historyService = nil
	}
	errs = append(errs, logger.Close())
	return errors.Join(errs...)
}

func loadConfig() (*file.Config, error) {
	path := configPath
	if path == "" {
		for _, candidate := range DefaultConfigFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no configuration file found (tried %s); use --config",
			domain.ErrConfiguration, strings.Join(DefaultConfigFiles, ", "))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return file.Load(abs)
}

// sourcesByName resolves names against the configuration, preserving
// file order. No names selects every source.
func sourcesByName(cfg *file.Config, names []string) ([]domain.SourceConfig, error) {
	if len(names) == 0 {
		return cfg.Sources, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := cfg.Source(name); err != nil {
			return nil, fmt.Errorf("%w (configured: %s)", err, strings.Join(cfg.Names(), ", "))
		}
		wanted[name] = true
	}

	var selected []domain.SourceConfig
	for _, s := range cfg.Sources {
		if wanted[s.Name] {
			selected = append(selected, s)
		}
	}
	return selected, nil
}
