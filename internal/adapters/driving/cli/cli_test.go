package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

const testConfig = `
output_dir = "./out"

[[sources]]
name = "blog"
type = "web"
[[sources.seeds]]
id = "https://blog.example.com/"

[[sources]]
name = "broken"
type = "web"

[[sources]]
name = "eng"
type = "repository"
url = "https://github.com/acme/eng-docs.git"
`

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	mu      sync.Mutex
	synced  []string
	planned []string
	forgot  []domain.SourceConfig

	// results maps source names to canned results; unknown sources succeed.
	results   map[string]*domain.SyncResult
	forgetN   int
	forgetErr error
}

var _ driving.SyncOrchestrator = (*mockSyncOrchestrator)(nil)

func (m *mockSyncOrchestrator) result(cfg domain.SourceConfig, dryRun bool) *domain.SyncResult {
	if r, ok := m.results[cfg.Name]; ok {
		return r
	}
	now := time.Now()
	return &domain.SyncResult{
		Source:     cfg.Name,
		Type:       cfg.Type,
		Written:    1,
		DryRun:     dryRun,
		StartedAt:  now,
		FinishedAt: now,
	}
}

func (m *mockSyncOrchestrator) SyncSource(_ context.Context, cfg domain.SourceConfig) *domain.SyncResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced = append(m.synced, cfg.Name)
	return m.result(cfg, false)
}

func (m *mockSyncOrchestrator) SyncAll(ctx context.Context, cfgs []domain.SourceConfig) []*domain.SyncResult {
	results := make([]*domain.SyncResult, len(cfgs))
	for i, cfg := range cfgs {
		results[i] = m.SyncSource(ctx, cfg)
	}
	return results
}

func (m *mockSyncOrchestrator) Plan(_ context.Context, cfg domain.SourceConfig) *domain.SyncResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planned = append(m.planned, cfg.Name)
	return m.result(cfg, true)
}

func (m *mockSyncOrchestrator) Forget(_ context.Context, cfg domain.SourceConfig) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgot = append(m.forgot, cfg)
	return m.forgetN, m.forgetErr
}

func (m *mockSyncOrchestrator) Status(_ context.Context, _ string) (*driving.SyncStatus, error) {
	return nil, nil
}

// mockHistoryService implements driving.HistoryService for testing.
type mockHistoryService struct {
	runs      []domain.SyncRun
	err       error
	gotSource string
	gotLimit  int
}

func (m *mockHistoryService) List(_ context.Context, source string, limit int) ([]domain.SyncRun, error) {
	m.gotSource = source
	m.gotLimit = limit
	return m.runs, m.err
}

// setupCLITest installs mocks and a configuration file, returning the
// path of the file.
func setupCLITest(t *testing.T, orch *mockSyncOrchestrator, history *mockHistoryService) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sercha-sync.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	oldSync, oldHistory, oldConfig := syncOrchestrator, historyService, appConfig
	syncOrchestrator, historyService = nil, nil
	if orch != nil {
		syncOrchestrator = orch
	}
	if history != nil {
		historyService = history
	}
	t.Cleanup(func() {
		syncOrchestrator, historyService, appConfig = oldSync, oldHistory, oldConfig
		configPath, logFile, verbose = "", "", false
		showUnchanged, forgetConfirmed, historyLimit, syncEvery = false, false, 20, 0
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
	return path
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func failedResult(name string, err error) *domain.SyncResult {
	return &domain.SyncResult{Source: name, Err: err}
}

var errBoom = errors.New("boom")
