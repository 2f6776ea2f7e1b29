package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestPlanCmd_ListsChanges(t *testing.T) {
	planned := &domain.SyncResult{
		Source:  "blog",
		DryRun:  true,
		Written: 1,
		Changes: []domain.FileChange{
			{RelativePath: "blog.example.com/index.md", Action: domain.ActionWrite},
			{RelativePath: "blog.example.com/kept.md", Action: domain.ActionKeep},
			{RelativePath: "blog.example.com/old.md", Action: domain.ActionDelete},
			{RelativePath: "blog.example.com/same.md", Action: domain.ActionUnchanged},
		},
	}
	orch := &mockSyncOrchestrator{results: map[string]*domain.SyncResult{"blog": planned}}
	path := setupCLITest(t, orch, nil)

	out, err := run(t, "--config", path, "plan", "blog")

	require.NoError(t, err)
	assert.Equal(t, []string{"blog"}, orch.planned)
	assert.Empty(t, orch.synced)
	assert.Contains(t, out, "+ blog.example.com/index.md")
	assert.Contains(t, out, "~ blog.example.com/kept.md")
	assert.Contains(t, out, "- blog.example.com/old.md")
	assert.NotContains(t, out, "same.md")
	assert.Contains(t, out, "blog (dry run) ok")

	out, err = run(t, "--config", path, "plan", "blog", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "= blog.example.com/same.md")
}

func TestPlanCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"missing argument", []string{"plan"}, nil},
		{"unknown source", []string{"plan", "nope"}, domain.ErrNotFound},
		{"invalid source", []string{"plan", "broken"}, domain.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := &mockSyncOrchestrator{}
			path := setupCLITest(t, orch, nil)

			_, err := run(t, append([]string{"--config", path}, tt.args...)...)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, orch.planned)
		})
	}
}

func TestPlanCmd_SourceFailure(t *testing.T) {
	orch := &mockSyncOrchestrator{results: map[string]*domain.SyncResult{
		"eng": failedResult("eng", domain.ErrConfiguration),
	}}
	path := setupCLITest(t, orch, nil)

	out, err := run(t, "--config", path, "plan", "eng")

	require.ErrorIs(t, err, ErrSourcesFailed)
	assert.Contains(t, out, "eng failed")
}

func TestForgetCmd_RequiresConfirmation(t *testing.T) {
	orch := &mockSyncOrchestrator{}
	path := setupCLITest(t, orch, nil)

	_, err := run(t, "--config", path, "forget", "blog")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Empty(t, orch.forgot)
}

func TestForgetCmd_ConfiguredSource(t *testing.T) {
	orch := &mockSyncOrchestrator{forgetN: 4}
	path := setupCLITest(t, orch, nil)

	out, err := run(t, "--config", path, "forget", "eng", "--yes")

	require.NoError(t, err)
	require.Len(t, orch.forgot, 1)
	assert.Equal(t, domain.SourceTypeRepository, orch.forgot[0].Type)
	assert.Contains(t, out, "Forgot eng: removed 4 files.")
}

func TestForgetCmd_RemovedSource(t *testing.T) {
	orch := &mockSyncOrchestrator{forgetN: 2}
	path := setupCLITest(t, orch, nil)

	_, err := run(t, "--config", path, "forget", "retired", "-y")

	require.NoError(t, err)
	require.Len(t, orch.forgot, 1)
	assert.Equal(t, domain.SourceConfig{Name: "retired"}, orch.forgot[0])
}

func TestForgetCmd_PartialFailure(t *testing.T) {
	orch := &mockSyncOrchestrator{forgetN: 1, forgetErr: errBoom}
	path := setupCLITest(t, orch, nil)

	_, err := run(t, "--config", path, "forget", "blog", "--yes")

	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "removed 1 files before failing")
}

func TestHistoryCmd(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	history := &mockHistoryService{runs: []domain.SyncRun{
		{
			Source: "eng", Status: domain.RunFailed, Error: "authentication error",
			StartedAt: started, FinishedAt: started.Add(time.Second),
		},
		{
			Source: "blog", Status: domain.RunSucceeded, Written: 3, Unchanged: 7,
			StartedAt: started, FinishedAt: started.Add(1500 * time.Millisecond),
		},
	}}
	path := setupCLITest(t, &mockSyncOrchestrator{}, history)

	out, err := run(t, "--config", path, "history", "--limit", "5")

	require.NoError(t, err)
	assert.Equal(t, "", history.gotSource)
	assert.Equal(t, 5, history.gotLimit)
	assert.Contains(t, out, "STARTED")
	assert.Contains(t, out, "authentication error")
	assert.Contains(t, out, "1.5s")

	_, err = run(t, "--config", path, "history", "blog")
	require.NoError(t, err)
	assert.Equal(t, "blog", history.gotSource)
}

func TestHistoryCmd_Empty(t *testing.T) {
	path := setupCLITest(t, &mockSyncOrchestrator{}, &mockHistoryService{})

	out, err := run(t, "--config", path, "history")

	require.NoError(t, err)
	assert.Contains(t, out, "No sync runs recorded.")
}

func TestHistoryCmd_Error(t *testing.T) {
	path := setupCLITest(t, &mockSyncOrchestrator{}, &mockHistoryService{err: errBoom})

	_, err := run(t, "--config", path, "history")

	require.ErrorIs(t, err, errBoom)
}

func TestValidateCmd(t *testing.T) {
	path := setupCLITest(t, nil, nil)

	out, err := run(t, "--config", path, "validate")

	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, out, "blog ok")
	assert.Contains(t, out, "eng ok")
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "at least one seed is required")
}

func TestVersionCmd_Executes(t *testing.T) {
	setupCLITest(t, nil, nil)
	originalVersion := version
	SetVersion("test-version-1.0.0")
	defer func() { version = originalVersion }()

	out, err := run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "sercha-sync version test-version-1.0.0")
}

func TestRoot_BootstrapsServices(t *testing.T) {
	path := setupCLITest(t, nil, nil)
	orch := &mockSyncOrchestrator{}
	closed := false

	oldBootstrap := bootstrap
	defer func() { bootstrap = oldBootstrap }()

	var got *file.Config
	SetBootstrap(func(_ context.Context, cfg *file.Config) (*Services, error) {
		got = cfg
		return &Services{
			SyncOrchestrator: orch,
			HistoryService:   &mockHistoryService{},
			Close:            func() error { closed = true; return nil },
		}, nil
	})

	rootCmd.SetArgs([]string{"--config", path, "sync", "blog"})
	err := Execute(context.Background())

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, path, got.Path)
	assert.Equal(t, []string{"blog"}, orch.synced)
	assert.True(t, closed)
	assert.Nil(t, syncOrchestrator)
}

func TestRoot_BootstrapFailure(t *testing.T) {
	path := setupCLITest(t, nil, nil)
	oldBootstrap := bootstrap
	defer func() { bootstrap = oldBootstrap }()
	SetBootstrap(func(context.Context, *file.Config) (*Services, error) {
		return nil, errBoom
	})

	_, err := run(t, "--config", path, "sync")

	require.ErrorIs(t, err, errBoom)
}
