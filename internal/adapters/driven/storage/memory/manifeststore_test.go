package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestManifestStore_LoadMissing(t *testing.T) {
	store := NewManifestStore()

	m, err := store.Load(context.Background(), "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", m.Source)
	assert.Zero(t, m.Len())
}

func TestManifestStore_SaveLoadDelete(t *testing.T) {
	store := NewManifestStore()
	ctx := context.Background()

	m := domain.NewManifest("docs")
	m.Entries = append(m.Entries, domain.ManifestEntry{
		RelativePath: "a.md",
		ContentHash:  "sha256:1",
		LastSyncedAt: time.Now(),
	})
	require.NoError(t, store.Save(ctx, m))
	assert.Equal(t, 1, store.Saves())

	// Mutating the caller's copy must not change the stored manifest.
	m.Entries[0].ContentHash = "sha256:2"

	loaded, err := store.Load(ctx, "docs")
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	assert.Equal(t, "sha256:1", loaded.Entries[0].ContentHash)

	require.NoError(t, store.Delete(ctx, "docs"))
	loaded, err = store.Load(ctx, "docs")
	require.NoError(t, err)
	assert.Zero(t, loaded.Len())
}

func TestHistoryStore_ListNewestFirst(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	for _, run := range []domain.SyncRun{
		{ID: "1", Source: "docs"},
		{ID: "2", Source: "site"},
		{ID: "3", Source: "docs"},
	} {
		require.NoError(t, store.Record(ctx, run))
	}

	all, err := store.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, runIDs(all))

	docs, err := store.List(ctx, "docs", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, runIDs(docs))

	last, err := store.Last(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, "2", last.ID)

	_, err = store.Last(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func runIDs(runs []domain.SyncRun) []string {
	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	return ids
}
