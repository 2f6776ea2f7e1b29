package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewManifest(t *testing.T) {
	m := NewManifest("docs")

	assert.Equal(t, "docs", m.Source)
	assert.Equal(t, ManifestVersion, m.Version)
	assert.NotNil(t, m.Entries)
	assert.Equal(t, 0, m.Len())
}

func TestManifest_IndexAndLookup(t *testing.T) {
	m := NewManifest("docs")
	m.Entries = []ManifestEntry{
		{RelativePath: "b.md", ContentHash: "h2"},
		{RelativePath: "a.md", ContentHash: "h1"},
	}

	idx := m.Index()
	assert.Len(t, idx, 2)
	assert.Equal(t, "h1", idx["a.md"].ContentHash)

	e, ok := m.Lookup("b.md")
	assert.True(t, ok)
	assert.Equal(t, "h2", e.ContentHash)

	_, ok = m.Lookup("missing.md")
	assert.False(t, ok)
}

func TestManifest_Sort(t *testing.T) {
	m := NewManifest("docs")
	m.Entries = []ManifestEntry{{RelativePath: "z"}, {RelativePath: "a/b"}, {RelativePath: "a"}}
	m.Sort()

	assert.Equal(t, "a", m.Entries[0].RelativePath)
	assert.Equal(t, "a/b", m.Entries[1].RelativePath)
	assert.Equal(t, "z", m.Entries[2].RelativePath)
}

func TestManifest_SameEntries(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := NewManifest("docs")
	a.Entries = []ManifestEntry{{RelativePath: "x", ContentHash: "h", LastSyncedAt: ts}}
	b := NewManifest("docs")
	b.Entries = []ManifestEntry{{RelativePath: "x", ContentHash: "h", LastSyncedAt: ts}}

	assert.True(t, a.SameEntries(b))

	b.Entries[0].ContentHash = "other"
	assert.False(t, a.SameEntries(b))

	b.Entries = nil
	assert.False(t, a.SameEntries(b))
	assert.False(t, a.SameEntries(nil))
}
