package domain

import (
	"sort"
	"time"
)

// ManifestVersion is the current manifest format version.
const ManifestVersion = 1

// ManifestEntry records one file previously written by a source.
type ManifestEntry struct {
	// RelativePath is the file path under the source's output directory.
	RelativePath string `json:"relative_path"`

	// ContentHash is the digest of the content written.
	ContentHash string `json:"content_hash"`

	// LastSyncedAt is when the file was last confirmed by a sync.
	LastSyncedAt time.Time `json:"last_synced_at"`

	// SourceIdentifier identifies the remote object the file came from.
	SourceIdentifier string `json:"source_identifier,omitempty"`
}

// Manifest is the ledger of files one source has written.
// It is rewritten in full at the end of each successful sync.
type Manifest struct {
	Source    string          `json:"source"`
	Version   int             `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
	Entries   []ManifestEntry `json:"entries"`
}

// NewManifest creates an empty manifest for a source.
func NewManifest(source string) *Manifest {
	return &Manifest{
		Source:  source,
		Version: ManifestVersion,
		Entries: []ManifestEntry{},
	}
}

// Index returns the entries keyed by relative path.
func (m *Manifest) Index() map[string]ManifestEntry {
	idx := make(map[string]ManifestEntry, len(m.Entries))
	for _, e := range m.Entries {
		idx[e.RelativePath] = e
	}
	return idx
}

// Lookup returns the entry for a relative path.
func (m *Manifest) Lookup(relPath string) (ManifestEntry, bool) {
	for _, e := range m.Entries {
		if e.RelativePath == relPath {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.Entries)
}

// Sort orders entries by relative path so persisted manifests are stable.
func (m *Manifest) Sort() {
	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].RelativePath < m.Entries[j].RelativePath
	})
}

// SameEntries reports whether both manifests hold identical entries,
// ignoring order.
func (m *Manifest) SameEntries(other *Manifest) bool {
	if other == nil || len(m.Entries) != len(other.Entries) {
		return false
	}
	idx := other.Index()
	for _, e := range m.Entries {
		o, ok := idx[e.RelativePath]
		if !ok || o.ContentHash != e.ContentHash || o.SourceIdentifier != e.SourceIdentifier ||
			!o.LastSyncedAt.Equal(e.LastSyncedAt) {
			return false
		}
	}
	return true
}
