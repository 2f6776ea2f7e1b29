package driven

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// ManifestStore persists one manifest per source.
type ManifestStore interface {
	// Load returns the manifest for a source.
	// A missing manifest yields an empty manifest and a nil error.
	// A corrupt manifest yields an empty manifest and an error wrapping
	// domain.ErrManifestCorrupt, which callers treat as a warning.
	Load(ctx context.Context, source string) (*domain.Manifest, error)

	// Save replaces the manifest for m.Source atomically.
	Save(ctx context.Context, m *domain.Manifest) error

	// Delete removes the manifest for a source. Missing is not an error.
	Delete(ctx context.Context, source string) error
}
