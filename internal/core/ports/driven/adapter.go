package driven

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// SourceAdapter fetches items from one external system.
// Exactly three variants exist: document-suite, repository and web.
type SourceAdapter interface {
	// Type returns the source type the adapter serves.
	Type() domain.SourceType

	// Validate performs a lightweight pre-flight check (credentials,
	// reachability). Errors wrap domain.ErrAuthentication or
	// domain.ErrConfiguration when the source cannot be synced at all.
	Validate(ctx context.Context) error

	// Enumerate returns the starting identifiers of the source.
	// For crawling adapters these are the seeds; for the repository adapter
	// it is the complete item set.
	Enumerate(ctx context.Context) ([]domain.Seed, error)

	// Fetch retrieves one remote object.
	Fetch(ctx context.Context, identifier string) (*domain.RawContent, error)

	// Convert turns fetched content into an item in the target format.
	// An empty format selects the adapter's default for the content's kind.
	Convert(raw *domain.RawContent, format string) (*domain.FetchedItem, error)

	// Close releases resources (scratch directories, idle connections).
	Close() error
}

// LinkExtractor is implemented by adapters whose items reference other items.
type LinkExtractor interface {
	// ExtractLinks returns the identifiers referenced by a fetched item.
	// Returned identifiers are already normalised.
	ExtractLinks(raw *domain.RawContent) []string

	// NormaliseIdentifier canonicalises an identifier for visited-set
	// deduplication. Returns false if the identifier is not fetchable.
	NormaliseIdentifier(identifier string) (string, bool)
}

// AdapterFactory builds the adapter variant matching a source type.
type AdapterFactory interface {
	// Create returns the adapter for cfg.Type.
	// Returns an error wrapping domain.ErrConfiguration for unknown types.
	Create(ctx context.Context, cfg domain.SourceConfig) (SourceAdapter, error)
}
