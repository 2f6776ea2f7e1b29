package driven

import "github.com/custodia-labs/sercha-sync/internal/core/domain"

// ContentWriter computes content digests and writes files idempotently.
type ContentWriter interface {
	// Hash returns a deterministic digest of content only.
	Hash(content []byte) string

	// WriteIfChanged writes content to path unless the file already has the
	// same digest. Writes are all-or-nothing.
	WriteIfChanged(path string, content []byte, digest string) (domain.WriteOutcome, error)

	// Remove deletes path and prunes empty parent directories up to root.
	// A missing file is not an error.
	Remove(path, root string) error
}
