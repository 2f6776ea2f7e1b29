package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedType indicates an unknown source type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Sync Errors.

	// ErrConfiguration indicates a bad schema, an unknown source type or an
	// export format the document kind does not support.
	// Fatal to the source when raised before fetching, per-item otherwise.
	ErrConfiguration = errors.New("configuration error")

	// ErrAuthentication indicates an expired or invalid credential.
	// Always fatal to the source.
	ErrAuthentication = errors.New("authentication error")

	// ErrTransientNetwork indicates a timeout, rate limit or connection reset.
	// Retried with backoff; surfaced per item once the retry budget is spent.
	ErrTransientNetwork = errors.New("transient network error")

	// ErrItemFetch indicates one item could not be fetched (404, non-2xx).
	ErrItemFetch = errors.New("item fetch failed")

	// ErrManifestCorrupt indicates a manifest file could not be decoded.
	// Treated as an empty manifest, never fatal.
	ErrManifestCorrupt = errors.New("manifest corrupt")

	// ErrPathEscape indicates a relative path resolves outside its root.
	ErrPathEscape = errors.New("path escapes root")

	// ErrDuplicatePath indicates two items of one run share a relative path.
	ErrDuplicatePath = errors.New("duplicate relative path")
)

// ErrorKind classifies an item-level failure for reporting.
type ErrorKind string

const (
	ErrorKindConfiguration  ErrorKind = "configuration"
	ErrorKindAuthentication ErrorKind = "authentication"
	ErrorKindTransient      ErrorKind = "transient"
	ErrorKindFetch          ErrorKind = "fetch"
	ErrorKindWrite          ErrorKind = "write"
	ErrorKindDelete         ErrorKind = "delete"
)

// ClassifyError maps an error onto the sync error taxonomy.
// Errors that match no sentinel are treated as fetch failures.
func ClassifyError(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrAuthentication):
		return ErrorKindAuthentication
	case errors.Is(err, ErrConfiguration):
		return ErrorKindConfiguration
	case errors.Is(err, ErrTransientNetwork):
		return ErrorKindTransient
	default:
		return ErrorKindFetch
	}
}

// IsFatalToSource reports whether err aborts the synchronisation of a whole source.
func IsFatalToSource(err error) bool {
	return errors.Is(err, ErrAuthentication) || errors.Is(err, ErrConfiguration)
}

// IsTransient reports whether err is a transient network failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientNetwork)
}
