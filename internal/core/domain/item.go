package domain

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// RawContent is the un-converted result of fetching one remote object.
// It is the adapter's output before conversion to an export format.
type RawContent struct {
	// Identifier is the opaque remote identifier (document ID, URL, repo path).
	Identifier string

	// Kind is the native kind or MIME type of the remote object.
	Kind string

	// Title is the human-readable title, if the remote system has one.
	Title string

	// Body is the fetched bytes.
	Body []byte

	// Renditions holds alternative encodings of the object keyed by export
	// format, for adapters that export server-side during fetch.
	Renditions map[string][]byte

	// Links are references to other items, when the adapter extracted them
	// while fetching. Crawling adapters may leave this empty and extract later.
	Links []string

	// ModifiedAt is the remote modification time. Informational only,
	// it never contributes to the content hash.
	ModifiedAt time.Time

	// Metadata contains adapter-specific key-value pairs.
	Metadata map[string]string
}

// FetchedItem is one converted item ready to be reconciled to disk.
// Items are created fresh on every run and never mutated after creation.
type FetchedItem struct {
	// RelativePath is the destination under the source's output directory,
	// using forward slashes.
	RelativePath string

	// Content is the converted bytes.
	Content []byte

	// SourceIdentifier identifies the remote object the item came from.
	SourceIdentifier string

	// ContentHash is derived by the hasher. Adapters never set it.
	ContentHash string

	// ModifiedAt is the remote modification time, informational only.
	ModifiedAt time.Time
}

// WithHash returns a copy of the item carrying the given content hash.
func (i FetchedItem) WithHash(hash string) FetchedItem {
	i.ContentHash = hash
	return i
}

// WriteOutcome reports what an idempotent write did.
type WriteOutcome int

const (
	// OutcomeWritten means the file was created or replaced.
	OutcomeWritten WriteOutcome = iota

	// OutcomeUnchanged means the file on disk already had the same digest.
	OutcomeUnchanged
)

func (o WriteOutcome) String() string {
	if o == OutcomeUnchanged {
		return "unchanged"
	}
	return "written"
}

// JoinRelative joins a slash-separated relative path onto root, rejecting
// absolute paths and paths that escape root.
func JoinRelative(root, relPath string) (string, error) {
	if relPath == "" || path.IsAbs(relPath) || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, relPath)
	}
	clean := path.Clean(relPath)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, relPath)
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}
