// Package filesystem implements content hashing and idempotent file writes
// for the output tree.
package filesystem

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ContentWriter = (*Writer)(nil)

// DigestPrefix identifies the digest algorithm.
const DigestPrefix = "sha256:"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer hashes content and writes files atomically.
type Writer struct{}

// NewWriter creates a filesystem writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Hash returns the sha256 digest of content.
func (w *Writer) Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return DigestPrefix + hex.EncodeToString(sum[:])
}

// WriteIfChanged writes content to path unless the file already hashes to
// digest. The file is written to a temporary file in the same directory,
// synced and renamed into place.
func (w *Writer) WriteIfChanged(path string, content []byte, digest string) (domain.WriteOutcome, error) {
	current, err := w.hashFile(path)
	switch {
	case err == nil && current == digest:
		return domain.OutcomeUnchanged, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return domain.OutcomeWritten, fmt.Errorf("hash existing %s: %w", path, err)
	}

	if err := WriteFileAtomic(path, content, filePerm); err != nil {
		return domain.OutcomeWritten, err
	}
	return domain.OutcomeWritten, nil
}

// Remove deletes path, then removes empty parent directories up to but not
// including root. A missing file is not an error.
func (w *Writer) Remove(path, root string) error {
	if !within(root, path) {
		return fmt.Errorf("%w: %s", domain.ErrPathEscape, path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	pruneEmptyDirs(filepath.Dir(path), root)
	return nil
}

func (w *Writer) hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return DigestPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// WriteFileAtomic writes content to dst through a synced temporary file in
// the same directory, so dst is either the old or the new content.
func WriteFileAtomic(dst string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".sercha-sync-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}() // cleanup on error

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", dst, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename into %s: %w", dst, err)
	}
	return nil
}

// pruneEmptyDirs removes dir and its parents while they are empty,
// stopping at root.
func pruneEmptyDirs(dir, root string) {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root && within(root, dir); dir = filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
