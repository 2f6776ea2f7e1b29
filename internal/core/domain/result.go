package domain

import (
	"fmt"
	"time"
)

// ItemError records a failure for one item within a source sync.
type ItemError struct {
	// Identifier is the remote identifier of the failed item, if known.
	Identifier string

	// RelativePath is the destination path of the failed item, if known.
	RelativePath string

	// Kind classifies the failure.
	Kind ErrorKind

	// Err is the underlying error.
	Err error
}

// NewItemError creates an ItemError, classifying err.
func NewItemError(identifier, relPath string, err error) ItemError {
	return ItemError{
		Identifier:   identifier,
		RelativePath: relPath,
		Kind:         ClassifyError(err),
		Err:          err,
	}
}

func (e ItemError) Error() string {
	target := e.Identifier
	if target == "" {
		target = e.RelativePath
	}
	return fmt.Sprintf("%s (%s): %v", target, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e ItemError) Unwrap() error {
	return e.Err
}

// FileAction describes what reconciliation did with one file.
type FileAction string

const (
	ActionWrite     FileAction = "write"
	ActionUnchanged FileAction = "unchanged"
	ActionDelete    FileAction = "delete"
	ActionKeep      FileAction = "keep"
)

// FileChange is one reconciliation decision.
type FileChange struct {
	RelativePath string
	Action       FileAction
}

// RunStatus summarises a sync run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
)

// SyncResult is the single surface where all outcomes of one source sync
// are visible.
type SyncResult struct {
	// RunID uniquely identifies this run.
	RunID string

	// Source is the source name.
	Source string

	// Type is the source type.
	Type SourceType

	// Written counts files created or rewritten.
	Written int

	// Unchanged counts files whose content already matched.
	Unchanged int

	// Deleted counts orphaned files removed.
	Deleted int

	// Errors lists per-item failures. They never abort the source.
	Errors []ItemError

	// Changes lists every reconciliation decision, in path order.
	Changes []FileChange

	// Err is the source-level failure. Nil unless the whole source failed.
	Err error

	// DryRun is true when no file or manifest was touched.
	DryRun bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns true if the whole source failed.
func (r *SyncResult) Failed() bool {
	return r.Err != nil
}

// Status summarises the run.
func (r *SyncResult) Status() RunStatus {
	switch {
	case r.Err != nil:
		return RunFailed
	case len(r.Errors) > 0:
		return RunPartial
	default:
		return RunSucceeded
	}
}

// Duration returns how long the run took.
func (r *SyncResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// AddError appends an item error.
func (r *SyncResult) AddError(e ItemError) {
	r.Errors = append(r.Errors, e)
}

// AnyFailed returns true if any result failed as a whole source.
// Individual item errors do not count.
func AnyFailed(results []*SyncResult) bool {
	for _, r := range results {
		if r != nil && r.Failed() {
			return true
		}
	}
	return false
}

// SyncRun is the persisted history record of one SyncResult.
type SyncRun struct {
	ID         string
	Source     string
	Type       SourceType
	Status     RunStatus
	Written    int
	Unchanged  int
	Deleted    int
	ErrorCount int
	// Error holds the source-level error message, if any.
	Error      string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run converts the result into its history record.
func (r *SyncResult) Run() SyncRun {
	run := SyncRun{
		ID:         r.RunID,
		Source:     r.Source,
		Type:       r.Type,
		Status:     r.Status(),
		Written:    r.Written,
		Unchanged:  r.Unchanged,
		Deleted:    r.Deleted,
		ErrorCount: len(r.Errors),
		DryRun:     r.DryRun,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}
	return run
}
