// Package connectors provides the source adapters and the factory that
// selects one for each configured source.
//
// Each adapter knows how to enumerate, fetch and convert items from one kind
// of external system:
//   - google/docs: Google Docs, Sheets and Slides via the Drive API
//   - repository: files of a git repository branch
//   - web: web pages reachable from seed URLs
//
// Shared concerns live in sibling packages: retry for backoff of transient
// failures and google for Drive client construction and error mapping.
package connectors
