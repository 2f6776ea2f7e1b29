// Package domain defines the core entities for sercha-sync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceConfig: A named, typed description of one synchronisation source
//   - RawContent: Un-converted bytes fetched by a source adapter
//   - FetchedItem: A converted item ready to be reconciled to disk
//   - Manifest: The ledger of files a source previously wrote
//   - SyncResult: The outcome of one source synchronisation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
