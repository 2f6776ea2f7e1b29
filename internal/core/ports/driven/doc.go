// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SourceAdapter: Enumerates, fetches and converts items from one external system
//   - AdapterFactory: Builds the adapter variant matching a source type
//   - ManifestStore: Per-source ledger of previously written files
//   - ContentWriter: Content hashing and idempotent, atomic file writes
//   - TokenProvider / CredentialResolver: Bearer credentials for adapters
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LinkExtractor: Implemented by adapters whose items link to other items
//   - SyncHistoryStore: Records finished runs. Without it, history is not kept.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
