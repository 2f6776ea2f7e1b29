// Package sqlite provides a SQLite-based implementation of the sync history store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is an NNN_name.up.sql file that records
// its own version in schema_migrations.
//
// # Data Location
//
// The database is stored at <state_dir>/history.db.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
