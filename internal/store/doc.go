// Package store persists subscription records.
//
// The store enforces the core uniqueness invariant of the scanner: exactly one
// row per (user, provider) pair, maintained by the database's own conflict
// resolution rather than any client-side locking. Writes happen in fixed-size
// batches; a failing batch aborts the remaining ones but already-written
// batches are not rolled back. Retrying a batch is safe because the
// conflict-key upsert is idempotent for identical rows.
//
// Two implementations are provided: a PostgreSQL repository (pgx stdlib
// driver, goose-managed schema) and an in-memory repository used by tests and
// dry runs.
package store
