// Package database provides the event store for decisions.
//
// Every Decision is appended to a single events table with its kind, score,
// action, reason and input reference in columns and the full Decision as
// JSON. Events are never updated; they can only be deleted by id.
//
// Two backends share the same database/sql code path:
//   - SQLite via modernc.org/sqlite, the default, stored in a single file
//   - PostgreSQL via the pgx stdlib driver, selected by a postgres:// URL
//
// Design decision: SQLite stays the default because it needs no server and
// the CGO-free driver keeps cross-compilation simple. PostgreSQL is offered
// for deployments where several instances share one store.
package database
