package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/nao1215/riskscope/internal/model"
)

// Driver names registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// DefaultRecentLimit is the number of events returned when no limit is given.
const DefaultRecentLimit = 50

// EventStore is an append-only store of decisions.
// It is safe for concurrent use.
type EventStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Options configures the SQLite backend.
type Options struct {
	// EnableWAL enables Write-Ahead Logging for better concurrent reads.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{EnableWAL: true}
}

// ParseURL splits a database URL into a driver name and a DSN.
//
// Accepted forms are sqlite://<path>, sqlite:<path>, a bare file path
// (SQLite) and postgres:// or postgresql:// URLs (PostgreSQL).
func ParseURL(databaseURL string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DriverPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(databaseURL, "sqlite://"), nil
	case strings.HasPrefix(databaseURL, "sqlite:"):
		return DriverSQLite, strings.TrimPrefix(databaseURL, "sqlite:"), nil
	case databaseURL != "" && !strings.Contains(databaseURL, "://"):
		return DriverSQLite, databaseURL, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, databaseURL)
	}
}

// Open opens the event store named by databaseURL and creates the schema.
func Open(ctx context.Context, databaseURL string, opts Options) (*EventStore, error) {
	driver, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		return OpenSQLite(ctx, dsn, opts)
	}
	return OpenPostgres(ctx, dsn)
}

// OpenSQLite opens or creates a SQLite event store at path.
// The parent directory is created when missing.
func OpenSQLite(ctx context.Context, path string, opts Options) (*EventStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverSQLite, path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	return newStore(ctx, db, DriverSQLite)
}

// OpenPostgres opens a PostgreSQL event store.
func OpenPostgres(ctx context.Context, dsn string) (*EventStore, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newStore(ctx, db, DriverPostgres)
}

func newStore(ctx context.Context, db *sql.DB, driver string) (*EventStore, error) {
	s := &EventStore{
		db:     db,
		driver: driver,
		now:    time.Now,
	}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *EventStore) Close() error {
	return s.db.Close()
}

// Driver returns the database/sql driver name in use.
func (s *EventStore) Driver() string {
	return s.driver
}

// Ping checks that the database is reachable.
func (s *EventStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *EventStore) createTables(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			` + idColumn + `,
			ts TEXT NOT NULL,
			kind TEXT NOT NULL,
			combined_score INTEGER NOT NULL,
			action TEXT NOT NULL,
			reason TEXT NOT NULL,
			input_ref TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_events_action ON events(action)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save appends d and returns the new event id.
func (s *EventStore) Save(ctx context.Context, d model.Decision) (int64, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize decision: %w", err)
	}

	query := s.rebind(`
	INSERT INTO events (ts, kind, combined_score, action, reason, input_ref, payload)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	RETURNING id
	`)

	var id int64
	err = s.db.QueryRowContext(ctx, query,
		s.now().UTC().Format(time.RFC3339Nano),
		string(d.Kind),
		d.CombinedScore,
		d.Action.String(),
		d.Reason,
		d.InputRef,
		string(payload),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

// Get returns the event with id.
func (s *EventStore) Get(ctx context.Context, id int64) (*model.Event, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, ts, payload FROM events WHERE id = ?`), id)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Recent returns up to limit events, newest first.
// A non-positive limit uses DefaultRecentLimit.
func (s *EventStore) Recent(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, ts, payload FROM events ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0, limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// Delete removes the event with id.
func (s *EventStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM events WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// Count returns the number of stored events.
func (s *EventStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *EventStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		e       model.Event
		ts      string
		payload string
	)
	if err := row.Scan(&e.ID, &ts, &payload); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &e.Decision); err != nil {
		return nil, fmt.Errorf("failed to deserialize event %d: %w", e.ID, err)
	}
	e.Timestamp = parseTimestamp(ts)
	return &e, nil
}

var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a stored timestamp, returning zero time when no
// known format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
