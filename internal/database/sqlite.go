package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created inside the data directory.
const FileName = "harvester.db"

var (
	_ KV      = (*DB)(nil)
	_ History = (*DB)(nil)
	_ KV      = (*MemoryStore)(nil)
	_ History = (*MemoryStore)(nil)
)

// DB is the SQLite-backed store.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database inside dbDir.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a scan or serve first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &DB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (d *DB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		outcome TEXT NOT NULL,
		found INTEGER NOT NULL DEFAULT 0,
		sources TEXT,
		elapsed_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_scans_url ON scans(url);
	CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(timestamp);
	`

	_, err := d.db.ExecContext(context.Background(), schema)
	return err
}

// Get implements KV.
func (d *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return []byte(value), true, nil
}

const upsertKV = `
	INSERT INTO kv (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP
	`

// Set implements KV.
func (d *DB) Set(ctx context.Context, key string, value []byte) error {
	if _, err := d.db.ExecContext(ctx, upsertKV, key, string(value)); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// SetMany implements KV. All values are written in one transaction.
func (d *DB) SetMany(ctx context.Context, values map[string][]byte) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	for _, key := range slices.Sorted(maps.Keys(values)) {
		if _, err := tx.ExecContext(ctx, upsertKV, key, string(values[key])); err != nil {
			return fmt.Errorf("failed to set %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// InsertScanRecord implements History.
func (d *DB) InsertScanRecord(ctx context.Context, record *ScanRecord) (int64, error) {
	sources, err := json.Marshal(record.Sources)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize sources: %w", err)
	}

	ts := record.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `
	INSERT INTO scans (url, timestamp, outcome, found, sources, elapsed_ms)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, query,
		record.URL,
		ts.UTC().Format(time.RFC3339Nano),
		record.Outcome,
		record.Found,
		string(sources),
		record.Elapsed.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan record: %w", err)
	}

	return result.LastInsertId()
}

// ListScanRecords implements History.
func (d *DB) ListScanRecords(ctx context.Context, limit int) ([]ScanRecord, error) {
	query := `
	SELECT id, url, timestamp, outcome, found, sources, elapsed_ms
	FROM scans
	ORDER BY id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var timestamp string
		var sources sql.NullString
		var elapsedMS int64

		if err := rows.Scan(
			&rec.ID,
			&rec.URL,
			&timestamp,
			&rec.Outcome,
			&rec.Found,
			&sources,
			&elapsedMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.Timestamp = parseTimestamp(timestamp)
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if sources.Valid && sources.String != "" {
			if err := json.Unmarshal([]byte(sources.String), &rec.Sources); err != nil {
				rec.Sources = nil
			}
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a timestamp in any of the formats SQLite may
// return. It returns the zero time when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
