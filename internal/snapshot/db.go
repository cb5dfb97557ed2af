package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/steveyegge/ghsync/internal/issue"
)

// DB is a SQLite-backed Store. Persisting snapshots is optional; it
// lets a restarted watcher skip re-reconciling issues that have not
// moved since the previous run.
type DB struct {
	conn *sql.DB
	path string
}

// OpenDB opens (or creates) a snapshot database at the given path and
// initializes its schema. The caller must Close it.
func OpenDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping snapshot database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	// WAL so a status query can read while a pass is writing.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		number INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		state TEXT NOT NULL,
		labels TEXT NOT NULL,  -- JSON array
		body TEXT NOT NULL,
		remote_updated_at TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		synced_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_state ON snapshots(state);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// Get implements Store.Get.
func (db *DB) Get(number int) (Entry, bool, error) {
	row := db.conn.QueryRow(`
		SELECT number, title, state, labels, body, remote_updated_at, fingerprint, synced_at
		FROM snapshots WHERE number = ?`, number)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Put implements Store.Put.
func (db *DB) Put(e Entry) error {
	labelsJSON, err := json.Marshal(e.Record.SortedLabels())
	if err != nil {
		return fmt.Errorf("failed to marshal labels: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO snapshots (number, title, state, labels, body, remote_updated_at, fingerprint, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			title = excluded.title,
			state = excluded.state,
			labels = excluded.labels,
			body = excluded.body,
			remote_updated_at = excluded.remote_updated_at,
			fingerprint = excluded.fingerprint,
			synced_at = excluded.synced_at`,
		e.Number,
		e.Record.Title,
		string(e.Record.State),
		string(labelsJSON),
		e.Record.Body,
		e.RemoteUpdatedAt.UTC().Format(time.RFC3339Nano),
		e.Fingerprint,
		e.SyncedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot #%d: %w", e.Number, err)
	}
	return nil
}

// All implements Store.All.
func (db *DB) All() ([]Entry, error) {
	rows, err := db.conn.Query(`
		SELECT number, title, state, labels, body, remote_updated_at, fingerprint, synced_at
		FROM snapshots ORDER BY number ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return out, nil
}

// Len implements Store.Len.
func (db *DB) Len() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// Close implements Store.Close, checkpointing the WAL first.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot database: %w", err)
	}
	db.conn = nil
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e          Entry
		state      string
		labelsJSON string
		remoteAt   string
		syncedAt   string
	)

	err := row.Scan(&e.Number, &e.Record.Title, &state, &labelsJSON,
		&e.Record.Body, &remoteAt, &e.Fingerprint, &syncedAt)
	if err != nil {
		return Entry{}, err
	}

	e.Record.Number = e.Number
	e.Record.State = issue.State(state)

	if labelsJSON != "" && labelsJSON != "null" {
		if err := json.Unmarshal([]byte(labelsJSON), &e.Record.Labels); err != nil {
			return Entry{}, fmt.Errorf("failed to unmarshal labels: %w", err)
		}
	} else {
		e.Record.Labels = []string{}
	}

	if t, err := time.Parse(time.RFC3339Nano, remoteAt); err == nil {
		e.RemoteUpdatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, syncedAt); err == nil {
		e.SyncedAt = t
	}
	return e, nil
}
