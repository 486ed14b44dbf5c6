// Package journal persists one row per sweep run into a SQLite database, so
// a partially failed campaign can be inspected afterwards and individual
// runs re-launched by hand.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout keeps full nanosecond width so the stored strings sort
// lexicographically in chronological order (RFC3339Nano trims trailing
// zeros, which breaks that for sub-second neighbors).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    mode        TEXT NOT NULL,
    namespace   TEXT NOT NULL,
    status      TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL
);
`

// Entry is one recorded run.
type Entry struct {
	ID         uuid.UUID
	Name       string
	Mode       string
	Namespace  string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Journal records sweep runs in SQLite.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path and
// initializes its schema.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if _, err := db.Exec(runsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: init schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record persists a single run entry.
func (j *Journal) Record(e Entry) error {
	_, err := j.db.Exec(`
		INSERT INTO runs (id, name, mode, namespace, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(),
		e.Name,
		e.Mode,
		e.Namespace,
		e.Status,
		e.Error,
		e.StartedAt.UTC().Format(timeLayout),
		e.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("journal: record run %s: %w", e.Name, err)
	}
	return nil
}

// Runs returns every recorded entry, oldest first.
func (j *Journal) Runs() ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, name, mode, namespace, status, error, started_at, finished_at
		FROM runs ORDER BY started_at, name`)
	if err != nil {
		return nil, fmt.Errorf("journal: list runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var id, started, finished string
		if err := rows.Scan(&id, &e.Name, &e.Mode, &e.Namespace, &e.Status, &e.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("journal: scan run: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("journal: bad run id %q: %w", id, err)
		}
		if e.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("journal: bad started_at %q: %w", started, err)
		}
		if e.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("journal: bad finished_at %q: %w", finished, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
