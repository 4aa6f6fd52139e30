package geckodriver

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaSQL string

// Entry is one installed driver binary.
type Entry struct {
	Name        string
	Version     string
	Platform    string
	Path        string
	InstalledAt time.Time
}

// Manifest records installed driver binaries in a SQLite database.
type Manifest struct {
	db *sql.DB
}

// OpenManifest opens (creating if needed) the manifest at dir/drivers.db.
func OpenManifest(dir string) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "drivers.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Manifest{db: db}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Lookup returns the entry for (name, version, platform). ok is false when
// nothing is recorded.
func (m *Manifest) Lookup(ctx context.Context, name, version, platform string) (Entry, bool, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT name, version, platform, path, installed_at FROM drivers
		 WHERE name = ? AND version = ? AND platform = ?`,
		name, version, platform)

	var (
		e  Entry
		ts int64
	)
	if err := row.Scan(&e.Name, &e.Version, &e.Platform, &e.Path, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("lookup %s %s: %w", name, version, err)
	}
	e.InstalledAt = time.Unix(ts, 0).UTC()
	return e, true, nil
}

// Record inserts or replaces e.
func (m *Manifest) Record(ctx context.Context, e Entry) error {
	if e.InstalledAt.IsZero() {
		e.InstalledAt = time.Now()
	}
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO drivers (name, version, platform, path, installed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name, version, platform) DO UPDATE SET
		   path = excluded.path,
		   installed_at = excluded.installed_at`,
		e.Name, e.Version, e.Platform, e.Path, e.InstalledAt.Unix())
	if err != nil {
		return fmt.Errorf("record %s %s: %w", e.Name, e.Version, err)
	}
	return nil
}

// List returns every entry, newest first.
func (m *Manifest) List(ctx context.Context) ([]Entry, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT name, version, platform, path, installed_at FROM drivers
		 ORDER BY installed_at DESC, version DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.Name, &e.Version, &e.Platform, &e.Path, &ts); err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		e.InstalledAt = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (m *Manifest) Close() error {
	return m.db.Close()
}
