// Package clipcache provides an opt-in SQLite-backed cache mapping a
// clip's (path, modTime, size) to its previously computed BPM, peak
// count and duration, so re-running the driver against an unchanged
// file skips the windowed read-analyze pipeline entirely.
package clipcache

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS clip_analysis (
	path        TEXT PRIMARY KEY,
	mod_time    INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	bpm         REAL,
	peak_count  INTEGER NOT NULL,
	duration    REAL NOT NULL,
	analyzed_at TEXT NOT NULL
);
`

// Entry is a single cached analysis result.
type Entry struct {
	Path       string
	ModTime    int64
	Size       int64
	BPM        float64
	BPMValid   bool
	PeakCount  int
	Duration   float64
	AnalyzedAt time.Time
}

// Cache is a SQLite-backed analysis cache, opened against a single
// database file. The pure-Go driver (modernc.org/sqlite) matches the
// only SQL driver this module's ambient stack reaches for — no cgo.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the cache database at path and
// ensures its schema exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("clipcache: open %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			slog.Warn("clipcache: pragma failed", "pragma", pragma, "error", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("clipcache: ensure schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached entry for path, only if both modTime and size
// match the stored row exactly — either one changing is treated as a
// miss, since a file can be rewritten within the same mtime second but a
// different size, or truncated/extended without the clock ticking.
func (c *Cache) Get(path string, modTime, size int64) (Entry, bool) {
	var entry Entry
	var bpm sql.NullFloat64
	var analyzedAt string

	row := c.db.QueryRow(
		`SELECT path, mod_time, size, bpm, peak_count, duration, analyzed_at
		 FROM clip_analysis WHERE path = ? AND mod_time = ? AND size = ?`,
		path, modTime, size,
	)
	if err := row.Scan(&entry.Path, &entry.ModTime, &entry.Size, &bpm, &entry.PeakCount, &entry.Duration, &analyzedAt); err != nil {
		return Entry{}, false
	}

	entry.BPM = bpm.Float64
	entry.BPMValid = bpm.Valid
	entry.AnalyzedAt, _ = time.Parse(time.RFC3339, analyzedAt)

	return entry, true
}

// Put upserts entry, keyed by path.
func (c *Cache) Put(entry Entry) error {
	var bpm sql.NullFloat64
	if entry.BPMValid {
		bpm = sql.NullFloat64{Float64: entry.BPM, Valid: true}
	}

	analyzedAt := entry.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Unix(entry.ModTime, 0)
	}

	_, err := c.db.Exec(
		`INSERT INTO clip_analysis (path, mod_time, size, bpm, peak_count, duration, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			mod_time = excluded.mod_time,
			size = excluded.size,
			bpm = excluded.bpm,
			peak_count = excluded.peak_count,
			duration = excluded.duration,
			analyzed_at = excluded.analyzed_at`,
		entry.Path, entry.ModTime, entry.Size, bpm, entry.PeakCount, entry.Duration, analyzedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("clipcache: put %s: %w", entry.Path, err)
	}
	return nil
}

// Cleanup removes rows whose file no longer exists on disk, mirroring
// the orphan-sweeping pass of a path-keyed cache over stat'd files.
func (c *Cache) Cleanup() {
	rows, err := c.db.Query(`SELECT path FROM clip_analysis`)
	if err != nil {
		slog.Warn("clipcache: cleanup query failed", "error", err)
		return
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			stale = append(stale, path)
		}
	}
	if err := rows.Err(); err != nil {
		slog.Warn("clipcache: cleanup rows iteration error", "error", err)
	}

	for _, path := range stale {
		if _, err := c.db.Exec(`DELETE FROM clip_analysis WHERE path = ?`, path); err != nil {
			slog.Warn("clipcache: cleanup delete failed", "path", path, "error", err)
		}
	}
	if len(stale) > 0 {
		slog.Info("clipcache: cleanup removed stale entries", "removed", len(stale))
	}
}
