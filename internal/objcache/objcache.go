// Package objcache memoizes abbreviated object id lookups in a small SQLite
// database so repeated CLI invocations against the same repository don't
// re-scan the loose object store's fanout directories for every resolved
// prefix. It is strictly a cache: the loose-object store on disk remains the
// only source of truth, and a cache miss (or a missing/corrupt database)
// simply falls back to the normal scan.
package objcache

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Cache wraps a SQLite-backed oid_cache table mapping a lowercase hex
// prefix to the full object id it was last found to uniquely resolve to.
type Cache struct {
	db *sql.DB
}

// Open creates or migrates the cache database at path and returns a ready
// Cache. The schema is a single table, driven by goose migrations rather
// than ad hoc DDL, so future cache columns can be added the same way the
// rest of the schema would evolve in a real deployment.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("objcache: open %s: %w", path, err)
	}

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("objcache: set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("objcache: migrate: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get returns the full object id previously recorded for prefix, if any.
func (c *Cache) Get(prefix string) (string, bool) {
	if c == nil {
		return "", false
	}
	var full string
	err := c.db.QueryRow("SELECT full_hash FROM oid_cache WHERE prefix = ?", prefix).Scan(&full)
	if err != nil {
		return "", false
	}
	return full, true
}

// Put records that prefix uniquely resolves to full. Failures are silent:
// the cache is an optimization, never a correctness requirement.
func (c *Cache) Put(prefix, full string) {
	if c == nil {
		return
	}
	_, _ = c.db.Exec("INSERT OR REPLACE INTO oid_cache (prefix, full_hash) VALUES (?, ?)", prefix, full)
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
