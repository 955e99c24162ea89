package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCache is a persistent cache backend backed by a local sqlite
// file. It survives process restarts; capacity is bounded only by the
// underlying medium and TTL-driven turnover.
type SQLiteCache struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_expires_at ON cache(expires_at);
`

// NewSQLiteCache opens (or creates) the cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if path == "" {
		path = "aigate-cache.db"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open sqlite %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: connect sqlite %q: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init sqlite schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Get retrieves a value. The expiry check happens in the query;
// a read that lands on an expired row deletes it before reporting
// a miss, so no entry is ever returned past its deadline.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool) {
	now := time.Now().Unix()

	var value []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT value FROM cache WHERE key = ? AND expires_at > ?", key, now,
	).Scan(&value)
	if err == sql.ErrNoRows {
		// Purge the expired row, if that is why we missed.
		_, _ = c.db.ExecContext(ctx,
			"DELETE FROM cache WHERE key = ? AND expires_at <= ?", key, now)
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	return value, true
}

// Set stores a value with the given TTL. TTL<=0 means don't cache.
func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	expiresAt := time.Now().Add(ttl).Unix()
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, value, expires_at) VALUES (?, ?, ?)",
		key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("cache: sqlite set: %w", err)
	}
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("cache: sqlite delete: %w", err)
	}
	return nil
}

// Purge removes all expired rows. Optional housekeeping; the cache is
// correct without it because reads never return expired entries.
func (c *SQLiteCache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM cache WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cache: sqlite purge: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

var _ Cache = (*SQLiteCache)(nil)
