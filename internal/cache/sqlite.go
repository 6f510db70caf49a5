// Package cache provides a small SQLite-backed TTL cache for feed bytes, so
// repeated sessions do not refetch the error feeds from the remote store on
// every load.
package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Cache stores fetched feed content with an expiry.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Option configures the cache.
type Option func(*Cache)

// WithClock overrides the expiry clock (for tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Open opens (or creates) the cache database at dsn with the given TTL.
func Open(dsn string, ttl time.Duration, opts ...Option) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}

	c := &Cache{db: db, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS feed_cache (
	key        TEXT PRIMARY KEY,
	content    BLOB NOT NULL,
	fetched_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feed_cache_expires_at ON feed_cache(expires_at);
`

// Migrate creates the cache schema.
func (c *Cache) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "cache: migrate")
}

// Get returns cached content for key if present and unexpired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT content, expires_at FROM feed_cache WHERE key = ?`, key)

	var (
		content   []byte
		expiresAt time.Time
	)
	if err := row.Scan(&content, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, eris.Wrapf(err, "cache: get %s", key)
	}
	if c.now().After(expiresAt) {
		return nil, false, nil
	}
	return content, true, nil
}

// Set stores content for key, replacing any previous entry and resetting the
// expiry.
func (c *Cache) Set(ctx context.Context, key string, content []byte) error {
	now := c.now().UTC()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO feed_cache (key, content, fetched_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET content = excluded.content,
		   fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		key, content, now, now.Add(c.ttl),
	)
	return eris.Wrapf(err, "cache: set %s", key)
}

// Purge deletes expired entries and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM feed_cache WHERE expires_at < ?`, c.now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "cache: purge")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }
