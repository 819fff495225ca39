// Package settings is a small persistent key-value store backed by SQLite.
// It holds the navigator enabled flag and notifies watchers when values
// change, including changes written by another process.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// KeyEnabled is the navigator enabled flag
const KeyEnabled = "navigator.enabled"

// DefaultWatchInterval is the poll period used when Options leaves it zero
const DefaultWatchInterval = time.Second

// ErrNotFound is returned when a key has no value
var ErrNotFound = errors.New("setting not found")

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Options configures a Store
type Options struct {
	WatchInterval time.Duration // poll period for Watch
	Logger        *slog.Logger
}

// Store is a SQLite-backed key-value store
type Store struct {
	db     *sql.DB
	opts   Options
	log    *slog.Logger
	closed chan struct{}
	once   sync.Once
}

// DefaultPath returns the settings database location under the user config dir
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "resultnav", "settings.db"), nil
}

// Open opens or creates the database at path
func Open(path string, opts Options) (*Store, error) {
	if opts.WatchInterval <= 0 {
		opts.WatchInterval = DefaultWatchInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{
		db:     db,
		opts:   opts,
		log:    logger.With("component", "settings"),
		closed: make(chan struct{}),
	}, nil
}

// Close stops all watchers and closes the database
func (s *Store) Close() error {
	s.once.Do(func() { close(s.closed) })
	return s.db.Close()
}

// Get returns the value stored under key
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Clear removes every key
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("clearing settings: %w", err)
	}
	return nil
}

// All returns every stored key and value
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// GetBool parses the value under key as a boolean, returning def when the
// key is absent
func (s *Store) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s is not a boolean: %w", key, err)
	}
	return b, nil
}

// Enabled reads the navigator flag. Absent means enabled.
func (s *Store) Enabled(ctx context.Context) (bool, error) {
	return s.GetBool(ctx, KeyEnabled, true)
}

// Watch polls key and calls fn whenever its value or presence changes. The
// returned stop function does not wait for an in-flight fn to return.
func (s *Store) Watch(ctx context.Context, key string, fn func(value string, ok bool)) (func(), error) {
	last, err := s.Get(ctx, key)
	lastOK := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(s.opts.WatchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.closed:
				return
			case <-ticker.C:
			}

			v, err := s.Get(ctx, key)
			ok := err == nil
			if err != nil && !errors.Is(err, ErrNotFound) {
				if ctx.Err() == nil {
					s.log.Warn("polling setting failed", "key", key, "error", err)
				}
				continue
			}
			if ok == lastOK && v == last {
				continue
			}
			last, lastOK = v, ok
			fn(v, ok)
		}
	}()
	return cancel, nil
}

// WatchEnabled reports changes to the navigator flag
func (s *Store) WatchEnabled(ctx context.Context, fn func(enabled bool)) (func(), error) {
	return s.Watch(ctx, KeyEnabled, func(v string, ok bool) {
		enabled := true
		if ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				s.log.Warn("ignoring malformed enabled flag", "value", v)
				return
			}
			enabled = b
		}
		fn(enabled)
	})
}
