// Package store persists scraped libraries in a small SQLite key-value
// table, two keys per username: the serialized game list and the cache
// timestamp. Entries are overwritten wholesale.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/halvdan/backshelf/internal/library"
)

var ErrNoCache = errors.New("no cached library")

type Store struct {
	db *sql.DB
}

// DefaultPath returns the cache database location, following the same
// per-platform layout as the config directory.
func DefaultPath() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "backshelf", "cache.db")
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "backshelf", "cache.db")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "backshelf", "cache.db")
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate cache db: %w", err)
		}
	}

	return nil
}

func gamesKey(username string) string {
	return "games_" + username
}

func cacheTimeKey(username string) string {
	return "cache_time_" + username
}

// SaveLibrary replaces the cached entry for username in one transaction.
func (s *Store) SaveLibrary(username string, entry library.CacheEntry) error {
	blob, err := json.Marshal(entry.Games)
	if err != nil {
		return fmt.Errorf("encode games: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const upsert = `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := tx.Exec(upsert, gamesKey(username), string(blob)); err != nil {
		return err
	}
	if _, err := tx.Exec(upsert, cacheTimeKey(username), strconv.FormatInt(entry.FetchedAt, 10)); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadLibrary reads the cached entry for username. A missing games key
// yields ErrNoCache; a missing or unparseable timestamp leaves FetchedAt
// zero rather than failing the read.
func (s *Store) LoadLibrary(username string) (library.CacheEntry, error) {
	var entry library.CacheEntry

	var blob string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, gamesKey(username)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return entry, ErrNoCache
	}
	if err != nil {
		return entry, err
	}

	if err := json.Unmarshal([]byte(blob), &entry.Games); err != nil {
		return entry, fmt.Errorf("decode games: %w", err)
	}

	var ts string
	err = s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, cacheTimeKey(username)).Scan(&ts)
	if err == nil {
		entry.FetchedAt, _ = strconv.ParseInt(ts, 10, 64)
	}

	return entry, nil
}

// Usernames lists the usernames that currently have a cached library.
func (s *Store) Usernames() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv WHERE key LIKE 'games_%' ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out = append(out, key[len("games_"):])
	}

	return out, rows.Err()
}
