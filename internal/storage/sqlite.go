package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteContext is a Context backed by a single-table SQLite database.
type SQLiteContext struct {
	db *sql.DB
}

// OpenSQLite creates or opens the SQLite database at the given path and runs
// schema initialization. WAL with synchronous=FULL keeps every Set durable
// before it returns.
func OpenSQLite(path string) (*SQLiteContext, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	schema := `CREATE TABLE IF NOT EXISTS kv (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteContext{db: db}, nil
}

// Get returns the value stored under key, or (nil, nil) when absent.
func (c *SQLiteContext) Get(key string) ([]byte, error) {
	var value []byte
	err := c.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (c *SQLiteContext) Set(key string, value []byte) error {
	_, err := c.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (c *SQLiteContext) Close() error {
	return c.db.Close()
}
