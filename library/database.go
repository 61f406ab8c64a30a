package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// TokenKey is the well-known slot holding the session bearer token.
const TokenKey = "token"

// CredentialStore is a small persistent key/value store backed by SQLite.
// It holds the session token between runs.
type CredentialStore struct {
	db *sql.DB

	getStmt *sql.Stmt
	putStmt *sql.Stmt
	delStmt *sql.Stmt
}

// OpenCredentialStore opens (or creates) the SQLite database at dbPath,
// applies schema migrations, and prepares the kv statements.
func OpenCredentialStore(dbPath string) (*CredentialStore, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &CredentialStore{db: db}
	if err := store.prepareStatements(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// Close releases prepared statements and closes the DB.
func (s *CredentialStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.getStmt, s.putStmt, s.delStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS kv (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (s *CredentialStore) prepareStatements() error {
	var err error
	if s.getStmt, err = s.db.Prepare(`SELECT value FROM kv WHERE key=?`); err != nil {
		return err
	}
	if s.putStmt, err = s.db.Prepare(`INSERT INTO kv(key,value) VALUES(?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=CURRENT_TIMESTAMP`); err != nil {
		return err
	}
	if s.delStmt, err = s.db.Prepare(`DELETE FROM kv WHERE key=?`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// KV helpers
// ---------------------------------------------------------------------------

// Get returns the value under key; ok is false when the slot is empty.
func (s *CredentialStore) Get(key string) (value string, ok bool, err error) {
	err = s.getStmt.QueryRow(key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes value under key, replacing any previous value.
func (s *CredentialStore) Set(key, value string) error {
	_, err := s.putStmt.Exec(key, value)
	return err
}

// Delete empties the slot. Deleting an empty slot is not an error.
func (s *CredentialStore) Delete(key string) error {
	_, err := s.delStmt.Exec(key)
	return err
}

// LoadToken reads the persisted session token.
func (s *CredentialStore) LoadToken() (string, bool, error) { return s.Get(TokenKey) }

// SaveToken persists the session token.
func (s *CredentialStore) SaveToken(token string) error { return s.Set(TokenKey, token) }

// ClearToken removes the persisted session token.
func (s *CredentialStore) ClearToken() error { return s.Delete(TokenKey) }
