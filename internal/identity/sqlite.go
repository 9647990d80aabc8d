package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteDirectory resolves accounts from the shared SQLite database the auth
// service writes to.
type SQLiteDirectory struct {
	db *sql.DB
}

// NewSQLite opens the accounts database.
func NewSQLite(dbPath string) (*SQLiteDirectory, error) {
	dsn := dbPath + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open accounts database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping accounts database: %w", err)
	}

	dir := &SQLiteDirectory{db: db}
	if err := dir.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize accounts schema: %w", err)
	}
	return dir, nil
}

func (d *SQLiteDirectory) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Resolve looks up one account by id.
func (d *SQLiteDirectory) Resolve(ctx context.Context, userID string) (Account, error) {
	var acct Account
	err := d.db.QueryRowContext(ctx,
		`SELECT id, email FROM accounts WHERE id = ?`, userID,
	).Scan(&acct.ID, &acct.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrUserNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("resolving account: %w", err)
	}
	return acct, nil
}

// Close releases the database handle.
func (d *SQLiteDirectory) Close() error {
	return d.db.Close()
}
