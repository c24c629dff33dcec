package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xaenox/antispam-bot/internal/models"
)

// SQLiteStorage persists credentials in a local SQLite file
type SQLiteStorage struct {
	db *sql.DB
}

var _ CredentialStore = (*SQLiteStorage)(nil)

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer keeps SQLite away from "database is locked".
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS operator_credentials (
			operator_id INTEGER PRIMARY KEY,
			secret TEXT NOT NULL,
			verified INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			verified_at INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Get(ctx context.Context, operatorID int64) (*models.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT operator_id, secret, verified, created_at, verified_at
		FROM operator_credentials
		WHERE operator_id = ?
	`, operatorID)

	var (
		cred                  models.Credential
		createdAt, verifiedAt int64
	)
	err := row.Scan(&cred.OperatorID, &cred.Secret, &cred.Verified, &createdAt, &verifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	cred.CreatedAt = time.Unix(createdAt, 0)
	if verifiedAt != 0 {
		cred.VerifiedAt = time.Unix(verifiedAt, 0)
	}

	return &cred, nil
}

func (s *SQLiteStorage) Put(ctx context.Context, cred *models.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO operator_credentials (operator_id, secret, verified, created_at, verified_at)
		VALUES (?, ?, ?, ?, ?)
	`, cred.OperatorID, cred.Secret, cred.Verified, cred.CreatedAt.Unix(), unixOrZero(cred.VerifiedAt))
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) MarkVerified(ctx context.Context, operatorID int64, secret string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE operator_credentials
		SET verified = 1, verified_at = ?
		WHERE operator_id = ? AND secret = ?
	`, at.Unix(), operatorID, secret)
	if err != nil {
		return fmt.Errorf("failed to verify credential: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrSecretChanged
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
