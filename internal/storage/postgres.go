package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/antispam-bot/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) connString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ CredentialStore = (*PostgresStorage)(nil)

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.connString())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(config); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

// initializeSchema runs the embedded migrations on a dedicated connection,
// since closing the migrator closes the database handle it was given.
func (s *PostgresStorage) initializeSchema(config DatabaseConfig) error {
	mdb, err := sql.Open("postgres", config.connString())
	if err != nil {
		return err
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		mdb.Close()
		return fmt.Errorf("error reading migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(mdb, &migratepg.Config{})
	if err != nil {
		mdb.Close()
		return fmt.Errorf("error creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		mdb.Close()
		return fmt.Errorf("error creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	version, _, _ := m.Version()
	s.logger.Info("Database schema is up to date", zap.Uint("version", version))
	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, operatorID int64) (*models.Credential, error) {
	query := `
		SELECT operator_id, secret, verified, created_at, verified_at
		FROM operator_credentials
		WHERE operator_id = $1`

	var (
		cred       models.Credential
		verifiedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, operatorID).Scan(
		&cred.OperatorID,
		&cred.Secret,
		&cred.Verified,
		&cred.CreatedAt,
		&verifiedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying credential: %w", err)
	}
	if verifiedAt.Valid {
		cred.VerifiedAt = verifiedAt.Time
	}

	return &cred, nil
}

func (s *PostgresStorage) Put(ctx context.Context, cred *models.Credential) error {
	query := `
		INSERT INTO operator_credentials (operator_id, secret, verified, created_at, verified_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (operator_id) DO UPDATE
		SET secret = EXCLUDED.secret,
		    verified = EXCLUDED.verified,
		    created_at = EXCLUDED.created_at,
		    verified_at = EXCLUDED.verified_at`

	_, err := s.db.ExecContext(ctx, query,
		cred.OperatorID,
		cred.Secret,
		cred.Verified,
		cred.CreatedAt,
		nullTime(cred.VerifiedAt),
	)
	if err != nil {
		return fmt.Errorf("error saving credential: %w", err)
	}

	return nil
}

func (s *PostgresStorage) MarkVerified(ctx context.Context, operatorID int64, secret string, at time.Time) error {
	query := `
		UPDATE operator_credentials
		SET verified = TRUE, verified_at = $3
		WHERE operator_id = $1 AND secret = $2`

	result, err := s.db.ExecContext(ctx, query, operatorID, secret, at)
	if err != nil {
		return fmt.Errorf("error verifying credential: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSecretChanged
	}

	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
