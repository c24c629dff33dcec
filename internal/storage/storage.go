package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xaenox/antispam-bot/internal/models"
)

var (
	// ErrNotFound is returned when an operator has no credential yet.
	ErrNotFound = errors.New("credential not found")

	// ErrSecretChanged is returned by MarkVerified when the stored secret no
	// longer matches the one the code was checked against.
	ErrSecretChanged = errors.New("credential secret changed")
)

// CredentialStore keeps one TOTP credential per operator.
type CredentialStore interface {
	Get(ctx context.Context, operatorID int64) (*models.Credential, error)

	// Put creates or replaces the operator's credential.
	Put(ctx context.Context, cred *models.Credential) error

	// MarkVerified flips the credential to verified, but only while its
	// secret still equals secret.
	MarkVerified(ctx context.Context, operatorID int64, secret string, at time.Time) error

	Close() error
}
