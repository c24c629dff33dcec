package storage

import (
	"context"
	"sync"
	"time"

	"github.com/xaenox/antispam-bot/internal/models"
)

type MemoryStorage struct {
	mu          sync.RWMutex
	credentials map[int64]models.Credential
}

var _ CredentialStore = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		credentials: make(map[int64]models.Credential),
	}
}

func (s *MemoryStorage) Get(ctx context.Context, operatorID int64) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, exists := s.credentials[operatorID]
	if !exists {
		return nil, ErrNotFound
	}
	return &cred, nil
}

func (s *MemoryStorage) Put(ctx context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials[cred.OperatorID] = *cred
	return nil
}

func (s *MemoryStorage) MarkVerified(ctx context.Context, operatorID int64, secret string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, exists := s.credentials[operatorID]
	if !exists {
		return ErrNotFound
	}
	if cred.Secret != secret {
		return ErrSecretChanged
	}

	cred.Verified = true
	cred.VerifiedAt = at
	s.credentials[operatorID] = cred
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
