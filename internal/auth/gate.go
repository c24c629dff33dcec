// Package auth gates administrative actions behind a TOTP second factor.
//
// Every trusted operator moves through NoCredential, PendingVerification
// and Verified. Only identities from the static operator set ever get a
// credential, and only a correct code for the operator's current secret
// moves it to Verified.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/xaenox/antispam-bot/internal/metrics"
	"github.com/xaenox/antispam-bot/internal/models"
	"github.com/xaenox/antispam-bot/internal/storage"
)

var (
	// ErrAccessDenied is returned for untrusted identities and for operators
	// that are not verified. Callers must not tell the two apart for anyone
	// but the operator themselves.
	ErrAccessDenied = errors.New("access denied")

	ErrInvalidCode  = errors.New("invalid verification code")
	ErrNoCredential = errors.New("two-factor authentication is not set up")
)

type State int

const (
	NoCredential State = iota
	PendingVerification
	Verified
)

func (s State) String() string {
	switch s {
	case PendingVerification:
		return "pending_verification"
	case Verified:
		return "verified"
	default:
		return "no_credential"
	}
}

type Gate struct {
	operators map[int64]struct{}
	ids       []int64
	store     storage.CredentialStore
	totp      TOTPConfig
	ttl       time.Duration
	now       func() time.Time
	rand      io.Reader
	locks     *xsync.Map[int64, *sync.Mutex]
	logger    *zap.Logger
}

type Option func(*Gate)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithRand replaces the entropy source used for new secrets.
func WithRand(r io.Reader) Option {
	return func(g *Gate) { g.rand = r }
}

// WithVerificationTTL makes verification expire after ttl; the operator then
// has to submit a fresh code for the same secret. Zero keeps it forever.
func WithVerificationTTL(ttl time.Duration) Option {
	return func(g *Gate) { g.ttl = ttl }
}

func NewGate(operatorIDs []int64, store storage.CredentialStore, cfg TOTPConfig, logger *zap.Logger, opts ...Option) (*Gate, error) {
	if len(operatorIDs) == 0 {
		return nil, errors.New("at least one operator is required")
	}

	g := &Gate{
		operators: make(map[int64]struct{}, len(operatorIDs)),
		store:     store,
		totp:      cfg,
		now:       time.Now,
		rand:      rand.Reader,
		locks:     xsync.NewMap[int64, *sync.Mutex](),
		logger:    logger,
	}
	for _, id := range operatorIDs {
		if _, dup := g.operators[id]; dup {
			continue
		}
		g.operators[id] = struct{}{}
		g.ids = append(g.ids, id)
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *Gate) IsOperator(id int64) bool {
	_, ok := g.operators[id]
	return ok
}

// Operators returns the trusted operator set in configuration order.
func (g *Gate) Operators() []int64 {
	return slices.Clone(g.ids)
}

// State reports where id is in the 2FA flow. Untrusted identities are
// always NoCredential and never touch the store.
func (g *Gate) State(ctx context.Context, id int64) (State, error) {
	if !g.IsOperator(id) {
		return NoCredential, nil
	}

	cred, err := g.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return NoCredential, nil
	}
	if err != nil {
		return NoCredential, fmt.Errorf("load credential: %w", err)
	}

	return g.stateOf(cred), nil
}

func (g *Gate) stateOf(cred *models.Credential) State {
	if !cred.Verified {
		return PendingVerification
	}
	if g.ttl > 0 && g.now().Sub(cred.VerifiedAt) >= g.ttl {
		return PendingVerification
	}
	return Verified
}

// Setup generates a fresh secret for the operator, replacing any previous
// credential and resetting verification.
func (g *Gate) Setup(ctx context.Context, id int64) (*Provisioning, error) {
	if !g.IsOperator(id) {
		metrics.AuthAttempts.WithLabelValues("setup", "denied").Inc()
		return nil, ErrAccessDenied
	}

	mu := g.lock(id)
	mu.Lock()
	defer mu.Unlock()

	prov, err := g.totp.generate(id, g.rand)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("setup", "error").Inc()
		return nil, err
	}

	cred := &models.Credential{
		OperatorID: id,
		Secret:     prov.Secret,
		CreatedAt:  g.now(),
	}
	if err := g.store.Put(ctx, cred); err != nil {
		metrics.AuthAttempts.WithLabelValues("setup", "error").Inc()
		return nil, fmt.Errorf("store credential: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("setup", "ok").Inc()
	g.logger.Info("Operator credential created", zap.Int64("operator_id", id))
	return prov, nil
}

// Verify checks code against the operator's current secret and, on success,
// marks the operator verified. The check and the transition run under the
// operator's lock, so a rejected code cannot interleave with a valid one.
func (g *Gate) Verify(ctx context.Context, id int64, code string) error {
	if !g.IsOperator(id) {
		metrics.AuthAttempts.WithLabelValues("verify", "denied").Inc()
		return ErrAccessDenied
	}

	mu := g.lock(id)
	mu.Lock()
	defer mu.Unlock()

	cred, err := g.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		metrics.AuthAttempts.WithLabelValues("verify", "no_credential").Inc()
		return ErrNoCredential
	}
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("verify", "error").Inc()
		return fmt.Errorf("load credential: %w", err)
	}

	if g.stateOf(cred) == Verified {
		return nil
	}

	now := g.now()
	if !g.totp.validate(code, cred.Secret, now) {
		metrics.AuthAttempts.WithLabelValues("verify", "invalid").Inc()
		g.logger.Warn("Invalid verification code", zap.Int64("operator_id", id))
		return ErrInvalidCode
	}

	err = g.store.MarkVerified(ctx, id, cred.Secret, now)
	if errors.Is(err, storage.ErrSecretChanged) || errors.Is(err, storage.ErrNotFound) {
		// Another process replaced the secret after we read it.
		metrics.AuthAttempts.WithLabelValues("verify", "invalid").Inc()
		return ErrInvalidCode
	}
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("verify", "error").Inc()
		return fmt.Errorf("mark verified: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("verify", "ok").Inc()
	g.logger.Info("Operator verified", zap.Int64("operator_id", id))
	return nil
}

// Authorize returns nil only for verified operators. Every other case,
// including storage failures, is ErrAccessDenied.
func (g *Gate) Authorize(ctx context.Context, id int64) error {
	if !g.IsOperator(id) {
		metrics.AuthAttempts.WithLabelValues("authorize", "denied").Inc()
		return ErrAccessDenied
	}

	state, err := g.State(ctx, id)
	if err != nil {
		g.logger.Error("Failed to load operator state",
			zap.Error(err),
			zap.Int64("operator_id", id))
		metrics.AuthAttempts.WithLabelValues("authorize", "error").Inc()
		return ErrAccessDenied
	}
	if state != Verified {
		metrics.AuthAttempts.WithLabelValues("authorize", "denied").Inc()
		return ErrAccessDenied
	}

	metrics.AuthAttempts.WithLabelValues("authorize", "ok").Inc()
	return nil
}

func (g *Gate) lock(id int64) *sync.Mutex {
	mu, _ := g.locks.LoadOrCompute(id, func() (*sync.Mutex, bool) {
		return &sync.Mutex{}, false
	})
	return mu
}
