package auth

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xaenox/antispam-bot/internal/storage"
)

const (
	operatorA int64 = 101
	operatorB int64 = 102
	stranger  int64 = 999
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestGate(t *testing.T, opts ...Option) (*Gate, *storage.MemoryStorage, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := storage.NewMemoryStorage()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	g, err := NewGate([]int64{operatorA, operatorB}, store, DefaultTOTPConfig(), zaptest.NewLogger(t), opts...)
	require.NoError(t, err)
	return g, store, clock
}

func wrongCode(right string) string {
	if right == "000000" {
		return "111111"
	}
	return "000000"
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}

func TestNewGateRequiresOperators(t *testing.T) {
	_, err := NewGate(nil, storage.NewMemoryStorage(), DefaultTOTPConfig(), zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestOperators(t *testing.T) {
	g, err := NewGate([]int64{3, 1, 3, 2}, storage.NewMemoryStorage(), DefaultTOTPConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 1, 2}, g.Operators())
	assert.True(t, g.IsOperator(2))
	assert.False(t, g.IsOperator(4))

	ids := g.Operators()
	ids[0] = 42
	assert.Equal(t, []int64{3, 1, 2}, g.Operators())
}

func TestSetupAndVerify(t *testing.T) {
	ctx := context.Background()
	g, _, clock := newTestGate(t)

	state, err := g.State(ctx, operatorA)
	require.NoError(t, err)
	assert.Equal(t, NoCredential, state)
	assert.ErrorIs(t, g.Verify(ctx, operatorA, "123456"), ErrNoCredential)

	prov, err := g.Setup(ctx, operatorA)
	require.NoError(t, err)
	assert.Len(t, prov.Secret, 32, "160-bit secret is 32 base32 characters")

	u, err := url.Parse(prov.URI)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	assert.Equal(t, "AntiSpamBot", u.Query().Get("issuer"))
	assert.Equal(t, prov.Secret, u.Query().Get("secret"))
	assert.Contains(t, u.Path, "Admin_101")

	state, err = g.State(ctx, operatorA)
	require.NoError(t, err)
	assert.Equal(t, PendingVerification, state)
	assert.ErrorIs(t, g.Authorize(ctx, operatorA), ErrAccessDenied)

	code, err := g.totp.Code(prov.Secret, clock.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, g.Verify(ctx, operatorA, wrongCode(code)), ErrInvalidCode)
	state, err = g.State(ctx, operatorA)
	require.NoError(t, err)
	assert.Equal(t, PendingVerification, state, "failed code keeps the operator pending")

	require.NoError(t, g.Verify(ctx, operatorA, code))
	state, err = g.State(ctx, operatorA)
	require.NoError(t, err)
	assert.Equal(t, Verified, state)
	assert.NoError(t, g.Authorize(ctx, operatorA))

	// Other operators are unaffected.
	assert.ErrorIs(t, g.Authorize(ctx, operatorB), ErrAccessDenied)
}

func TestVerifySkewWindow(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		offset time.Duration
		ok     bool
	}{
		{"current step", 0, true},
		{"previous step", -30 * time.Second, true},
		{"next step", 30 * time.Second, true},
		{"two steps back", -60 * time.Second, false},
		{"two steps ahead", 60 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, clock := newTestGate(t)
			prov, err := g.Setup(ctx, operatorA)
			require.NoError(t, err)

			code, err := g.totp.Code(prov.Secret, clock.Now().Add(tt.offset))
			require.NoError(t, err)

			err = g.Verify(ctx, operatorA, code)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCode)
			}
		})
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	ctx := context.Background()
	g, _, clock := newTestGate(t)

	provA, err := g.Setup(ctx, operatorA)
	require.NoError(t, err)
	provB, err := g.Setup(ctx, operatorB)
	require.NoError(t, err)
	require.NotEqual(t, provA.Secret, provB.Secret)

	codeA, err := g.totp.Code(provA.Secret, clock.Now())
	require.NoError(t, err)
	codeB, err := g.totp.Code(provB.Secret, clock.Now())
	require.NoError(t, err)
	if codeA == codeB {
		t.Skip("codes collided")
	}

	assert.ErrorIs(t, g.Verify(ctx, operatorB, codeA), ErrInvalidCode)
}

func TestVerifyIgnoresSurroundingWhitespace(t *testing.T) {
	ctx := context.Background()
	g, _, clock := newTestGate(t)

	prov, err := g.Setup(ctx, operatorA)
	require.NoError(t, err)
	code, err := g.totp.Code(prov.Secret, clock.Now())
	require.NoError(t, err)

	assert.NoError(t, g.Verify(ctx, operatorA, " "+code+"\n"))
}

func TestStrangerNeverGetsCredential(t *testing.T) {
	ctx := context.Background()
	g, store, clock := newTestGate(t)

	_, err := g.Setup(ctx, stranger)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Even a code that would be valid for some secret never helps.
	prov, err := g.Setup(ctx, operatorA)
	require.NoError(t, err)
	code, err := g.totp.Code(prov.Secret, clock.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, g.Verify(ctx, stranger, code), ErrAccessDenied)

	_, err = store.Get(ctx, stranger)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	state, err := g.State(ctx, stranger)
	require.NoError(t, err)
	assert.Equal(t, NoCredential, state)
}

func TestAuthorizeDenialIsUniform(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGate(t)
	_, err := g.Setup(ctx, operatorA)
	require.NoError(t, err)

	strangerErr := g.Authorize(ctx, stranger)
	pendingErr := g.Authorize(ctx, operatorA)
	missingErr := g.Authorize(ctx, operatorB)

	assert.Equal(t, strangerErr, pendingErr)
	assert.Equal(t, strangerErr, missingErr)
	assert.ErrorIs(t, strangerErr, ErrAccessDenied)
}

func TestResetupResetsVerification(t *testing.T) {
	ctx := context.Background()
	g, _, clock := newTestGate(t)

	prov, err := g.Setup(ctx, operatorA)
	require.NoError(t, err)
	code, err := g.totp.Code(prov.Secret, clock.Now())
	require.NoError(t, err)
	require.NoError(t, g.Verify(ctx, operatorA, code))

	fresh, err := g.Setup(ctx, operatorA)
	require.NoError(t, err)
	assert.NotEqual(t, prov.Secret, fresh.Secret)

	state, err := g.State(ctx, operatorA)
	require.NoError(t, err)
	assert.Equal(t, PendingVerification, state)
	assert.ErrorIs(t, g.Authorize(ctx, operatorA), ErrAccessDenied)
}

func TestSetupEntropyFailure(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGate(t, WithRand(failingReader{}))

	_, err := g.Setup(ctx, operatorA)
	require.Error(t, err)

	state, err := g.State(ctx, operatorA)
	require.NoError(t, err)
	assert.Equal(t, NoCredential, state)
}

func TestDeterministicSecret(t *testing.T) {
	ctx := context.Background()
	seed := bytes.Repeat([]byte{0x42}, secretSize)
	g, _, _ := newTestGate(t, WithRand(bytes.NewReader(seed)))

	prov, err := g.Setup(ctx, operatorA)
	require.NoError(t, err)
	assert.Equal(t, "IJBEEQSCIJBEEQSCIJBEEQSCIJBEEQSC", prov.Secret)
}

func TestVerificationTTL(t *testing.T) {
	ctx := context.Background()
	g, _, clock := newTestGate(t, WithVerificationTTL(time.Hour))

	prov, err := g.Setup(ctx, operatorA)
	require.NoError(t, err)
	code, err := g.totp.Code(prov.Secret, clock.Now())
	require.NoError(t, err)
	require.NoError(t, g.Verify(ctx, operatorA, code))
	require.NoError(t, g.Authorize(ctx, operatorA))

	clock.Advance(59 * time.Minute)
	assert.NoError(t, g.Authorize(ctx, operatorA))

	clock.Advance(time.Minute)
	assert.ErrorIs(t, g.Authorize(ctx, operatorA), ErrAccessDenied)
	state, err := g.State(ctx, operatorA)
	require.NoError(t, err)
	assert.Equal(t, PendingVerification, state)

	code, err = g.totp.Code(prov.Secret, clock.Now())
	require.NoError(t, err)
	require.NoError(t, g.Verify(ctx, operatorA, code))
	assert.NoError(t, g.Authorize(ctx, operatorA))
}

func TestConcurrentVerify(t *testing.T) {
	ctx := context.Background()
	g, _, clock := newTestGate(t)

	prov, err := g.Setup(ctx, operatorA)
	require.NoError(t, err)
	code, err := g.totp.Code(prov.Secret, clock.Now())
	require.NoError(t, err)
	wrong := wrongCode(code)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			// Once verified, further submissions are no-ops.
			if err := g.Verify(ctx, operatorA, wrong); err != nil {
				assert.ErrorIs(t, err, ErrInvalidCode)
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, g.Verify(ctx, operatorA, code))
		}()
	}
	wg.Wait()

	state, err := g.State(ctx, operatorA)
	require.NoError(t, err)
	assert.Equal(t, Verified, state)
}
