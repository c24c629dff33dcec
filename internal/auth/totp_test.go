package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 6238 SHA1 test vectors, truncated to six digits.
func TestCodeMatchesRFC6238(t *testing.T) {
	cfg := DefaultTOTPConfig()
	secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ" // "12345678901234567890"

	tests := []struct {
		unix int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}

	for _, tt := range tests {
		code, err := cfg.Code(secret, time.Unix(tt.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, tt.code, code, "t=%d", tt.unix)
		assert.True(t, cfg.validate(tt.code, secret, time.Unix(tt.unix, 0)))
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	cfg := DefaultTOTPConfig()
	secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	now := time.Unix(59, 0)

	for _, code := range []string{"", "28708", "2870822", "abcdef", "287 082"} {
		assert.False(t, cfg.validate(code, secret, now), "code %q", code)
	}
	assert.False(t, cfg.validate("287082", "not base32!", now))
}

func TestZeroSkewAcceptsOnlyCurrentStep(t *testing.T) {
	cfg := DefaultTOTPConfig()
	cfg.Skew = 0
	secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	now := time.Unix(1234567890, 0)

	prev, err := cfg.Code(secret, now.Add(-30*time.Second))
	require.NoError(t, err)
	cur, err := cfg.Code(secret, now)
	require.NoError(t, err)

	assert.True(t, cfg.validate(cur, secret, now))
	assert.False(t, cfg.validate(prev, secret, now))
}
