package auth

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// secretSize is the secret length in bytes (160 bits).
const secretSize = 20

// TOTPConfig describes how operator codes are generated and checked.
type TOTPConfig struct {
	Issuer        string
	AccountPrefix string
	Period        uint
	Skew          uint
	Digits        otp.Digits
}

// DefaultTOTPConfig matches what authenticator apps assume when the
// provisioning URI leaves parameters out.
func DefaultTOTPConfig() TOTPConfig {
	return TOTPConfig{
		Issuer:        "AntiSpamBot",
		AccountPrefix: "Admin_",
		Period:        30,
		Skew:          1,
		Digits:        otp.DigitsSix,
	}
}

// Provisioning is what an operator needs to enrol an authenticator app.
type Provisioning struct {
	Secret string
	URI    string
}

func (c TOTPConfig) generate(operatorID int64, rand io.Reader) (*Provisioning, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      c.Issuer,
		AccountName: fmt.Sprintf("%s%d", c.AccountPrefix, operatorID),
		Period:      c.Period,
		SecretSize:  secretSize,
		Digits:      c.Digits,
		Algorithm:   otp.AlgorithmSHA1,
		Rand:        rand,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}

	return &Provisioning{Secret: key.Secret(), URI: key.URL()}, nil
}

// validate accepts the code for t and for Skew steps on either side.
// Malformed codes and secrets are just invalid.
func (c TOTPConfig) validate(code, secret string, t time.Time) bool {
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, t.UTC(), c.validateOpts())
	return err == nil && ok
}

// Code returns the code for secret at t. Used by tests and tooling.
func (c TOTPConfig) Code(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t.UTC(), c.validateOpts())
}

func (c TOTPConfig) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    c.Period,
		Skew:      c.Skew,
		Digits:    c.Digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}
