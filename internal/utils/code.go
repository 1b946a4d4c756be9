package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	// VerificationCodeTTL is how long an issued verification code stays valid.
	VerificationCodeTTL = 10 * time.Minute
	verificationDigits  = 6
)

var codeSpace = big.NewInt(1_000_000) // 10^verificationDigits

// VerificationCode is a freshly issued one-time code and its expiry.
type VerificationCode struct {
	Code      string
	ExpiresAt time.Time
}

// NewVerificationCode returns a uniformly random 6-digit code expiring
// VerificationCodeTTL after now.
func NewVerificationCode(now time.Time) (VerificationCode, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return VerificationCode{}, fmt.Errorf("generate verification code: %w", err)
	}
	return VerificationCode{
		Code:      fmt.Sprintf("%0*d", verificationDigits, n.Int64()),
		ExpiresAt: now.Add(VerificationCodeTTL),
	}, nil
}
