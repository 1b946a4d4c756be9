package service

import (
	"context"
	"errors"
	"time"
)

// Email subjects for the two points where a code is issued.
const (
	SubjectRegister = "Verify Your Email - Learn & connect App"
	SubjectResend   = "New Verification Code - Learn & connect App"
)

// ErrMailNotConfigured is returned by gateways missing the settings they
// need to deliver. The orchestrator treats it like any other delivery failure.
var ErrMailNotConfigured = errors.New("mail transport not configured")

// VerificationEmail is one out-of-band delivery of a verification code.
type VerificationEmail struct {
	To        string
	FullName  string
	Subject   string
	Code      string
	ExpiresAt time.Time
}

// NotificationGateway delivers verification codes to users. Deliver blocks
// until the message is handed off or the attempt has failed; callers do not
// retry.
type NotificationGateway interface {
	Deliver(ctx context.Context, msg VerificationEmail) error
}
