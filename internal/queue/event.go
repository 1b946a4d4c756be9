// Package queue defines message payloads exchanged over the message broker
// and the consumer that drains them.
package queue

import "time"

// VerificationQueueName is the default durable queue carrying verification mail.
const VerificationQueueName = "mail.verification"

// VerificationEmailEvent asks the mailer to deliver a verification code.
// It carries everything needed to render the email so the mailer never
// touches the primary database.
type VerificationEmailEvent struct {
	To          string    `json:"to"`
	FullName    string    `json:"full_name"`
	Subject     string    `json:"subject"`
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expires_at"`
	RequestedAt time.Time `json:"requested_at"`
}
