// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/shineum/contact-relay/internal/email"
)

// DefaultTimeout bounds a single delivery attempt when none is configured.
const DefaultTimeout = 10 * time.Second

// Provider is the interface that email delivery backends must implement.
// Each provider makes exactly one delivery attempt per Send call.
type Provider interface {
	// Send delivers a message. A provider that answered with a failure
	// status reports it through Result; error is reserved for faults where
	// no usable answer was received (network, timeout, SDK errors).
	Send(ctx context.Context, msg *email.Message) (*Result, error)

	// Name returns the human-readable name of this provider.
	Name() string
}

// Result is the provider's answer to a delivery attempt.
type Result struct {
	// StatusCode is the HTTP-like status reported by the provider.
	StatusCode int
	// Detail is the provider's error description, if any.
	Detail string
	// MessageID is the provider-assigned id of an accepted message.
	MessageID string
}

// OK reports whether the provider accepted the message.
func (r *Result) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// WithTimeout applies d to ctx, falling back to DefaultTimeout when d is not positive.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
