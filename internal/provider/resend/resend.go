// Package resend implements a Provider that sends emails via the Resend API.
package resend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/resend/resend-go/v3"

	"github.com/shineum/contact-relay/internal/email"
	"github.com/shineum/contact-relay/internal/provider"
)

// Config holds Resend provider configuration.
type Config struct {
	APIKey  string
	Timeout time.Duration
}

// EmailsAPI is the subset of the Resend emails service used by the provider.
type EmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Sender delivers messages through Resend.
type Sender struct {
	emails  EmailsAPI
	timeout time.Duration
}

// New creates a Resend sender whose HTTP client is bounded by cfg.Timeout.
func New(cfg Config) *Sender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = provider.DefaultTimeout
	}

	client := resend.NewCustomClient(&http.Client{Timeout: timeout}, cfg.APIKey)

	return &Sender{
		emails:  client.Emails,
		timeout: timeout,
	}
}

// NewWithClient creates a Sender around a custom emails service, used for testing.
func NewWithClient(emails EmailsAPI, timeout time.Duration) *Sender {
	return &Sender{emails: emails, timeout: timeout}
}

// Send implements provider.Provider.
func (s *Sender) Send(ctx context.Context, msg *email.Message) (*provider.Result, error) {
	ctx, cancel := provider.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		ReplyTo: strings.Join(msg.ReplyTo, ","),
	}

	resp, err := s.emails.SendWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resend: failed to send email: %w", err)
	}

	return &provider.Result{
		StatusCode: http.StatusOK,
		MessageID:  resp.Id,
	}, nil
}

// Name returns the provider name.
func (s *Sender) Name() string {
	return "resend"
}
