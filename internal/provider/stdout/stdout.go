// Package stdout implements a Provider that prints emails to standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/shineum/contact-relay/internal/email"
	"github.com/shineum/contact-relay/internal/provider"
)

// Provider prints email messages in a human-readable format instead of
// delivering them. Useful for local development.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints the message. A failed write is reported as a 500 result.
func (p *Provider) Send(_ context.Context, msg *email.Message) (*provider.Result, error) {
	var b strings.Builder

	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(msg.To, ", "))
	if len(msg.ReplyTo) > 0 {
		fmt.Fprintf(&b, "Reply-To: %s\n", strings.Join(msg.ReplyTo, ", "))
	}
	if msg.ReturnPath != "" {
		fmt.Fprintf(&b, "Return-Path: %s\n", msg.ReturnPath)
	}
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body:\n")
	b.WriteString(msg.HTMLBody)
	if !strings.HasSuffix(msg.HTMLBody, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("========================================\n")

	if _, err := io.WriteString(p.writer, b.String()); err != nil {
		return &provider.Result{StatusCode: http.StatusInternalServerError, Detail: err.Error()}, nil
	}

	return &provider.Result{StatusCode: http.StatusOK}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}
