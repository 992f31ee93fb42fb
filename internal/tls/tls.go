// Package tls loads the optional certificate for the HTTPS listener.
package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
)

// ErrIncomplete is returned when only one of the certificate and key paths is set.
var ErrIncomplete = errors.New("both TLS certificate and key files are required")

// Load returns a tls.Config for the given certificate and key files, or nil
// when neither path is set and the listener should serve plain HTTP.
func Load(certFile, keyFile string) (*tls.Config, error) {
	if certFile == "" && keyFile == "" {
		return nil, nil
	}
	if certFile == "" || keyFile == "" {
		return nil, ErrIncomplete
	}

	// Validate that files exist before attempting to load
	if _, err := os.Stat(certFile); err != nil {
		return nil, fmt.Errorf("certificate file not found: %w", err)
	}
	if _, err := os.Stat(keyFile); err != nil {
		return nil, fmt.Errorf("key file not found: %w", err)
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
