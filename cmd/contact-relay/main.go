// Package main is the entry point for the contact relay HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shineum/contact-relay/internal/config"
	"github.com/shineum/contact-relay/internal/provider"
	"github.com/shineum/contact-relay/internal/provider/graph"
	"github.com/shineum/contact-relay/internal/provider/resend"
	"github.com/shineum/contact-relay/internal/provider/ses"
	"github.com/shineum/contact-relay/internal/provider/stdout"
	"github.com/shineum/contact-relay/internal/server"
	"github.com/shineum/contact-relay/internal/submission"
	relaytls "github.com/shineum/contact-relay/internal/tls"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "contact-relay",
		Short:         "Forward contact-form submissions as email",
		Long:          `An HTTP service that validates contact-form submissions and forwards them to a fixed mailbox through an email provider.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to YAML configuration file (optional)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return root
}

func run(ctx context.Context, configPath string) error {
	// Load configuration
	cfg, err := loadConfig(configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return err
	}

	tlsConfig, err := relaytls.Load(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		slog.Error("failed to setup TLS", "error", err)
		return err
	}

	// Select email delivery provider
	prov, err := selectProvider(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up email provider", "error", err)
		return err
	}

	validator, err := submission.NewValidator()
	if err != nil {
		slog.Error("failed to build validator", "error", err)
		return err
	}

	handler := server.NewHandler(server.HandlerConfig{
		Validator: validator,
		Composer: submission.NewComposer(submission.ComposerConfig{
			From:          cfg.Mail.From,
			Destination:   cfg.Mail.Destination,
			SubjectPrefix: cfg.Mail.SubjectPrefix,
		}),
		Provider:    prov,
		MaxBodySize: cfg.HTTP.MaxBodySize,
	})

	srv := server.New(server.ServerConfig{
		ListenAddr:   cfg.HTTP.Listen,
		Handler:      handler,
		TLSConfig:    tlsConfig,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	})

	slog.Info("starting contact-relay",
		"version", version,
		"listen", cfg.HTTP.Listen,
		"provider", prov.Name(),
		"destination", cfg.Mail.Destination,
		"tls_enabled", cfg.TLSEnabled(),
	)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Start the server (blocks until context is cancelled)
	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		return err
	}

	slog.Info("contact-relay stopped")
	return nil
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// selectProvider chooses the email delivery backend based on configuration.
// An explicit PROVIDER takes precedence; otherwise the first configured
// backend wins in the order graph, resend, ses, falling back to stdout.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	name := cfg.Provider
	auto := name == ""
	if auto {
		switch {
		case cfg.GraphConfigured():
			name = "graph"
		case cfg.ResendConfigured():
			name = "resend"
		case cfg.SESConfigured():
			name = "ses"
		default:
			name = "stdout"
		}
	}

	timeout := cfg.Gateway.Timeout

	switch name {
	case "graph", "msgraph":
		if !cfg.GraphConfigured() {
			return nil, errors.New("graph provider selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID and GRAPH_CLIENT_SECRET are required")
		}
		slog.Info("using Microsoft Graph provider", "auto_detected", auto)
		return graph.New(graph.Config{
			TenantID:     cfg.Graph.TenantID,
			ClientID:     cfg.Graph.ClientID,
			ClientSecret: cfg.Graph.ClientSecret,
			Timeout:      timeout,
		}), nil

	case "resend":
		if !cfg.ResendConfigured() {
			return nil, errors.New("resend provider selected but RESEND_API_KEY is required")
		}
		slog.Info("using Resend provider", "auto_detected", auto)
		return resend.New(resend.Config{
			APIKey:  cfg.Resend.APIKey,
			Timeout: timeout,
		}), nil

	case "ses":
		if !cfg.SESConfigured() {
			return nil, errors.New("ses provider selected but SES_REGION is required")
		}
		slog.Info("using AWS SES provider", "region", cfg.SES.Region, "auto_detected", auto)
		p, err := ses.New(ctx, ses.Config{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
			Timeout:         timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create SES provider: %w", err)
		}
		return p, nil

	case "stdout":
		slog.Info("using stdout provider", "auto_detected", auto)
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
