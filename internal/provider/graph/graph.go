package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/shineum/contact-relay/internal/email"
	"github.com/shineum/contact-relay/internal/provider"
)

const (
	graphBaseURL   = "https://graph.microsoft.com/v1.0"
	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	graphScope     = "https://graph.microsoft.com/.default"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Config holds the configuration for creating a GraphProvider.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// GraphProvider sends emails as the message's From mailbox through the
// Microsoft Graph sendMail endpoint, authenticating with OAuth2 client
// credentials.
type GraphProvider struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a new GraphProvider with the given configuration.
func New(cfg Config) *GraphProvider {
	return newWithOverrides(cfg, graphBaseURL, fmt.Sprintf(tokenURLFormat, cfg.TenantID), nil)
}

// newWithOverrides creates a GraphProvider with custom URLs and base HTTP
// client, used for testing.
func newWithOverrides(cfg Config, baseURL, tokenURL string, base *http.Client) *GraphProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = provider.DefaultTimeout
	}
	if base == nil {
		base = &http.Client{Timeout: timeout}
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{graphScope},
	}

	// The token source caches and refreshes tokens; it is safe for concurrent use.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = timeout

	return &GraphProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		timeout:    timeout,
	}
}

// Send delivers a message via the Graph API in a single attempt.
// Graph acknowledges sendMail with 202 Accepted, which is reported as 200.
func (g *GraphProvider) Send(ctx context.Context, msg *email.Message) (*provider.Result, error) {
	ctx, cancel := provider.WithTimeout(ctx, g.timeout)
	defer cancel()

	bodyJSON, err := json.Marshal(buildSendMailRequest(msg))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.sendMailURL(msg.From), bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Graph API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		return &provider.Result{StatusCode: http.StatusOK}, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return &provider.Result{
		StatusCode: resp.StatusCode,
		Detail:     errorDetail(body),
	}, nil
}

// Name returns the provider name.
func (g *GraphProvider) Name() string {
	return "msgraph"
}

func (g *GraphProvider) sendMailURL(sender string) string {
	return g.baseURL + "/users/" + url.PathEscape(sender) + "/sendMail"
}

// errorDetail extracts the Graph error message, falling back to the raw body.
func errorDetail(body []byte) string {
	var graphErr graphErrorResponse
	if err := json.Unmarshal(body, &graphErr); err == nil && graphErr.Error.Message != "" {
		if graphErr.Error.Code != "" {
			return graphErr.Error.Code + ": " + graphErr.Error.Message
		}
		return graphErr.Error.Message
	}
	return strings.TrimSpace(string(body))
}
