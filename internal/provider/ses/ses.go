// Package ses implements a Provider that sends emails via AWS SES v2.
package ses

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/shineum/contact-relay/internal/email"
	"github.com/shineum/contact-relay/internal/provider"
)

const charset = "UTF-8"

// Config holds the configuration for creating a SESProvider.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Timeout         time.Duration
}

// SESProvider sends emails via the AWS SES v2 API.
type SESProvider struct {
	client  SendEmailAPI
	timeout time.Duration
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// New creates a new SESProvider with the given configuration.
// The SDK is limited to a single attempt per call.
func New(ctx context.Context, cfg Config) (*SESProvider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = provider.DefaultTimeout
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(1),
		awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(timeout)),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESProvider{
		client:  sesv2.NewFromConfig(awsCfg),
		timeout: timeout,
	}, nil
}

// NewWithClient creates a SESProvider with a custom client, used for testing.
func NewWithClient(client SendEmailAPI, timeout time.Duration) *SESProvider {
	return &SESProvider{
		client:  client,
		timeout: timeout,
	}
}

// Send delivers a message via AWS SES v2 in a single attempt.
// HTTP error responses from SES are reported through the Result.
func (s *SESProvider) Send(ctx context.Context, msg *email.Message) (*provider.Result, error) {
	ctx, cancel := provider.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.SendEmail(ctx, buildInput(msg))
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			return &provider.Result{
				StatusCode: respErr.HTTPStatusCode(),
				Detail:     errorDetail(err),
			}, nil
		}
		return nil, fmt.Errorf("SES API request failed: %w", err)
	}

	return &provider.Result{
		StatusCode: responseStatus(out.ResultMetadata),
		MessageID:  aws.ToString(out.MessageId),
	}, nil
}

// Name returns the provider name.
func (s *SESProvider) Name() string {
	return "ses"
}

// buildInput creates a SES SendEmailInput with an HTML body.
// The return path maps to the feedback forwarding address.
func buildInput(msg *email.Message) *sesv2.SendEmailInput {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		ReplyToAddresses: msg.ReplyTo,
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String(charset),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(msg.HTMLBody),
						Charset: aws.String(charset),
					},
				},
			},
		},
	}

	if msg.ReturnPath != "" {
		input.FeedbackForwardingEmailAddress = aws.String(msg.ReturnPath)
	}

	return input
}

// errorDetail prefers the SES error code and message over the full SDK error chain.
func errorDetail(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}

// responseStatus reads the HTTP status of a successful call. Outputs that
// carry no raw response (as from test clients) count as 200.
func responseStatus(md middleware.Metadata) int {
	raw, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response)
	if !ok || raw == nil || raw.Response == nil {
		return http.StatusOK
	}
	return raw.StatusCode
}
