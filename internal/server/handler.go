package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/shineum/contact-relay/internal/provider"
	"github.com/shineum/contact-relay/internal/submission"
)

// MsgBodyTooLarge is reported when the request body exceeds the configured limit.
const MsgBodyTooLarge = "Request body is too large."

// HandlerConfig holds the collaborators of a Handler.
type HandlerConfig struct {
	Validator   *submission.Validator
	Composer    *submission.Composer
	Provider    provider.Provider
	MaxBodySize int64
}

// Handler turns contact-form submissions into forwarded emails.
// It holds no per-request state and is safe for concurrent use.
type Handler struct {
	validator   *submission.Validator
	composer    *submission.Composer
	provider    provider.Provider
	maxBodySize int64
}

// NewHandler creates a Handler from its collaborators.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		validator:   cfg.Validator,
		composer:    cfg.Composer,
		provider:    cfg.Provider,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Submit is the POST / endpoint.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := h.readBody(w, r)
	var outcome submission.Outcome
	if err != nil {
		outcome = readFailure(err)
	} else {
		outcome = h.Process(r.Context(), body)
	}

	log := logger(r.Context())
	switch {
	case outcome.Kind == submission.BotDetected:
		log.Info("bot trap triggered, submission dropped")
	case outcome.Kind == submission.GatewayError:
		log.Error("submission not delivered", "provider", h.provider.Name(), "error", outcome.Message)
	case !outcome.OK():
		log.Info("submission rejected", "kind", outcome.Kind.String(), "reason", outcome.Message)
	}

	writeOutcome(w, outcome)
}

// Process runs a raw body through parsing, validation, composition and a
// single delivery attempt.
func (h *Handler) Process(ctx context.Context, body []byte) submission.Outcome {
	rec, err := submission.ParseRecord(body)
	if errors.Is(err, submission.ErrMalformedBody) {
		logger(ctx).Debug("unparseable submission body", "error", err)
		return submission.Malformed(submission.MsgEmptyBody)
	}

	// An empty body leaves rec nil, which the validator rejects.
	outcome := h.validator.Validate(rec)
	if outcome.Kind != submission.Accepted {
		return outcome
	}

	msg := h.composer.Compose(rec)

	res, err := h.provider.Send(ctx, msg)
	if err != nil {
		return submission.Gateway(err.Error())
	}
	if !res.OK() {
		return submission.Gateway(gatewayMessage(h.provider.Name(), res))
	}

	logger(ctx).Info("submission forwarded",
		"provider", h.provider.Name(),
		"message_id", res.MessageID,
	)
	return outcome
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	reader := io.Reader(r.Body)
	if h.maxBodySize > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	return io.ReadAll(reader)
}

func readFailure(err error) submission.Outcome {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return submission.Malformed(MsgBodyTooLarge)
	}
	return submission.Malformed(submission.MsgEmptyBody)
}

func gatewayMessage(name string, res *provider.Result) string {
	if res == nil {
		return fmt.Sprintf("Email provider %s returned no result", name)
	}
	if res.Detail != "" {
		return fmt.Sprintf("Email provider %s responded with %d: %s", name, res.StatusCode, res.Detail)
	}
	return fmt.Sprintf("Email provider %s responded with %d", name, res.StatusCode)
}
