package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shineum/contact-relay/internal/email"
	"github.com/shineum/contact-relay/internal/provider"
	"github.com/shineum/contact-relay/internal/submission"
)

// fakeProvider records every Send call and answers with a fixed result.
type fakeProvider struct {
	mu     sync.Mutex
	calls  []*email.Message
	result *provider.Result
	err    error
	panics bool
}

func (f *fakeProvider) Send(_ context.Context, msg *email.Message) (*provider.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	if f.panics {
		panic("provider exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &provider.Result{StatusCode: http.StatusOK, MessageID: "msg-1"}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestHandler(t *testing.T, p provider.Provider) *Handler {
	t.Helper()
	v, err := submission.NewValidator()
	require.NoError(t, err)

	return NewHandler(HandlerConfig{
		Validator: v,
		Composer: submission.NewComposer(submission.ComposerConfig{
			From:        "forms@example.com",
			Destination: "team@example.com",
		}),
		Provider:    p,
		MaxBodySize: 1024,
	})
}

type result struct {
	code int
	body response
	rec  *httptest.ResponseRecorder
}

func post(t *testing.T, h http.Handler, body string) result {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return result{code: rec.Code, body: resp, rec: rec}
}

const validBody = `{"name":"Ana","email":"ana@x.com","message":"Hi\nthere","phone":"123"}`

func TestSubmit_Sent(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{}
	got := post(t, NewRouter(newTestHandler(t, fp)), validBody)

	assert.Equal(t, http.StatusOK, got.code)
	assert.Equal(t, response{Status: "ok"}, got.body)
	assert.JSONEq(t, `{"status":"ok"}`, got.rec.Body.String())

	require.Equal(t, 1, fp.callCount())
	msg := fp.calls[0]
	assert.Equal(t, "forms@example.com", msg.From)
	assert.Equal(t, []string{"team@example.com"}, msg.To)
	assert.Equal(t, []string{"ana@x.com"}, msg.ReplyTo)
	assert.Equal(t, "forms@example.com", msg.ReturnPath)
	assert.Contains(t, msg.HTMLBody, "<strong>phone</strong>: 123<br>")
	assert.Contains(t, msg.HTMLBody, "Hi<br>there")
}

func TestSubmit_BotTrap(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{}
	got := post(t, NewRouter(newTestHandler(t, fp)),
		`{"name":"Ana","email":"ana@x.com","message":"Hi","_important":"gotcha"}`)

	assert.Equal(t, http.StatusOK, got.code)
	assert.JSONEq(t, `{"status":"ok"}`, got.rec.Body.String())
	assert.Equal(t, 0, fp.callCount())
}

func TestSubmit_EmptyBody(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{}
	router := NewRouter(newTestHandler(t, fp))

	for _, body := range []string{"", "null", "{}", "   "} {
		got := post(t, router, body)
		assert.Equal(t, http.StatusBadRequest, got.code, "body %q", body)
		assert.JSONEq(t, `{"status":"error","error":"Request body cannot be empty."}`, got.rec.Body.String())
	}
	assert.Equal(t, 0, fp.callCount())
}

func TestSubmit_MalformedBody(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{}
	router := NewRouter(newTestHandler(t, fp))

	for _, body := range []string{"not json", "[1]", `{"name":`} {
		got := post(t, router, body)
		assert.Equal(t, http.StatusBadRequest, got.code, "body %q", body)
		assert.Equal(t, "error", got.body.Status)
		assert.Equal(t, "Request body cannot be empty.", got.body.Error)
	}
	assert.Equal(t, 0, fp.callCount())
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{}
	body := `{"name":"Ana","email":"ana@x.com","message":"` + strings.Repeat("x", 2048) + `"}`
	got := post(t, NewRouter(newTestHandler(t, fp)), body)

	assert.Equal(t, http.StatusBadRequest, got.code)
	assert.Equal(t, MsgBodyTooLarge, got.body.Error)
	assert.Equal(t, 0, fp.callCount())
}

func TestSubmit_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"email":"ana@x.com","message":"Hi"}`, `Request body needs a "name" field.`},
		{"null email", `{"name":"Ana","email":null,"message":"Hi"}`, `Request body needs a "email" field.`},
		{"missing message", `{"name":"Ana","email":"ana@x.com"}`, `Request body needs a "message" field.`},
		{"blank name", `{"name":"   ","email":"ana@x.com","message":"Hi"}`, `The "name" field cannot be empty or spaces.`},
		{"blank message", `{"name":"Ana","email":"ana@x.com","message":" "}`, `The "message" field cannot be empty or spaces.`},
		{"bad email", `{"name":"Ana","email":"not-an-email","message":"Hi"}`, `The "email" field needs to be a valid email address.`},
		{"short email", `{"name":"Ana","email":"a@b","message":"Hi"}`, `The "email" field needs to be a valid email address.`},
	}

	fp := &fakeProvider{}
	router := NewRouter(newTestHandler(t, fp))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := post(t, router, tt.body)
			assert.Equal(t, http.StatusBadRequest, got.code)
			assert.Equal(t, response{Status: "error", Error: tt.want}, got.body)
		})
	}
	assert.Equal(t, 0, fp.callCount())
}

func TestSubmit_GatewayStatus(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{result: &provider.Result{StatusCode: http.StatusServiceUnavailable}}
	got := post(t, NewRouter(newTestHandler(t, fp)), validBody)

	assert.Equal(t, http.StatusInternalServerError, got.code)
	assert.Equal(t, "error", got.body.Status)
	assert.Equal(t, "Email provider fake responded with 503", got.body.Error)
	assert.Equal(t, 1, fp.callCount())
}

func TestSubmit_GatewayStatusWithDetail(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{result: &provider.Result{StatusCode: http.StatusBadRequest, Detail: "MessageRejected: Email address is not verified."}}
	got := post(t, NewRouter(newTestHandler(t, fp)), validBody)

	assert.Equal(t, http.StatusInternalServerError, got.code)
	assert.Equal(t, "Email provider fake responded with 400: MessageRejected: Email address is not verified.", got.body.Error)
}

func TestSubmit_GatewayFault(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{err: errors.New("dial tcp: connection refused")}
	got := post(t, NewRouter(newTestHandler(t, fp)), validBody)

	assert.Equal(t, http.StatusInternalServerError, got.code)
	assert.Equal(t, "dial tcp: connection refused", got.body.Error)
	assert.Equal(t, 1, fp.callCount())
}

func TestSubmit_ProviderPanic(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{panics: true}
	got := post(t, NewRouter(newTestHandler(t, fp)), validBody)

	assert.Equal(t, http.StatusInternalServerError, got.code)
	assert.Equal(t, response{Status: "error", Error: "Internal server error"}, got.body)
	assert.Equal(t, "*", got.rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProcess_Outcomes(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeProvider{})
	ctx := context.Background()

	assert.Equal(t, submission.Accepted, h.Process(ctx, []byte(validBody)).Kind)
	assert.Equal(t, submission.BotDetected, h.Process(ctx, []byte(`{"name":"A","email":"a@b.co","message":"m","_important":""}`)).Kind)
	assert.Equal(t, submission.ValidationError, h.Process(ctx, nil).Kind)
	assert.Equal(t, submission.MalformedRequest, h.Process(ctx, []byte("<html>")).Kind)
}

func TestGatewayMessage_NilResult(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Email provider ses returned no result", gatewayMessage("ses", nil))
}
