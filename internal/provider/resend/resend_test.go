package resend

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/resend/resend-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shineum/contact-relay/internal/email"
	"github.com/shineum/contact-relay/internal/provider"
)

type mockEmails struct {
	err   error
	calls int
	last  *resend.SendEmailRequest
}

func (m *mockEmails) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	m.calls++
	m.last = params
	if m.err != nil {
		return nil, m.err
	}
	return &resend.SendEmailResponse{Id: "re_123"}, nil
}

var _ provider.Provider = (*Sender)(nil)

func TestSend(t *testing.T) {
	t.Parallel()

	mock := &mockEmails{}
	s := NewWithClient(mock, time.Second)

	res, err := s.Send(context.Background(), &email.Message{
		From:     "forms@example.com",
		To:       []string{"team@example.com"},
		ReplyTo:  []string{"ana@example.com"},
		Subject:  "Hello",
		HTMLBody: "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "re_123", res.MessageID)

	require.Equal(t, 1, mock.calls)
	assert.Equal(t, "forms@example.com", mock.last.From)
	assert.Equal(t, []string{"team@example.com"}, mock.last.To)
	assert.Equal(t, "ana@example.com", mock.last.ReplyTo)
	assert.Equal(t, "Hello", mock.last.Subject)
	assert.Equal(t, "<p>hi</p>", mock.last.Html)
}

func TestSend_Error(t *testing.T) {
	t.Parallel()

	mock := &mockEmails{err: errors.New("invalid api key")}
	s := NewWithClient(mock, time.Second)

	res, err := s.Send(context.Background(), &email.Message{To: []string{"team@example.com"}})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "invalid api key")
	assert.Equal(t, 1, mock.calls)
}

func TestName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "resend", New(Config{APIKey: "re_test"}).Name())
}
