package email

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtrack/subtrack/internal/config"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
)

func TestDisabledClientRefusesToSend(t *testing.T) {
	cfg := &config.Configuration{Email: config.EmailConfig{Enabled: false}}
	client := NewEmailClient(cfg, logger.GetLogger())
	assert.False(t, client.IsEnabled())

	sender := NewSender(NewEmail(client, logger.GetLogger()))
	_, err := sender.Send(context.Background(), Message{To: "a@b.c", Subject: "s", HTML: "<p>x</p>"})
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestEnabledWithoutAPIKeyIsDisabled(t *testing.T) {
	cfg := &config.Configuration{Email: config.EmailConfig{Enabled: true, FromAddress: "x@y.z"}}
	client := NewEmailClient(cfg, logger.GetLogger())
	assert.False(t, client.IsEnabled())
	assert.Equal(t, "x@y.z", client.GetFromAddress())
}

// newTestClient returns an enabled client whose Resend API lives at srv
func newTestClient(t *testing.T, srv *httptest.Server) *EmailClient {
	t.Helper()
	cfg := &config.Configuration{Email: config.EmailConfig{
		Enabled:      true,
		ResendAPIKey: "re_test",
		FromAddress:  "Subtrack <reminders@subtrack.app>",
	}}
	client := NewEmailClient(cfg, logger.GetLogger())
	require.True(t, client.IsEnabled())

	baseURL, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.client.BaseURL = baseURL
	return client
}

func TestSendMakesOneAttemptOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewSender(NewEmail(newTestClient(t, srv), logger.GetLogger()))
	_, err := sender.Send(context.Background(), Message{To: "a@b.c", Subject: "s", HTML: "<p>x</p>"})

	require.Error(t, err)
	assert.True(t, ierr.IsHTTPClient(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestSendReturnsMessageID(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	sender := NewSender(NewEmail(newTestClient(t, srv), logger.GetLogger()))
	id, err := sender.Send(context.Background(), Message{To: "a@b.c", Subject: "s", HTML: "<p>x</p>"})

	require.NoError(t, err)
	assert.Equal(t, "msg_123", id)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDisabledClientMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	client.cfg.Enabled = false

	_, err := NewEmail(client, logger.GetLogger()).Send(context.Background(), Message{To: "a@b.c", Subject: "s"})
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
	assert.Equal(t, int32(0), hits.Load())
}
