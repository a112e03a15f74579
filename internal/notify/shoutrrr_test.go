package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhankavach/internal/config"
	"dhankavach/internal/domain/models"
	"dhankavach/pkg/logger"
)

func TestMessageIsBilingual(t *testing.T) {
	req := models.NewFamilyApprovalRequest("household-1", "tx-42", 10, []string{"connected_intelligence_match"})

	title, body := Message(req)
	assert.NotEmpty(t, title)
	assert.Contains(t, body, "tx-42")
	assert.Contains(t, body, "10/10")
	assert.Contains(t, body, "connected intelligence match")
	assert.Contains(t, body, req.ID)
	assert.Contains(t, body, "भुगतान")
}

func TestNewShoutrrrAlerterRejectsBadConfig(t *testing.T) {
	_, err := NewShoutrrrAlerter(config.NotifyConfig{}, logger.NewNop())
	require.ErrorIs(t, err, ErrNoURLs)

	_, err = NewShoutrrrAlerter(config.NotifyConfig{URLs: []string{"nosuchservice://token@host"}}, logger.NewNop())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "token@host")
}

func TestRedact(t *testing.T) {
	url := "telegram://secret-token@telegram?chats=@family"
	err := redact(errors.New("send to "+url+" failed"), []string{url})
	assert.Equal(t, "send to [redacted-url] failed", err.Error())

	orig := errors.New("plain")
	assert.Same(t, orig, redact(orig, []string{url}))
}

func TestNotifyDeliversToWebhook(t *testing.T) {
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	alerter, err := NewShoutrrrAlerter(config.NotifyConfig{
		URLs:    []string{"generic://" + host + "/hook?disabletls=yes"},
		Timeout: 2 * time.Second,
	}, logger.NewNop())
	require.NoError(t, err)

	req := models.NewFamilyApprovalRequest("household-1", "tx-42", 10, nil)
	require.NoError(t, alerter.Notify(context.Background(), req))

	select {
	case body := <-received:
		assert.Contains(t, body, req.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not called")
	}
}
