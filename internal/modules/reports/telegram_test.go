package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/algotrade/tradecal/internal/httputil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTelegramServer(t *testing.T, ok bool) (*httptest.Server, *[]map[string]string) {
	t.Helper()
	var (
		mu       sync.Mutex
		messages []map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		messages = append(messages, body)
		mu.Unlock()

		if ok {
			_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &messages
}

func newTestTelegram(baseURL string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "-1001", "", zerolog.Nop())
	n.baseURL = baseURL
	n.retry = httputil.RetryConfig{MaxAttempts: 1}
	return n
}

func TestTelegramNotifier(t *testing.T) {
	srv, messages := newTelegramServer(t, true)
	n := newTestTelegram(srv.URL)

	require.NoError(t, n.Notify(context.Background(), sampleReport()))
	require.Len(t, *messages, 1)
	assert.Equal(t, "-1001", (*messages)[0]["chat_id"])
	assert.Contains(t, (*messages)[0]["text"], "Generated on 29-Apr-2024 16:10")
	assert.Equal(t, "telegram", n.Name())
}

func TestTelegramNotifier_APIError(t *testing.T) {
	srv, _ := newTelegramServer(t, false)
	n := newTestTelegram(srv.URL)

	err := n.Notify(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("aaaa\nbbbb\ncccc\n", 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc\n"}, parts)

	long := strings.Repeat("x", 25)
	parts = splitMessage("hi\n"+long, 10)
	assert.Equal(t, []string{"hi\n", "xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, parts)

	for _, p := range splitMessage(strings.Repeat("line of text\n", 1000), telegramMaxMessage) {
		assert.LessOrEqual(t, len(p), telegramMaxMessage)
	}
}
