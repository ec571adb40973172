package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/algotrade/tradecal/internal/httputil"
	"github.com/rs/zerolog"
)

const (
	telegramAPI = "https://api.telegram.org"

	// telegramMaxMessage is the Bot API limit on message text
	telegramMaxMessage = 4096
)

// TelegramNotifier posts reports to a chat through the Bot API
type TelegramNotifier struct {
	baseURL   string
	token     string
	chatID    string
	signature string
	client    *http.Client
	retry     httputil.RetryConfig
	log       zerolog.Logger
}

// NewTelegramNotifier creates a Telegram notifier
func NewTelegramNotifier(token, chatID, signature string, log zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		baseURL:   telegramAPI,
		token:     token,
		chatID:    chatID,
		signature: signature,
		client:    &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
		log: log.With().Str("notifier", "telegram").Logger(),
	}
}

func (n *TelegramNotifier) Name() string { return "telegram" }

// Notify sends the report text, split into as many messages as the API limit requires
func (n *TelegramNotifier) Notify(ctx context.Context, r *Report) error {
	parts := splitMessage(FormatText(r, n.signature), telegramMaxMessage)
	for i, part := range parts {
		if err := n.send(ctx, part); err != nil {
			return fmt.Errorf("telegram message %d/%d: %w", i+1, len(parts), err)
		}
	}

	n.log.Info().Str("report_id", r.ID).Int("messages", len(parts)).Msg("Report sent")
	return nil
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	resp, err := httputil.Do(ctx, n.client, n.retry, n.log, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("HTTP %d: unreadable response", resp.StatusCode)
	}
	if !result.OK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, result.Description)
	}
	return nil
}

// splitMessage breaks text on line boundaries into chunks of at most limit bytes.
// A single line longer than limit is cut.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			parts = append(parts, line[:limit])
			line = line[limit:]
		}
		if current.Len()+len(line) > limit {
			parts = append(parts, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
