package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/event-scout/internal/storage"
)

const (
	telegramAPIBaseURL = "https://api.telegram.org/bot"
	telegramTimeout    = 10 * time.Second
	// telegramLimit is the Bot API's message length in characters.
	telegramLimit = 4096
)

// TelegramNotifier sends notifications to a Telegram chat through the Bot API
type TelegramNotifier struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
}

// NewTelegramNotifier creates a Telegram notifier
func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPIBaseURL,
		httpClient: &http.Client{
			Timeout: telegramTimeout,
		},
	}, nil
}

// Notify sends one message for the notification
func (t *TelegramNotifier) Notify(ctx context.Context, n *storage.Notification) error {
	if err := t.sendMessage(ctx, formatHTML(n)); err != nil {
		return fmt.Errorf("failed to send Telegram message for notification %s: %w", n.ID, err)
	}
	return nil
}

func (t *TelegramNotifier) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s%s/sendMessage", t.baseURL, t.botToken)

	payload := map[string]interface{}{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}
	return nil
}

// formatHTML renders a notification in Telegram's HTML subset. Every event
// is listed until the message would exceed the length limit.
func formatHTML(n *storage.Notification) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "📅 <b>%s</b>\n%s\n", html.EscapeString(n.Title), html.EscapeString(n.Message))

	footer := ""
	if n.URL != "" {
		footer = fmt.Sprintf("\n\n🔗 <a href=\"%s\">%s</a>", html.EscapeString(n.URL), html.EscapeString(n.Name))
	}

	for i, evt := range n.Events {
		var line strings.Builder
		fmt.Fprintf(&line, "\n• <b>%s</b>", html.EscapeString(evt.Name))
		if evt.HasDate() {
			line.WriteString(" " + html.EscapeString(evt.Date))
			if evt.Time != "" {
				line.WriteString(" " + html.EscapeString(evt.Time))
			}
		}
		if evt.HasLocation() {
			line.WriteString("\n  📍 " + html.EscapeString(evt.Location))
		}

		more := fmt.Sprintf("\n…and %d more", len(n.Events)-i)
		if utf8.RuneCountInString(msg.String()+line.String()+more+footer) > telegramLimit {
			msg.WriteString(more)
			break
		}
		msg.WriteString(line.String())
	}

	msg.WriteString(footer)
	return msg.String()
}
