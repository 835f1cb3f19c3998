package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Alert kinds emitted by the monitor.
const (
	KindLowRate  = "low_rate"
	KindHighRate = "high_rate"
	KindLeadOff  = "lead_off"
)

// Notification carries the context of one alert episode.
type Notification struct {
	ObservedAt    time.Time
	Kind          string
	BPM           int
	HasBPM        bool
	Threshold     int
	Channels      []string
	AdditionalMsg string
}

// Notifier delivers alert notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify posts the rendered message via the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Time("observed_at", note.ObservedAt).
		Str("kind", note.Kind).
		Str("channels", strings.Join(note.Channels, ",")).
		Msg("alert dispatched (telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[ECG Monitor Alert]\n")
	builder.WriteString(fmt.Sprintf("Time: %s UTC\n", note.ObservedAt.UTC().Format(time.RFC3339)))
	switch note.Kind {
	case KindLeadOff:
		builder.WriteString("Condition: electrode lead-off detected\n")
	case KindLowRate:
		builder.WriteString(fmt.Sprintf("Condition: heart rate low (threshold %d BPM)\n", note.Threshold))
	case KindHighRate:
		builder.WriteString(fmt.Sprintf("Condition: heart rate high (threshold %d BPM)\n", note.Threshold))
	default:
		builder.WriteString(fmt.Sprintf("Condition: %s\n", note.Kind))
	}
	if note.HasBPM {
		builder.WriteString(fmt.Sprintf("Heart rate: %d BPM\n", note.BPM))
	} else {
		builder.WriteString("Heart rate: unavailable\n")
	}
	if len(note.Channels) > 0 {
		builder.WriteString(fmt.Sprintf("Channels: %s\n", strings.Join(note.Channels, ",")))
	}
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
