package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quotewire/internal/models"
)

// TelegramNotifier posts operator alerts to a Telegram chat via the bot API.
// Cycle summaries and quote broadcasts are intentionally not forwarded; only
// conditions needing operator action are.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *TelegramNotifier) SourceDisabled(source models.Source) {
	n.send(fmt.Sprintf("Source disabled after %d consecutive failures: %s (%s). Manual re-enable required.",
		source.ConsecutiveFailures, source.Name, source.Domain))
}

func (n *TelegramNotifier) ProviderDisabled(provider models.HistoricalProvider) {
	n.send(fmt.Sprintf("Historical provider disabled after %d consecutive failures: %s. Last error: %s",
		provider.ConsecutiveFailures, provider.Name, provider.LastError))
}

func (n *TelegramNotifier) CycleCompleted(models.CycleSummary) {}

func (n *TelegramNotifier) QuotesPublished([]models.Quote) {}

func (n *TelegramNotifier) send(text string) {
	if n.botToken == "" || n.chatID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("[notify] telegram request failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("[notify] telegram send failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[notify] telegram error: %s", resp.Status)
	}
}
