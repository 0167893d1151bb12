package notify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

const defaultTimeout = 3 * time.Second

// WebhookNotifier posts JSON payloads to one URL per channel.
type WebhookNotifier struct {
	http    *resty.Client
	urls    map[string]string
	timeout time.Duration
}

var _ ports.Notifier = (*WebhookNotifier)(nil)

func NewWebhookNotifier(urls map[string]string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cleaned := make(map[string]string, len(urls))
	for channel, url := range urls {
		if url = strings.TrimSpace(url); url != "" {
			cleaned[channel] = url
		}
	}
	return &WebhookNotifier{
		http:    resty.New().SetHeader("Content-Type", "application/json"),
		urls:    cleaned,
		timeout: timeout,
	}
}

func (n *WebhookNotifier) Configured(channel string) bool {
	_, ok := n.urls[channel]
	return ok
}

func (n *WebhookNotifier) Notify(ctx context.Context, channel string, payload any) bool {
	url, ok := n.urls[channel]
	if !ok {
		return false
	}

	postCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	logCtx := logging.WithAttrs(
		logging.WithComponent(ctx, "infrastructure.notify"),
		slog.String("channel", channel),
	)

	resp, err := n.http.R().SetContext(postCtx).SetBody(payload).Post(url)
	if err != nil {
		logging.Warn(logCtx, "webhook post failed", slog.Any("err", errs.Loggable(err)))
		return false
	}
	if !resp.IsSuccess() {
		logging.Warn(logCtx, "webhook rejected", slog.Int("status_code", resp.StatusCode()))
		return false
	}
	return true
}
