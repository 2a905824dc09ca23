// Package notify delivers operator-facing status messages over the
// Telegram Bot HTTP API. Delivery is best-effort and asynchronous: Notify
// enqueues onto a bounded channel drained by a single background goroutine,
// mirroring the reference implementation's mpsc-channel-backed bot thread
// (SPEC_FULL §6/§11).
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"arbitrage/pkg/retry"
	"arbitrage/pkg/utils"
)

const telegramAPIBase = "https://api.telegram.org"

// queueSize bounds the number of pending notifications; a full queue drops
// the new message rather than blocking the caller, since a notification
// backlog must never slow down deal evaluation or execution.
const queueSize = 256

// TelegramNotifier posts sendMessage calls to a single configured chat. A
// nil receiver or a disabled notifier makes Notify a no-op, matching the
// config's telegram_enabled=false path.
type TelegramNotifier struct {
	token      string
	chatID     int64
	baseURL    string // overridable in tests; defaults to telegramAPIBase
	httpClient *http.Client
	retryCfg   retry.Config
	logger     *utils.Logger
	enabled    bool

	queue chan string
}

func NewTelegramNotifier(token string, chatID int64, enabled bool, httpClient *http.Client, logger *utils.Logger) *TelegramNotifier {
	cfg := retry.NetworkConfig()
	cfg.RetryIf = retry.IsRetryable
	cfg.MaxRetries = 2

	return &TelegramNotifier{
		token:      token,
		chatID:     chatID,
		baseURL:    telegramAPIBase,
		httpClient: httpClient,
		retryCfg:   cfg,
		logger:     logger,
		enabled:    enabled,
		queue:      make(chan string, queueSize),
	}
}

// Run drains the notification queue until ctx is cancelled. Callers should
// launch it once as a background goroutine at startup when enabled.
func (t *TelegramNotifier) Run(ctx context.Context) {
	if t == nil || !t.enabled {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-t.queue:
			if err := t.sendNow(ctx, message); err != nil && t.logger != nil {
				t.logger.Warn("telegram delivery failed", utils.Err(err))
			}
		}
	}
}

// Notify enqueues message for asynchronous delivery. It never blocks: a
// full queue drops the message and returns an error for the caller to log,
// but never holds up the evaluator or executor.
func (t *TelegramNotifier) Notify(ctx context.Context, message string) error {
	if t == nil || !t.enabled {
		return nil
	}
	select {
	case t.queue <- message:
		return nil
	default:
		return fmt.Errorf("telegram: notification queue full, dropping message")
	}
}

// sendNow performs the actual HTTP POST, retried per t.retryCfg.
func (t *TelegramNotifier) sendNow(ctx context.Context, message string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	form := url.Values{
		"chat_id": {fmt.Sprintf("%d", t.chatID)},
		"text":    {message},
	}

	_, err := retry.DoWithResult(ctx, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return struct{}{}, retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			var body struct {
				Description string `json:"description"`
			}
			json.NewDecoder(resp.Body).Decode(&body)
			return struct{}{}, retry.Permanent(fmt.Errorf("telegram: %d %s", resp.StatusCode, body.Description))
		}
		if resp.StatusCode >= 500 {
			return struct{}{}, fmt.Errorf("telegram: server error %d", resp.StatusCode)
		}
		return struct{}{}, nil
	}, t.retryCfg)

	return err
}
