package report

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Webhook POSTs each result as JSON, retrying transport errors and 5xx
// responses with backoff.
type Webhook struct {
	url    string
	client *resty.Client
}

type envelope struct {
	Type string `json:"type"`
	Data Result `json:"data"`
}

// NewWebhook targets url with the given number of retries.
func NewWebhook(url string, retries int, log *zap.Logger) *Webhook {
	if log == nil {
		log = zap.NewNop()
	}
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("Content-Type", "application/json")
	client.SetRetryCount(retries)
	client.SetRetryWaitTime(time.Second)
	client.SetRetryMaxWaitTime(8 * time.Second)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err != nil || res.StatusCode() >= 500
	})
	client.AddRetryHook(func(res *resty.Response, err error) {
		if res == nil {
			log.Warn("webhook: retrying", zap.Error(err))
			return
		}
		log.Warn("webhook: retrying", zap.Int("attempt", res.Request.Attempt), zap.Int("status", res.StatusCode()), zap.Error(err))
	})
	return &Webhook{url: url, client: client}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Write(ctx context.Context, r Result) error {
	res, err := w.client.R().
		SetContext(ctx).
		SetBody(envelope{Type: "cycle", Data: r}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("webhook: status %d", res.StatusCode())
	}
	return nil
}
