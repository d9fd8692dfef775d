// Package deliver posts report pages to the configured messaging webhook.
package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/brunobezerra-pd/jira-daily/internal/config"
	"github.com/brunobezerra-pd/jira-daily/internal/report"
	logx "github.com/brunobezerra-pd/jira-daily/pkg/logx"
)

// Webhook delivers one JSON document per page to a Slack-compatible
// incoming webhook. With no URL configured, pages are printed to the log
// instead (the original script's console fallback).
type Webhook struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

type Option func(*Webhook)

func WithHTTPClient(h *http.Client) Option {
	return func(w *Webhook) { w.http = h }
}

func NewWebhook(cfg config.WebhookConfig, log logx.Logger, opts ...Option) *Webhook {
	if log.IsZero() {
		log = logx.Nop()
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	w := &Webhook{
		url:     strings.TrimSpace(cfg.URL),
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

type payload struct {
	Text   string         `json:"text"`
	Blocks []report.Block `json:"blocks"`
}

// SendPages posts pages sequentially. A failure on one page is logged and
// the remaining pages are still attempted; the run is never aborted here.
// It returns how many pages were delivered.
func (w *Webhook) SendPages(ctx context.Context, pages []report.Page) int {
	sent := 0
	for i, p := range pages {
		if err := w.limiter.Wait(ctx); err != nil {
			w.log.Warn("delivery interrupted", logx.Err(err))
			return sent
		}
		if err := w.send(ctx, p); err != nil {
			w.log.Error("page delivery failed",
				logx.Int("page", i+1), logx.Int("pages", len(pages)), logx.Err(err))
			continue
		}
		sent++
		w.log.Debug("page delivered", logx.Int("page", i+1), logx.Int("blocks", len(p.Blocks)))
	}
	return sent
}

func (w *Webhook) send(ctx context.Context, p report.Page) error {
	if w.url == "" {
		// Console fallback: keep the report visible even without a webhook.
		w.log.Info("webhook url not configured, printing page", logx.String("text", p.Fallback))
		return nil
	}

	body, err := json.Marshal(payload{Text: p.Fallback, Blocks: p.Blocks})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}
