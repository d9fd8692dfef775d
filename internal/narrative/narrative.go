// Package narrative is the optional AI summary collaborator.
//
// It is capability-typed: a nil Summarizer means "not configured" and the
// builder falls straight to full listings. A Summarize error is mapped by
// the app to the report's failure sentinel; it never aborts a run.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brunobezerra-pd/jira-daily/internal/config"
	"github.com/brunobezerra-pd/jira-daily/internal/diff"
	"github.com/brunobezerra-pd/jira-daily/internal/normalize"
	logx "github.com/brunobezerra-pd/jira-daily/pkg/logx"
)

// Summarizer turns the classified change set into a short prose summary.
type Summarizer interface {
	Summarize(ctx context.Context, res diff.Result, newGroups []normalize.Record) (string, error)
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
	log     logx.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(cfg config.NarrativeConfig, log logx.Logger, opts ...Option) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "Você é um assistente que resume mudanças de um quadro Jira " +
	"para um canal de time. Escreva um parágrafo curto em português, direto, sem listas."

func (c *Client) Summarize(ctx context.Context, res diff.Result, newGroups []normalize.Record) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(res, newGroups)},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("narrative read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("narrative: status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("narrative decode: %w", err)
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("narrative: empty completion")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

// buildPrompt keeps the model input compact: one line per record, capped.
func buildPrompt(res diff.Result, newGroups []normalize.Record) string {
	var b strings.Builder
	b.WriteString("Resuma as mudanças do dia:\n")

	writeRecs := func(label string, recs []normalize.Record) {
		if len(recs) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", label)
		for _, r := range recs {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", r.Key, r.Title, r.Status)
		}
	}
	writeRecs("Novos épicos", newGroups)
	writeRecs("Novas tarefas na sprint", res.NewInBucket)
	writeRecs("Novas tarefas no backlog", res.NewBacklog)

	if len(res.Changed) > 0 {
		b.WriteString("Tarefas atualizadas:\n")
		for _, c := range res.Changed {
			fmt.Fprintf(&b, "- %s: %s", c.Record.Key, c.Record.Title)
			for _, ch := range c.Changes {
				fmt.Fprintf(&b, "; %s", ch.Text)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
