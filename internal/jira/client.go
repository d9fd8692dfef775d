// Package jira is the tracker query adapter: it issues authenticated search
// queries against Jira Cloud and returns raw issue documents.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brunobezerra-pd/jira-daily/internal/config"
	"github.com/brunobezerra-pd/jira-daily/internal/normalize"
	logx "github.com/brunobezerra-pd/jira-daily/pkg/logx"
)

// Searcher issues one structured query against the tracker's search
// endpoint. The pipeline depends on this interface, not on the HTTP client.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]normalize.RawRecord, error)
}

// Query is a structured search: filter expression, requested field list and
// result cap.
type Query struct {
	JQL        string
	Fields     []string
	MaxResults int
}

// Client talks to the Jira Cloud REST API (v2 search, the most widely
// compatible endpoint across instances).
type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
	log     logx.Logger
}

// Option customizes the client; mainly used by tests to point at an
// httptest server.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(cfg config.JiraConfig, log logx.Logger, opts ...Option) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Client{
		baseURL: fmt.Sprintf("https://%s.atlassian.net", normalize.SanitizeDomain(cfg.Domain)),
		email:   cfg.Email,
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Issues []normalize.RawRecord `json:"issues"`
}

func (c *Client) Search(ctx context.Context, q Query) ([]normalize.RawRecord, error) {
	vals := url.Values{}
	vals.Set("jql", q.JQL)
	if len(q.Fields) > 0 {
		vals.Set("fields", strings.Join(q.Fields, ","))
	}
	if q.MaxResults > 0 {
		vals.Set("maxResults", strconv.Itoa(q.MaxResults))
	}

	u := c.baseURL + "/rest/api/2/search?" + vals.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("jira search read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jira search: status %d: %s", resp.StatusCode, truncBody(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("jira search decode: %w", err)
	}
	return sr.Issues, nil
}

func truncBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
