package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Config is the immutable run configuration.
//
// It is built once at startup (file + environment overrides) and passed into
// every component that needs it; no component reads ambient global state.
type Config struct {
	Jira      JiraConfig       `json:"jira"`
	Webhook   WebhookConfig    `json:"webhook"`
	Narrative *NarrativeConfig `json:"narrative,omitempty"`
	Snapshot  SnapshotConfig   `json:"snapshot"`
	Logging   LoggingConfig    `json:"logging"`
	Schedule  ScheduleConfig   `json:"schedule,omitempty"`
	Report    ReportConfig     `json:"report,omitempty"`
}

// JiraConfig identifies the Jira Cloud instance and project to track.
type JiraConfig struct {
	// Domain is the Atlassian site name (e.g. "minha-empresa" for
	// https://minha-empresa.atlassian.net). Full URLs are tolerated and
	// sanitized.
	Domain     string `json:"domain"`
	Email      string `json:"email"`
	APIToken   string `json:"api_token"`
	ProjectKey string `json:"project_key"`

	// MaxResults caps each search query. Default 100.
	MaxResults int `json:"max_results,omitempty"`

	// Window is the trailing update window for backlog/epic queries,
	// as a Go duration string. Default "24h".
	Window string `json:"window,omitempty"`
}

// WebhookConfig controls delivery of report pages.
//
// An empty URL is not an error: pages are printed to the console instead.
type WebhookConfig struct {
	URL        string `json:"url"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// NarrativeConfig controls the optional AI summary step.
// If the whole section is omitted, no summary is generated.
type NarrativeConfig struct {
	Enabled bool   `json:"enabled"`
	BaseURL string `json:"base_url,omitempty"` // default: https://api.openai.com/v1
	Model   string `json:"model,omitempty"`    // default: gpt-4o-mini
	APIKey  string `json:"api_key,omitempty"`
}

// SnapshotConfig controls where the previous-run state lives.
//
// Driver values:
//   - "file" (default): single JSON document
//   - "sqlite": SQLite database file
type SnapshotConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// ScheduleConfig enables daemon mode: the tracker runs on a cron expression
// instead of once per invocation.
type ScheduleConfig struct {
	Enabled  bool   `json:"enabled"`
	Cron     string `json:"cron,omitempty"`     // default: "0 9 * * *"
	Timezone string `json:"timezone,omitempty"` // default: local
}

// ReportConfig tunes the notification payload.
type ReportConfig struct {
	Title string `json:"title,omitempty"` // default: "🔔 Resumo Diário do Jira"

	// MaxBlocksPerPage is the per-message block ceiling. Default 48,
	// leaving margin under Slack's absolute limit of 50.
	MaxBlocksPerPage int `json:"max_blocks_per_page,omitempty"`
}

// Default returns a config with usable non-credential defaults.
func Default() *Config {
	return &Config{
		Jira:     JiraConfig{MaxResults: 100, Window: "24h"},
		Webhook:  WebhookConfig{RatePerSec: 1},
		Snapshot: SnapshotConfig{Driver: "file", Path: "./last_state.json"},
		Logging:  LoggingConfig{Level: "info", Console: true},
		Schedule: ScheduleConfig{Cron: "0 9 * * *"},
		Report:   ReportConfig{MaxBlocksPerPage: 48},
	}
}

// Load reads the config file (JSON or YAML), applies environment overrides
// and fills defaults. A missing file is not an error: the original deployment
// of this tracker was configured purely through environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			parsed, perr := parse(path, b)
			if perr != nil {
				return nil, fmt.Errorf("config %s: %w", path, perr)
			}
			cfg = parsed
		case errors.Is(err, os.ErrNotExist):
			// env-only deployment
		default:
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func parse(path string, data []byte) (*Config, error) {
	jb, _, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}
	return &cfg, nil
}

// applyEnv keeps the original env-variable contract working: environment
// values win over file values for credentials and targets.
func (c *Config) applyEnv() {
	setenv := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setenv(&c.Jira.Domain, "JIRA_DOMAIN")
	setenv(&c.Jira.Email, "JIRA_EMAIL")
	setenv(&c.Jira.APIToken, "JIRA_API_TOKEN")
	setenv(&c.Jira.ProjectKey, "JIRA_PROJECT_KEY")
	setenv(&c.Webhook.URL, "WEBHOOK_URL")
	if v, ok := os.LookupEnv("OPENAI_API_KEY"); ok && strings.TrimSpace(v) != "" {
		if c.Narrative == nil {
			c.Narrative = &NarrativeConfig{Enabled: true}
		}
		c.Narrative.APIKey = strings.TrimSpace(v)
	}
}

func (c *Config) fillDefaults() {
	if c.Jira.MaxResults <= 0 {
		c.Jira.MaxResults = 100
	}
	if strings.TrimSpace(c.Jira.Window) == "" {
		c.Jira.Window = "24h"
	}
	if c.Webhook.RatePerSec <= 0 {
		c.Webhook.RatePerSec = 1
	}
	if strings.TrimSpace(c.Snapshot.Driver) == "" {
		c.Snapshot.Driver = "file"
	}
	if strings.TrimSpace(c.Snapshot.Path) == "" {
		c.Snapshot.Path = "./last_state.json"
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if strings.TrimSpace(c.Schedule.Cron) == "" {
		c.Schedule.Cron = "0 9 * * *"
	}
	if c.Report.MaxBlocksPerPage <= 0 {
		c.Report.MaxBlocksPerPage = 48
	}
	if c.Narrative != nil {
		if strings.TrimSpace(c.Narrative.BaseURL) == "" {
			c.Narrative.BaseURL = "https://api.openai.com/v1"
		}
		if strings.TrimSpace(c.Narrative.Model) == "" {
			c.Narrative.Model = "gpt-4o-mini"
		}
	}
}

// Validate enforces the fatal configuration-missing taxonomy: required
// identity/credential values must be present before any query is issued.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Jira.Domain) == "" {
		missing = append(missing, "jira.domain (JIRA_DOMAIN)")
	}
	if strings.TrimSpace(c.Jira.Email) == "" {
		missing = append(missing, "jira.email (JIRA_EMAIL)")
	}
	if strings.TrimSpace(c.Jira.APIToken) == "" {
		missing = append(missing, "jira.api_token (JIRA_API_TOKEN)")
	}
	if strings.TrimSpace(c.Jira.ProjectKey) == "" {
		missing = append(missing, "jira.project_key (JIRA_PROJECT_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if _, err := time.ParseDuration(c.Jira.Window); err != nil {
		return fmt.Errorf("jira.window: %w", err)
	}
	if c.Report.MaxBlocksPerPage > 48 {
		return fmt.Errorf("report.max_blocks_per_page must be <= 48 (got %d)", c.Report.MaxBlocksPerPage)
	}
	return nil
}

// WindowDuration returns the parsed update window.
// Validate() has already checked the string parses.
func (c *Config) WindowDuration() time.Duration {
	d, err := time.ParseDuration(c.Jira.Window)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
