package jira

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brunobezerra-pd/jira-daily/internal/config"
	logx "github.com/brunobezerra-pd/jira-daily/pkg/logx"
)

func TestSearch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if !strings.Contains(q.Get("jql"), "project = 'PROJ'") {
			t.Errorf("jql = %q", q.Get("jql"))
		}
		if q.Get("maxResults") != "100" {
			t.Errorf("maxResults = %q", q.Get("maxResults"))
		}
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("dev@acme.com:secret"))
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Errorf("auth = %q", got)
		}
		_, _ = w.Write([]byte(`{"issues":[{"key":"PROJ-1","fields":{"summary":"Bug"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.JiraConfig{Domain: "acme", Email: "dev@acme.com", APIToken: "secret"},
		logx.Nop(), WithBaseURL(srv.URL))

	issues, err := c.Search(context.Background(), SprintItemsQuery("PROJ", 100))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(issues) != 1 || issues[0]["key"] != "PROJ-1" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestSearchErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad jql", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(config.JiraConfig{Domain: "acme"}, logx.Nop(), WithBaseURL(srv.URL))
	if _, err := c.Search(context.Background(), Query{JQL: "x"}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestQueryBuilders(t *testing.T) {
	t.Parallel()
	window := 24 * time.Hour

	q := SprintItemsQuery("PROJ", 50)
	if !strings.Contains(q.JQL, "openSprints()") || q.MaxResults != 50 {
		t.Fatalf("sprint query: %+v", q)
	}

	q = BacklogItemsQuery("PROJ", window, 50)
	if !strings.Contains(q.JQL, "sprint is EMPTY") || !strings.Contains(q.JQL, "'-24h'") {
		t.Fatalf("backlog query: %+v", q)
	}

	q = EpicsQuery("PROJ", window, 50)
	if !strings.Contains(q.JQL, "issuetype = Epic") {
		t.Fatalf("epics query: %+v", q)
	}

	// every weight candidate must be requested, or no deployment variant
	// would ever see its estimate
	for _, f := range q.Fields {
		if f == "customfield_10016" {
			return
		}
	}
	t.Fatal("weight candidate fields not requested")
}
