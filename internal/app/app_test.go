package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brunobezerra-pd/jira-daily/internal/config"
	"github.com/brunobezerra-pd/jira-daily/internal/jira"
	"github.com/brunobezerra-pd/jira-daily/internal/normalize"
	logx "github.com/brunobezerra-pd/jira-daily/pkg/logx"
)

// fakeSearch routes queries by their JQL shape, like the real tracker would.
type fakeSearch struct {
	sprint  []normalize.RawRecord
	backlog []normalize.RawRecord
	epics   []normalize.RawRecord

	failBacklog bool
}

func (f *fakeSearch) Search(ctx context.Context, q jira.Query) ([]normalize.RawRecord, error) {
	switch {
	case strings.Contains(q.JQL, "openSprints()"):
		return f.sprint, nil
	case strings.Contains(q.JQL, "sprint is EMPTY"):
		if f.failBacklog {
			return nil, errors.New("jira: 503")
		}
		return f.backlog, nil
	case strings.Contains(q.JQL, "issuetype = Epic"):
		return f.epics, nil
	}
	return nil, errors.New("unexpected query: " + q.JQL)
}

func issue(key, summary, status string) normalize.RawRecord {
	return normalize.RawRecord{
		"key": key,
		"fields": map[string]any{
			"summary": summary,
			"status":  map[string]any{"name": status},
		},
	}
}

func epic(key, summary string) normalize.RawRecord {
	raw := issue(key, summary, "Open")
	raw["fields"].(map[string]any)["issuetype"] = map[string]any{"name": "Epic"}
	return raw
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Jira = config.JiraConfig{
		Domain: "acme", Email: "dev@acme.com", APIToken: "x", ProjectKey: "PROJ",
		MaxResults: 100, Window: "24h",
	}
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "last_state.json")
	cfg.Webhook.URL = "" // console fallback
	return cfg
}

func TestRunOncePersistsEverySeenKey(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	a, err := New(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	a.search = &fakeSearch{
		sprint:  []normalize.RawRecord{issue("PROJ-1", "Bug", "Em Progresso")},
		backlog: []normalize.RawRecord{issue("PROJ-2", "Chore", "Aberto")},
		epics:   []normalize.RawRecord{epic("PROJ-100", "Fase 1")},
	}

	ctx := context.Background()
	if err := a.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	snap, err := a.store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, key := range []string{"PROJ-1", "PROJ-2", "PROJ-100"} {
		if _, ok := snap[key]; !ok {
			t.Fatalf("key %s missing from snapshot", key)
		}
	}
}

func TestRunOnceSecondRunReflectsUpdates(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	a, err := New(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	fs := &fakeSearch{sprint: []normalize.RawRecord{issue("PROJ-1", "Bug", "Em Progresso")}}
	a.search = fs

	ctx := context.Background()
	if err := a.RunOnce(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	fs.sprint = []normalize.RawRecord{issue("PROJ-1", "Bug", "Concluído")}
	if err := a.RunOnce(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}

	snap, _ := a.store.Load(ctx)
	if snap["PROJ-1"].Status != "Concluído" {
		t.Fatalf("snapshot not updated: %+v", snap["PROJ-1"])
	}
}

func TestRunOnceToleratesQueryFailure(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	a, err := New(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	a.search = &fakeSearch{
		sprint:      []normalize.RawRecord{issue("PROJ-1", "Bug", "Em Progresso")},
		failBacklog: true,
	}

	ctx := context.Background()
	if err := a.RunOnce(ctx); err != nil {
		t.Fatalf("a failed query must not abort the run: %v", err)
	}
	snap, _ := a.store.Load(ctx)
	if _, ok := snap["PROJ-1"]; !ok {
		t.Fatal("surviving query results were not persisted")
	}
}

func TestRunOnceMergesDuplicateKeys(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	a, err := New(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	// Same key from both issue queries: the earlier query wins.
	sprintIssue := issue("PROJ-1", "Bug", "Em Progresso")
	sprintIssue["fields"].(map[string]any)[normalize.SprintField] = map[string]any{"name": "Sprint A"}
	a.search = &fakeSearch{
		sprint:  []normalize.RawRecord{sprintIssue},
		backlog: []normalize.RawRecord{issue("PROJ-1", "Bug", "Aberto")},
	}

	ctx := context.Background()
	if err := a.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	snap, _ := a.store.Load(ctx)
	if got := snap["PROJ-1"]; got.Status != "Em Progresso" || got.Bucket != "Sprint A" {
		t.Fatalf("merge did not keep the earlier query's view: %+v", got)
	}
}
