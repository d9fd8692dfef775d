package jira

import (
	"fmt"
	"time"

	"github.com/brunobezerra-pd/jira-daily/internal/normalize"
)

// issueFields is the field list every run requests: the normalizer's inputs
// plus every weight candidate (only one exists per deployment).
func issueFields() []string {
	fields := []string{
		"summary", "status", "assignee", "reporter",
		"issuetype", "parent",
		normalize.SprintField, normalize.EpicLinkField,
	}
	return append(fields, normalize.WeightFieldCandidates...)
}

// windowJQL renders a trailing window as a JQL relative clause ("-24h").
func windowJQL(window time.Duration) string {
	hours := int(window.Hours())
	if hours < 1 {
		hours = 1
	}
	return fmt.Sprintf("-%dh", hours)
}

// SprintItemsQuery selects everything currently in an open sprint.
func SprintItemsQuery(project string, maxResults int) Query {
	return Query{
		JQL:        fmt.Sprintf("project = '%s' AND sprint in openSprints() ORDER BY updated DESC", project),
		Fields:     issueFields(),
		MaxResults: maxResults,
	}
}

// BacklogItemsQuery selects unbucketed items touched within the window.
func BacklogItemsQuery(project string, window time.Duration, maxResults int) Query {
	return Query{
		JQL: fmt.Sprintf("project = '%s' AND sprint is EMPTY AND updated >= '%s' ORDER BY updated DESC",
			project, windowJQL(window)),
		Fields:     issueFields(),
		MaxResults: maxResults,
	}
}

// EpicsQuery selects grouping entities created or updated within the window.
func EpicsQuery(project string, window time.Duration, maxResults int) Query {
	w := windowJQL(window)
	return Query{
		JQL: fmt.Sprintf("project = '%s' AND issuetype = Epic AND (created >= '%s' OR updated >= '%s') ORDER BY updated DESC",
			project, w, w),
		Fields:     issueFields(),
		MaxResults: maxResults,
	}
}
