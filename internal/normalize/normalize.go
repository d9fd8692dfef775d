// Package normalize converts raw Jira search documents into the stable
// internal Record shape.
//
// This is the single boundary between the loosely-typed external payload and
// the typed pipeline: Normalize never fails, and any missing or malformed
// field degrades to a placeholder or an absent value.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// RawRecord is one issue document as returned by the Jira search endpoint.
// Attribute names and shapes vary by deployment; not all fields are always
// present.
type RawRecord = map[string]any

// WeightFieldCandidates is the priority-ordered list of source fields that
// may carry the effort estimate. Different Jira deployments expose story
// points under different custom field ids; only one exists per deployment,
// so the first candidate key PRESENT in the raw fields wins, regardless of
// its value.
var WeightFieldCandidates = []string{
	"customfield_10016", // story point estimate (team-managed)
	"customfield_10026",
	"customfield_10004", // story points (company-managed)
	"customfield_10002",
}

// SprintField holds the sprint membership (object or list of objects).
const SprintField = "customfield_10020"

// EpicLinkField is the legacy scalar epic link (pre parent-relation sites).
const EpicLinkField = "customfield_10014"

// Normalize converts one raw issue into a Record. It is pure and total:
// it never returns an error and never panics on malformed input.
func Normalize(raw RawRecord, domain string) Record {
	key := getString(raw, "key")
	fields := getMap(raw, "fields")

	rec := Record{
		Key:    key,
		Title:  TitleFallback,
		Status: StatusFallback,
		Link:   BuildLink(domain, key),
	}
	if fields == nil {
		return rec
	}

	if s := getString(fields, "summary"); s != "" {
		rec.Title = s
	}
	if s := getString(getMap(fields, "status"), "name"); s != "" {
		rec.Status = s
	}
	rec.Owner = getString(getMap(fields, "assignee"), "displayName")
	rec.Originator = getString(getMap(fields, "reporter"), "displayName")
	rec.Weight = resolveWeight(fields)
	rec.Bucket = resolveSprint(fields)
	rec.Parent = resolveParent(fields)
	return rec
}

// BuildLink returns the deterministic browse URL for a key.
func BuildLink(domain, key string) string {
	if domain == "" || key == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.atlassian.net/browse/%s", SanitizeDomain(domain), key)
}

// SanitizeDomain tolerates full URLs pasted into the domain setting.
func SanitizeDomain(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.ReplaceAll(d, ".atlassian.net", "")
	return strings.Trim(d, "/")
}

// resolveWeight walks WeightFieldCandidates and takes the first key that is
// PRESENT in fields (key exists, not "truthy"). Coercion to a number is a
// separate concern: non-numeric values degrade to nil rather than falling
// through to a later candidate.
func resolveWeight(fields map[string]any) *float64 {
	for _, name := range WeightFieldCandidates {
		v, ok := fields[name]
		if !ok {
			continue
		}
		return coerceNumber(v)
	}
	return nil
}

func coerceNumber(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return &f
		}
	}
	return nil
}

// resolveSprint extracts the active sprint name. The field holds either a
// single object or a list; when a list, the last entry is the active one.
func resolveSprint(fields map[string]any) string {
	v, ok := fields[SprintField]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case []any:
		if len(x) == 0 {
			return ""
		}
		return sprintName(x[len(x)-1])
	default:
		return sprintName(v)
	}
}

func sprintName(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	return getString(m, "name")
}

// resolveParent prefers the structured parent relation, but only when the
// parent is actually a grouping entity (its issue type equals GroupType).
// Otherwise it falls back to the legacy epic link field, whose raw value
// serves as both key and title (degraded case, no title resolution).
func resolveParent(fields map[string]any) *GroupRef {
	if parent := getMap(fields, "parent"); parent != nil {
		pf := getMap(parent, "fields")
		if getString(getMap(pf, "issuetype"), "name") == GroupType {
			title := getString(pf, "summary")
			if title == "" {
				title = TitleFallback
			}
			return &GroupRef{Key: getString(parent, "key"), Title: title}
		}
	}
	if link := getString(fields, EpicLinkField); link != "" {
		return &GroupRef{Key: link, Title: link}
	}
	return nil
}

// IsGroup reports whether the raw issue itself is a grouping entity.
func IsGroup(raw RawRecord) bool {
	fields := getMap(raw, "fields")
	return getString(getMap(fields, "issuetype"), "name") == GroupType
}

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func getMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	mm, _ := m[key].(map[string]any)
	return mm
}
