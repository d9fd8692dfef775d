package diff

import (
	"fmt"
	"strconv"

	"github.com/brunobezerra-pd/jira-daily/internal/normalize"
	"github.com/brunobezerra-pd/jira-daily/internal/snapshot"
)

// Kind identifies which tracked field a change descriptor refers to.
type Kind string

const (
	KindStatus Kind = "status"
	KindOwner  Kind = "owner"
	KindWeight Kind = "weight"
	KindBucket Kind = "bucket"
)

// Change is one field-level change for an existing key. Prev and New are
// rendered values; either may be empty (absent). Text is the human line
// shown in the report.
type Change struct {
	Kind Kind
	Prev string
	New  string
	Text string
}

// Per-field labels; the gender suffix keeps the Portuguese copy agreeing.
var kindLabels = map[Kind]struct {
	label   string
	defined string
	removed string
}{
	KindStatus: {"Status", "definido", "removido"},
	KindOwner:  {"Responsável", "definido", "removido"},
	KindWeight: {"Estimativa", "definida", "removida"},
	KindBucket: {"Sprint", "definida", "removida"},
}

// diffFields compares the tracked fields independently and emits descriptors
// in fixed order: status, owner, weight, bucket.
func diffFields(rec normalize.Record, prev snapshot.Entry) []Change {
	var out []Change
	appendDiff(&out, KindStatus, prev.Status, rec.Status)
	appendDiff(&out, KindOwner, prev.Owner, rec.Owner)
	appendDiff(&out, KindWeight, formatWeight(prev.Weight), formatWeight(rec.Weight))
	appendDiff(&out, KindBucket, prev.Bucket, rec.Bucket)
	return out
}

// appendDiff applies the per-field policy:
//   - absent -> present: "defined"
//   - present -> absent: "removed" (previous value kept in the text)
//   - both present and unequal: transition prev -> new
func appendDiff(out *[]Change, kind Kind, prev, cur string) {
	if prev == cur {
		return
	}
	l := kindLabels[kind]
	var text string
	switch {
	case prev == "":
		text = fmt.Sprintf("%s %s: %s", l.label, l.defined, cur)
	case cur == "":
		text = fmt.Sprintf("%s %s (era %s)", l.label, l.removed, prev)
	default:
		text = fmt.Sprintf("%s: %s ➡️ %s", l.label, prev, cur)
	}
	*out = append(*out, Change{Kind: kind, Prev: prev, New: cur, Text: text})
}

func formatWeight(w *float64) string {
	if w == nil {
		return ""
	}
	return strconv.FormatFloat(*w, 'f', -1, 64)
}

// FormatWeight renders an estimate for display ("" when absent).
func FormatWeight(w *float64) string { return formatWeight(w) }
