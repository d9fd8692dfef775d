package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/brunobezerra-pd/jira-daily/internal/diff"
	"github.com/brunobezerra-pd/jira-daily/internal/normalize"
)

// NarrativeFailed is the sentinel a failed summary step passes in place of
// prose. It is distinct from "" (not configured): the builder renders a
// degraded-mode warning and still emits the full listings.
const NarrativeFailed = "\x00narrative-failed"

// DefaultTitle is the report caption when none is configured.
const DefaultTitle = "🔔 Resumo Diário do Jira"

// HeaderBlockCount is how many leading blocks form the repeated page header
// (caption + context + divider).
const HeaderBlockCount = 3

const (
	maxNarrativeChars = 2800
	// maxBlockChars stays under Slack's 3000-char section text limit.
	maxBlockChars = 2900

	ungroupedLabel = "Sem épico"
)

// BuildInput is the classified change set handed to the builder.
type BuildInput struct {
	Title string
	Now   time.Time

	NewGroups   []normalize.Record
	NewInBucket []normalize.Record
	NewBacklog  []normalize.Record
	Changed     []diff.ChangedRecord

	// Narrative is "" (not configured), NarrativeFailed, or prose.
	Narrative string
}

// TotalChanges is the header count: the sum of all four classification
// buckets, not the record count.
func (in BuildInput) TotalChanges() int {
	return len(in.NewGroups) + len(in.NewInBucket) + len(in.NewBacklog) + len(in.Changed)
}

// Build assembles the ordered block sequence for one run.
func Build(in BuildInput) []Block {
	title := in.Title
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	blocks := []Block{
		Header(title),
		Context(fmt.Sprintf("⏱ %s • %d mudança(s)", now.Format("02/01/2006 15:04"), in.TotalChanges())),
		Divider(),
	}

	switch {
	case in.Narrative == NarrativeFailed:
		blocks = append(blocks, Context("⚠️ Resumo automático indisponível — segue a listagem completa."))
	case in.Narrative != "":
		blocks = append(blocks,
			Section(TruncRunes(in.Narrative, maxNarrativeChars)),
			Divider(),
		)
	}

	blocks = appendBucket(blocks, "🧩 Novos épicos", plainItems(in.NewGroups))
	blocks = appendBucket(blocks, "🆕 Novas tarefas na sprint", plainItems(in.NewInBucket))
	blocks = appendBucket(blocks, "📥 Novas tarefas no backlog", plainItems(in.NewBacklog))
	blocks = appendBucket(blocks, "🔄 Tarefas atualizadas", changedItems(in.Changed))

	blocks = append(blocks, Context("_jira-daily_ • dados do Jira Cloud"))
	return blocks
}

// item pairs a record with its change descriptors (nil for new records).
type item struct {
	rec     normalize.Record
	changed *diff.ChangedRecord
}

func plainItems(recs []normalize.Record) []item {
	out := make([]item, 0, len(recs))
	for _, r := range recs {
		out = append(out, item{rec: r})
	}
	return out
}

func changedItems(recs []diff.ChangedRecord) []item {
	out := make([]item, 0, len(recs))
	for i := range recs {
		out = append(out, item{rec: recs[i].Record, changed: &recs[i]})
	}
	return out
}

// appendBucket renders one classification bucket: a title line, the items
// grouped by parent epic in first-seen order, and a trailing divider.
// Empty buckets emit nothing.
func appendBucket(blocks []Block, title string, items []item) []Block {
	if len(items) == 0 {
		return blocks
	}
	blocks = append(blocks, Section(fmt.Sprintf("*%s* (%d)", title, len(items))))

	// Group by parent key, preserving first-seen group order.
	var order []string
	groups := map[string][]item{}
	labels := map[string]string{}
	for _, it := range items {
		gkey, glabel := groupOf(it.rec)
		if _, ok := groups[gkey]; !ok {
			order = append(order, gkey)
			labels[gkey] = glabel
		}
		groups[gkey] = append(groups[gkey], it)
	}

	for _, gkey := range order {
		blocks = append(blocks, Context("📂 "+labels[gkey]))
		for _, it := range groups[gkey] {
			blocks = append(blocks, Section(TruncRunes(renderItem(it), maxBlockChars)))
		}
	}
	return append(blocks, Divider())
}

func groupOf(rec normalize.Record) (key, label string) {
	if rec.Parent == nil {
		return "", ungroupedLabel
	}
	if rec.Parent.Title != "" && rec.Parent.Title != rec.Parent.Key {
		return rec.Parent.Key, rec.Parent.Key + " — " + rec.Parent.Title
	}
	return rec.Parent.Key, rec.Parent.Key
}

// renderItem produces the display unit: exactly one section block per record.
func renderItem(it item) string {
	rec := it.rec
	var b strings.Builder

	// Title line with link.
	if rec.Link != "" {
		fmt.Fprintf(&b, "*<%s|%s>* — %s", rec.Link, rec.Key, rec.Title)
	} else {
		fmt.Fprintf(&b, "*%s* — %s", rec.Key, rec.Title)
	}

	// Owner / originator line; the originator is noise when it is the owner.
	owner := rec.Owner
	if owner == "" {
		owner = "—"
	}
	b.WriteString("\n👤 Responsável: " + owner)
	if rec.Originator != "" && rec.Originator != rec.Owner {
		b.WriteString(" • Autor: " + rec.Originator)
	}

	// Status line. For changed items the previous status is shown when it
	// actually differs, and flagged unchanged otherwise.
	switch {
	case it.changed != nil && it.changed.StatusChanged() && it.changed.HadPrevStatus:
		fmt.Fprintf(&b, "\n🔸 Status: %s ➡️ %s", it.changed.PrevStatus, rec.Status)
	case it.changed != nil && !it.changed.StatusChanged():
		fmt.Fprintf(&b, "\n🔹 Status: %s (sem alteração)", rec.Status)
	default:
		fmt.Fprintf(&b, "\n🔹 Status: %s", rec.Status)
	}

	// Combined weight + sprint line.
	weight := diff.FormatWeight(rec.Weight)
	if weight == "" {
		weight = "—"
	}
	bucket := rec.Bucket
	if bucket == "" {
		bucket = "—"
	}
	fmt.Fprintf(&b, "\n⚖️ Estimativa: %s • Sprint: %s", weight, bucket)

	// Remaining change descriptors (status already rendered above).
	if it.changed != nil {
		for _, ch := range it.changed.NonStatusChanges() {
			b.WriteString("\n· " + ch.Text)
		}
	}
	return b.String()
}
