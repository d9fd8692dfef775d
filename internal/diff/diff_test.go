package diff

import (
	"testing"

	"github.com/brunobezerra-pd/jira-daily/internal/normalize"
	"github.com/brunobezerra-pd/jira-daily/internal/snapshot"
)

func rec(key, status, bucket string) normalize.Record {
	return normalize.Record{Key: key, Title: "t " + key, Status: status, Bucket: bucket}
}

func ptr(f float64) *float64 { return &f }

func TestClassifyNewRecords(t *testing.T) {
	t.Parallel()
	res := Classify([]normalize.Record{
		rec("K-1", "Open", "Sprint A"),
		rec("K-2", "Open", ""),
	}, snapshot.Snapshot{})

	if len(res.NewInBucket) != 1 || res.NewInBucket[0].Key != "K-1" {
		t.Fatalf("NewInBucket = %+v", res.NewInBucket)
	}
	if len(res.NewBacklog) != 1 || res.NewBacklog[0].Key != "K-2" {
		t.Fatalf("NewBacklog = %+v", res.NewBacklog)
	}
	if len(res.Changed) != 0 {
		t.Fatalf("Changed should be empty, got %+v", res.Changed)
	}
}

func TestStatusTransition(t *testing.T) {
	t.Parallel()
	prev := snapshot.Snapshot{"K-1": {Status: "Open"}}
	res := Classify([]normalize.Record{rec("K-1", "Done", "")}, prev)

	if len(res.Changed) != 1 {
		t.Fatalf("expected 1 changed record, got %d", len(res.Changed))
	}
	c := res.Changed[0]
	if len(c.Changes) != 1 {
		t.Fatalf("expected 1 descriptor, got %+v", c.Changes)
	}
	ch := c.Changes[0]
	if ch.Kind != KindStatus || ch.Prev != "Open" || ch.New != "Done" {
		t.Fatalf("unexpected descriptor: %+v", ch)
	}
	if c.PrevStatus != "Open" || !c.HadPrevStatus {
		t.Fatalf("previous status not carried: %+v", c)
	}
}

func TestWeightDefinedNotTransition(t *testing.T) {
	t.Parallel()
	prev := snapshot.Snapshot{"K-2": {Status: "Open", Weight: nil}}
	r := rec("K-2", "Open", "")
	r.Weight = ptr(5)
	res := Classify([]normalize.Record{r}, prev)

	if len(res.Changed) != 1 || len(res.Changed[0].Changes) != 1 {
		t.Fatalf("unexpected result: %+v", res.Changed)
	}
	ch := res.Changed[0].Changes[0]
	if ch.Kind != KindWeight || ch.Prev != "" || ch.New != "5" {
		t.Fatalf("unexpected descriptor: %+v", ch)
	}
	if ch.Text != "Estimativa definida: 5" {
		t.Fatalf("unexpected text: %q", ch.Text)
	}
}

func TestRemovedKeepsPreviousValue(t *testing.T) {
	t.Parallel()
	prev := snapshot.Snapshot{"K-3": {Status: "Open", Owner: "Ana"}}
	res := Classify([]normalize.Record{rec("K-3", "Open", "")}, prev)

	if len(res.Changed) != 1 || len(res.Changed[0].Changes) != 1 {
		t.Fatalf("unexpected result: %+v", res.Changed)
	}
	ch := res.Changed[0].Changes[0]
	if ch.Kind != KindOwner || ch.Prev != "Ana" || ch.New != "" {
		t.Fatalf("unexpected descriptor: %+v", ch)
	}
	if ch.Text != "Responsável removido (era Ana)" {
		t.Fatalf("unexpected text: %q", ch.Text)
	}
}

func TestDescriptorOrder(t *testing.T) {
	t.Parallel()
	prev := snapshot.Snapshot{"K-4": {Status: "Open", Owner: "Ana", Weight: ptr(3), Bucket: "Sprint 1"}}
	r := normalize.Record{Key: "K-4", Title: "t", Status: "Done", Owner: "Bia", Weight: ptr(5), Bucket: "Sprint 2"}
	res := Classify([]normalize.Record{r}, prev)

	if len(res.Changed) != 1 {
		t.Fatalf("expected 1 changed record")
	}
	want := []Kind{KindStatus, KindOwner, KindWeight, KindBucket}
	got := res.Changed[0].Changes
	if len(got) != len(want) {
		t.Fatalf("expected %d descriptors, got %d", len(want), len(got))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Fatalf("descriptor[%d].Kind = %s, want %s", i, got[i].Kind, k)
		}
	}
}

func TestExhaustiveness(t *testing.T) {
	t.Parallel()
	prev := snapshot.Snapshot{
		"K-same":    {Status: "Open", Title: "t K-same"},
		"K-changed": {Status: "Open", Title: "t K-changed"},
	}
	records := []normalize.Record{
		rec("K-new-sprint", "Open", "Sprint A"),
		rec("K-new-backlog", "Open", ""),
		rec("K-same", "Open", ""),
		rec("K-changed", "Done", ""),
	}
	res := Classify(records, prev)

	counts := map[string]int{}
	for _, r := range res.NewInBucket {
		counts[r.Key]++
	}
	for _, r := range res.NewBacklog {
		counts[r.Key]++
	}
	for _, c := range res.Changed {
		counts[c.Record.Key]++
	}
	// every key in exactly one bucket, unchanged in none
	for _, r := range records {
		if r.Key == "K-same" {
			if counts[r.Key] != 0 {
				t.Fatalf("unchanged record classified: %s", r.Key)
			}
			continue
		}
		if counts[r.Key] != 1 {
			t.Fatalf("key %s classified %d times", r.Key, counts[r.Key])
		}
	}
	// but every key lands in the next snapshot
	for _, r := range records {
		if _, ok := res.Next[r.Key]; !ok {
			t.Fatalf("key %s missing from next snapshot", r.Key)
		}
	}
	if len(res.Next) != len(records) {
		t.Fatalf("next snapshot has %d keys, want %d (dropped keys must not survive)", len(res.Next), len(records))
	}
}

func TestIdempotenceAfterCommit(t *testing.T) {
	t.Parallel()
	records := []normalize.Record{
		rec("K-1", "Open", "Sprint A"),
		rec("K-2", "Done", ""),
	}
	records[0].Weight = ptr(8)

	first := Classify(records, snapshot.Snapshot{})
	second := Classify(records, first.Next)

	if len(second.NewInBucket)+len(second.NewBacklog)+len(second.Changed) != 0 {
		t.Fatalf("second pass not empty: %+v", second)
	}
}
