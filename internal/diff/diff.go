// Package diff classifies the current run's records against the previous
// snapshot.
package diff

import (
	"github.com/brunobezerra-pd/jira-daily/internal/normalize"
	"github.com/brunobezerra-pd/jira-daily/internal/snapshot"
)

// Result is the classified change set for one run.
//
// Bucket ordering preserves the input record order, which itself reflects
// the tracker's most-recently-updated-first ordering; nothing here re-sorts.
type Result struct {
	// NewInBucket holds records unseen in the previous snapshot that are
	// assigned to an active sprint.
	NewInBucket []normalize.Record
	// NewBacklog holds unseen records with no sprint.
	NewBacklog []normalize.Record
	// Changed holds previously seen records whose tracked fields differ.
	Changed []ChangedRecord

	// Next is the snapshot to persist at run end: the current-run view of
	// every key seen, and nothing else.
	Next snapshot.Snapshot
}

// ChangedRecord carries one changed record plus its ordered field-level
// change descriptors.
type ChangedRecord struct {
	Record normalize.Record

	// PrevStatus is the status from the previous snapshot. HadPrevStatus
	// distinguishes an absent previous status from an empty one.
	PrevStatus    string
	HadPrevStatus bool

	Changes []Change
}

// StatusChanged reports whether this record's status itself differs from the
// previous run (other fields may have changed without it).
func (c ChangedRecord) StatusChanged() bool {
	for _, ch := range c.Changes {
		if ch.Kind == KindStatus {
			return true
		}
	}
	return false
}

// NonStatusChanges returns the descriptors other than status, in emission
// order. Status is rendered separately by the builder, never suppressed.
func (c ChangedRecord) NonStatusChanges() []Change {
	out := make([]Change, 0, len(c.Changes))
	for _, ch := range c.Changes {
		if ch.Kind != KindStatus {
			out = append(out, ch)
		}
	}
	return out
}

// Classify walks records in order and splits them into new-in-sprint,
// new-backlog and changed buckets. Unchanged records fall out of every
// bucket but are still written to Next. Every input key lands in exactly
// one of the four outcomes.
func Classify(records []normalize.Record, prev snapshot.Snapshot) Result {
	res := Result{Next: make(snapshot.Snapshot, len(records))}

	for _, rec := range records {
		res.Next[rec.Key] = snapshot.EntryFor(rec)

		prevEntry, seen := prev[rec.Key]
		if !seen {
			if rec.Bucket != "" {
				res.NewInBucket = append(res.NewInBucket, rec)
			} else {
				res.NewBacklog = append(res.NewBacklog, rec)
			}
			continue
		}

		changes := diffFields(rec, prevEntry)
		if len(changes) == 0 {
			continue // unchanged
		}
		res.Changed = append(res.Changed, ChangedRecord{
			Record:        rec,
			PrevStatus:    prevEntry.Status,
			HadPrevStatus: prevEntry.Status != "",
			Changes:       changes,
		})
	}
	return res
}

// TotalChanges is the header count: the sum of all classification buckets
// (newGroups included), not the record count.
func (r Result) TotalChanges(newGroups int) int {
	return newGroups + len(r.NewInBucket) + len(r.NewBacklog) + len(r.Changed)
}
