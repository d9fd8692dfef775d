package snapshot

import (
	"time"

	"github.com/brunobezerra-pd/jira-daily/internal/normalize"
)

// Config configures the snapshot store.
//
// If Driver is empty, "file" is assumed.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry is the reduced per-key view the differ compares: exactly the tracked
// fields, nothing else.
type Entry struct {
	Status string              `json:"status"`
	Title  string              `json:"title"`
	Owner  string              `json:"owner,omitempty"`
	Weight *float64            `json:"weight,omitempty"`
	Bucket string              `json:"bucket,omitempty"`
	Parent *normalize.GroupRef `json:"parent_group,omitempty"`
}

// Snapshot maps record key to its last-known tracked fields.
type Snapshot map[string]Entry

// EntryFor reduces a normalized record to its snapshot view.
func EntryFor(rec normalize.Record) Entry {
	return Entry{
		Status: rec.Status,
		Title:  rec.Title,
		Owner:  rec.Owner,
		Weight: rec.Weight,
		Bucket: rec.Bucket,
		Parent: rec.Parent,
	}
}
