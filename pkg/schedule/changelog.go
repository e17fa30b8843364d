package schedule

import (
	"slices"
	"time"

	"cloud.google.com/go/civil"
)

// Status is the kind of local mutation a change-log entry records.
type Status string

// Change-log statuses.
const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusDeleted Status = "deleted"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusUpdated, StatusDeleted:
		return true
	}
	return false
}

// ChangeLogEntry records one past local mutation.
type ChangeLogEntry struct {
	RecordID string
	Status   Status
	MTime    time.Time
}

// WindowStart returns the earliest moment a change-log entry may carry to be
// consulted: the start of the day that lies months before now.
func WindowStart(now time.Time, months int) time.Time {
	d := civil.DateOf(now.AddDate(0, -months, 0))
	return d.In(now.Location())
}

// WithinWindow returns the entries whose mtime is not before start,
// keeping their order.
func WithinWindow(entries []ChangeLogEntry, start time.Time) []ChangeLogEntry {
	var out []ChangeLogEntry
	for _, e := range entries {
		if !e.MTime.Before(start) {
			out = append(out, e)
		}
	}
	return out
}

// LatestEntry returns the most recent entry for recordID.
// Among entries with equal mtime the one logged last wins.
func LatestEntry(entries []ChangeLogEntry, recordID string) (ChangeLogEntry, bool) {
	var latest ChangeLogEntry
	found := false
	for _, e := range entries {
		if e.RecordID != recordID {
			continue
		}
		if !found || !e.MTime.Before(latest.MTime) {
			latest = e
			found = true
		}
	}
	return latest, found
}

// DeletedEntries returns the deleted-status entries, most recent first.
func DeletedEntries(entries []ChangeLogEntry) []ChangeLogEntry {
	var out []ChangeLogEntry
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Status == StatusDeleted {
			out = append(out, entries[i])
		}
	}
	slices.SortStableFunc(out, func(a, b ChangeLogEntry) int {
		return b.MTime.Compare(a.MTime)
	})
	return out
}
