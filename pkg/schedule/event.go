// Package schedule defines the data model shared by the local store, the
// remote calendar and the reconciliation engine: local events, remote events,
// change-log entries, the sync window and the matching rule that links them.
package schedule

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/agentstation/mhcgcal/pkg/errors"
)

// TimeOfDay is a wall-clock time as written in the local store.
// Hour may exceed 23 to describe a time past midnight of the event's date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM". Hours of 24 or more are accepted.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, errors.NewParseError("time", s, "expected HH:MM", nil)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 {
		return TimeOfDay{}, errors.NewParseError("time", s, "invalid hour", err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, errors.NewParseError("time", s, "invalid minute", err)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// TimeOfDayOf returns the wall-clock time of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On resolves the time against date in loc. Whole days beyond 24 hours
// move the result onto the following dates.
func (t TimeOfDay) On(date civil.Date, loc *time.Location) time.Time {
	d := date.AddDays(t.Hour / 24)
	return time.Date(d.Year, d.Month, d.Day, t.Hour%24, t.Minute, 0, 0, loc)
}

// TimeRange is the optional time span of a local event.
// A nil Start means the span has an open start.
type TimeRange struct {
	Start *TimeOfDay
	End   *TimeOfDay
}

// NewTimeRange returns a range from start to end. A nil end means the event
// has no end time.
func NewTimeRange(start TimeOfDay, end *TimeOfDay) *TimeRange {
	return &TimeRange{Start: &start, End: end}
}

// ParseTimeRange parses "HH:MM-HH:MM", "HH:MM-", "HH:MM" or "-HH:MM".
// An empty string means an all-day event and returns nil.
func ParseTimeRange(s string) (*TimeRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	startStr, endStr, _ := strings.Cut(s, "-")
	tr := &TimeRange{}
	if startStr = strings.TrimSpace(startStr); startStr != "" {
		t, err := ParseTimeOfDay(startStr)
		if err != nil {
			return nil, err
		}
		tr.Start = &t
	}
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		t, err := ParseTimeOfDay(endStr)
		if err != nil {
			return nil, err
		}
		tr.End = &t
	}
	if tr.Start == nil && tr.End == nil {
		return nil, errors.NewParseError("time", s, "expected HH:MM-HH:MM", nil)
	}
	return tr, nil
}

// String formats the range as "HH:MM-HH:MM", leaving absent sides blank.
func (r *TimeRange) String() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	if r.Start != nil {
		b.WriteString(r.Start.String())
	}
	b.WriteByte('-')
	if r.End != nil {
		b.WriteString(r.End.String())
	}
	return b.String()
}

// LocalEvent is one occurrence of a scheduled item in the local store.
// Recurring items expand to one LocalEvent per occurrence date.
type LocalEvent struct {
	RecordID    string
	Categories  []string
	Subject     string
	Location    string
	Description string
	Date        civil.Date
	Time        *TimeRange // nil for all-day events

	// Recurrence is the RRULE of a recurring item, empty otherwise.
	Recurrence string
}

// AllDay reports whether the event has no time of day.
func (e *LocalEvent) AllDay() bool {
	return e.Time == nil
}

// CategoryString returns the categories joined by single spaces.
func (e *LocalEvent) CategoryString() string {
	return strings.Join(e.Categories, " ")
}

// HasCategory reports whether the event carries category, ignoring case.
func (e *LocalEvent) HasCategory(category string) bool {
	return slices.Contains(e.Categories, strings.ToLower(category))
}

// SetCategories replaces the categories with the space separated tags in s.
func (e *LocalEvent) SetCategories(s string) {
	e.Categories = ParseCategories(s)
}

// ParseCategories splits a space separated category string into lowercase tags.
func ParseCategories(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// NewRecordID returns a fresh, globally unique record id.
func NewRecordID() string {
	return uuid.NewString()
}

// DatedEvents groups the events occurring on one date.
type DatedEvents struct {
	Date   civil.Date
	Events []*LocalEvent
}
