package schedule

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/agentstation/mhcgcal/pkg/errors"
)

// CategoryFilter selects local events by category.
// Tags prefixed with "!" exclude; any plain tag must match for an event to
// be included. A filter with no plain tags includes everything not excluded.
type CategoryFilter struct {
	include []string
	exclude []string
}

// ParseCategoryFilter parses a space separated filter expression such as
// "work private !holiday".
func ParseCategoryFilter(expr string) CategoryFilter {
	var f CategoryFilter
	for _, tok := range strings.Fields(strings.ToLower(expr)) {
		if neg, ok := strings.CutPrefix(tok, "!"); ok {
			if neg != "" {
				f.exclude = append(f.exclude, neg)
			}
			continue
		}
		f.include = append(f.include, tok)
	}
	return f
}

// Match reports whether an event with the given categories passes the filter.
func (f CategoryFilter) Match(categories []string) bool {
	has := func(tag string) bool {
		for _, c := range categories {
			if strings.EqualFold(c, tag) {
				return true
			}
		}
		return false
	}

	for _, tag := range f.exclude {
		if has(tag) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, tag := range f.include {
		if has(tag) {
			return true
		}
	}
	return false
}

// String returns the filter in its parseable form.
func (f CategoryFilter) String() string {
	parts := make([]string, 0, len(f.include)+len(f.exclude))
	parts = append(parts, f.include...)
	for _, tag := range f.exclude {
		parts = append(parts, "!"+tag)
	}
	return strings.Join(parts, " ")
}

// Window fixes which local and remote events one sync run considers.
// From and To are inclusive dates.
type Window struct {
	From   civil.Date
	To     civil.Date
	Filter CategoryFilter
}

// NewWindow returns a window, rejecting an inverted or invalid date range.
func NewWindow(from, to civil.Date, filter CategoryFilter) (Window, error) {
	if !from.IsValid() {
		return Window{}, errors.NewValidationError("date_from", from, "invalid date")
	}
	if !to.IsValid() {
		return Window{}, errors.NewValidationError("date_to", to, "invalid date")
	}
	if to.Before(from) {
		return Window{}, errors.NewValidationError("date_to", to, "is before date_from "+from.String())
	}
	return Window{From: from, To: to, Filter: filter}, nil
}

// Contains reports whether date lies inside the window.
func (w Window) Contains(date civil.Date) bool {
	return !date.Before(w.From) && !date.After(w.To)
}

// Bounds returns the half-open instant range [start of From, start of the
// day after To) in loc. Remote events are selected by their start time.
func (w Window) Bounds(loc *time.Location) (time.Time, time.Time) {
	return w.From.In(loc), w.To.AddDays(1).In(loc)
}

// Days returns the number of dates in the window.
func (w Window) Days() int {
	return w.To.DaysSince(w.From) + 1
}

// String formats the window as "from..to".
func (w Window) String() string {
	return w.From.String() + ".." + w.To.String()
}
