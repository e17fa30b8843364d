package store

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"

	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// normalizeRule strips an optional "RRULE:" prefix and surrounding space.
func normalizeRule(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 6 && strings.EqualFold(raw[:6], "RRULE:") {
		raw = raw[6:]
	}
	return raw
}

func parseRule(raw string, first civil.Date) (*rrule.RRule, error) {
	r, err := rrule.StrToRRule(normalizeRule(raw))
	if err != nil {
		return nil, errors.WrapParse("rrule", raw, err)
	}
	// Occurrences are whole dates; expanding at UTC midnight keeps them free
	// of DST shifts.
	r.DTStart(first.In(time.UTC))
	return r, nil
}

// expand returns the occurrence dates of the rule starting on first that fall
// within the window, capped at limit.
func expand(raw string, first civil.Date, w schedule.Window, limit int) ([]civil.Date, error) {
	r, err := parseRule(raw, first)
	if err != nil {
		return nil, err
	}

	var set rrule.Set
	set.RRule(r)

	times := set.Between(w.From.In(time.UTC), w.To.In(time.UTC), true)
	if len(times) > limit {
		times = times[:limit]
	}
	out := make([]civil.Date, 0, len(times))
	for _, t := range times {
		out = append(out, civil.DateOf(t))
	}
	return out, nil
}
