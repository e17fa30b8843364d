// Package matcher filters events by subject using glob or regex patterns.
package matcher

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Substring matches patterns without metacharacters anywhere in the input.
	Substring PatternType = iota
	// Glob uses shell-style glob patterns (*, ?, []) against the whole input.
	Glob
	// Regex uses regular expressions.
	Regex
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Substring:
		return "substring"
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	default:
		return "unknown"
	}
}

// Matcher matches strings case-insensitively against one pattern.
// A nil *Matcher matches everything.
type Matcher struct {
	pattern     string
	patternType PatternType
	lowered     string
	compiled    *regexp.Regexp
}

// New compiles pattern, detecting its type. An empty pattern returns nil.
func New(pattern string) (*Matcher, error) {
	if pattern == "" {
		return nil, nil
	}
	m := &Matcher{
		pattern:     pattern,
		patternType: detectPatternType(pattern),
		lowered:     strings.ToLower(pattern),
	}

	switch m.patternType {
	case Glob:
		if _, err := filepath.Match(m.lowered, ""); err != nil {
			return nil, errors.NewParseError("glob", pattern, "invalid pattern", err)
		}
	case Regex:
		expr := pattern
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		compiled, err := regexp.Compile(expr)
		if err != nil {
			return nil, errors.NewParseError("regex", pattern, "invalid pattern", err)
		}
		m.compiled = compiled
	}
	return m, nil
}

// Pattern returns the original pattern string.
func (m *Matcher) Pattern() string {
	if m == nil {
		return ""
	}
	return m.pattern
}

// Type returns the detected pattern type.
func (m *Matcher) Type() PatternType {
	if m == nil {
		return Substring
	}
	return m.patternType
}

// Match reports whether input matches the pattern.
func (m *Matcher) Match(input string) bool {
	if m == nil {
		return true
	}
	switch m.patternType {
	case Glob:
		matched, _ := filepath.Match(m.lowered, strings.ToLower(input))
		return matched
	case Regex:
		return m.compiled.MatchString(input)
	default:
		return strings.Contains(strings.ToLower(input), m.lowered)
	}
}

// Days keeps the local occurrences whose subject matches, dropping days
// left empty.
func (m *Matcher) Days(days []schedule.DatedEvents) []schedule.DatedEvents {
	if m == nil {
		return days
	}
	out := make([]schedule.DatedEvents, 0, len(days))
	for _, day := range days {
		var kept []*schedule.LocalEvent
		for _, ev := range day.Events {
			if m.Match(ev.Subject) {
				kept = append(kept, ev)
			}
		}
		if len(kept) > 0 {
			out = append(out, schedule.DatedEvents{Date: day.Date, Events: kept})
		}
	}
	return out
}

// RemoteEvents keeps the calendar events whose title matches.
func (m *Matcher) RemoteEvents(events []*schedule.RemoteEvent) []*schedule.RemoteEvent {
	if m == nil {
		return events
	}
	out := make([]*schedule.RemoteEvent, 0, len(events))
	for _, ev := range events {
		if m.Match(ev.Title) {
			out = append(out, ev)
		}
	}
	return out
}

// detectPatternType attempts to detect if a pattern is a regex, a glob or
// plain text.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "\\D", "\\W", "\\S",
		"(?:", "(?i)", "{", "}", "+", "|", "(", ")", ".*",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	if strings.ContainsAny(pattern, "*?[]") {
		return Glob
	}
	return Substring
}
