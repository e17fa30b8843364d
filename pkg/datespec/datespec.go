// Package datespec parses the date expressions that select a sync window.
//
// Command-line ranges take the form BASE[+N] or A-B:
//
//	today, tomorrow     the current or next date
//	sun .. sat          that weekday in the current Sunday-start week
//	yyyymmdd            a single date
//	yyyymm              the whole month, or N days from its first day
//	yyyy                the whole year, or N days from January 1
//	yyyy-mm-dd          a single date
//
// N counts days and may be negative ("today+-3"). In the A-B form a month
// or year token stands for its first day.
//
// Configuration values take the form today[±N], thismonth[±N] or
// thisyear[±N], where N counts days, months or years respectively.
//
// Anything else is handed to a natural-language parser ("next friday").
package datespec

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/agentstation/mhcgcal/pkg/errors"
)

// Range is an inclusive date range.
type Range struct {
	From civil.Date
	To   civil.Date
}

// String formats the range as "from..to".
func (r Range) String() string {
	return r.From.String() + ".." + r.To.String()
}

var (
	singleRe  = regexp.MustCompile(`^([a-z0-9]+)(?:\+(-?\d+))?$`)
	configRe  = regexp.MustCompile(`^(today|thismonth|thisyear)([+-]\d+)?$`)
	weekdays  = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}
	natural   = newNaturalParser()
	isoLayout = "2006-01-02"
)

func newNaturalParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseRange parses a command-line date expression relative to now.
func ParseRange(expr string, now time.Time) (Range, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Range{}, errors.NewParseError("date", expr, "empty date expression", nil)
	}
	today := civil.DateOf(now)

	if d, err := civil.ParseDate(s); err == nil {
		return Range{From: d, To: d}, nil
	}

	if m := singleRe.FindStringSubmatch(s); m != nil {
		r, ok, err := single(m[1], m[2], today)
		if err != nil {
			return Range{}, errors.NewParseError("date", expr, err.Error(), err)
		}
		if ok {
			return r, nil
		}
	}

	if a, b, found := strings.Cut(s, "-"); found {
		from, okFrom := token(a, today)
		to, okTo := token(b, today)
		if okFrom && okTo {
			if to.Before(from) {
				return Range{}, errors.NewParseError("date", expr, "range end is before its start", nil)
			}
			return Range{From: from, To: to}, nil
		}
	}

	r, err := natural.Parse(expr, now)
	if err != nil {
		return Range{}, errors.NewParseError("date", expr, "unrecognized date expression", err)
	}
	if r == nil {
		return Range{}, errors.NewParseError("date", expr, "unrecognized date expression", nil)
	}
	d := civil.DateOf(r.Time)
	return Range{From: d, To: d}, nil
}

// single resolves BASE[+N]. ok is false when base is not a known token.
func single(base, offset string, today civil.Date) (Range, bool, error) {
	days := 0
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil {
			return Range{}, true, err
		}
		days = n
	}

	switch {
	case isDigits(base) && len(base) == 6:
		first, err := parseDigits(base + "01")
		if err != nil {
			return Range{}, true, err
		}
		if offset != "" {
			return ordered(first, first.AddDays(days)), true, nil
		}
		return Range{From: first, To: lastOfMonth(first)}, true, nil

	case isDigits(base) && len(base) == 4:
		first, err := parseDigits(base + "0101")
		if err != nil {
			return Range{}, true, err
		}
		if offset != "" {
			return ordered(first, first.AddDays(days)), true, nil
		}
		return Range{From: first, To: civil.Date{Year: first.Year, Month: time.December, Day: 31}}, true, nil
	}

	from, ok := token(base, today)
	if !ok {
		if isDigits(base) {
			return Range{}, true, errors.New("invalid date digits")
		}
		return Range{}, false, nil
	}
	return ordered(from, from.AddDays(days)), true, nil
}

// token resolves a single date token. Month and year tokens mean their first day.
func token(s string, today civil.Date) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDays(1), true
	}
	for i, wd := range weekdays {
		if strings.HasPrefix(s, wd) {
			return thisWeek(today, time.Weekday(i)), true
		}
	}
	if !isDigits(s) {
		return civil.Date{}, false
	}
	var (
		d   civil.Date
		err error
	)
	switch len(s) {
	case 8:
		d, err = parseDigits(s)
	case 6:
		d, err = parseDigits(s + "01")
	case 4:
		d, err = parseDigits(s + "0101")
	default:
		return civil.Date{}, false
	}
	return d, err == nil
}

// ParseConfigDate parses a configuration date value relative to now.
func ParseConfigDate(expr string, now time.Time) (civil.Date, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	m := configRe.FindStringSubmatch(s)
	if m == nil {
		return civil.Date{}, errors.NewParseError("date", expr, "expected today, thismonth or thisyear with an optional +N or -N", nil)
	}
	n := 0
	if m[2] != "" {
		v, err := strconv.Atoi(m[2])
		if err != nil {
			return civil.Date{}, errors.NewParseError("date", expr, "invalid offset", err)
		}
		n = v
	}

	today := civil.DateOf(now)
	switch m[1] {
	case "thismonth":
		first := time.Date(today.Year, today.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
		return civil.DateOf(first), nil
	case "thisyear":
		return civil.Date{Year: today.Year + n, Month: time.January, Day: 1}, nil
	default:
		return today.AddDays(n), nil
	}
}

// thisWeek returns the date of weekday within the Sunday-start week of today.
func thisWeek(today civil.Date, weekday time.Weekday) civil.Date {
	current := today.In(time.UTC).Weekday()
	return today.AddDays(int(weekday) - int(current))
}

func lastOfMonth(first civil.Date) civil.Date {
	next := time.Date(first.Year, first.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	return civil.DateOf(next)
}

func ordered(a, b civil.Date) Range {
	if b.Before(a) {
		return Range{From: b, To: a}
	}
	return Range{From: a, To: b}
}

func parseDigits(s string) (civil.Date, error) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatCompact formats d as yyyymmdd, the form the local store's users type.
func FormatCompact(d civil.Date) string {
	return d.In(time.UTC).Format("20060102")
}

// ParseDate parses a single date written as yyyy-mm-dd or yyyymmdd.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) == 8 && isDigits(s) {
		d, err := parseDigits(s)
		if err != nil {
			return civil.Date{}, errors.WrapParse("date", s, err)
		}
		return d, nil
	}
	return ParseISO(s)
}

// ParseISO parses a yyyy-mm-dd date.
func ParseISO(s string) (civil.Date, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, errors.WrapParse("date", s, err)
	}
	return civil.DateOf(t), nil
}
