// Package mapper translates between local schedule events and remote
// calendar events. Both directions are pure: a Mapper holds only the
// configuration it was built with.
package mapper

import (
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// decoratedTitle matches a title ending in a bracketed location, "Subject [Room 1]".
var decoratedTitle = regexp.MustCompile(`^(.*)\[([^\]]+)\]$`)

// Config holds the mapping settings.
type Config struct {
	// SecretCategories are case-insensitive patterns; an event whose category
	// string matches any of them has its title redacted.
	SecretCategories []string

	// SecretTitle replaces the title of secret events.
	SecretTitle string

	// TitleDisplayWhere appends " [location]" to non-secret titles.
	TitleDisplayWhere bool

	// Location is the wall-clock zone of local events.
	Location *time.Location

	// Codec recodes text; nil means UTF-8.
	Codec *Codec
}

// Mapper converts events in both directions.
type Mapper struct {
	secret       []*regexp.Regexp
	secretTitle  string
	displayWhere bool
	loc          *time.Location
	codec        *Codec
}

// New compiles cfg into a Mapper.
func New(cfg Config) (*Mapper, error) {
	m := &Mapper{
		secretTitle:  cfg.SecretTitle,
		displayWhere: cfg.TitleDisplayWhere,
		loc:          cfg.Location,
		codec:        cfg.Codec,
	}
	if m.secretTitle == "" {
		m.secretTitle = constants.DefaultSecretTitle
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.codec == nil {
		m.codec = UTF8()
	}
	for _, pattern := range cfg.SecretCategories {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, errors.NewValidationError("secret_categories", pattern, err.Error())
		}
		m.secret = append(m.secret, re)
	}
	return m, nil
}

// Location returns the zone local wall-clock times are resolved in.
func (m *Mapper) Location() *time.Location {
	return m.loc
}

// Codec returns the text codec.
func (m *Mapper) Codec() *Codec {
	return m.codec
}

// IsSecret reports whether any secret pattern matches the space-joined,
// lowercased category string.
func (m *Mapper) IsSecret(categories []string) bool {
	s := strings.ToLower(strings.Join(categories, " "))
	for _, re := range m.secret {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// ToRemote writes the fields of local, occurring on date, into remote.
// The remote id and updated timestamp are left alone.
func (m *Mapper) ToRemote(remote *schedule.RemoteEvent, local *schedule.LocalEvent, date civil.Date) error {
	secret := m.IsSecret(local.Categories)

	title := m.secretTitle
	if !secret {
		subject, err := m.codec.ToRemote(local.Subject)
		if err != nil {
			return err
		}
		title = subject
	}

	location := ""
	if !secret && local.Location != "" {
		where, err := m.codec.ToRemote(local.Location)
		if err != nil {
			return err
		}
		location = where
		if m.displayWhere && location != "" {
			title += " [" + location + "]"
		}
	}

	description, err := m.codec.ToRemote(local.Description)
	if err != nil {
		return err
	}

	remote.Title = title
	remote.Location = location
	remote.Description = description

	// Without a start time the event is all-day, even if it has an end.
	if tr := local.Time; tr != nil && tr.Start != nil {
		remote.Start = tr.Start.On(date, m.loc)
		remote.End = remote.Start
		if tr.End != nil {
			remote.End = tr.End.On(date, m.loc)
		}
		remote.AllDay = false
	} else {
		remote.Start = date.In(m.loc)
		remote.End = date.AddDays(1).In(m.loc)
		remote.AllDay = true
	}

	remote.SetProperty(constants.CategoryProperty, local.CategoryString())
	remote.SetProperty(constants.RecordIDProperty, local.RecordID)
	return nil
}

// ToLocal builds a new local event from remote with a fresh record id.
// An event reporting neither start nor end cannot be placed on a date.
func (m *Mapper) ToLocal(remote *schedule.RemoteEvent) (*schedule.LocalEvent, error) {
	if remote.Start.IsZero() && remote.End.IsZero() {
		return nil, errors.NewValidationError("start", remote.ID, "remote event has neither start nor end")
	}

	title := remote.Title
	if match := decoratedTitle.FindStringSubmatch(title); match != nil {
		title = strings.TrimRight(match[1], " \t")
	}

	subject, err := m.codec.ToLocal(HeaderSafe(title))
	if err != nil {
		return nil, err
	}
	location, err := m.codec.ToLocal(HeaderSafe(remote.Location))
	if err != nil {
		return nil, err
	}

	local := &schedule.LocalEvent{
		RecordID: schedule.NewRecordID(),
		Subject:  subject,
		Location: location,
	}

	start := remote.Start.In(m.loc)
	end := remote.End.In(m.loc)

	switch {
	case m.IsAllDay(remote):
		local.Time = nil
	case remote.Start.IsZero():
		tod := schedule.TimeOfDayOf(end)
		local.Time = &schedule.TimeRange{End: &tod}
	case remote.End.IsZero():
		local.Time = schedule.NewTimeRange(schedule.TimeOfDayOf(start), nil)
	default:
		tod := schedule.TimeOfDayOf(end)
		local.Time = schedule.NewTimeRange(schedule.TimeOfDayOf(start), &tod)
	}

	if remote.Start.IsZero() {
		local.Date = civil.DateOf(end)
	} else {
		local.Date = civil.DateOf(start)
	}

	if category, ok := remote.Property(constants.CategoryProperty); ok {
		local.SetCategories(category)
	}

	if remote.Description != "" {
		description, err := m.codec.ToLocal(remote.Description)
		if err != nil {
			return nil, err
		}
		local.Description = description
	}

	return local, nil
}

// IsAllDay reports whether remote is an all-day event: either flagged as
// one, or starting exactly at local midnight and lasting exactly 24 hours.
func (m *Mapper) IsAllDay(remote *schedule.RemoteEvent) bool {
	if remote.AllDay {
		return true
	}
	if remote.Start.IsZero() || remote.End.IsZero() {
		return false
	}
	start := remote.Start.In(m.loc)
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 || start.Nanosecond() != 0 {
		return false
	}
	return remote.End.Sub(remote.Start) == 24*time.Hour
}
