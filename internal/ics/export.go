// Package ics writes the local schedule as an iCalendar file.
//
// Each occurrence becomes one VEVENT, mapped the same way the sync pushes it
// to the remote calendar, so secret categories are redacted here too.
package ics

import (
	"context"
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/logging"
	"github.com/agentstation/mhcgcal/pkg/mapper"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

const productID = "-//agentstation//mhcgcal//EN"

// Property names carrying the local identity of an exported event.
const (
	PropertyRecordID = ical.ComponentProperty("X-MHC-RECORD-ID")
	PropertyCategory = ical.ComponentProperty("X-MHC-CATEGORY")
)

// Searcher returns the local events inside a window.
type Searcher interface {
	Search(ctx context.Context, window schedule.Window) ([]schedule.DatedEvents, error)
}

// Exporter writes a window of the local schedule as iCalendar.
type Exporter struct {
	local  Searcher
	mapper *mapper.Mapper
	now    func() time.Time
	name   string
}

// NewExporter creates an Exporter. name becomes the calendar's display name
// when not empty.
func NewExporter(local Searcher, m *mapper.Mapper, name string) *Exporter {
	return &Exporter{local: local, mapper: m, now: time.Now, name: name}
}

// Export writes every occurrence in window to w and returns how many events
// were written.
func (x *Exporter) Export(ctx context.Context, w io.Writer, window schedule.Window) (int, error) {
	days, err := x.local.Search(ctx, window)
	if err != nil {
		return 0, err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if x.name != "" {
		cal.SetXWRCalName(x.name)
	}
	if loc := x.mapper.Location(); loc != time.Local {
		cal.SetXWRTimezone(loc.String())
	}

	stamp := x.now().UTC()
	count := 0
	for _, day := range days {
		for _, ev := range day.Events {
			remote := &schedule.RemoteEvent{}
			if err := x.mapper.ToRemote(remote, ev, day.Date); err != nil {
				logging.FromContext(ctx).Warn().
					Err(err).
					Str("record_id", ev.RecordID).
					Msg("Skipping event that cannot be exported")
				continue
			}
			addEvent(cal, uid(ev, day.Date.String()), remote, stamp)
			count++
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return count, errors.WrapIO("write", "ics", err)
	}
	return count, nil
}

// uid is stable per occurrence: the record id, suffixed with the date for
// recurring items.
func uid(ev *schedule.LocalEvent, date string) string {
	if ev.Recurrence == "" {
		return ev.RecordID
	}
	return fmt.Sprintf("%s-%s", ev.RecordID, date)
}

func addEvent(cal *ical.Calendar, id string, ev *schedule.RemoteEvent, stamp time.Time) {
	vev := cal.AddEvent(id)
	vev.SetDtStampTime(stamp)
	vev.SetSummary(ev.Title)
	if ev.Location != "" {
		vev.SetLocation(ev.Location)
	}
	if ev.Description != "" {
		vev.SetDescription(ev.Description)
	}
	if ev.AllDay {
		vev.SetAllDayStartAt(ev.Start)
		vev.SetAllDayEndAt(ev.End)
	} else {
		vev.SetStartAt(ev.Start)
		vev.SetEndAt(ev.End)
	}
	if id, ok := ev.Property(constants.RecordIDProperty); ok {
		vev.SetProperty(PropertyRecordID, id)
	}
	if cat, ok := ev.Property(constants.CategoryProperty); ok && cat != "" {
		vev.SetProperty(PropertyCategory, cat)
	}
}
