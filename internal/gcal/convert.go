package gcal

import (
	"time"

	"cloud.google.com/go/civil"
	"google.golang.org/api/calendar/v3"

	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// fromAPI converts a service event. A side the service did not report stays
// zero.
func (c *Client) fromAPI(item *calendar.Event) (*schedule.RemoteEvent, error) {
	ev := &schedule.RemoteEvent{
		ID:          item.Id,
		Title:       item.Summary,
		Location:    item.Location,
		Description: item.Description,
	}

	start, startAllDay, err := c.parseDateTime(item.Start)
	if err != nil {
		return nil, err
	}
	end, endAllDay, err := c.parseDateTime(item.End)
	if err != nil {
		return nil, err
	}
	ev.Start, ev.End = start, end
	ev.AllDay = startAllDay || (start.IsZero() && endAllDay)

	if item.ExtendedProperties != nil && len(item.ExtendedProperties.Private) > 0 {
		ev.Properties = make(map[string]string, len(item.ExtendedProperties.Private))
		for k, v := range item.ExtendedProperties.Private {
			ev.Properties[k] = v
		}
	}

	if item.Updated != "" {
		t, err := time.Parse(time.RFC3339, item.Updated)
		if err != nil {
			return nil, errors.WrapParse("time", item.Updated, err)
		}
		ev.Updated = t
	}
	return ev, nil
}

func (c *Client) parseDateTime(dt *calendar.EventDateTime) (time.Time, bool, error) {
	switch {
	case dt == nil:
		return time.Time{}, false, nil
	case dt.DateTime != "":
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false, errors.WrapParse("time", dt.DateTime, err)
		}
		return t.In(c.loc), false, nil
	case dt.Date != "":
		d, err := civil.ParseDate(dt.Date)
		if err != nil {
			return time.Time{}, false, errors.WrapParse("date", dt.Date, err)
		}
		return d.In(c.loc), true, nil
	}
	return time.Time{}, false, nil
}

// toAPI converts ev into a request body. All-day events use dates; the
// opposite field is sent as null so that patching switches the kind.
func (c *Client) toAPI(ev *schedule.RemoteEvent) *calendar.Event {
	body := &calendar.Event{
		Summary:         ev.Title,
		Location:        ev.Location,
		Description:     ev.Description,
		Start:           c.formatDateTime(ev.Start, ev.AllDay),
		End:             c.formatDateTime(ev.End, ev.AllDay),
		ForceSendFields: []string{"Summary", "Location", "Description"},
	}
	if len(ev.Properties) > 0 {
		private := make(map[string]string, len(ev.Properties))
		for k, v := range ev.Properties {
			private[k] = v
		}
		body.ExtendedProperties = &calendar.EventExtendedProperties{Private: private}
	}
	return body
}

func (c *Client) formatDateTime(t time.Time, allDay bool) *calendar.EventDateTime {
	if allDay {
		return &calendar.EventDateTime{
			Date:       civil.DateOf(t).String(),
			NullFields: []string{"DateTime", "TimeZone"},
		}
	}
	dt := &calendar.EventDateTime{
		DateTime:   t.Format(time.RFC3339),
		NullFields: []string{"Date"},
	}
	if name := t.Location().String(); name != "Local" && name != "" {
		dt.TimeZone = name
	}
	return dt
}
