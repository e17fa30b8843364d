// Package gcal is the Google Calendar side of a sync.
//
// Events are read and written through the Calendar v3 API. The local record
// id and categories travel in the event's private extended properties, so
// other calendar clients neither see nor edit them.
package gcal

import (
	"context"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/logging"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

const serviceName = "google calendar"

// Client implements reconciler.RemoteStore and reconciler.Refresher for one
// Google calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	pageSize   int64
	loc        *time.Location
}

// New connects to the calendar service. Unless an HTTP client is supplied,
// credentials are discovered first and a missing credential is an
// AuthenticationError.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}

	var clientOpts []option.ClientOption
	if o.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.endpoint))
	}

	if o.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	} else {
		creds, err := detectCredentials(ctx, o)
		if err != nil {
			return nil, err
		}
		hc, err := newHTTPClient(creds, o)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithHTTPClient(hc))
	}

	svc, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, errors.NewAuthenticationError(serviceName, "client", "cannot create calendar service", err)
	}

	logging.FromContext(ctx).Debug().
		Str("calendar", o.calendarID).
		Int64("page_size", o.pageSize).
		Bool("proxy", o.proxy != nil).
		Msg("Connected to remote calendar")

	return &Client{
		svc:        svc,
		calendarID: o.calendarID,
		pageSize:   o.pageSize,
		loc:        o.location,
	}, nil
}

// CalendarID returns the calendar this client reads and writes.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// List returns the events starting in [start, end), expanding recurring
// remote events into their instances. Cancelled instances are omitted.
func (c *Client) List(ctx context.Context, start, end time.Time) ([]*schedule.RemoteEvent, error) {
	ctx = logging.WithOperation(ctx, "list")
	call := c.svc.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		ShowDeleted(false).
		MaxResults(c.pageSize)

	var out []*schedule.RemoteEvent
	pages := 0
	err := call.Pages(ctx, func(page *calendar.Events) error {
		pages++
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			ev, err := c.fromAPI(item)
			if err != nil {
				logging.FromContext(ctx).Warn().
					Err(err).
					Str("remote_id", item.Id).
					Msg("Skipping unreadable remote event")
				continue
			}
			// The service selects by end time; keep only events that start
			// inside the range.
			if !ev.Start.IsZero() && (ev.Start.Before(start) || !ev.Start.Before(end)) {
				continue
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, wrapAPI("list", "", err)
	}

	logging.FromContext(ctx).Debug().
		Int("events", len(out)).
		Int("pages", pages).
		Msg("Listed remote events")
	return out, nil
}

// Create returns a blank, unsaved event.
func (c *Client) Create() *schedule.RemoteEvent {
	return &schedule.RemoteEvent{Properties: make(map[string]string)}
}

// Save inserts ev when it is new and patches it otherwise. The service
// assigned id and updated time are written back to ev.
func (c *Client) Save(ctx context.Context, ev *schedule.RemoteEvent) error {
	body := c.toAPI(ev)

	var (
		saved *calendar.Event
		err   error
	)
	if ev.IsNew() {
		saved, err = c.svc.Events.Insert(c.calendarID, body).Context(ctx).Do()
		if err != nil {
			return wrapAPI("insert", "", err)
		}
	} else {
		saved, err = c.svc.Events.Patch(c.calendarID, ev.ID, body).Context(ctx).Do()
		if err != nil {
			return wrapAPI("patch", ev.ID, err)
		}
	}

	ev.ID = saved.Id
	if t, err := time.Parse(time.RFC3339, saved.Updated); err == nil {
		ev.Updated = t
	}
	return nil
}

// Delete removes ev. An event the service reports as already gone counts as
// deleted.
func (c *Client) Delete(ctx context.Context, ev *schedule.RemoteEvent) error {
	ctx = logging.WithOperation(ctx, "delete")
	err := c.svc.Events.Delete(c.calendarID, ev.ID).Context(ctx).Do()
	if err != nil {
		werr := wrapAPI("delete", ev.ID, err)
		if errors.Is(werr, errors.ErrGone) {
			logging.FromContext(ctx).Debug().Str("remote_id", ev.ID).Msg("Remote event already deleted")
			return nil
		}
		return werr
	}
	return nil
}

// Refresh re-reads ev from the service.
func (c *Client) Refresh(ctx context.Context, ev *schedule.RemoteEvent) (*schedule.RemoteEvent, error) {
	got, err := c.svc.Events.Get(c.calendarID, ev.ID).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPI("get", ev.ID, err)
	}
	return c.fromAPI(got)
}
