package output

import (
	"io"
	"time"

	"github.com/agentstation/mhcgcal/internal/auth"
	"github.com/agentstation/mhcgcal/internal/cmd/table"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// FormatEvents writes local occurrences.
func FormatEvents(w io.Writer, format Format, days []schedule.DatedEvents) error {
	if format.IsTable() {
		return NewFormatter(format).Format(w, table.EventsToTableData(days, format == FormatWide))
	}
	return NewFormatter(format).Format(w, eventViews(days))
}

// FormatRemoteEvents writes remote events.
func FormatRemoteEvents(w io.Writer, format Format, events []*schedule.RemoteEvent) error {
	if format.IsTable() {
		return NewFormatter(format).Format(w, table.RemoteEventsToTableData(events, format == FormatWide))
	}
	return NewFormatter(format).Format(w, remoteViews(events))
}

// FormatResult writes a sync report: the actions taken followed by the
// counts as tables, or one document for json and yaml.
func FormatResult(w io.Writer, format Format, r *reconciler.Result) error {
	if format.IsTable() {
		f := NewFormatter(format)
		actions := table.ActionsToTableData(r.Actions, format == FormatWide)
		if len(actions.Rows) > 0 {
			if err := f.Format(w, actions); err != nil {
				return err
			}
		}
		return f.Format(w, table.CountsToTableData(r.Counts()))
	}
	return NewFormatter(format).Format(w, newReport(r))
}

// FormatHistory writes change-log entries.
func FormatHistory(w io.Writer, format Format, entries []schedule.ChangeLogEntry) error {
	if format.IsTable() {
		return NewFormatter(format).Format(w, table.HistoryToTableData(entries))
	}
	views := make([]historyView, 0, len(entries))
	for _, e := range entries {
		views = append(views, historyView{RecordID: e.RecordID, Status: string(e.Status), Time: e.MTime})
	}
	return NewFormatter(format).Format(w, views)
}

// FormatAuthStatus writes the credential status.
func FormatAuthStatus(w io.Writer, format Format, st *auth.Status) error {
	if format.IsTable() {
		return NewFormatter(format).Format(w, table.AuthStatusToTableData(st))
	}
	return NewFormatter(format).Format(w, st)
}

// FormatAny writes data in the given format.
func FormatAny(w io.Writer, format Format, data any) error {
	return NewFormatter(format).Format(w, data)
}

// report is the serialized form of a sync result.
type report struct {
	RunID    string                    `json:"run_id" yaml:"run_id"`
	From     string                    `json:"from" yaml:"from"`
	To       string                    `json:"to" yaml:"to"`
	Category string                    `json:"category,omitempty" yaml:"category,omitempty"`
	Summary  string                    `json:"summary" yaml:"summary"`
	Counts   reconciler.Counts         `json:"counts" yaml:"counts"`
	Actions  []reconciler.Action       `json:"actions" yaml:"actions"`
	Failures []string                  `json:"failures" yaml:"failures"`
	Metadata reconciler.ResultMetadata `json:"metadata" yaml:"metadata"`
}

func newReport(r *reconciler.Result) report {
	failures := make([]string, 0, len(r.Failures))
	for _, err := range r.Failures {
		failures = append(failures, err.Error())
	}
	return report{
		RunID:    r.RunID,
		From:     r.Window.From.String(),
		To:       r.Window.To.String(),
		Category: r.Window.Filter.String(),
		Summary:  r.Summary(),
		Counts:   r.Counts(),
		Actions:  r.Actions,
		Failures: failures,
		Metadata: r.Metadata,
	}
}

type eventView struct {
	RecordID    string   `json:"record_id" yaml:"record_id"`
	Date        string   `json:"date" yaml:"date"`
	Time        string   `json:"time,omitempty" yaml:"time,omitempty"`
	Subject     string   `json:"subject" yaml:"subject"`
	Location    string   `json:"location,omitempty" yaml:"location,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Categories  []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Recurrence  string   `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
}

func eventViews(days []schedule.DatedEvents) []eventView {
	out := []eventView{}
	for _, day := range days {
		for _, ev := range day.Events {
			v := eventView{
				RecordID:    ev.RecordID,
				Date:        day.Date.String(),
				Subject:     ev.Subject,
				Location:    ev.Location,
				Description: ev.Description,
				Categories:  ev.Categories,
				Recurrence:  ev.Recurrence,
			}
			if ev.Time != nil {
				v.Time = ev.Time.String()
			}
			out = append(out, v)
		}
	}
	return out
}

type historyView struct {
	RecordID string    `json:"record_id" yaml:"record_id"`
	Status   string    `json:"status" yaml:"status"`
	Time     time.Time `json:"time" yaml:"time"`
}

type remoteView struct {
	ID         string            `json:"id" yaml:"id"`
	Title      string            `json:"title" yaml:"title"`
	Location   string            `json:"location,omitempty" yaml:"location,omitempty"`
	Start      time.Time         `json:"start" yaml:"start"`
	End        time.Time         `json:"end" yaml:"end"`
	AllDay     bool              `json:"all_day" yaml:"all_day"`
	Updated    time.Time         `json:"updated" yaml:"updated"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

func remoteViews(events []*schedule.RemoteEvent) []remoteView {
	out := make([]remoteView, 0, len(events))
	for _, ev := range events {
		out = append(out, remoteView{
			ID:         ev.ID,
			Title:      ev.Title,
			Location:   ev.Location,
			Start:      ev.Start,
			End:        ev.End,
			AllDay:     ev.AllDay,
			Updated:    ev.Updated,
			Properties: ev.Properties,
		})
	}
	return out
}
