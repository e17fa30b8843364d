// Package table converts schedule data into rows for table output.
package table

import (
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/mhcgcal/internal/auth"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

const none = "-"

func orNone(s string) string {
	if s == "" {
		return none
	}
	return s
}

// EventsToTableData converts local occurrences to table format.
func EventsToTableData(days []schedule.DatedEvents, wide bool) Data {
	headers := []string{"Date", "Time", "Subject", "Location", "Category"}
	if wide {
		headers = append(headers, "Record ID", "Recurrence")
	}

	var rows [][]string
	for _, day := range days {
		for _, ev := range day.Events {
			when := "all day"
			if ev.Time != nil {
				when = ev.Time.String()
			}
			row := []string{
				day.Date.String(),
				when,
				ev.Subject,
				orNone(ev.Location),
				orNone(ev.CategoryString()),
			}
			if wide {
				row = append(row, ev.RecordID, orNone(ev.Recurrence))
			}
			rows = append(rows, row)
		}
	}
	return Data{Headers: headers, Rows: rows}
}

// RemoteEventsToTableData converts remote events to table format.
func RemoteEventsToTableData(events []*schedule.RemoteEvent, wide bool) Data {
	headers := []string{"Start", "End", "Title", "Location", "Tracked"}
	if wide {
		headers = append(headers, "Remote ID", "Record ID", "Updated")
	}

	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		layout := "2006-01-02 15:04"
		if ev.AllDay {
			layout = "2006-01-02"
		}
		tracked := "no"
		if ev.Tracked() {
			tracked = "yes"
		}
		row := []string{
			formatTime(ev.Start, layout),
			formatTime(ev.End, layout),
			ev.Title,
			orNone(ev.Location),
			tracked,
		}
		if wide {
			id, _ := ev.RecordID()
			row = append(row, ev.ID, orNone(id), formatTime(ev.Updated, time.RFC3339))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// ActionsToTableData converts sync actions to table format. Skips are left
// out unless wide is set.
func ActionsToTableData(actions []reconciler.Action, wide bool) Data {
	headers := []string{"Phase", "Action", "Date", "Title"}
	if wide {
		headers = append(headers, "Record ID", "Remote ID", "Reason")
	}

	var rows [][]string
	for _, a := range actions {
		if a.Kind == reconciler.ActionSkip && !wide {
			continue
		}
		date := none
		if a.Date.IsValid() {
			date = a.Date.String()
		}
		row := []string{string(a.Phase), string(a.Kind), date, orNone(a.Title)}
		if wide {
			row = append(row, orNone(a.RecordID), orNone(a.RemoteID), orNone(a.Reason))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// CountsToTableData converts run counts to a two-column table.
func CountsToTableData(c reconciler.Counts) Data {
	return Data{
		Headers: []string{"Action", "Count"},
		Rows: [][]string{
			{"deleted", strconv.Itoa(c.Deleted)},
			{"created", strconv.Itoa(c.Created)},
			{"updated", strconv.Itoa(c.Updated)},
			{"imported", strconv.Itoa(c.Imported)},
			{"skipped", strconv.Itoa(c.Skipped)},
			{"failed", strconv.Itoa(c.Failed)},
		},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// HistoryToTableData converts change-log entries to table format.
func HistoryToTableData(entries []schedule.ChangeLogEntry) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{formatTime(e.MTime, time.RFC3339), string(e.Status), e.RecordID})
	}
	return Data{Headers: []string{"Time", "Status", "Record ID"}, Rows: rows}
}

// AuthStatusToTableData converts an auth status to a key-value table.
func AuthStatusToTableData(st *auth.Status) Data {
	rows := [][]string{
		{"State", st.State.String()},
		{"Calendar", st.CalendarID},
		{"Summary", orNone(st.Summary)},
	}
	if d := st.Google; d != nil {
		rows = append(rows,
			[]string{"Source", orNone(d.Source)},
			[]string{"Path", orNone(d.Path)},
			[]string{"Type", orNone(d.Type)},
			[]string{"Account", orNone(d.Account)},
			[]string{"Project", orNone(strings.TrimSpace(d.Project + " (" + d.ProjectSource + ")"))},
		)
		if !d.LastAuth.IsZero() {
			rows = append(rows, []string{"Last Auth", d.LastAuth.Format(time.RFC3339)})
		}
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return none
	}
	return t.Format(layout)
}
