package store

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/logging"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

const eventColumns = `record_id, subject, location, description, categories, day, start_time, end_time, rrule`

// Add stores a new item and logs it as created. A record id is assigned when
// ev has none. The assigned id is returned and written back to ev.
func (s *Store) Add(ctx context.Context, ev *schedule.LocalEvent) (string, error) {
	return s.insert(ctx, ev, true)
}

// Append stores an item without writing a change-log entry. The sync engine
// uses it for events imported from the remote calendar, which must not be
// pushed back on the next run.
func (s *Store) Append(ctx context.Context, ev *schedule.LocalEvent) (string, error) {
	return s.insert(ctx, ev, false)
}

func (s *Store) insert(ctx context.Context, ev *schedule.LocalEvent, logged bool) (string, error) {
	if err := validate(ev); err != nil {
		return "", err
	}
	if ev.RecordID == "" {
		ev.RecordID = schedule.NewRecordID()
	}

	now := s.now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := toRow(ev)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (`+eventColumns+`, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.recordID, row.subject, row.location, row.description, row.categories,
			row.day, row.startTime, row.endTime, row.rrule, now.UnixNano(), now.UnixNano())
		if err != nil {
			return err
		}
		if logged {
			return logChange(ctx, tx, ev.RecordID, schedule.StatusCreated, now)
		}
		return nil
	})
	if err != nil {
		return "", errors.WrapResource("insert", "local event", ev.RecordID, err)
	}

	logging.FromContext(ctx).Debug().
		Str("record_id", ev.RecordID).
		Bool("logged", logged).
		Msg("Stored local event")
	return ev.RecordID, nil
}

// Update replaces the stored item with the same record id and logs it as
// updated.
func (s *Store) Update(ctx context.Context, ev *schedule.LocalEvent) error {
	if err := validate(ev); err != nil {
		return err
	}
	if ev.RecordID == "" {
		return errors.NewValidationError("record_id", "", "record id is required")
	}

	now := s.now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := toRow(ev)
		res, err := tx.ExecContext(ctx, `
			UPDATE events SET
				subject = ?, location = ?, description = ?, categories = ?,
				day = ?, start_time = ?, end_time = ?, rrule = ?, updated_at = ?
			WHERE record_id = ?`,
			row.subject, row.location, row.description, row.categories,
			row.day, row.startTime, row.endTime, row.rrule, now.UnixNano(), row.recordID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NewNotFoundError("local event", ev.RecordID)
		}
		return logChange(ctx, tx, ev.RecordID, schedule.StatusUpdated, now)
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return errors.WrapResource("update", "local event", ev.RecordID, err)
	}
	return nil
}

// Delete removes the item with recordID and logs it as deleted.
func (s *Store) Delete(ctx context.Context, recordID string) error {
	now := s.now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE record_id = ?`, recordID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NewNotFoundError("local event", recordID)
		}
		return logChange(ctx, tx, recordID, schedule.StatusDeleted, now)
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return errors.WrapResource("delete", "local event", recordID, err)
	}
	return nil
}

// Get returns the stored item with recordID. For a recurring item the date is
// that of the first occurrence.
func (s *Store) Get(ctx context.Context, recordID string) (*schedule.LocalEvent, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE record_id = ?`, recordID)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("local event", recordID)
	}
	if err != nil {
		return nil, errors.WrapResource("get", "local event", recordID, err)
	}
	return ev, nil
}

// Search returns the occurrences within the window that pass its category
// filter, grouped by date in ascending order. Dates without occurrences are
// omitted. Within a date, all-day events come first, then by start time.
func (s *Store) Search(ctx context.Context, w schedule.Window) ([]schedule.DatedEvents, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE (rrule = '' AND day >= ? AND day <= ?)
		   OR (rrule != '' AND day <= ?)
		ORDER BY day, record_id`,
		w.From.String(), w.To.String(), w.To.String())
	if err != nil {
		return nil, errors.WrapResource("search", "local event", "", err)
	}
	defer func() { _ = rows.Close() }()

	byDate := make(map[civil.Date][]*schedule.LocalEvent)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, errors.WrapResource("search", "local event", "", err)
		}
		if !w.Filter.Match(ev.Categories) {
			continue
		}
		if ev.Recurrence == "" {
			byDate[ev.Date] = append(byDate[ev.Date], ev)
			continue
		}
		dates, err := expand(ev.Recurrence, ev.Date, w, s.maxOccurrences)
		if err != nil {
			// One malformed rule must not hide the rest of the schedule.
			logging.FromContext(ctx).Warn().
				Err(err).
				Str("record_id", ev.RecordID).
				Msg("Skipping item with invalid recurrence")
			continue
		}
		for _, d := range dates {
			occ := *ev
			occ.Date = d
			byDate[d] = append(byDate[d], &occ)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("search", "local event", "", err)
	}

	out := make([]schedule.DatedEvents, 0, len(byDate))
	for d, evs := range byDate {
		slices.SortStableFunc(evs, compareEvents)
		out = append(out, schedule.DatedEvents{Date: d, Events: evs})
	}
	slices.SortFunc(out, func(a, b schedule.DatedEvents) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
		return 0
	})
	return out, nil
}

func compareEvents(a, b *schedule.LocalEvent) int {
	ka, kb := startKey(a), startKey(b)
	if ka != kb {
		return ka - kb
	}
	return strings.Compare(a.RecordID, b.RecordID)
}

// startKey orders all-day events first, then open-start events, then by
// minutes past midnight.
func startKey(ev *schedule.LocalEvent) int {
	switch {
	case ev.AllDay():
		return -2
	case ev.Time.Start == nil:
		return -1
	}
	return ev.Time.Start.Hour*60 + ev.Time.Start.Minute
}

func validate(ev *schedule.LocalEvent) error {
	if ev == nil {
		return errors.NewValidationError("event", nil, "event is required")
	}
	if !ev.Date.IsValid() {
		return errors.NewValidationError("date", ev.Date, "invalid date")
	}
	if ev.Recurrence != "" {
		if _, err := parseRule(ev.Recurrence, ev.Date); err != nil {
			return err
		}
	}
	return nil
}

type eventRow struct {
	recordID    string
	subject     string
	location    string
	description string
	categories  string
	day         string
	startTime   sql.NullString
	endTime     sql.NullString
	rrule       string
}

func toRow(ev *schedule.LocalEvent) eventRow {
	r := eventRow{
		recordID:    ev.RecordID,
		subject:     ev.Subject,
		location:    ev.Location,
		description: ev.Description,
		categories:  strings.Join(schedule.ParseCategories(ev.CategoryString()), " "),
		day:         ev.Date.String(),
		rrule:       normalizeRule(ev.Recurrence),
	}
	if ev.Time != nil {
		if ev.Time.Start != nil {
			r.startTime = sql.NullString{String: ev.Time.Start.String(), Valid: true}
		}
		if ev.Time.End != nil {
			r.endTime = sql.NullString{String: ev.Time.End.String(), Valid: true}
		}
	}
	return r
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (*schedule.LocalEvent, error) {
	var r eventRow
	if err := sc.Scan(&r.recordID, &r.subject, &r.location, &r.description, &r.categories,
		&r.day, &r.startTime, &r.endTime, &r.rrule); err != nil {
		return nil, err
	}

	day, err := civil.ParseDate(r.day)
	if err != nil {
		return nil, errors.WrapParse("date", r.day, err)
	}
	ev := &schedule.LocalEvent{
		RecordID:    r.recordID,
		Categories:  schedule.ParseCategories(r.categories),
		Subject:     r.subject,
		Location:    r.location,
		Description: r.description,
		Date:        day,
		Recurrence:  r.rrule,
	}
	if r.startTime.Valid || r.endTime.Valid {
		tr := &schedule.TimeRange{}
		if r.startTime.Valid {
			t, err := schedule.ParseTimeOfDay(r.startTime.String)
			if err != nil {
				return nil, err
			}
			tr.Start = &t
		}
		if r.endTime.Valid {
			t, err := schedule.ParseTimeOfDay(r.endTime.String)
			if err != nil {
				return nil, err
			}
			tr.End = &t
		}
		ev.Time = tr
	}
	return ev, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func logChange(ctx context.Context, tx *sql.Tx, recordID string, status schedule.Status, mtime time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO change_log (record_id, status, mtime) VALUES (?, ?, ?)`,
		recordID, string(status), mtime.UnixNano())
	return err
}
