package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

var (
	_ reconciler.LocalStore = (*Store)(nil)
	_ reconciler.ChangeLog  = (*Store)(nil)
)

type tick struct{ t time.Time }

func (c *tick) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func openTest(t *testing.T) (*Store, *tick) {
	t.Helper()
	clk := &tick{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "sub", "schedule.db"), WithClock(clk.now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, clk
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func hm(h, m int) *schedule.TimeOfDay {
	return &schedule.TimeOfDay{Hour: h, Minute: m}
}

func window(t *testing.T, from, to civil.Date, filter string) schedule.Window {
	t.Helper()
	w, err := schedule.NewWindow(from, to, schedule.ParseCategoryFilter(filter))
	require.NoError(t, err)
	return w
}

func TestOpenCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.db")

	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")

	// Reopening an existing database keeps its schema.
	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()
}

func TestAddLogsCreated(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	ev := &schedule.LocalEvent{
		Subject:    "Dentist",
		Location:   "Clinic",
		Categories: []string{"Private"},
		Date:       date(2024, 3, 5),
		Time:       &schedule.TimeRange{Start: hm(10, 0), End: hm(11, 30)},
	}
	id, err := s.Add(ctx, ev)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, ev.RecordID)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dentist", got.Subject)
	assert.Equal(t, "Clinic", got.Location)
	assert.Equal(t, []string{"private"}, got.Categories)
	assert.Equal(t, "10:00-11:30", got.Time.String())

	entries, err := s.Entries(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].RecordID)
	assert.Equal(t, schedule.StatusCreated, entries[0].Status)
}

func TestAppendDoesNotLog(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	id, err := s.Append(ctx, &schedule.LocalEvent{Subject: "Imported", Date: date(2024, 3, 5)})
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.AllDay())

	entries, err := s.Entries(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdateAndDelete(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	ev := &schedule.LocalEvent{Subject: "Lunch", Date: date(2024, 3, 5)}
	id, err := s.Add(ctx, ev)
	require.NoError(t, err)

	ev.Subject = "Late lunch"
	ev.Time = &schedule.TimeRange{Start: hm(13, 0)}
	require.NoError(t, s.Update(ctx, ev))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Late lunch", got.Subject)
	require.NotNil(t, got.Time)
	assert.Nil(t, got.Time.End)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.True(t, errors.IsNotFound(err))

	history, err := s.History(ctx, id)
	require.NoError(t, err)
	var statuses []schedule.Status
	for _, e := range history {
		statuses = append(statuses, e.Status)
	}
	assert.Equal(t, []schedule.Status{schedule.StatusCreated, schedule.StatusUpdated, schedule.StatusDeleted}, statuses)
	assert.True(t, history[0].MTime.Before(history[2].MTime))
}

func TestUpdateDeleteMissing(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	err := s.Update(ctx, &schedule.LocalEvent{RecordID: "nope", Date: date(2024, 3, 5)})
	assert.True(t, errors.IsNotFound(err))

	err = s.Delete(ctx, "nope")
	assert.True(t, errors.IsNotFound(err))

	entries, err := s.Entries(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries, "failed mutations must not be logged")
}

func TestAddValidation(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		ev   *schedule.LocalEvent
	}{
		{name: "nil", ev: nil},
		{name: "zero date", ev: &schedule.LocalEvent{Subject: "x"}},
		{name: "bad rule", ev: &schedule.LocalEvent{Subject: "x", Date: date(2024, 3, 5), Recurrence: "FREQ=SOMETIMES"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(ctx, tt.ev)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestEntriesSince(t *testing.T) {
	s, clk := openTest(t)
	ctx := context.Background()

	_, err := s.Add(ctx, &schedule.LocalEvent{Subject: "old", Date: date(2024, 3, 5)})
	require.NoError(t, err)
	cut := clk.t.Add(time.Second)
	id, err := s.Add(ctx, &schedule.LocalEvent{Subject: "new", Date: date(2024, 3, 6)})
	require.NoError(t, err)

	entries, err := s.Entries(ctx, cut)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].RecordID)
}

func TestSearch(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	add := func(ev *schedule.LocalEvent) string {
		id, err := s.Add(ctx, ev)
		require.NoError(t, err)
		return id
	}
	late := add(&schedule.LocalEvent{Subject: "late", Date: date(2024, 3, 5), Time: &schedule.TimeRange{Start: hm(18, 0)}})
	early := add(&schedule.LocalEvent{Subject: "early", Date: date(2024, 3, 5), Time: &schedule.TimeRange{Start: hm(9, 0)}})
	allDay := add(&schedule.LocalEvent{Subject: "all day", Date: date(2024, 3, 5)})
	add(&schedule.LocalEvent{Subject: "holiday", Categories: []string{"holiday"}, Date: date(2024, 3, 6)})
	add(&schedule.LocalEvent{Subject: "outside", Date: date(2024, 4, 1)})
	weekly := add(&schedule.LocalEvent{Subject: "standup", Date: date(2024, 2, 26), Recurrence: "RRULE:FREQ=WEEKLY;COUNT=3"})

	got, err := s.Search(ctx, window(t, date(2024, 3, 1), date(2024, 3, 31), "!holiday"))
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, date(2024, 3, 4), got[0].Date)
	assert.Equal(t, date(2024, 3, 5), got[1].Date)
	assert.Equal(t, date(2024, 3, 11), got[2].Date)

	var ids []string
	for _, ev := range got[1].Events {
		ids = append(ids, ev.RecordID)
	}
	assert.Equal(t, []string{allDay, early, late}, ids)

	// Each occurrence carries its own date and the shared record id.
	assert.Equal(t, weekly, got[0].Events[0].RecordID)
	assert.Equal(t, date(2024, 3, 4), got[0].Events[0].Date)
	assert.Equal(t, weekly, got[2].Events[0].RecordID)
	assert.Equal(t, date(2024, 3, 11), got[2].Events[0].Date)
}

func TestSearchIncludeFilter(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	_, err := s.Add(ctx, &schedule.LocalEvent{Subject: "work", Categories: []string{"work"}, Date: date(2024, 3, 5)})
	require.NoError(t, err)
	_, err = s.Add(ctx, &schedule.LocalEvent{Subject: "home", Categories: []string{"home"}, Date: date(2024, 3, 5)})
	require.NoError(t, err)

	got, err := s.Search(ctx, window(t, date(2024, 3, 5), date(2024, 3, 5), "work"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Events, 1)
	assert.Equal(t, "work", got[0].Events[0].Subject)
}

func TestExpand(t *testing.T) {
	w := window(t, date(2024, 1, 1), date(2024, 1, 31), "")

	dates, err := expand("FREQ=DAILY", date(2024, 1, 30), w, 100)
	require.NoError(t, err)
	assert.Equal(t, []civil.Date{date(2024, 1, 30), date(2024, 1, 31)}, dates)

	dates, err = expand("FREQ=DAILY", date(2023, 1, 1), w, 5)
	require.NoError(t, err)
	assert.Len(t, dates, 5)

	_, err = expand("NOT A RULE", date(2024, 1, 1), w, 5)
	assert.Error(t, err)
}
