package reconciler_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/logging"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

func TestNewValidation(t *testing.T) {
	f := newFixture(t)

	_, err := reconciler.New(nil, f.log, f.remote, f.mapper)
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = reconciler.New(f.local, f.log, f.remote, nil)
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = reconciler.New(f.local, f.log, f.remote, f.mapper, reconciler.WithLogWindowMonths(0))
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = reconciler.New(f.local, f.log, f.remote, f.mapper, reconciler.WithClock(nil))
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestPushCreatesNewEvent(t *testing.T) {
	f := newFixture(t)
	f.addLogged(&schedule.LocalEvent{
		RecordID:   "R1",
		Categories: []string{"work"},
		Subject:    "Standup",
		Date:       day(1),
		Time:       schedule.NewTimeRange(*at(9, 0), at(9, 30)),
	})

	result := f.run(t)

	require.Len(t, result.ActionsOf(reconciler.ActionCreate), 1)
	events := f.remote.all()
	require.Len(t, events, 1)

	gev := events[0]
	assert.Equal(t, "Standup", gev.Title)
	assert.True(t, gev.Start.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, gev.End.Equal(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
	assert.False(t, gev.AllDay)
	assert.Equal(t, map[string]string{"MHC-Record-Id": "R1", "MHC-Category": "work"}, gev.Properties)
}

func TestPushCreatesEventWithoutLogEntry(t *testing.T) {
	f := newFixture(t)
	f.local.add(&schedule.LocalEvent{RecordID: "R1", Subject: "Old", Date: day(2)})

	result := f.run(t)

	assert.Equal(t, 1, result.Counts().Created)
	assert.Len(t, f.remote.all(), 1)
}

func TestPushSecretEvent(t *testing.T) {
	f := newFixture(t)
	f.addLogged(&schedule.LocalEvent{
		RecordID:   "R1",
		Categories: []string{"private"},
		Subject:    "Standup",
		Location:   "Room 1",
		Date:       day(1),
		Time:       schedule.NewTimeRange(*at(9, 0), at(9, 30)),
	})

	f.run(t)

	events := f.remote.all()
	require.Len(t, events, 1)
	assert.Equal(t, "SECRET", events[0].Title)
	assert.Empty(t, events[0].Location)
}

func TestPushUpdatesWhenLocalIsNewer(t *testing.T) {
	f := newFixture(t)
	mev := f.addLogged(&schedule.LocalEvent{RecordID: "R1", Subject: "Draft", Date: day(5)})
	f.run(t)

	mev.Subject = "Final"
	f.log.log("R1", schedule.StatusUpdated, f.clock.Advance(time.Minute))

	result := f.run(t)

	assert.Equal(t, 1, result.Counts().Updated)
	events := f.remote.all()
	require.Len(t, events, 1)
	assert.Equal(t, "Final", events[0].Title)
}

func TestPushNoEcho(t *testing.T) {
	t.Run("remote copy newer than last log entry", func(t *testing.T) {
		f := newFixture(t)
		f.log.log("R1", schedule.StatusUpdated, f.clock.Advance(time.Second))
		f.local.add(&schedule.LocalEvent{RecordID: "R1", Subject: "Local", Date: day(5)})
		f.clock.Advance(time.Minute)
		f.remote.put(&schedule.RemoteEvent{
			Title:      "Edited remotely",
			Start:      day(5).In(time.UTC),
			End:        day(6).In(time.UTC),
			AllDay:     true,
			Properties: map[string]string{"MHC-Record-Id": "R1"},
		})

		result := f.run(t)

		assert.Zero(t, f.remote.saves)
		assert.Equal(t, "Edited remotely", f.remote.all()[0].Title)
		skips := result.ActionsOf(reconciler.ActionSkip)
		require.Len(t, skips, 1)
		assert.Equal(t, "remote copy is current", skips[0].Reason)
	})

	t.Run("equal timestamps do not push", func(t *testing.T) {
		f := newFixture(t)
		mtime := f.clock.Advance(time.Second)
		f.log.log("R1", schedule.StatusUpdated, mtime)
		f.local.add(&schedule.LocalEvent{RecordID: "R1", Subject: "Local", Date: day(5)})
		f.remote.put(&schedule.RemoteEvent{
			Start:      day(5).In(time.UTC),
			Updated:    mtime,
			Properties: map[string]string{"MHC-Record-Id": "R1"},
		})

		f.run(t)
		assert.Zero(t, f.remote.saves)
	})

	// Edits made without a change-log entry are never pushed.
	t.Run("unlogged local edit is not pushed", func(t *testing.T) {
		f := newFixture(t)
		f.local.add(&schedule.LocalEvent{RecordID: "R1", Subject: "Edited by hand", Date: day(5)})
		f.remote.put(&schedule.RemoteEvent{
			Title:      "Original",
			Start:      day(5).In(time.UTC),
			Properties: map[string]string{"MHC-Record-Id": "R1"},
		})

		result := f.run(t)

		assert.Zero(t, f.remote.saves)
		skips := result.ActionsOf(reconciler.ActionSkip)
		require.Len(t, skips, 1)
		assert.Equal(t, "no change-log entry in window", skips[0].Reason)
	})
}

func TestDeletionWindow(t *testing.T) {
	tests := []struct {
		name       string
		age        time.Duration
		wantDelete bool
	}{
		{"six months ago is outside the window", 6 * 30 * 24 * time.Hour, false},
		{"two months ago is inside the window", 2 * 30 * 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.remote.put(&schedule.RemoteEvent{
				Title:      "Gone locally",
				Start:      day(10).In(time.UTC),
				Properties: map[string]string{"MHC-Record-Id": "R1"},
			})
			f.log.log("R1", schedule.StatusDeleted, f.clock.Now().Add(-tt.age))

			result := f.run(t)

			if tt.wantDelete {
				assert.Equal(t, 1, result.Counts().Deleted)
				assert.Empty(t, f.remote.all())
			} else {
				assert.Zero(t, result.Counts().Deleted)
				assert.Len(t, f.remote.all(), 1)
			}
		})
	}
}

func TestDeletionRemovesEveryOccurrenceOnce(t *testing.T) {
	f := newFixture(t)
	for _, d := range []int{3, 10, 17} {
		f.remote.put(&schedule.RemoteEvent{
			Title:      "Weekly",
			Start:      day(d).In(time.UTC),
			Properties: map[string]string{"MHC-Record-Id": "R1"},
		})
	}
	f.log.log("R1", schedule.StatusDeleted, f.clock.Advance(time.Second))
	f.log.log("R1", schedule.StatusDeleted, f.clock.Advance(time.Second))
	f.log.log("R2", schedule.StatusDeleted, f.clock.Advance(time.Second))

	result := f.run(t)

	assert.Equal(t, 3, f.remote.deletes)
	assert.Equal(t, 3, result.Counts().Deleted)
	assert.Empty(t, f.remote.all())
}

func TestImportUntrackedEvent(t *testing.T) {
	f := newFixture(t)
	f.remote.put(&schedule.RemoteEvent{
		Title:      "Dentist [Main St]",
		Location:   "Main St",
		Start:      time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC),
		Properties: map[string]string{},
	})

	result := f.run(t)

	require.Equal(t, 1, result.Counts().Imported)
	require.Len(t, f.local.appended, 1)
	mev := f.local.appended[0]
	assert.Equal(t, "Dentist", mev.Subject)
	assert.Equal(t, "Main St", mev.Location)
	assert.Equal(t, day(12), mev.Date)

	gev := f.remote.all()[0]
	id, ok := gev.RecordID()
	require.True(t, ok)
	assert.Equal(t, mev.RecordID, id)
}

func TestIdempotence(t *testing.T) {
	f := newFixture(t)
	f.addLogged(&schedule.LocalEvent{RecordID: "R1", Categories: []string{"work"}, Subject: "Standup", Date: day(1), Time: schedule.NewTimeRange(*at(9, 0), at(9, 30))})
	f.addLogged(&schedule.LocalEvent{RecordID: "R2", Subject: "Trip", Date: day(20)})
	f.remote.put(&schedule.RemoteEvent{Title: "From phone", Start: day(8).In(time.UTC), End: day(9).In(time.UTC), AllDay: true})
	f.remote.put(&schedule.RemoteEvent{Title: "Deleted", Start: day(9).In(time.UTC), Properties: map[string]string{"MHC-Record-Id": "R9"}})
	f.log.log("R9", schedule.StatusDeleted, f.clock.Advance(time.Second))

	first := f.run(t)
	require.True(t, first.HasChanges())
	require.True(t, first.IsSuccess())

	saves, deletes, appended := f.remote.saves, f.remote.deletes, len(f.local.appended)

	second := f.run(t)

	assert.Zero(t, second.Counts().Mutations(), second.Summary())
	assert.False(t, second.HasChanges())
	assert.Equal(t, saves, f.remote.saves)
	assert.Equal(t, deletes, f.remote.deletes)
	assert.Equal(t, appended, len(f.local.appended))
}

func TestRoundTripDoesNotDuplicate(t *testing.T) {
	f := newFixture(t)
	f.addLogged(&schedule.LocalEvent{RecordID: "R1", Subject: "Review", Location: "Room 4", Date: day(7)})

	f.run(t)
	second := f.run(t)

	assert.Empty(t, f.local.appended)
	assert.Zero(t, second.Counts().Imported)
	assert.Len(t, f.local.events, 1)
}

func TestRecurringOccurrences(t *testing.T) {
	f := newFixture(t)
	f.log.log("R1", schedule.StatusCreated, f.clock.Advance(time.Second))
	for _, d := range []int{4, 11} {
		f.local.add(&schedule.LocalEvent{RecordID: "R1", Subject: "Weekly", Date: day(d), Recurrence: "FREQ=WEEKLY"})
	}

	first := f.run(t)
	assert.Equal(t, 2, first.Counts().Created)
	require.Len(t, f.remote.all(), 2)

	second := f.run(t)
	assert.Zero(t, second.Counts().Mutations())
	assert.Equal(t, 2, second.Counts().Skipped)

	// An edit updates each occurrence on its own date.
	f.local.events[0].Subject = "Weekly sync"
	f.local.events[1].Subject = "Weekly sync"
	f.log.log("R1", schedule.StatusUpdated, f.clock.Advance(time.Minute))

	third := f.run(t)
	assert.Equal(t, 2, third.Counts().Updated)
	starts := map[string]bool{}
	for _, ev := range f.remote.all() {
		assert.Equal(t, "Weekly sync", ev.Title)
		starts[ev.Start.Format("2006-01-02")] = true
	}
	assert.Equal(t, map[string]bool{"2024-03-04": true, "2024-03-11": true}, starts)
}

func TestPerRecordFailuresDoNotAbort(t *testing.T) {
	f := newFixture(t)
	f.addLogged(&schedule.LocalEvent{RecordID: "R1", Subject: "Fails", Date: day(1)})
	f.addLogged(&schedule.LocalEvent{RecordID: "R2", Subject: "Works", Date: day(2)})
	f.remote.saveErr["R1"] = pkgerrors.NewAPIError("google calendar", 503, "backend error")

	gone := f.remote.put(&schedule.RemoteEvent{Start: day(3).In(time.UTC), Properties: map[string]string{"MHC-Record-Id": "R3"}})
	f.remote.deleteErr[gone.ID] = errors.New("connection reset")
	f.log.log("R3", schedule.StatusDeleted, f.clock.Advance(time.Second))

	captured := logging.CaptureLoggingForTest(t)
	result := f.run(t)

	assert.False(t, result.IsSuccess())
	require.Len(t, result.Failures, 2)
	assert.Equal(t, 1, result.Counts().Created)

	var syncErr *pkgerrors.SyncError
	require.ErrorAs(t, result.Failures[0], &syncErr)
	assert.Equal(t, "delete", syncErr.Phase)
	require.ErrorAs(t, result.Failures[1], &syncErr)
	assert.Equal(t, "push", syncErr.Phase)
	assert.Equal(t, "R1", syncErr.RecordID)
	assert.True(t, pkgerrors.IsRemoteUnavailable(result.Failures[1]))

	assert.Len(t, captured.EntriesWith("message", "Record failed"), 2)
}

func TestImportFailureSkipsAppend(t *testing.T) {
	f := newFixture(t)
	ev := f.remote.put(&schedule.RemoteEvent{Title: "New", Start: day(4).In(time.UTC), End: day(4).In(time.UTC).Add(time.Hour)})
	f.local.appendErr = errors.New("disk full")

	result := f.run(t)

	require.Len(t, result.Failures, 1)
	assert.Zero(t, result.Counts().Imported)
	_, tracked := f.remote.get(ev.ID).RecordID()
	assert.True(t, tracked)
}

func TestFetchFailureIsFatal(t *testing.T) {
	tests := []struct {
		name   string
		inject func(f *fixture)
	}{
		{"remote list", func(f *fixture) { f.remote.listErr = pkgerrors.NewAPIError("google calendar", 401, "unauthorized") }},
		{"local search", func(f *fixture) { f.local.searchErr = errors.New("database is locked") }},
		{"change log", func(f *fixture) { f.log.err = errors.New("corrupt log") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addLogged(&schedule.LocalEvent{RecordID: "R1", Subject: "x", Date: day(1)})
			f.remote.put(&schedule.RemoteEvent{Start: day(2).In(time.UTC)})
			tt.inject(f)

			result, err := f.engine(t).Run(context.Background(), f.window)

			require.Error(t, err)
			assert.Nil(t, result)
			assert.Zero(t, f.remote.saves)
			assert.Zero(t, f.remote.deletes)
			assert.Empty(t, f.local.appended)
		})
	}
}

func TestDryRun(t *testing.T) {
	f := newFixture(t)
	f.addLogged(&schedule.LocalEvent{RecordID: "R1", Subject: "New", Date: day(1)})
	f.remote.put(&schedule.RemoteEvent{Title: "Untracked", Start: day(2).In(time.UTC), End: day(3).In(time.UTC)})
	f.remote.put(&schedule.RemoteEvent{Start: day(3).In(time.UTC), Properties: map[string]string{"MHC-Record-Id": "R9"}})
	f.log.log("R9", schedule.StatusDeleted, f.clock.Advance(time.Second))

	result := f.run(t, reconciler.WithDryRun(true))

	c := result.Counts()
	assert.Equal(t, 1, c.Deleted)
	assert.Equal(t, 1, c.Created)
	assert.Equal(t, 1, c.Imported)
	assert.True(t, result.Metadata.DryRun)
	assert.Contains(t, result.Summary(), "(Dry run)")

	assert.Zero(t, f.remote.saves)
	assert.Zero(t, f.remote.deletes)
	assert.Empty(t, f.local.appended)
	assert.Len(t, f.remote.all(), 2)
}

func TestImportAdoptionGuard(t *testing.T) {
	f := newFixture(t)
	ev := f.remote.put(&schedule.RemoteEvent{Title: "Shared", Start: day(6).In(time.UTC), End: day(7).In(time.UTC)})

	remote := &refreshingRemote{
		fakeRemote: f.remote,
		beforeRefresh: func(current *schedule.RemoteEvent) {
			current.SetProperty("MHC-Record-Id", "adopted-elsewhere")
		},
	}
	e, err := reconciler.New(f.local, f.log, remote, f.mapper, reconciler.WithClock(f.clock.Now))
	require.NoError(t, err)

	result, err := e.Run(context.Background(), f.window)
	require.NoError(t, err)

	assert.Zero(t, result.Counts().Imported)
	skips := result.ActionsOf(reconciler.ActionSkip)
	require.Len(t, skips, 1)
	assert.Equal(t, "adopted-elsewhere", skips[0].RecordID)
	assert.Empty(t, f.local.appended)
	id, _ := f.remote.get(ev.ID).RecordID()
	assert.Equal(t, "adopted-elsewhere", id)
}

func TestCategoryFilterLimitsPush(t *testing.T) {
	f := newFixture(t)
	f.addLogged(&schedule.LocalEvent{RecordID: "R1", Categories: []string{"holiday"}, Subject: "Holiday", Date: day(20)})
	f.addLogged(&schedule.LocalEvent{RecordID: "R2", Categories: []string{"work"}, Subject: "Work", Date: day(21)})

	result := f.run(t)

	creates := result.ActionsOf(reconciler.ActionCreate)
	require.Len(t, creates, 1)
	assert.Equal(t, "R2", creates[0].RecordID)
}

func TestRunLogsWithRunID(t *testing.T) {
	f := newFixture(t)
	captured := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), captured.Logger)
	ctx = logging.WithRunID(ctx, "run-42")

	result, err := f.engine(t).Run(ctx, f.window)
	require.NoError(t, err)

	assert.Equal(t, "run-42", result.RunID)
	assert.NotEmpty(t, captured.EntriesWith("run_id", "run-42"))
	captured.AssertContains(t, "Sync finished")
}

func TestPushDoesNotResurrectDeletedRecord(t *testing.T) {
	f := newFixture(t)
	f.addLogged(&schedule.LocalEvent{RecordID: "R1", Subject: "Cancelled", Date: day(5)})
	f.remote.put(&schedule.RemoteEvent{
		Title:      "Cancelled",
		Start:      day(5).In(time.UTC),
		End:        day(6).In(time.UTC),
		AllDay:     true,
		Properties: map[string]string{"MHC-Record-Id": "R1"},
	})
	f.log.log("R1", schedule.StatusDeleted, f.clock.Advance(time.Second))

	first := f.run(t)

	assert.Equal(t, 1, first.Counts().Deleted)
	assert.Zero(t, first.Counts().Created, first.Summary())
	assert.Zero(t, first.Counts().Updated)
	assert.Empty(t, f.remote.all())

	second := f.run(t)

	assert.Zero(t, second.Counts().Mutations(), second.Summary())
	assert.Empty(t, f.remote.all())
	assert.Equal(t, 1, f.remote.deletes)
	assert.Zero(t, f.remote.saves)
}

// cancellingRemote cancels the run's context on the first save.
type cancellingRemote struct {
	*fakeRemote
	cancel context.CancelFunc
}

func (r *cancellingRemote) Save(ctx context.Context, ev *schedule.RemoteEvent) error {
	r.cancel()
	return r.fakeRemote.Save(ctx, ev)
}

func TestCancelledContextStopsRun(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 20; i++ {
		f.addLogged(&schedule.LocalEvent{RecordID: fmt.Sprintf("R%d", i), Subject: "Event", Date: day(i)})
	}
	f.remote.put(&schedule.RemoteEvent{Title: "Untracked", Start: day(25).In(time.UTC), End: day(26).In(time.UTC), AllDay: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	remote := &cancellingRemote{fakeRemote: f.remote, cancel: cancel}
	e, err := reconciler.New(f.local, f.log, remote, f.mapper, reconciler.WithClock(f.clock.Now))
	require.NoError(t, err)

	result, err := e.Run(ctx, f.window)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Equal(t, 1, f.remote.saves)
	assert.Empty(t, f.local.appended)
}
