package reconciler_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/mhcgcal/pkg/mapper"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// clock is a manually advanced time source shared by the fakes.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

// fakeLocal is an in-memory local store.
type fakeLocal struct {
	events    []*schedule.LocalEvent
	appended  []*schedule.LocalEvent
	searchErr error
	appendErr error
}

func (f *fakeLocal) add(ev *schedule.LocalEvent) *schedule.LocalEvent {
	f.events = append(f.events, ev)
	return ev
}

func (f *fakeLocal) Search(_ context.Context, w schedule.Window) ([]schedule.DatedEvents, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	byDate := map[civil.Date][]*schedule.LocalEvent{}
	var dates []civil.Date
	for _, ev := range f.events {
		if !w.Contains(ev.Date) || !w.Filter.Match(ev.Categories) {
			continue
		}
		if _, ok := byDate[ev.Date]; !ok {
			dates = append(dates, ev.Date)
		}
		byDate[ev.Date] = append(byDate[ev.Date], ev)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	out := make([]schedule.DatedEvents, 0, len(dates))
	for _, d := range dates {
		out = append(out, schedule.DatedEvents{Date: d, Events: byDate[d]})
	}
	return out, nil
}

func (f *fakeLocal) Append(_ context.Context, ev *schedule.LocalEvent) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.appended = append(f.appended, ev)
	f.events = append(f.events, ev)
	return ev.RecordID, nil
}

// fakeLog returns every entry regardless of since, so tests can check that
// the engine bounds the window itself.
type fakeLog struct {
	entries []schedule.ChangeLogEntry
	err     error
}

func (f *fakeLog) log(id string, status schedule.Status, mtime time.Time) {
	f.entries = append(f.entries, schedule.ChangeLogEntry{RecordID: id, Status: status, MTime: mtime})
}

func (f *fakeLog) Entries(context.Context, time.Time) ([]schedule.ChangeLogEntry, error) {
	return f.entries, f.err
}

// fakeRemote is an in-memory remote calendar.
type fakeRemote struct {
	clock   *clock
	events  map[string]*schedule.RemoteEvent
	order   []string
	nextID  int
	listErr error

	saveErr   map[string]error // keyed by record id
	deleteErr map[string]error // keyed by remote id

	saves   int
	deletes int
}

func newFakeRemote(c *clock) *fakeRemote {
	return &fakeRemote{
		clock:     c,
		events:    map[string]*schedule.RemoteEvent{},
		saveErr:   map[string]error{},
		deleteErr: map[string]error{},
	}
}

// put stores an event as if another client had created it.
func (f *fakeRemote) put(ev *schedule.RemoteEvent) *schedule.RemoteEvent {
	if ev.ID == "" {
		f.nextID++
		ev.ID = fmt.Sprintf("evt-%d", f.nextID)
	}
	if ev.Updated.IsZero() {
		ev.Updated = f.clock.Now()
	}
	if _, ok := f.events[ev.ID]; !ok {
		f.order = append(f.order, ev.ID)
	}
	f.events[ev.ID] = ev.Clone()
	return ev
}

func (f *fakeRemote) get(id string) *schedule.RemoteEvent {
	return f.events[id]
}

func (f *fakeRemote) all() []*schedule.RemoteEvent {
	var out []*schedule.RemoteEvent
	for _, id := range f.order {
		if ev, ok := f.events[id]; ok {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeRemote) List(_ context.Context, start, end time.Time) ([]*schedule.RemoteEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*schedule.RemoteEvent
	for _, ev := range f.all() {
		if !ev.Start.Before(start) && ev.Start.Before(end) {
			out = append(out, ev.Clone())
		}
	}
	return out, nil
}

func (f *fakeRemote) Create() *schedule.RemoteEvent {
	return &schedule.RemoteEvent{}
}

func (f *fakeRemote) Save(_ context.Context, ev *schedule.RemoteEvent) error {
	if id, ok := ev.RecordID(); ok {
		if err := f.saveErr[id]; err != nil {
			return err
		}
	}
	if ev.ID != "" {
		if _, ok := f.events[ev.ID]; !ok {
			return fmt.Errorf("event %s not found", ev.ID)
		}
	}
	f.saves++
	ev.Updated = f.clock.Advance(time.Second)
	f.put(ev)
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, ev *schedule.RemoteEvent) error {
	if err := f.deleteErr[ev.ID]; err != nil {
		return err
	}
	if _, ok := f.events[ev.ID]; !ok {
		return fmt.Errorf("event %s not found", ev.ID)
	}
	f.deletes++
	delete(f.events, ev.ID)
	return nil
}

// refreshingRemote adds Refresh, letting a test adopt an event between
// List and the import write.
type refreshingRemote struct {
	*fakeRemote
	beforeRefresh func(ev *schedule.RemoteEvent)
}

func (r *refreshingRemote) Refresh(_ context.Context, ev *schedule.RemoteEvent) (*schedule.RemoteEvent, error) {
	if r.beforeRefresh != nil {
		r.beforeRefresh(r.events[ev.ID])
	}
	current, ok := r.events[ev.ID]
	if !ok {
		return nil, fmt.Errorf("event %s not found", ev.ID)
	}
	return current.Clone(), nil
}

// fixture wires an engine over the fakes.
type fixture struct {
	clock  *clock
	local  *fakeLocal
	log    *fakeLog
	remote *fakeRemote
	mapper *mapper.Mapper
	window schedule.Window
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	m, err := mapper.New(mapper.Config{
		SecretCategories: []string{"private"},
		SecretTitle:      "SECRET",
		Location:         time.UTC,
	})
	require.NoError(t, err)

	w, err := schedule.NewWindow(
		civil.Date{Year: 2024, Month: time.February, Day: 1},
		civil.Date{Year: 2024, Month: time.March, Day: 31},
		schedule.ParseCategoryFilter("!holiday"),
	)
	require.NoError(t, err)

	return &fixture{
		clock:  c,
		local:  &fakeLocal{},
		log:    &fakeLog{},
		remote: newFakeRemote(c),
		mapper: m,
		window: w,
	}
}

func (f *fixture) engine(t *testing.T, opts ...reconciler.Option) *reconciler.Engine {
	t.Helper()
	opts = append([]reconciler.Option{reconciler.WithClock(f.clock.Now)}, opts...)
	e, err := reconciler.New(f.local, f.log, f.remote, f.mapper, opts...)
	require.NoError(t, err)
	return e
}

func (f *fixture) run(t *testing.T, opts ...reconciler.Option) *reconciler.Result {
	t.Helper()
	result, err := f.engine(t, opts...).Run(context.Background(), f.window)
	require.NoError(t, err)
	return result
}

// addLogged adds a local event and logs its creation now.
func (f *fixture) addLogged(ev *schedule.LocalEvent) *schedule.LocalEvent {
	f.local.add(ev)
	f.log.log(ev.RecordID, schedule.StatusCreated, f.clock.Advance(time.Second))
	return ev
}

func day(d int) civil.Date {
	return civil.Date{Year: 2024, Month: time.March, Day: d}
}

func at(h, m int) *schedule.TimeOfDay {
	return &schedule.TimeOfDay{Hour: h, Minute: m}
}
