// Package reconciler reconciles a local schedule with a remote calendar.
//
// A run fetches one snapshot of both sides and then applies three phases in
// a fixed order:
//
//  1. delete: remote events whose local record was deleted within the
//     trailing change-log window are removed.
//  2. push: local events are created remotely, or updated when the latest
//     change-log entry is newer than the remote copy.
//  3. import: remote events that carry no record id are adopted and appended
//     to the local store.
//
// A failure to fetch either side aborts the run before any mutation. A
// failure on a single record is recorded in the Result and the run goes on.
// A cancelled context stops the run at the next record and Run returns the
// context error.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/logging"
	"github.com/agentstation/mhcgcal/pkg/mapper"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// LocalStore is the local side of a sync.
type LocalStore interface {
	// Search returns the events inside window grouped by date, in date order.
	Search(ctx context.Context, window schedule.Window) ([]schedule.DatedEvents, error)

	// Append adds an event without writing a change-log entry.
	Append(ctx context.Context, event *schedule.LocalEvent) (string, error)
}

// ChangeLog reads past local mutations.
type ChangeLog interface {
	// Entries returns the entries whose mtime is not before since, oldest first.
	Entries(ctx context.Context, since time.Time) ([]schedule.ChangeLogEntry, error)
}

// RemoteStore is the remote calendar side of a sync.
type RemoteStore interface {
	// List returns the events starting in [start, end).
	List(ctx context.Context, start, end time.Time) ([]*schedule.RemoteEvent, error)

	// Create returns a blank, unsaved event.
	Create() *schedule.RemoteEvent

	// Save inserts a new event or updates an existing one, filling in the
	// service-assigned id and updated timestamp.
	Save(ctx context.Context, event *schedule.RemoteEvent) error

	// Delete removes an event.
	Delete(ctx context.Context, event *schedule.RemoteEvent) error
}

// Refresher re-reads a remote event.
type Refresher interface {
	Refresh(ctx context.Context, event *schedule.RemoteEvent) (*schedule.RemoteEvent, error)
}

// Engine runs sync passes between one local store and one remote calendar.
type Engine struct {
	local   LocalStore
	log     ChangeLog
	remote  RemoteStore
	mapper  *mapper.Mapper
	options *options
}

// New creates an Engine.
func New(local LocalStore, log ChangeLog, remote RemoteStore, m *mapper.Mapper, opts ...Option) (*Engine, error) {
	switch {
	case local == nil:
		return nil, errors.NewValidationError("local", nil, "cannot be nil")
	case log == nil:
		return nil, errors.NewValidationError("changelog", nil, "cannot be nil")
	case remote == nil:
		return nil, errors.NewValidationError("remote", nil, "cannot be nil")
	case m == nil:
		return nil, errors.NewValidationError("mapper", nil, "cannot be nil")
	}

	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	if options.refresher == nil {
		if r, ok := remote.(Refresher); ok {
			options.refresher = r
		}
	}

	return &Engine{
		local:   local,
		log:     log,
		remote:  remote,
		mapper:  m,
		options: options,
	}, nil
}

// snapshot is the state fetched at the start of a run.
type snapshot struct {
	local   []schedule.DatedEvents
	entries []schedule.ChangeLogEntry
	remote  []*schedule.RemoteEvent
}

// runContext holds shared state for one run.
type runContext struct {
	ctx    context.Context
	logger *zerolog.Logger
	result *Result
	snap   *snapshot

	// deleted holds the ids of remote events removed in the delete phase.
	deleted map[string]bool

	// claimed holds the ids of remote events already matched in the push phase.
	claimed map[string]bool
}

// Run performs one sync pass over window.
func (e *Engine) Run(ctx context.Context, window schedule.Window) (*Result, error) {
	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.WithRunID(ctx, runID)
	}

	rc := &runContext{
		ctx:     ctx,
		logger:  logging.FromContext(ctx),
		result:  NewResult(runID, window, e.options.dryRun),
		deleted: make(map[string]bool),
		claimed: make(map[string]bool),
	}

	// Step 1: Fetch both sides; any failure here is fatal
	snap, err := e.fetch(rc, window)
	if err != nil {
		return nil, err
	}
	rc.snap = snap

	rc.logger.Info().
		Str("window", window.String()).
		Int("local_events", rc.result.Metadata.LocalEvents).
		Int("remote_events", len(snap.remote)).
		Int("log_entries", len(snap.entries)).
		Bool("dry_run", e.options.dryRun).
		Msg("Starting sync")

	// Steps 2-4: deletions, pushes, then imports; cancellation aborts the run
	for _, phase := range []func(*runContext){e.propagateDeletions, e.pushLocal, e.importRemote} {
		phase(rc)
		if err := ctx.Err(); err != nil {
			return nil, e.abort(rc, err)
		}
	}

	rc.result.Finalize()
	rc.logger.Info().
		Str("summary", rc.result.Summary()).
		Dur("duration", rc.result.Metadata.Duration).
		Msg("Sync finished")

	return rc.result, nil
}

// abort logs and returns the error for a run stopped by its context.
func (e *Engine) abort(rc *runContext, err error) error {
	rc.result.Finalize()
	rc.logger.Error().
		Err(err).
		Str("summary", rc.result.Summary()).
		Msg("Sync interrupted")
	return fmt.Errorf("sync interrupted after %s: %w", rc.result.Summary(), err)
}

// interrupted reports whether the run's context is done.
func (rc *runContext) interrupted() bool {
	return rc.ctx.Err() != nil
}

// fetch reads the change log, the local window and the remote window.
func (e *Engine) fetch(rc *runContext, window schedule.Window) (*snapshot, error) {
	now := e.options.now()
	since := schedule.WindowStart(now, e.options.logWindowMonths)

	entries, err := e.log.Entries(rc.ctx, since)
	if err != nil {
		return nil, errors.WrapResource("read", "change log", "", err)
	}
	entries = schedule.WithinWindow(entries, since)

	local, err := e.local.Search(rc.ctx, window)
	if err != nil {
		return nil, errors.WrapResource("search", "local events", "", err)
	}

	start, end := window.Bounds(e.mapper.Location())
	remote, err := e.remote.List(rc.ctx, start, end)
	if err != nil {
		return nil, errors.WrapResource("list", "remote events", "", err)
	}

	localCount := 0
	for _, group := range local {
		localCount += len(group.Events)
	}
	rc.result.Metadata.LocalEvents = localCount
	rc.result.Metadata.RemoteEvents = len(remote)
	rc.result.Metadata.LogEntries = len(entries)
	rc.result.Metadata.LogWindowFrom = since

	return &snapshot{local: local, entries: entries, remote: remote}, nil
}
