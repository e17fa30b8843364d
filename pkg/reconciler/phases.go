package reconciler

import (
	"cloud.google.com/go/civil"

	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/logging"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// propagateDeletions removes every remote event whose record was deleted
// inside the change-log window, most recent deletion first.
func (e *Engine) propagateDeletions(rc *runContext) {
	logger := logging.FromContext(logging.WithPhase(rc.ctx, string(PhaseDelete)))

	for _, entry := range schedule.DeletedEntries(rc.snap.entries) {
		for _, gev := range schedule.FindAllRemote(rc.snap.remote, entry.RecordID) {
			if rc.interrupted() {
				return
			}
			if rc.deleted[gev.ID] {
				continue
			}

			action := Action{
				Phase:    PhaseDelete,
				Kind:     ActionDelete,
				RecordID: entry.RecordID,
				RemoteID: gev.ID,
				Title:    gev.Title,
				Date:     civil.DateOf(gev.Start.In(e.mapper.Location())),
			}

			if !e.options.dryRun {
				if err := e.remote.Delete(rc.ctx, gev); err != nil {
					e.failed(rc, PhaseDelete, entry.RecordID, gev.ID, err)
					continue
				}
			}

			rc.deleted[gev.ID] = true
			rc.result.record(action)
			logger.Info().
				Str("record_id", entry.RecordID).
				Str("remote_id", gev.ID).
				Time("deleted_at", entry.MTime).
				Msg("Deleted remote event")
		}
	}
}

// pushLocal creates or updates the remote copy of every local event.
func (e *Engine) pushLocal(rc *runContext) {
	logger := logging.FromContext(logging.WithPhase(rc.ctx, string(PhasePush)))

	for _, group := range rc.snap.local {
		for _, mev := range group.Events {
			if rc.interrupted() {
				return
			}
			lastlog, logged := schedule.LatestEntry(rc.snap.entries, mev.RecordID)
			gev := e.matchForPush(rc, mev.RecordID, group.Date)

			kind := ActionUpdate
			switch {
			case logged && lastlog.Status == schedule.StatusDeleted:
				e.skip(rc, PhasePush, mev, gev, group.Date, "deleted locally")
				continue
			case gev != nil && rc.deleted[gev.ID]:
				e.skip(rc, PhasePush, mev, gev, group.Date, "remote copy deleted in this run")
				continue
			case gev == nil:
				kind = ActionCreate
				gev = e.remote.Create()
			case !logged:
				e.skip(rc, PhasePush, mev, gev, group.Date, "no change-log entry in window")
				continue
			case !lastlog.MTime.After(gev.Updated):
				e.skip(rc, PhasePush, mev, gev, group.Date, "remote copy is current")
				continue
			}

			target := gev.Clone()
			if err := e.mapper.ToRemote(target, mev, group.Date); err != nil {
				e.failed(rc, PhasePush, mev.RecordID, gev.ID, err)
				continue
			}

			if !e.options.dryRun {
				if err := e.remote.Save(rc.ctx, target); err != nil {
					e.failed(rc, PhasePush, mev.RecordID, gev.ID, err)
					continue
				}
			}

			rc.result.record(Action{
				Phase:    PhasePush,
				Kind:     kind,
				RecordID: mev.RecordID,
				RemoteID: target.ID,
				Title:    target.Title,
				Date:     group.Date,
			})
			logger.Info().
				Str("record_id", mev.RecordID).
				Str("remote_id", target.ID).
				Str("date", group.Date.String()).
				Str("action", string(kind)).
				Msg("Pushed local event")
		}
	}
}

// matchForPush returns the remote event a local occurrence maps to, or nil.
// Matching uses the snapshot taken at run start, so events removed by the
// delete phase still match. Occurrences of a recurring record share one
// record id, so each remote event is matched at most once per run and an
// event starting on the occurrence date is preferred.
func (e *Engine) matchForPush(rc *runContext, recordID string, date civil.Date) *schedule.RemoteEvent {
	var first *schedule.RemoteEvent
	for _, gev := range schedule.FindAllRemote(rc.snap.remote, recordID) {
		if rc.claimed[gev.ID] {
			continue
		}
		if civil.DateOf(gev.Start.In(e.mapper.Location())) == date {
			rc.claimed[gev.ID] = true
			return gev
		}
		if first == nil {
			first = gev
		}
	}
	if first != nil {
		rc.claimed[first.ID] = true
	}
	return first
}

// importRemote adopts every untracked remote event into the local store.
func (e *Engine) importRemote(rc *runContext) {
	logger := logging.FromContext(logging.WithPhase(rc.ctx, string(PhaseImport)))

	for _, gev := range schedule.Untracked(rc.snap.remote) {
		if rc.interrupted() {
			return
		}
		mev, err := e.mapper.ToLocal(gev)
		if err != nil {
			e.failed(rc, PhaseImport, "", gev.ID, err)
			continue
		}

		target := gev.Clone()
		if e.options.refresher != nil {
			fresh, err := e.options.refresher.Refresh(rc.ctx, gev)
			if err != nil {
				e.failed(rc, PhaseImport, "", gev.ID, err)
				continue
			}
			if id, ok := fresh.RecordID(); ok {
				rc.result.record(Action{
					Phase:    PhaseImport,
					Kind:     ActionSkip,
					RecordID: id,
					RemoteID: gev.ID,
					Title:    gev.Title,
					Date:     mev.Date,
					Reason:   "adopted by another client",
				})
				logger.Debug().Str("remote_id", gev.ID).Str("record_id", id).Msg("Remote event already adopted")
				continue
			}
			target = fresh.Clone()
		}

		if !e.options.dryRun {
			if _, tracked := target.RecordID(); !tracked {
				target.SetProperty(constants.RecordIDProperty, mev.RecordID)
				if err := e.remote.Save(rc.ctx, target); err != nil {
					e.failed(rc, PhaseImport, mev.RecordID, gev.ID, err)
					continue
				}
			}
			if _, err := e.local.Append(rc.ctx, mev); err != nil {
				e.failed(rc, PhaseImport, mev.RecordID, gev.ID, err)
				continue
			}
		}

		rc.result.record(Action{
			Phase:    PhaseImport,
			Kind:     ActionImport,
			RecordID: mev.RecordID,
			RemoteID: gev.ID,
			Title:    gev.Title,
			Date:     mev.Date,
		})
		logger.Info().
			Str("record_id", mev.RecordID).
			Str("remote_id", gev.ID).
			Str("date", mev.Date.String()).
			Msg("Imported remote event")
	}
}

// skip records a local occurrence left alone. gev may be nil.
func (e *Engine) skip(rc *runContext, phase Phase, mev *schedule.LocalEvent, gev *schedule.RemoteEvent, date civil.Date, reason string) {
	remoteID, title := "", mev.Subject
	if gev != nil {
		remoteID, title = gev.ID, gev.Title
	}
	rc.result.record(Action{
		Phase:    phase,
		Kind:     ActionSkip,
		RecordID: mev.RecordID,
		RemoteID: remoteID,
		Title:    title,
		Date:     date,
		Reason:   reason,
	})
	rc.logger.Debug().
		Str("phase", string(phase)).
		Str("record_id", mev.RecordID).
		Str("remote_id", remoteID).
		Str("reason", reason).
		Msg("Skipped local event")
}

func (e *Engine) failed(rc *runContext, phase Phase, recordID, remoteID string, err error) {
	syncErr := errors.NewSyncError(string(phase), recordID, remoteID, err)
	rc.result.fail(syncErr)
	rc.logger.Error().
		Err(err).
		Str("phase", string(phase)).
		Str("record_id", recordID).
		Str("remote_id", remoteID).
		Msg("Record failed")
}
