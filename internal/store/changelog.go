package store

import (
	"context"
	"math"
	"time"

	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// Entries returns the change-log entries with mtime at or after since, in
// the order they were logged.
func (s *Store) Entries(ctx context.Context, since time.Time) ([]schedule.ChangeLogEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT record_id, status, mtime FROM change_log
		WHERE mtime >= ?
		ORDER BY id`, unixNano(since))
	if err != nil {
		return nil, errors.WrapResource("list", "change log", "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schedule.ChangeLogEntry
	for rows.Next() {
		var (
			e     schedule.ChangeLogEntry
			st    string
			mtime int64
		)
		if err := rows.Scan(&e.RecordID, &st, &mtime); err != nil {
			return nil, errors.WrapResource("list", "change log", "", err)
		}
		e.Status = schedule.Status(st)
		e.MTime = time.Unix(0, mtime).In(since.Location())
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", "change log", "", err)
	}
	return out, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return math.MinInt64
	}
	return t.UnixNano()
}

// History returns every change-log entry for recordID, oldest first.
func (s *Store) History(ctx context.Context, recordID string) ([]schedule.ChangeLogEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT status, mtime FROM change_log
		WHERE record_id = ?
		ORDER BY id`, recordID)
	if err != nil {
		return nil, errors.WrapResource("history", "change log", recordID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []schedule.ChangeLogEntry
	for rows.Next() {
		var (
			st    string
			mtime int64
		)
		if err := rows.Scan(&st, &mtime); err != nil {
			return nil, errors.WrapResource("history", "change log", recordID, err)
		}
		out = append(out, schedule.ChangeLogEntry{
			RecordID: recordID,
			Status:   schedule.Status(st),
			MTime:    time.Unix(0, mtime),
		})
	}
	return out, rows.Err()
}
