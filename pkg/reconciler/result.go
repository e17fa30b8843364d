package reconciler

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// Phase names one step of a sync run.
type Phase string

// Sync phases, in the order they run.
const (
	PhaseDelete Phase = "delete"
	PhasePush   Phase = "push"
	PhaseImport Phase = "import"
)

// ActionKind is what the engine did, or would do in a dry run, to one event.
type ActionKind string

// Action kinds.
const (
	ActionDelete ActionKind = "delete"
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionImport ActionKind = "import"
	ActionSkip   ActionKind = "skip"
)

// Action records one decision of a sync run.
type Action struct {
	Phase    Phase      `json:"phase" yaml:"phase"`
	Kind     ActionKind `json:"kind" yaml:"kind"`
	RecordID string     `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	RemoteID string     `json:"remote_id,omitempty" yaml:"remote_id,omitempty"`
	Title    string     `json:"title,omitempty" yaml:"title,omitempty"`
	Date     civil.Date `json:"date,omitzero" yaml:"date,omitempty"`
	Reason   string     `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Counts tallies the actions of a run by kind.
type Counts struct {
	Deleted  int `json:"deleted" yaml:"deleted"`
	Created  int `json:"created" yaml:"created"`
	Updated  int `json:"updated" yaml:"updated"`
	Imported int `json:"imported" yaml:"imported"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Failed   int `json:"failed" yaml:"failed"`
}

// Mutations returns the number of remote or local writes.
func (c Counts) Mutations() int {
	return c.Deleted + c.Created + c.Updated + c.Imported
}

// Result represents the outcome of one sync run.
type Result struct {
	RunID    string          `json:"run_id" yaml:"run_id"`
	Window   schedule.Window `json:"-" yaml:"-"`
	Actions  []Action        `json:"actions" yaml:"actions"`
	Failures []error         `json:"-" yaml:"-"`
	Metadata ResultMetadata  `json:"metadata" yaml:"metadata"`
}

// ResultMetadata contains metadata about a sync run.
type ResultMetadata struct {
	StartTime     time.Time     `json:"start_time" yaml:"start_time"`
	EndTime       time.Time     `json:"end_time" yaml:"end_time"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	DryRun        bool          `json:"dry_run" yaml:"dry_run"`
	LocalEvents   int           `json:"local_events" yaml:"local_events"`
	RemoteEvents  int           `json:"remote_events" yaml:"remote_events"`
	LogEntries    int           `json:"log_entries" yaml:"log_entries"`
	LogWindowFrom time.Time     `json:"log_window_from" yaml:"log_window_from"`
}

// NewResult creates a new result with defaults.
func NewResult(runID string, window schedule.Window, dryRun bool) *Result {
	return &Result{
		RunID:    runID,
		Window:   window,
		Actions:  []Action{},
		Failures: []error{},
		Metadata: ResultMetadata{
			StartTime: time.Now(),
			DryRun:    dryRun,
		},
	}
}

func (r *Result) record(a Action) {
	r.Actions = append(r.Actions, a)
}

func (r *Result) fail(err error) {
	r.Failures = append(r.Failures, err)
}

// Counts tallies the recorded actions.
func (r *Result) Counts() Counts {
	c := Counts{Failed: len(r.Failures)}
	for _, a := range r.Actions {
		switch a.Kind {
		case ActionDelete:
			c.Deleted++
		case ActionCreate:
			c.Created++
		case ActionUpdate:
			c.Updated++
		case ActionImport:
			c.Imported++
		case ActionSkip:
			c.Skipped++
		}
	}
	return c
}

// ActionsOf returns the actions of the given kind.
func (r *Result) ActionsOf(kind ActionKind) []Action {
	var out []Action
	for _, a := range r.Actions {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// IsSuccess returns true if no record failed.
func (r *Result) IsSuccess() bool {
	return len(r.Failures) == 0
}

// HasChanges returns true if the run wrote, or would write, anything.
func (r *Result) HasChanges() bool {
	return r.Counts().Mutations() > 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	c := r.Counts()
	summary := fmt.Sprintf("%d deleted, %d created, %d updated, %d imported, %d skipped",
		c.Deleted, c.Created, c.Updated, c.Imported, c.Skipped)

	var parts []string
	if r.Metadata.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if c.Failed > 0 {
		parts = append(parts, fmt.Sprintf("(%d failed)", c.Failed))
	}
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}
	return summary
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}
