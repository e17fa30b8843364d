package reconciler

import (
	"time"

	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
)

// options configures an Engine.
type options struct {
	now             func() time.Time
	logWindowMonths int
	dryRun          bool
	refresher       Refresher
}

func defaultOptions() *options {
	return &options{
		now:             time.Now,
		logWindowMonths: constants.DefaultLogWindowMonths,
	}
}

// Option is a function that configures an Engine.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns engine options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithClock sets the source of "now" used for the change-log window.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{
				Field:   "clock",
				Message: "cannot be nil",
			}
		}
		o.now = now
		return nil
	}
}

// WithLogWindowMonths sets the trailing change-log window.
func WithLogWindowMonths(months int) Option {
	return func(o *options) error {
		if months < 1 {
			return &errors.ValidationError{
				Field:   "log_window_months",
				Value:   months,
				Message: "must be at least 1",
			}
		}
		o.logWindowMonths = months
		return nil
	}
}

// WithDryRun computes every action without calling any mutating adapter method.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithRefresher re-reads each untracked remote event just before it is
// adopted, so an event adopted by another client in the meantime is skipped.
// A RemoteStore that implements Refresher is used automatically.
func WithRefresher(r Refresher) Option {
	return func(o *options) error {
		o.refresher = r
		return nil
	}
}
