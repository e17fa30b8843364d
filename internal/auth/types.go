// Package auth reports whether the remote calendar can be reached with the
// configured credentials.
package auth

import "github.com/agentstation/mhcgcal/internal/auth/adc"

// State represents the authentication state.
type State int

const (
	// StateConfigured means credentials are configured.
	StateConfigured State = iota
	// StateMissing means required credentials are missing.
	StateMissing
	// StateInvalid means credentials are found but malformed.
	StateInvalid
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateMissing:
		return "missing"
	case StateInvalid:
		return "invalid"
	}
	return "unknown"
}

// MarshalText renders the state by name in JSON and YAML.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is the authentication status of the remote calendar.
type Status struct {
	State      State        `json:"state" yaml:"state"`
	Summary    string       `json:"summary" yaml:"summary"` // brief one-line summary
	CalendarID string       `json:"calendar_id" yaml:"calendar_id"`
	Google     *adc.Details `json:"google" yaml:"google"`
}

// Checker checks authentication status.
type Checker struct {
	credentialsFile string
	calendarID      string
}

// NewChecker creates a checker for the given credentials file and calendar.
// An empty credentials file means the default search order.
func NewChecker(credentialsFile, calendarID string) *Checker {
	return &Checker{credentialsFile: credentialsFile, calendarID: calendarID}
}
