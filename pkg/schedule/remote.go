package schedule

import (
	"time"

	"github.com/agentstation/mhcgcal/pkg/constants"
)

// RemoteEvent is one entry in the remote calendar.
// A zero Start or End means the service did not report that side.
type RemoteEvent struct {
	ID          string
	Title       string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Properties  map[string]string
	Updated     time.Time
}

// Property returns the extended property key and whether it is set.
func (e *RemoteEvent) Property(key string) (string, bool) {
	if e == nil || e.Properties == nil {
		return "", false
	}
	v, ok := e.Properties[key]
	return v, ok
}

// SetProperty sets an extended property.
func (e *RemoteEvent) SetProperty(key, value string) {
	if e.Properties == nil {
		e.Properties = make(map[string]string)
	}
	e.Properties[key] = value
}

// RecordID returns the local record id carried by the event.
func (e *RemoteEvent) RecordID() (string, bool) {
	return e.Property(constants.RecordIDProperty)
}

// Tracked reports whether the event carries a local record id.
func (e *RemoteEvent) Tracked() bool {
	_, ok := e.RecordID()
	return ok
}

// IsNew reports whether the event has not been saved to the remote calendar yet.
func (e *RemoteEvent) IsNew() bool {
	return e.ID == ""
}

// Clone returns a deep copy of the event.
func (e *RemoteEvent) Clone() *RemoteEvent {
	if e == nil {
		return nil
	}
	c := *e
	if e.Properties != nil {
		c.Properties = make(map[string]string, len(e.Properties))
		for k, v := range e.Properties {
			c.Properties[k] = v
		}
	}
	return &c
}
