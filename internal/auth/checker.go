package auth

import "github.com/agentstation/mhcgcal/internal/auth/adc"

// Check inspects the local credentials. No network calls are made.
func (c *Checker) Check() *Status {
	details := adc.BuildDetails(c.credentialsFile)

	var state State
	switch details.State {
	case adc.StateConfigured:
		state = StateConfigured
	case adc.StateMissing:
		state = StateMissing
	default:
		state = StateInvalid
	}

	return &Status{
		State:      state,
		Summary:    adc.FormatBrief(details),
		CalendarID: c.calendarID,
		Google:     details,
	}
}
