package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/pkg/datespec"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// EventFlags hold the fields of a local event given on the command line.
type EventFlags struct {
	Date        string
	Time        string
	Subject     string
	Location    string
	Description string
	Category    string
	RRule       string
	AllDay      bool
}

// AddEventFlags adds the event field flags to a command.
func AddEventFlags(cmd *cobra.Command) *EventFlags {
	flags := &EventFlags{}

	cmd.Flags().StringVarP(&flags.Date, "date", "d", "", "date of the event (yyyy-mm-dd or yyyymmdd)")
	cmd.Flags().StringVarP(&flags.Time, "time", "t", "", "time range HH:MM-HH:MM; hours past 23 run into the next day")
	cmd.Flags().StringVarP(&flags.Subject, "subject", "s", "", "event title")
	cmd.Flags().StringVarP(&flags.Location, "location", "l", "", "event location")
	cmd.Flags().StringVar(&flags.Description, "description", "", "event notes")
	cmd.Flags().StringVarP(&flags.Category, "category", "c", "", "categories, space separated")
	cmd.Flags().StringVar(&flags.RRule, "rrule", "", "recurrence rule, e.g. FREQ=WEEKLY;COUNT=4")
	cmd.Flags().BoolVar(&flags.AllDay, "all-day", false, "clear the time range")

	return flags
}

// NewEvent builds an event from the flags. --date and --subject are required.
func (f *EventFlags) NewEvent() (*schedule.LocalEvent, error) {
	if f.Date == "" {
		return nil, errors.NewValidationError("date", nil, "--date is required")
	}
	if f.Subject == "" {
		return nil, errors.NewValidationError("subject", nil, "--subject is required")
	}
	ev := &schedule.LocalEvent{}
	if err := f.apply(ev, nil); err != nil {
		return nil, err
	}
	return ev, nil
}

// Apply copies the flags that were set on cmd onto ev.
func (f *EventFlags) Apply(cmd *cobra.Command, ev *schedule.LocalEvent) error {
	return f.apply(ev, func(name string) bool { return cmd.Flags().Changed(name) })
}

func (f *EventFlags) apply(ev *schedule.LocalEvent, changed func(string) bool) error {
	set := func(name string) bool { return changed == nil || changed(name) }

	if set("date") && f.Date != "" {
		d, err := datespec.ParseDate(f.Date)
		if err != nil {
			return err
		}
		ev.Date = d
	}
	if set("time") {
		tr, err := schedule.ParseTimeRange(f.Time)
		if err != nil {
			return err
		}
		ev.Time = tr
	}
	if f.AllDay {
		ev.Time = nil
	}
	if set("subject") {
		ev.Subject = f.Subject
	}
	if set("location") {
		ev.Location = f.Location
	}
	if set("description") {
		ev.Description = f.Description
	}
	if set("category") {
		ev.SetCategories(f.Category)
	}
	if set("rrule") {
		ev.Recurrence = f.RRule
	}
	return nil
}
