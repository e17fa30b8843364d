// Package event provides the event command for editing the local schedule.
//
// Every edit made here is written to the change log, so the next sync
// pushes it (or, for delete, removes the remote copies).
package event

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
)

// NewCommand creates the event command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		GroupID: "core",
		Short:   "Add, change or remove local events",
		Long: `Event edits the local schedule. Each change is recorded in the change
log so that the next sync propagates it to the calendar.`,
		Example: `  mhcgcal event add -d 2024-03-05 -t 09:00-10:00 -s "Dentist" -c private
  mhcgcal event add -d 20240304 -s "Standup" --rrule "FREQ=WEEKLY;BYDAY=MO,WE"
  mhcgcal event update <record-id> -t 10:00-11:00
  mhcgcal event show <record-id>
  mhcgcal event delete <record-id>`,
	}

	cmd.AddCommand(newAddCommand(app))
	cmd.AddCommand(newUpdateCommand(app))
	cmd.AddCommand(newDeleteCommand(app))
	cmd.AddCommand(newShowCommand(app))

	return cmd
}
