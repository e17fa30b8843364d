// Package sync provides the sync command.
package sync

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/cmd/cmdutil"
)

// Flags holds the sync command flags.
type Flags struct {
	Window *cmdutil.WindowFlags
	DryRun bool
}

// NewCommand creates the sync command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Reconcile the local schedule with Google Calendar",
		Args:    cobra.NoArgs,
		Long: `Sync reconciles the local schedule and the remote calendar over a date
window. Three phases run in order:

1. delete  - events deleted locally within the change-log window are
             removed from the calendar
2. push    - local events are created remotely, or updated when the local
             change is newer than the remote copy
3. import  - calendar events that did not come from the schedule are
             added to the local store

A failure to read either side aborts the run before anything changes.
A failure on a single event is reported and the run continues.`,
		Example: `  mhcgcal sync                          # Sync the configured window
  mhcgcal sync --date today+7           # Today and the next 7 days
  mhcgcal sync --date 202404            # All of April 2024
  mhcgcal sync -c "work !holiday"       # Only work events
  mhcgcal sync --dry-run -o yaml        # Preview the actions`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd, app, flags)
		},
	}

	flags.Window = cmdutil.AddWindowFlags(cmd)
	cmd.Flags().BoolVarP(&flags.DryRun, "dry-run", "n", false, "report the actions without changing either side")

	return cmd
}
