// Package list provides the list command.
package list

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/cmd/cmdutil"
	"github.com/agentstation/mhcgcal/internal/cmd/output"
	"github.com/agentstation/mhcgcal/internal/matcher"
	"github.com/agentstation/mhcgcal/pkg/logging"
)

// Flags holds the list command flags.
type Flags struct {
	Window *cmdutil.WindowFlags
	Remote bool
	Match  string
}

// NewCommand creates the list command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		GroupID: "core",
		Short:   "Show the events in a date window",
		Args:    cobra.NoArgs,
		Long: `List shows the local events in the window, one row per occurrence.
With --remote it shows the calendar events that a sync over the same window
would consider instead. --match filters by subject, case-insensitively.`,
		Example: `  mhcgcal list                          # The configured window
  mhcgcal list --date thu               # Thursday of this week
  mhcgcal list --date 20240301-20240315 # A two-sided range
  mhcgcal list --remote -o wide         # Calendar events with ids
  mhcgcal list --match 'team *'         # Subjects starting with "team"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmdutil.Format(app)
			if err != nil {
				return err
			}
			cfg, err := app.Settings()
			if err != nil {
				return err
			}
			window, err := flags.Window.Window(app, cfg)
			if err != nil {
				return err
			}
			m, err := matcher.New(flags.Match)
			if err != nil {
				return err
			}
			ctx := logging.WithLogger(cmd.Context(), app.Logger())

			if flags.Remote {
				loc, err := cfg.Location()
				if err != nil {
					return err
				}
				start, end := window.Bounds(loc)
				return listRemote(ctx, cmd, app, format, m, start, end)
			}

			st, err := app.Store(ctx)
			if err != nil {
				return err
			}
			days, err := st.Search(ctx, window)
			if err != nil {
				return err
			}
			return output.FormatEvents(cmd.OutOrStdout(), format, m.Days(days))
		},
	}

	flags.Window = cmdutil.AddWindowFlags(cmd)
	cmd.Flags().BoolVarP(&flags.Remote, "remote", "r", false, "list the remote calendar instead of the local store")
	cmd.Flags().StringVarP(&flags.Match, "match", "m", "", "only show subjects matching a substring, glob or regex")

	return cmd
}
