package event

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/cmd/alerts"
	"github.com/agentstation/mhcgcal/internal/cmd/cmdutil"
	"github.com/agentstation/mhcgcal/internal/cmd/output"
	"github.com/agentstation/mhcgcal/pkg/logging"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

func newAddCommand(app application.Application) *cobra.Command {
	var flags *cmdutil.EventFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a local event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmdutil.Format(app)
			if err != nil {
				return err
			}
			ev, err := flags.NewEvent()
			if err != nil {
				return err
			}
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			st, err := app.Store(ctx)
			if err != nil {
				return err
			}
			id, err := st.Add(ctx, ev)
			if err != nil {
				return err
			}
			app.Logger().Debug().Str("record_id", id).Msg("Event added")

			if err := output.FormatEvents(cmd.OutOrStdout(), format, single(ev)); err != nil {
				return err
			}
			return alerts.NewWriter(cmd.ErrOrStderr(), app.Quiet()).Success("Added %s", id)
		},
	}
	flags = cmdutil.AddEventFlags(cmd)

	return cmd
}

func newUpdateCommand(app application.Application) *cobra.Command {
	var flags *cmdutil.EventFlags

	cmd := &cobra.Command{
		Use:   "update <record-id>",
		Short: "Change fields of a local event",
		Long:  `Update changes only the fields given as flags. Use --all-day to drop the time range.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmdutil.Format(app)
			if err != nil {
				return err
			}
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			st, err := app.Store(ctx)
			if err != nil {
				return err
			}
			ev, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if err := flags.Apply(cmd, ev); err != nil {
				return err
			}
			if err := st.Update(ctx, ev); err != nil {
				return err
			}

			if err := output.FormatEvents(cmd.OutOrStdout(), format, single(ev)); err != nil {
				return err
			}
			return alerts.NewWriter(cmd.ErrOrStderr(), app.Quiet()).Success("Updated %s", ev.RecordID)
		},
	}
	flags = cmdutil.AddEventFlags(cmd)

	return cmd
}

func newDeleteCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <record-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete local events",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			st, err := app.Store(ctx)
			if err != nil {
				return err
			}
			w := alerts.NewWriter(cmd.ErrOrStderr(), app.Quiet())
			for _, id := range args {
				if err := st.Delete(ctx, id); err != nil {
					return err
				}
				if err := w.Success("Deleted %s", id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newShowCommand(app application.Application) *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "show <record-id>",
		Short: "Show a local event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmdutil.Format(app)
			if err != nil {
				return err
			}
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			st, err := app.Store(ctx)
			if err != nil {
				return err
			}

			if history {
				entries, err := st.History(ctx, args[0])
				if err != nil {
					return err
				}
				return output.FormatHistory(cmd.OutOrStdout(), format, entries)
			}

			ev, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return output.FormatEvents(cmd.OutOrStdout(), format, single(ev))
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "show the change-log entries instead")

	return cmd
}

func single(ev *schedule.LocalEvent) []schedule.DatedEvents {
	return []schedule.DatedEvents{{Date: ev.Date, Events: []*schedule.LocalEvent{ev}}}
}
