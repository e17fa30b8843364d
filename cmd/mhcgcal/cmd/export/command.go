// Package export provides the export command.
package export

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/cmd/alerts"
	"github.com/agentstation/mhcgcal/internal/cmd/cmdutil"
	"github.com/agentstation/mhcgcal/internal/ics"
	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/logging"
)

// Flags holds the export command flags.
type Flags struct {
	Window *cmdutil.WindowFlags
	Out    string
	Name   string
}

// NewCommand creates the export command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "core",
		Short:   "Write the local window as an iCalendar file",
		Args:    cobra.NoArgs,
		Long: `Export writes the local events in the window as iCalendar (.ics), one
VEVENT per occurrence. Events are mapped as they would be pushed, so secret
categories are redacted in the file too.`,
		Example: `  mhcgcal export --date 202404 --out april.ics
  mhcgcal export --date today+30 --name "Team" > team.ics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd, app, flags)
		},
	}

	flags.Window = cmdutil.AddWindowFlags(cmd)
	cmd.Flags().StringVarP(&flags.Out, "out", "O", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&flags.Name, "name", "", "calendar display name")

	return cmd
}

// Execute writes the export.
func Execute(cmd *cobra.Command, app application.Application, flags *Flags) error {
	cfg, err := app.Settings()
	if err != nil {
		return err
	}
	window, err := flags.Window.Window(app, cfg)
	if err != nil {
		return err
	}
	m, err := cfg.Mapper()
	if err != nil {
		return err
	}
	ctx := logging.WithLogger(cmd.Context(), app.Logger())
	st, err := app.Store(ctx)
	if err != nil {
		return err
	}

	exporter := ics.NewExporter(st, m, flags.Name)
	if flags.Out == "" || flags.Out == "-" {
		n, err := exporter.Export(ctx, cmd.OutOrStdout(), window)
		if err != nil {
			return err
		}
		return done(cmd, app, n, window.String())
	}

	f, err := os.OpenFile(flags.Out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", flags.Out, err)
	}
	n, err := exporter.Export(ctx, f, window)
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", flags.Out, err)
	}
	return done(cmd, app, n, window.String())
}

func done(cmd *cobra.Command, app application.Application, n int, window string) error {
	return alerts.NewWriter(cmd.ErrOrStderr(), app.Quiet()).Success("Exported %d events (%s)", n, window)
}
