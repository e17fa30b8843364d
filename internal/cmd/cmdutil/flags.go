// Package cmdutil provides flags and helpers shared by mhcgcal commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/cmd/output"
	"github.com/agentstation/mhcgcal/internal/config"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// WindowFlags select the dates and categories a command works on.
type WindowFlags struct {
	Date     string
	Category string
}

// AddWindowFlags adds --date and --category to a command.
func AddWindowFlags(cmd *cobra.Command) *WindowFlags {
	flags := &WindowFlags{}

	cmd.Flags().StringVarP(&flags.Date, "date", "d", "",
		"date range: today, tomorrow, sun..sat, yyyymmdd, yyyymm, yyyy, BASE+N or A-B (default from config)")
	cmd.Flags().StringVarP(&flags.Category, "category", "c", "",
		"category filter, space separated; !tag excludes (default from config)")

	return flags
}

// Window resolves the flags against the loaded settings.
func (f *WindowFlags) Window(app application.Application, cfg *config.Config) (schedule.Window, error) {
	return cfg.Window(app.Now(), f.Date, f.Category)
}

// Format returns the output format chosen with --format, or the detected one.
func Format(app application.Application) (output.Format, error) {
	return output.Resolve(app.OutputFormat())
}
