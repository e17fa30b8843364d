// Package config provides the config command.
package config

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/cmd/alerts"
	"github.com/agentstation/mhcgcal/internal/cmd/output"
	settings "github.com/agentstation/mhcgcal/internal/config"
)

// NewCommand creates the config command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: "management",
		Short:   "Create and inspect the configuration file",
		Long: `Config manages ~/.mhc-gcal.toml. Values in the file can be overridden by
MHCGCAL_* environment variables, for example MHCGCAL_CALENDAR_ID.`,
	}

	cmd.AddCommand(newInitCommand(app))
	cmd.AddCommand(newShowCommand(app))
	cmd.AddCommand(newValidateCommand(app))

	return cmd
}

func newInitCommand(app application.Application) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values",
		Args:  cobra.NoArgs,
		Example: `  mhcgcal config init
  mhcgcal config init --force
  mhcgcal --config ./work.toml config init`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := app.ConfigFile()
			if path == "" {
				var err error
				if path, err = settings.DefaultPath(); err != nil {
					return err
				}
			}
			if err := settings.Default().WriteFile(path, force); err != nil {
				return err
			}
			return alerts.NewWriter(cmd.ErrOrStderr(), app.Quiet()).Success("Wrote %s", path)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func newShowCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Show prints the configuration after files and environment are applied. The proxy password is masked.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.Settings()
			if err != nil {
				return err
			}
			redacted := cfg.Redacted()

			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			if format == "" || format == output.FormatYAML {
				return redacted.EncodeYAML(cmd.OutOrStdout())
			}
			return output.FormatAny(cmd.OutOrStdout(), format, redacted)
		},
	}
}

func newValidateCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration without contacting the calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.Settings()
			if err != nil {
				return err
			}
			if _, err := cfg.Window(app.Now(), "", ""); err != nil {
				return err
			}
			if _, err := cfg.Mapper(); err != nil {
				return err
			}
			source := cfg.File
			if source == "" {
				source = "defaults and environment"
			}
			return alerts.NewWriter(cmd.ErrOrStderr(), app.Quiet()).Success("Configuration is valid (%s)", source)
		},
	}
}
