// Package auth provides the auth command.
package auth

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
)

// NewCommand creates the auth command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		GroupID: "management",
		Short:   "Check Google Calendar credentials",
		Long: `Check the credentials used to reach Google Calendar.

Credentials come from credentials_file when it is configured, otherwise
from Application Default Credentials: GOOGLE_APPLICATION_CREDENTIALS, then
the gcloud application-default login.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewStatusCommand(app))
	cmd.AddCommand(NewVerifyCommand(app))

	return cmd
}
