package auth

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/auth"
	"github.com/agentstation/mhcgcal/internal/cmd/cmdutil"
	"github.com/agentstation/mhcgcal/internal/cmd/output"
	"github.com/agentstation/mhcgcal/pkg/errors"
)

// NewStatusCommand creates the auth status subcommand.
func NewStatusCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which credentials would be used",
		Long: `Status inspects the local credential files without contacting Google.
It exits with an error when no usable credentials are found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmdutil.Format(app)
			if err != nil {
				return err
			}
			cfg, err := app.Settings()
			if err != nil {
				return err
			}

			st := auth.NewChecker(cfg.CredentialsFile, cfg.CalendarID).Check()
			if err := output.FormatAuthStatus(cmd.OutOrStdout(), format, st); err != nil {
				return err
			}
			if st.State != auth.StateConfigured {
				return errors.NewAuthenticationError("google calendar", st.Google.Source, st.Summary, nil)
			}
			return nil
		},
	}
}
