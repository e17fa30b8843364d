package auth

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/cmd/alerts"
	"github.com/agentstation/mhcgcal/pkg/logging"
)

// NewVerifyCommand creates the auth verify subcommand.
func NewVerifyCommand(app application.Application) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the credentials by reading the calendar",
		Long: `Verify connects to the configured calendar and lists today's events.
Unlike status, it proves that the credentials are accepted and that the
calendar is readable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.Settings()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger())

			remote, err := app.Remote(ctx)
			if err != nil {
				return err
			}
			now := app.Now().In(loc)
			start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

			began := time.Now()
			events, err := remote.List(ctx, start, start.AddDate(0, 0, 1))
			if err != nil {
				return err
			}
			return alerts.NewWriter(cmd.ErrOrStderr(), app.Quiet()).Success(
				"Calendar %s is readable: %d events today (%s)",
				cfg.CalendarID, len(events), time.Since(began).Round(time.Millisecond))
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout for the API call")

	return cmd
}
