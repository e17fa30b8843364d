package list

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/cmd/output"
	"github.com/agentstation/mhcgcal/internal/matcher"
)

func listRemote(ctx context.Context, cmd *cobra.Command, app application.Application, format output.Format, m *matcher.Matcher, start, end time.Time) error {
	remote, err := app.Remote(ctx)
	if err != nil {
		return err
	}
	events, err := remote.List(ctx, start, end)
	if err != nil {
		return err
	}
	return output.FormatRemoteEvents(cmd.OutOrStdout(), format, m.RemoteEvents(events))
}
