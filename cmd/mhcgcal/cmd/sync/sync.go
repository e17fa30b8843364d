package sync

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/cmd/alerts"
	"github.com/agentstation/mhcgcal/internal/cmd/cmdutil"
	"github.com/agentstation/mhcgcal/internal/cmd/output"
	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/logging"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
)

// Execute runs one sync pass and prints the report. Per-event failures are
// reported but do not fail the command.
func Execute(cmd *cobra.Command, app application.Application, flags *Flags) error {
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
	m, err := cfg.Mapper()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.SyncTimeout)
	defer cancel()
	logger := app.Logger()
	ctx = logging.WithLogger(ctx, logger)
	ctx = logging.WithCalendar(ctx, cfg.CalendarID)

	st, err := app.Store(ctx)
	if err != nil {
		return err
	}
	remote, err := app.Remote(ctx)
	if err != nil {
		return err
	}

	engine, err := reconciler.New(st, st, remote, m,
		reconciler.WithClock(app.Now),
		reconciler.WithLogWindowMonths(cfg.LogWindowMonths),
		reconciler.WithDryRun(flags.DryRun),
	)
	if err != nil {
		return err
	}

	result, err := engine.Run(ctx, window)
	if err != nil {
		return err
	}

	if err := output.FormatResult(cmd.OutOrStdout(), format, result); err != nil {
		return err
	}
	return printReport(alerts.NewWriter(cmd.ErrOrStderr(), app.Quiet()), result)
}

func printReport(w *alerts.Writer, result *reconciler.Result) error {
	if result.IsSuccess() {
		return w.Success("%s", result.Summary())
	}
	alert := alerts.New(alerts.LevelWarning, result.Summary())
	rateLimited := false
	for _, err := range result.Failures {
		alert.WithDetails(err.Error())
		rateLimited = rateLimited || errors.IsRateLimited(err)
	}
	if rateLimited {
		alert.WithDetails("the calendar API rate limit was hit; the next run retries the skipped events")
	}
	return w.Write(alert)
}
