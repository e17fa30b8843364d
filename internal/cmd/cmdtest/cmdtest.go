// Package cmdtest wires command tests to a temporary SQLite store and an
// in-process calendar server.
package cmdtest

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/config"
	"github.com/agentstation/mhcgcal/internal/gcal"
	"github.com/agentstation/mhcgcal/internal/gcal/gcaltest"
	"github.com/agentstation/mhcgcal/internal/store"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
)

// Env is one test's application: settings, store, calendar and clock.
type Env struct {
	Settings *config.Config
	Store    *store.Store
	Server   *gcaltest.Server
	App      *application.Mock

	// Now is returned by App.Now and stamps change-log entries.
	Now time.Time

	// Format is returned by App.OutputFormat.
	Format string
}

// New returns an environment at now, in UTC, with json output.
func New(t *testing.T, now time.Time) *Env {
	t.Helper()

	env := &Env{
		Settings: config.Default(),
		Server:   gcaltest.NewServer(t),
		Now:      now,
		Format:   "json",
	}
	env.Settings.Timezone = "UTC"
	env.Settings.StorePath = filepath.Join(t.TempDir(), "schedule.db")
	env.Server.InsertTime = now
	env.Server.PatchTime = now

	st, err := store.Open(context.Background(), env.Settings.StorePath, store.WithClock(env.clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	env.Store = st

	logger := zerolog.Nop()
	env.App = &application.Mock{
		SettingsFunc: func() (*config.Config, error) {
			if err := env.Settings.Validate(); err != nil {
				return nil, err
			}
			return env.Settings, nil
		},
		StoreFunc: func(context.Context) (*store.Store, error) { return env.Store, nil },
		RemoteFunc: func(ctx context.Context) (reconciler.RemoteStore, error) {
			return gcal.New(ctx,
				gcal.WithHTTPClient(env.Server.Client()),
				gcal.WithEndpoint(env.Server.URL()),
				gcal.WithLocation(time.UTC),
			)
		},
		LoggerFunc:       func() *zerolog.Logger { return &logger },
		OutputFormatFunc: func() string { return env.Format },
		NowFunc:          env.clock,
	}
	return env
}

func (e *Env) clock() time.Time {
	return e.Now
}

// Run executes cmd with args and returns what it wrote to stdout and stderr.
func Run(cmd *cobra.Command, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
