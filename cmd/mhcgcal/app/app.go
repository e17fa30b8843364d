// Package app provides the application context and dependency management
// for the mhcgcal CLI. It centralizes global flags, logging, and the lazily
// opened local store and remote calendar shared by every command.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/mhcgcal/cmd/application"
	"github.com/agentstation/mhcgcal/internal/config"
	"github.com/agentstation/mhcgcal/internal/gcal"
	"github.com/agentstation/mhcgcal/internal/store"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
)

// App represents the mhcgcal application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Global flags
	flags *Flags

	// Logger
	logger *zerolog.Logger

	now func() time.Time

	// Lazily loaded dependencies
	mu       sync.Mutex
	settings *config.Config
	store    *store.Store
	remote   reconciler.RemoteStore
}

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
// Settings, the store and the remote calendar are not touched until a
// command asks for them.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		flags:   LoadFlags(),
		now:     time.Now,
	}

	logger := NewLogger(app.flags)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Flags returns the global flags.
func (a *App) Flags() *Flags {
	return a.flags
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format flag value.
func (a *App) OutputFormat() string {
	return a.flags.Format
}

// Quiet reports whether -q was given.
func (a *App) Quiet() bool {
	return a.flags.Quiet
}

// ConfigFile returns the --config flag value.
func (a *App) ConfigFile() string {
	return a.flags.ConfigFile
}

// Now returns the current time.
func (a *App) Now() time.Time {
	return a.now()
}

// Settings loads and validates the configuration once.
func (a *App) Settings() (*config.Config, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadSettings()
}

func (a *App) loadSettings() (*config.Config, error) {
	if a.settings != nil {
		return a.settings, nil
	}
	cfg, err := config.Load(config.LoadOptions{File: a.flags.ConfigFile})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a.logger.Debug().
		Str("file", cfg.File).
		Str("calendar_id", cfg.CalendarID).
		Str("store_path", cfg.StorePath).
		Msg("Configuration loaded")
	a.settings = cfg
	return cfg, nil
}

// Store opens the local schedule once. Shutdown closes it.
func (a *App) Store(ctx context.Context) (*store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}
	cfg, err := a.loadSettings()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.StorePath, store.WithClock(a.now))
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// Remote connects to the configured calendar once.
func (a *App) Remote(ctx context.Context) (reconciler.RemoteStore, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.remote != nil {
		return a.remote, nil
	}
	cfg, err := a.loadSettings()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	opts := []gcal.Option{
		gcal.WithCalendarID(cfg.CalendarID),
		gcal.WithPageSize(cfg.PageSize),
		gcal.WithLocation(loc),
		gcal.WithCredentialsFile(cfg.CredentialsFile),
	}
	if cfg.HTTPProxy != "" {
		opts = append(opts, gcal.WithProxy(&gcal.Proxy{
			Addr:     cfg.HTTPProxy,
			User:     cfg.HTTPProxyUser,
			Password: cfg.HTTPProxyPass,
		}))
	}

	client, err := gcal.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	a.remote = client
	return client, nil
}

// Shutdown releases the store. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	st := a.store
	a.store = nil
	a.mu.Unlock()

	if st == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- st.Close() }()
	select {
	case err := <-done:
		if err != nil {
			return errors.WrapResource("close", "local store", st.Path(), err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithFlags sets custom global flags.
func WithFlags(flags *Flags) Option {
	return func(a *App) error {
		a.flags = flags
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithSettings sets the configuration instead of loading it.
func WithSettings(cfg *config.Config) Option {
	return func(a *App) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		a.settings = cfg
		return nil
	}
}

// WithRemote sets the remote calendar (useful for testing).
func WithRemote(remote reconciler.RemoteStore) Option {
	return func(a *App) error {
		a.remote = remote
		return nil
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(a *App) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "cannot be nil")
		}
		a.now = now
		return nil
	}
}
