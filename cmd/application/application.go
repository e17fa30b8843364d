// Package application provides the application interface for mhcgcal commands.
//
// The Application interface is the contract between the application layer and
// command implementations. Commands accept it rather than the concrete App,
// so they can be tested against a Mock with a temporary store and an
// in-memory calendar.
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            st, err := app.Store(cmd.Context())
//	            if err != nil {
//	                return err
//	            }
//	            // ... use the store
//	            return nil
//	        },
//	    }
//	}
package application

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/mhcgcal/internal/config"
	"github.com/agentstation/mhcgcal/internal/store"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
)

// Application provides what commands need from the running program.
type Application interface {
	// Settings returns the loaded configuration file settings. It fails
	// when the file cannot be read or holds unknown keys.
	Settings() (*config.Config, error)

	// ConfigFile returns the --config flag value, empty for the default.
	ConfigFile() string

	// Store opens the local schedule. The App closes it on shutdown.
	Store(ctx context.Context) (*store.Store, error)

	// Remote connects to the remote calendar.
	Remote(ctx context.Context) (reconciler.RemoteStore, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the --format flag value (json, yaml, table, wide).
	OutputFormat() string

	// Quiet reports whether -q was given.
	Quiet() bool

	// Now returns the current time.
	Now() time.Time

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
