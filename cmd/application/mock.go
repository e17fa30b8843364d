package application

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/mhcgcal/internal/config"
	"github.com/agentstation/mhcgcal/internal/store"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	SettingsFunc     func() (*config.Config, error)
	ConfigFileFunc   func() string
	StoreFunc        func(ctx context.Context) (*store.Store, error)
	RemoteFunc       func(ctx context.Context) (reconciler.RemoteStore, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	QuietFunc        func() bool
	NowFunc          func() time.Time
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Settings returns settings using the mock function or the defaults.
func (m *Mock) Settings() (*config.Config, error) {
	if m.SettingsFunc != nil {
		return m.SettingsFunc()
	}
	return config.Default(), nil
}

// ConfigFile returns the config file using the mock function or "".
func (m *Mock) ConfigFile() string {
	if m.ConfigFileFunc != nil {
		return m.ConfigFileFunc()
	}
	return ""
}

// Store returns a store using the mock function or an error.
func (m *Mock) Store(ctx context.Context) (*store.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx)
	}
	return nil, errors.New("mock: no store configured")
}

// Remote returns a remote store using the mock function or an error.
func (m *Mock) Remote(ctx context.Context) (reconciler.RemoteStore, error) {
	if m.RemoteFunc != nil {
		return m.RemoteFunc(ctx)
	}
	return nil, errors.New("mock: no remote configured")
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Quiet returns quiet using the mock function or false.
func (m *Mock) Quiet() bool {
	if m.QuietFunc != nil {
		return m.QuietFunc()
	}
	return false
}

// Now returns the time using the mock function or time.Now.
func (m *Mock) Now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now()
}

// Version returns version using the mock function or "test".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "test"
}

// Commit returns commit using the mock function or "test".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "test"
}

// Date returns date using the mock function or "test".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "test"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
