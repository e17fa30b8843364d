package app

import "os"

// Flags holds the global command-line flags plus the logging settings that
// are only read from the environment.
type Flags struct {
	// Global flags
	ConfigFile string
	Verbose    bool
	Quiet      bool
	NoColor    bool
	Format     string
	LogLevel   string

	// Logging configuration
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadFlags returns flag defaults with logging settings from LOG_LEVEL,
// LOG_FORMAT and LOG_OUTPUT.
func LoadFlags() *Flags {
	return &Flags{
		EnvLogLevel: os.Getenv("LOG_LEVEL"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
		NoColor:     os.Getenv("NO_COLOR") != "",
	}
}

// UpdateFromFlags updates values from parsed command flags.
func (f *Flags) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	f.Verbose = verbose
	f.Quiet = quiet
	f.NoColor = f.NoColor || noColor
	if format != "" {
		f.Format = format
	}
	if logLevel != "" {
		f.LogLevel = logLevel
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
