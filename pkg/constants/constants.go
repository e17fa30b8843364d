// Package constants provides shared constants used throughout mhcgcal.
// This includes extended property keys, defaults for configuration values,
// timeouts and file permissions that must agree across packages.
package constants

import "time"

// Extended property keys carried on every tracked remote event.
const (
	// RecordIDProperty holds the local record id; its presence marks a remote event as tracked
	RecordIDProperty = "MHC-Record-Id"

	// CategoryProperty holds the space-joined local category set
	CategoryProperty = "MHC-Category"
)

// Configuration defaults
const (
	// DefaultCalendarID is the remote calendar used when none is configured
	DefaultCalendarID = "primary"

	// DefaultSecretTitle replaces the title of events in a secret category
	DefaultSecretTitle = "SECRET"

	// DefaultSecretCategory is the secret category pattern used when none is configured
	DefaultSecretCategory = "private"

	// DefaultCategoryFilter excludes holidays, which every calendar client already shows
	DefaultCategoryFilter = "!holiday"

	// DefaultDateFrom and DefaultDateTo bound the sync window when nothing is configured
	DefaultDateFrom = "today"
	DefaultDateTo   = "today"

	// DefaultCharset is the text encoding of the local store
	DefaultCharset = "utf-8"

	// DefaultLogWindowMonths is the trailing change-log window in months
	DefaultLogWindowMonths = 5

	// DefaultConfigFile is the configuration file name searched for in the home directory
	DefaultConfigFile = ".mhc-gcal"

	// DefaultStoreDir is the directory under the home directory holding the local store
	DefaultStoreDir = ".mhc-gcal"

	// DefaultStoreFile is the SQLite database file name inside DefaultStoreDir
	DefaultStoreFile = "schedule.db"

	// EnvPrefix prefixes every environment variable override
	EnvPrefix = "MHCGCAL"
)

// Remote API limits
const (
	// DefaultPageSize is the default number of remote events requested per page
	DefaultPageSize = 100

	// MaxPageSize is the largest page the remote calendar API accepts
	MaxPageSize = 2500
)

// Timeout constants
const (
	// DefaultHTTPTimeout is the timeout for a single remote calendar request
	DefaultHTTPTimeout = 30 * time.Second

	// SyncTimeout bounds a whole sync run
	SyncTimeout = 10 * time.Minute

	// StoreBusyTimeout is how long SQLite waits on a locked database
	StoreBusyTimeout = 5 * time.Second
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for files that may hold credentials (rw-------)
	SecureFilePermissions = 0600
)

// Logging constants
const (
	// LogRotationSizeMB is the maximum size of a log file before rotation
	LogRotationSizeMB = 10

	// LogRotationDays is the maximum age of rotated log files
	LogRotationDays = 28

	// LogRotationBackups is the maximum number of old log files to retain
	LogRotationBackups = 5
)
