// Package adc finds and inspects Google credential files for the calendar
// adapter. It only reads local files and never calls the network.
package adc

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/agentstation/mhcgcal/pkg/errors"
)

const (
	// TypeAuthorizedUser represents user credentials from gcloud auth.
	TypeAuthorizedUser = "authorized_user"
	// TypeServiceAccount represents service account credentials.
	TypeServiceAccount = "service_account"
)

// Credential sources, in search order.
const (
	SourceConfig  = "config (credentials_file)"
	SourceEnv     = "env (GOOGLE_APPLICATION_CREDENTIALS)"
	SourceDefault = "gcloud default"
)

// File represents a Google credential JSON file.
type File struct {
	Type           string `json:"type"`
	QuotaProjectID string `json:"quota_project_id"`
	ProjectID      string `json:"project_id"`
	Account        string `json:"account"`
	ClientEmail    string `json:"client_email"`
	ClientID       string `json:"client_id"`
	UniverseDomain string `json:"universe_domain"`
}

// FindFile locates the credential file and reports where it came from.
// Returns empty strings if none is found.
//
// Search order:
//  1. the configured credentials file
//  2. GOOGLE_APPLICATION_CREDENTIALS environment variable
//  3. ~/.config/gcloud/application_default_credentials.json
func FindFile(configured string) (path, source string) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, SourceConfig
		}
		// A configured file that does not exist is reported as missing
		// rather than silently replaced by another source.
		return "", SourceConfig
	}

	if p := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, SourceEnv
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	p := filepath.Join(home, ".config/gcloud/application_default_credentials.json")
	if _, err := os.Stat(p); err == nil {
		return p, SourceDefault
	}
	return "", ""
}

// ParseFile reads and validates a credential JSON file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-selected credential file
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}

	switch file.Type {
	case "":
		return nil, errors.NewValidationError("type", "", "missing 'type' field")
	case TypeAuthorizedUser, TypeServiceAccount:
	default:
		return nil, errors.NewValidationError("type", file.Type, "unknown credential type "+file.Type)
	}
	return &file, nil
}
