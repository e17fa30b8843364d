package adc

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// State represents the credential state.
type State int

const (
	// StateConfigured means a usable credential file was found.
	StateConfigured State = iota
	// StateMissing means no credential file was found.
	StateMissing
	// StateInvalid means a file was found but could not be used.
	StateInvalid
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateMissing:
		return "missing"
	case StateInvalid:
		return "invalid"
	}
	return "unknown"
}

// MarshalText renders the state by name in JSON and YAML.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Details describes the Google credentials the calendar adapter would use.
type Details struct {
	State          State     `json:"state" yaml:"state"`
	Type           string    `json:"type,omitempty" yaml:"type,omitempty"`       // "User Credentials" | "Service Account"
	Account        string    `json:"account,omitempty" yaml:"account,omitempty"` // email address or client ID
	Project        string    `json:"project,omitempty" yaml:"project,omitempty"`
	ProjectSource  string    `json:"project_source,omitempty" yaml:"project_source,omitempty"`
	UniverseDomain string    `json:"universe_domain,omitempty" yaml:"universe_domain,omitempty"`
	Path           string    `json:"path,omitempty" yaml:"path,omitempty"`
	Source         string    `json:"source,omitempty" yaml:"source,omitempty"`
	LastAuth       time.Time `json:"last_auth,omitempty" yaml:"last_auth,omitempty"` // file modification time
	ErrorMessage   string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// BuildDetails inspects the credentials found for the configured file, or
// the default search order when configured is empty.
func BuildDetails(configured string) *Details {
	path, source := FindFile(configured)
	if path == "" {
		msg := "No credentials found. Run: gcloud auth application-default login --scopes=https://www.googleapis.com/auth/calendar"
		if configured != "" {
			msg = fmt.Sprintf("credentials_file %s does not exist", configured)
		}
		return &Details{
			State:        StateMissing,
			Source:       source,
			ErrorMessage: msg,
		}
	}

	file, err := ParseFile(path)
	if err != nil {
		return &Details{
			State:        StateInvalid,
			Path:         path,
			Source:       source,
			ErrorMessage: fmt.Sprintf("credential file invalid: %v", err),
		}
	}

	d := &Details{
		State:          StateConfigured,
		Type:           credentialType(file.Type),
		Account:        accountIdentifier(file),
		UniverseDomain: universeDomain(file.UniverseDomain),
		Path:           path,
		Source:         source,
		LastAuth:       fileModTime(path),
	}
	d.Project, d.ProjectSource = resolveProject(file)
	return d
}

func credentialType(t string) string {
	if t == TypeServiceAccount {
		return "Service Account"
	}
	return "User Credentials"
}

// accountIdentifier prefers an email address and falls back to the client ID.
func accountIdentifier(file *File) string {
	switch {
	case file.ClientEmail != "":
		return file.ClientEmail
	case file.Account != "":
		return file.Account
	case file.ClientID != "":
		return "(client ID: " + file.ClientID + ")"
	}
	if acct := ReadConfig("account"); acct != "" {
		return acct
	}
	return ""
}

func universeDomain(domain string) string {
	if domain == "" {
		return "googleapis.com"
	}
	return domain
}

func fileModTime(path string) time.Time {
	if stat, err := os.Stat(path); err == nil {
		return stat.ModTime()
	}
	return time.Time{}
}

// resolveProject determines the quota project.
//
// Priority order:
//  1. quota_project_id
//  2. project_id
//  3. GOOGLE_CLOUD_PROJECT environment variable
//  4. gcloud config (core.project)
func resolveProject(file *File) (project, source string) {
	if file.QuotaProjectID != "" {
		return file.QuotaProjectID, "credentials (quota_project_id)"
	}
	if file.ProjectID != "" {
		return file.ProjectID, "credentials (project_id)"
	}
	if p := os.Getenv("GOOGLE_CLOUD_PROJECT"); p != "" {
		return p, "env (GOOGLE_CLOUD_PROJECT)"
	}
	if p := ReadConfig("project"); p != "" {
		return p, "gcloud config"
	}
	return "", "not set"
}

// FormatBrief creates a one-line summary of the credential status.
//
// Example: "User Credentials, alice@example.com, Project: my-project".
func FormatBrief(d *Details) string {
	if d.State != StateConfigured {
		return d.ErrorMessage
	}
	parts := []string{d.Type}
	if d.Account != "" {
		parts = append(parts, d.Account)
	}
	if d.Project != "" {
		parts = append(parts, "Project: "+d.Project)
	} else {
		parts = append(parts, "No project set")
	}
	return strings.Join(parts, ", ")
}
