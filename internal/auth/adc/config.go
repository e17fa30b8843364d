package adc

import (
	"os"
	"path/filepath"
	"strings"
)

// ReadConfig reads a [core] value, such as "project" or "account", from the
// active gcloud configuration. Returns empty string if it is not set.
func ReadConfig(key string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	name := readActiveConfig(home)
	path := filepath.Join(home, ".config/gcloud/configurations", "config_"+name)

	data, err := os.ReadFile(path) // #nosec G304 -- well-known gcloud config file
	if err != nil {
		return ""
	}
	return parseINIValue(string(data), "core", key)
}

// readActiveConfig returns the active gcloud configuration name, or
// "default" when none is recorded.
func readActiveConfig(home string) string {
	data, err := os.ReadFile(filepath.Join(home, ".config/gcloud/active_config")) // #nosec G304
	if err != nil {
		return "default"
	}
	if name := strings.TrimSpace(string(data)); name != "" {
		return name
	}
	return "default"
}

// parseINIValue returns key from section of an INI document.
func parseINIValue(content, section, key string) string {
	var current string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			current = strings.Trim(line, "[]")
			continue
		}
		if current != section {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(k) == key {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
