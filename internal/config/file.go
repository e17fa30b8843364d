package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
)

const fileHeader = `# mhcgcal configuration
#
# calendar_id         remote calendar ("primary" or a calendar address)
# credentials_file    Google credential JSON; empty uses Application Default Credentials
# page_size           events per remote list request (1-2500)
# http_proxy          proxy as host:port, with optional http_proxy_user/http_proxy_pass
# date_from, date_to  today, thismonth or thisyear, with an optional +N or -N
# category            space separated tags; !tag excludes
# secret_categories   case-insensitive patterns whose events get secret_title
# title_display_where append " [location]" to remote titles
# store_path          local SQLite schedule
# store_charset       text encoding of the local store, e.g. utf-8 or iso-2022-jp
# timezone            IANA zone of local wall-clock times, or Local
# log_window_months   how far back local changes are considered

`

// DefaultPath returns ~/.mhc-gcal.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewConfigError("config", "cannot determine home directory", err)
	}
	return filepath.Join(home, constants.DefaultConfigFile+".toml"), nil
}

// EncodeTOML writes c as a commented TOML document.
func (c *Config) EncodeTOML(w io.Writer) error {
	if _, err := io.WriteString(w, fileHeader); err != nil {
		return err
	}
	return toml.NewEncoder(w).Encode(c)
}

// WriteFile writes c to path. An existing file is only replaced when force
// is set. The file may hold a proxy password, so it is private to the user.
func (c *Config) WriteFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.NewConfigError("config", path+" already exists (use --force to overwrite)", nil)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}

	var buf bytes.Buffer
	if err := c.EncodeTOML(&buf); err != nil {
		return errors.WrapIO("encode", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), constants.SecureFilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// EncodeYAML writes c as YAML.
func (c *Config) EncodeYAML(w io.Writer) error {
	data, err := yaml.MarshalWithOptions(c, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
