// Package config holds the fixed configuration schema of mhcgcal.
//
// Values come from, in increasing precedence: built-in defaults, the config
// file (~/.mhc-gcal.toml by default, TOML or YAML by extension), .env files,
// and MHCGCAL_* environment variables. Keys outside the schema are an error.
package config

import (
	"net"
	"regexp"
	"time"

	"cloud.google.com/go/civil"

	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/datespec"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/mapper"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

// Config is the effective configuration.
type Config struct {
	// Remote calendar
	CalendarID      string `mapstructure:"calendar_id" toml:"calendar_id" yaml:"calendar_id" json:"calendar_id"`
	CredentialsFile string `mapstructure:"credentials_file" toml:"credentials_file" yaml:"credentials_file" json:"credentials_file"`
	PageSize        int    `mapstructure:"page_size" toml:"page_size" yaml:"page_size" json:"page_size"`

	// Proxy
	HTTPProxy     string `mapstructure:"http_proxy" toml:"http_proxy" yaml:"http_proxy" json:"http_proxy"`
	HTTPProxyUser string `mapstructure:"http_proxy_user" toml:"http_proxy_user" yaml:"http_proxy_user" json:"http_proxy_user"`
	HTTPProxyPass string `mapstructure:"http_proxy_pass" toml:"http_proxy_pass" yaml:"http_proxy_pass" json:"http_proxy_pass"`

	// Sync window
	DateFrom string `mapstructure:"date_from" toml:"date_from" yaml:"date_from" json:"date_from"`
	DateTo   string `mapstructure:"date_to" toml:"date_to" yaml:"date_to" json:"date_to"`
	Category string `mapstructure:"category" toml:"category" yaml:"category" json:"category"`

	// Mapping
	SecretCategories  []string `mapstructure:"secret_categories" toml:"secret_categories" yaml:"secret_categories" json:"secret_categories"`
	SecretTitle       string   `mapstructure:"secret_title" toml:"secret_title" yaml:"secret_title" json:"secret_title"`
	TitleDisplayWhere bool     `mapstructure:"title_display_where" toml:"title_display_where" yaml:"title_display_where" json:"title_display_where"`

	// Local store
	StorePath       string `mapstructure:"store_path" toml:"store_path" yaml:"store_path" json:"store_path"`
	StoreCharset    string `mapstructure:"store_charset" toml:"store_charset" yaml:"store_charset" json:"store_charset"`
	Timezone        string `mapstructure:"timezone" toml:"timezone" yaml:"timezone" json:"timezone"`
	LogWindowMonths int    `mapstructure:"log_window_months" toml:"log_window_months" yaml:"log_window_months" json:"log_window_months"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-" toml:"-" yaml:"-" json:"-"`
}

// Keys lists every recognised key in schema order.
var Keys = []string{
	"calendar_id",
	"credentials_file",
	"page_size",
	"http_proxy",
	"http_proxy_user",
	"http_proxy_pass",
	"date_from",
	"date_to",
	"category",
	"secret_categories",
	"secret_title",
	"title_display_where",
	"store_path",
	"store_charset",
	"timezone",
	"log_window_months",
}

// Default returns the built-in configuration. StorePath is resolved against
// the home directory when it is known.
func Default() *Config {
	return &Config{
		CalendarID:       constants.DefaultCalendarID,
		PageSize:         constants.DefaultPageSize,
		DateFrom:         constants.DefaultDateFrom,
		DateTo:           constants.DefaultDateTo,
		Category:         constants.DefaultCategoryFilter,
		SecretCategories: []string{constants.DefaultSecretCategory},
		SecretTitle:      constants.DefaultSecretTitle,
		StorePath:        defaultStorePath(),
		StoreCharset:     constants.DefaultCharset,
		Timezone:         "Local",
		LogWindowMonths:  constants.DefaultLogWindowMonths,
	}
}

var proxyAddr = regexp.MustCompile(`^([^:]+):([0-9]+)$`)

// Validate checks every value that can be checked without network access.
// The first problem found is returned as a ConfigError.
func (c *Config) Validate() error {
	if c.CalendarID == "" {
		return errors.NewConfigError("calendar_id", "cannot be empty", nil)
	}
	if c.PageSize < 1 || c.PageSize > constants.MaxPageSize {
		return errors.NewConfigError("page_size", "must be between 1 and 2500", nil)
	}
	if c.HTTPProxy != "" {
		if !proxyAddr.MatchString(c.HTTPProxy) {
			return errors.NewConfigError("http_proxy", "expected host:port, got "+c.HTTPProxy, nil)
		}
		if _, _, err := net.SplitHostPort(c.HTTPProxy); err != nil {
			return errors.NewConfigError("http_proxy", "expected host:port, got "+c.HTTPProxy, err)
		}
	}
	if c.HTTPProxyPass != "" && c.HTTPProxyUser == "" {
		return errors.NewConfigError("http_proxy_user", "required when http_proxy_pass is set", nil)
	}

	now := time.Now()
	for _, kv := range [][2]string{{"date_from", c.DateFrom}, {"date_to", c.DateTo}} {
		if _, err := datespec.ParseConfigDate(kv[1], now); err != nil {
			return errors.NewConfigError(kv[0], "expected today, thismonth or thisyear with an optional +N or -N", err)
		}
	}

	if _, err := c.Mapper(); err != nil {
		return err
	}
	if c.StorePath == "" {
		return errors.NewConfigError("store_path", "cannot be empty", nil)
	}
	if c.LogWindowMonths < 1 {
		return errors.NewConfigError("log_window_months", "must be at least 1", nil)
	}
	return nil
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.NewConfigError("timezone", "unknown time zone "+c.Timezone, err)
	}
	return loc, nil
}

// Mapper builds the record mapper for the configured secrecy, decoration,
// text encoding and time zone.
func (c *Config) Mapper() (*mapper.Mapper, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	codec, err := mapper.NewCodec(c.StoreCharset)
	if err != nil {
		return nil, errors.NewConfigError("store_charset", "unsupported charset "+c.StoreCharset, err)
	}
	m, err := mapper.New(mapper.Config{
		SecretCategories:  c.SecretCategories,
		SecretTitle:       c.SecretTitle,
		TitleDisplayWhere: c.TitleDisplayWhere,
		Location:          loc,
		Codec:             codec,
	})
	if err != nil {
		return nil, errors.NewConfigError("secret_categories", "invalid pattern", err)
	}
	return m, nil
}

// Window resolves the sync window from date_from, date_to and category,
// relative to now. A non-empty dateExpr or category overrides the
// configured values; dateExpr uses the command-line date grammar.
func (c *Config) Window(now time.Time, dateExpr, category string) (schedule.Window, error) {
	if category == "" {
		category = c.Category
	}
	filter := schedule.ParseCategoryFilter(category)

	var from, to civil.Date
	if dateExpr != "" {
		r, err := datespec.ParseRange(dateExpr, now)
		if err != nil {
			return schedule.Window{}, err
		}
		from, to = r.From, r.To
	} else {
		var err error
		if from, err = datespec.ParseConfigDate(c.DateFrom, now); err != nil {
			return schedule.Window{}, errors.NewConfigError("date_from", err.Error(), err)
		}
		if to, err = datespec.ParseConfigDate(c.DateTo, now); err != nil {
			return schedule.Window{}, errors.NewConfigError("date_to", err.Error(), err)
		}
	}
	return schedule.NewWindow(from, to, filter)
}

// Redacted returns a copy with credentials masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.SecretCategories = append([]string(nil), c.SecretCategories...)
	if out.HTTPProxyPass != "" {
		out.HTTPProxyPass = redactedValue
	}
	return &out
}

const redactedValue = "********"
