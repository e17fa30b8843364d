package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
)

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// File is an explicit config file. When set it must exist.
	File string

	// EnvFiles are loaded into the environment before reading variables.
	// Missing files are ignored. Defaults to .env and .env.local.
	EnvFiles []string

	// Home overrides the directory searched for the default config file.
	Home string
}

// Load reads the configuration. It does not validate it.
func Load(opts LoadOptions) (*Config, error) {
	loadEnvFiles(opts.EnvFiles)

	v := viper.New()
	def := Default()
	if opts.Home != "" {
		def.StorePath = filepath.Join(opts.Home, constants.DefaultStoreDir, constants.DefaultStoreFile)
	}
	setDefaults(v, def)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	explicit := opts.File != ""
	if explicit {
		v.SetConfigFile(opts.File)
	} else {
		home := opts.Home
		if home == "" {
			home, _ = os.UserHomeDir()
		}
		if home != "" {
			v.AddConfigPath(home)
		}
		v.SetConfigName(constants.DefaultConfigFile)
		v.SetConfigType("toml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && !explicit:
			// No config file: defaults and environment only.
		case explicit && errors.Is(err, fs.ErrNotExist):
			return nil, errors.NewConfigError("config", "config file not found: "+opts.File, err)
		default:
			return nil, errors.NewConfigError("config", "cannot read "+v.ConfigFileUsed(), err)
		}
	}

	if unknown := unknownKeys(v); len(unknown) > 0 {
		return nil, &errors.UnknownKeysError{File: v.ConfigFileUsed(), Keys: unknown}
	}

	cfg := &Config{}
	if err := v.UnmarshalExact(cfg); err != nil {
		return nil, errors.NewConfigError("config", "invalid value", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.StorePath = expandHome(cfg.StorePath, opts.Home)
	cfg.CredentialsFile = expandHome(cfg.CredentialsFile, opts.Home)
	return cfg, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("calendar_id", c.CalendarID)
	v.SetDefault("credentials_file", c.CredentialsFile)
	v.SetDefault("page_size", c.PageSize)
	v.SetDefault("http_proxy", c.HTTPProxy)
	v.SetDefault("http_proxy_user", c.HTTPProxyUser)
	v.SetDefault("http_proxy_pass", c.HTTPProxyPass)
	v.SetDefault("date_from", c.DateFrom)
	v.SetDefault("date_to", c.DateTo)
	v.SetDefault("category", c.Category)
	v.SetDefault("secret_categories", c.SecretCategories)
	v.SetDefault("secret_title", c.SecretTitle)
	v.SetDefault("title_display_where", c.TitleDisplayWhere)
	v.SetDefault("store_path", c.StorePath)
	v.SetDefault("store_charset", c.StoreCharset)
	v.SetDefault("timezone", c.Timezone)
	v.SetDefault("log_window_months", c.LogWindowMonths)
}

// unknownKeys returns the keys viper holds that are not in the schema,
// sorted. Nested tables show up as dotted keys.
func unknownKeys(v *viper.Viper) []string {
	var out []string
	for _, k := range v.AllKeys() {
		if !slices.Contains(Keys, k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// loadEnvFiles loads .env files; .env.local overrides .env. godotenv never
// overrides variables that are already set.
func loadEnvFiles(files []string) {
	if files == nil {
		files = []string{".env.local", ".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

func expandHome(path, home string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return path
		}
	}
	return filepath.Join(home, rest)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(constants.DefaultStoreDir, constants.DefaultStoreFile)
	}
	return filepath.Join(home, constants.DefaultStoreDir, constants.DefaultStoreFile)
}
