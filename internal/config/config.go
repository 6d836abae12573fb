// Package config loads syncro-import settings. Values are layered as
// built-in defaults, then ~/.syncro-import/config.yaml, then a .env file,
// then SYNCRO_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Tiliavir/syncro-import/internal/timestamp"
)

// ErrMissingCredentials is returned by RequireCredentials when the
// subdomain or API key is not configured.
var ErrMissingCredentials = errors.New("missing Syncro credentials")

const (
	// EnvPrefix is prepended to every environment override, e.g. SYNCRO_API_KEY.
	EnvPrefix = "SYNCRO"
	// DefaultTimezone is used when no timezone is configured.
	DefaultTimezone = "America/New_York"
	// DefaultCacheFile is the reference-data cache, relative to the config directory.
	DefaultCacheFile = "syncro_temp_data.json"
	// FormatUS reads ambiguous numeric dates month first.
	FormatUS = "US"
	// FormatINTL reads ambiguous numeric dates day first.
	FormatINTL = "INTL"

	dirName  = ".syncro-import"
	fileName = "config.yaml"
)

// Config is the resolved configuration for one invocation.
type Config struct {
	Subdomain       string         `mapstructure:"subdomain"`
	APIKey          string         `mapstructure:"api_key"`
	BaseURL         string         `mapstructure:"base_url" validate:"omitempty,url"`
	Timezone        string         `mapstructure:"timezone" validate:"required"`
	TimestampFormat string         `mapstructure:"timestamp_format" validate:"oneof=US INTL"`
	NaturalDates    bool           `mapstructure:"natural_dates"`
	RequestDelay    time.Duration  `mapstructure:"request_delay" validate:"gte=0"`
	CacheFile       string         `mapstructure:"cache_file" validate:"required"`
	Log             LogConfig      `mapstructure:"log"`
	Defaults        DefaultsConfig `mapstructure:"defaults"`

	path     string
	location *time.Location
}

// LogConfig controls the console and file loggers.
type LogConfig struct {
	// Dir receives app_YYYYMMDD.log files. Empty disables file logging.
	Dir    string `mapstructure:"dir"`
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// DefaultsConfig holds fallbacks for values a CSV leaves blank.
type DefaultsConfig struct {
	IssueType         string `mapstructure:"issue_type"`
	TicketDescription string `mapstructure:"ticket_description"`
	// Columns maps a CSV header to the value used for blank cells.
	Columns map[string]string `mapstructure:"columns"`
}

// Options controls how Load finds and layers configuration.
type Options struct {
	// Path is an explicit config file. When empty, ~/.syncro-import/config.yaml
	// is used and created from the annotated template if missing.
	Path string
	// EnvFile is loaded into the environment before env binding. Defaults
	// to ".env"; a missing file is ignored.
	EnvFile string
	// Bind lets the caller attach command-line flags to config keys.
	Bind func(v *viper.Viper) error
	// Stderr receives first-run notices. Defaults to os.Stderr.
	Stderr io.Writer
}

// Dir returns ~/.syncro-import.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("subdomain", "")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("timezone", DefaultTimezone)
	v.SetDefault("timestamp_format", FormatUS)
	v.SetDefault("natural_dates", false)
	v.SetDefault("request_delay", "380ms")
	v.SetDefault("cache_file", filepath.Join(dir, DefaultCacheFile))
	v.SetDefault("log.dir", filepath.Join(dir, "logs"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("defaults.issue_type", "Other")
	v.SetDefault("defaults.ticket_description", "Description not provided")
	v.SetDefault("defaults.columns", map[string]string{})
}

// Load resolves the configuration. A missing default config file is
// created from the annotated template; a missing explicit one is an error.
func Load(opts Options) (*Config, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	path := opts.Path
	if path == "" {
		path = filepath.Join(dir, fileName)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if writeErr := writeDefault(path); writeErr != nil {
				fmt.Fprintf(stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
			} else {
				fmt.Fprintf(stderr, "Created config file %s – add your Syncro subdomain and API key there.\n", path)
			}
		}
	} else {
		dir = filepath.Dir(path)
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, dir)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	} else if opts.Path != "" {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.Bind != nil {
		if err := opts.Bind(v); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.path = path
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Subdomain = strings.TrimSpace(c.Subdomain)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Timezone = strings.TrimSpace(c.Timezone)
	c.TimestampFormat = strings.ToUpper(strings.TrimSpace(c.TimestampFormat))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Defaults.Columns == nil {
		c.Defaults.Columns = map[string]string{}
	}
}

// Validate checks field constraints and resolves the timezone.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s)", f.Namespace(), f.Value(), f.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	loc, err := timestamp.LoadZone(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.location = loc
	return nil
}

// Path returns the config file the values were read from.
func (c *Config) Path() string { return c.path }

// DayFirst reports whether ambiguous numeric dates are read day first.
func (c *Config) DayFirst() bool { return c.TimestampFormat == FormatINTL }

// Location returns the configured timezone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// HasCredentials reports whether both subdomain and API key are set.
func (c *Config) HasCredentials() bool {
	return (c.Subdomain != "" || c.BaseURL != "") && c.APIKey != ""
}

// RequireCredentials returns ErrMissingCredentials naming what is absent.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.Subdomain == "" && c.BaseURL == "" {
		missing = append(missing, "subdomain")
	}
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: set %s in %s or via %s_* environment variables",
		ErrMissingCredentials, strings.Join(missing, " and "), c.path, EnvPrefix)
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# syncro-import configuration – ~/.syncro-import/config.yaml
#
# Every key can also be set through the environment with a SYNCRO_ prefix,
# e.g. SYNCRO_API_KEY or SYNCRO_LOG_LEVEL. A .env file in the working
# directory is read too.

# ── Syncro account ─────────────────────────────────────────────────────────
# Your subdomain, as in https://<subdomain>.syncromsp.com
subdomain: ""
# API token from Admin > API Tokens. Prefer SYNCRO_API_KEY over storing it here.
api_key: ""
# Overrides the URL derived from the subdomain (testing only).
base_url: ""

# ── Dates ──────────────────────────────────────────────────────────────────
# IANA timezone that naive CSV dates are interpreted in.
timezone: "America/New_York"
# How ambiguous numeric dates such as 03/04/2024 are read.
# • "US"   – month first (default)
# • "INTL" – day first
timestamp_format: "US"
# Also accept phrases like "yesterday 5pm" when nothing else matches.
natural_dates: false

# ── Transport ──────────────────────────────────────────────────────────────
# Pause before every API call, to stay under Syncro's rate limit.
request_delay: "380ms"
# Reference data (techs, customers, contacts, products) cache.
# Defaults to ~/.syncro-import/syncro_temp_data.json.
# cache_file: "/path/to/syncro_temp_data.json"

# ── Logging ────────────────────────────────────────────────────────────────
log:
  # Daily JSON log files go to ~/.syncro-import/logs unless set here.
  # Set to "" to disable file logging.
  # dir: "/var/log/syncro-import"
  # trace | debug | info | warn | error
  level: "info"
  # console | json (stderr output)
  format: "console"

# ── Fallbacks for blank CSV values ─────────────────────────────────────────
defaults:
  issue_type: "Other"
  ticket_description: "Description not provided"
  # CSV header -> value used when that column is blank, e.g.
  #   status: "Resolved"
  columns: {}
`

// writeDefault creates the config directory and writes the annotated
// default config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
