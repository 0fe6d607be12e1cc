// Package config loads inkwell settings from config.yaml, environment
// variables, and built-in defaults, in ascending precedence of
// defaults < file < environment. Flag overrides happen in the CLI layer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every tunable setting. All fields have working defaults;
// a missing config file is not an error.
type Config struct {
	// DatabasePath is the SQLite file location.
	DatabasePath string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is "text" or "json".
	LogFormat string
	// SearchLimit caps the number of rows a content search returns.
	SearchLimit int
	// DirectivesDir optionally points at user directive .cue files.
	DirectivesDir string
}

// ValidLogLevels are the accepted log.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats are the accepted log.format values.
var ValidLogFormats = []string{"text", "json"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DatabasePath: defaultDatabasePath(),
		LogLevel:     "info",
		LogFormat:    "text",
		SearchLimit:  50,
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "inkwell.db"
	}
	return filepath.Join(home, ".local", "share", "inkwell", "inkwell.db")
}

// Load resolves the configuration. The config file is taken from
// explicitPath when non-empty, else $INKWELL_CONFIG, else config.yaml under
// ~/.config/inkwell/. A file named explicitly must exist; the search path
// location is optional. Environment variables with the INKWELL_ prefix
// override file values (INKWELL_DATABASE_PATH, INKWELL_SEARCH_LIMIT, ...).
func Load(explicitPath string) (Config, error) {
	cfg := Default()

	explicit := explicitPath
	if explicit == "" {
		explicit = os.Getenv("INKWELL_CONFIG")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "inkwell"))
		}
	}

	v.SetEnvPrefix("INKWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("database.path")
	v.BindEnv("log.level")
	v.BindEnv("log.format")
	v.BindEnv("search.limit")
	v.BindEnv("directives.dir")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case explicit == "" && errors.As(err, &notFound):
			// No file on the search path; defaults and env apply.
		default:
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	}

	if v.IsSet("database.path") {
		cfg.DatabasePath = v.GetString("database.path")
	}
	if v.IsSet("log.level") {
		cfg.LogLevel = v.GetString("log.level")
	}
	if v.IsSet("log.format") {
		cfg.LogFormat = v.GetString("log.format")
	}
	if v.IsSet("search.limit") {
		cfg.SearchLimit = v.GetInt("search.limit")
	}
	if v.IsSet("directives.dir") {
		cfg.DirectivesDir = v.GetString("directives.dir")
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if !contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log.level %q (valid: %s)", c.LogLevel, strings.Join(ValidLogLevels, ", "))
	}
	if !contains(ValidLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log.format %q (valid: %s)", c.LogFormat, strings.Join(ValidLogFormats, ", "))
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("invalid search.limit %d (must be positive)", c.SearchLimit)
	}
	return nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
