// Package config loads taktplan settings from defaults, an optional YAML
// file and TAKTPLAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "TAKTPLAN"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

type CalendarConfig struct {
	// Holidays names the public-holiday set: "none" or "at".
	Holidays string `mapstructure:"holidays"`
}

type ScheduleConfig struct {
	// SkipWeekends is the default for shifting when the flag is not given.
	SkipWeekends bool `mapstructure:"skip_weekends"`
}

type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: filepath.Join(DataDir(), "taktplan.db")},
		Log:      LogConfig{Level: "warn", Format: "console"},
		Calendar: CalendarConfig{Holidays: "none"},
		Schedule: ScheduleConfig{SkipWeekends: true},
		Audit:    AuditConfig{Enabled: true},
	}
}

// SetDefaults registers the built-in values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("calendar.holidays", d.Calendar.Holidays)
	v.SetDefault("schedule.skip_weekends", d.Schedule.SkipWeekends)
	v.SetDefault("audit.enabled", d.Audit.Enabled)
}

// New returns a viper instance with defaults and environment binding set
// up. configFile, when non-empty, must exist; otherwise config.yaml is
// searched in the config directory and the working directory and may be
// absent.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Calendar.Holidays = strings.ToLower(strings.TrimSpace(cfg.Calendar.Holidays))
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir is $XDG_CONFIG_HOME/taktplan, falling back to ~/.config/taktplan.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taktplan")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taktplan"
	}
	return filepath.Join(home, ".config", "taktplan")
}

// DataDir holds the default database.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taktplan"
	}
	return filepath.Join(home, ".taktplan")
}

func ValidLogLevels() []string   { return []string{"trace", "debug", "info", "warn", "error", "off"} }
func ValidLogFormats() []string  { return []string{"console", "json"} }
func ValidHolidaySets() []string { return []string{"none", "at"} }

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d config errors:", len(e))
	for _, err := range e {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate reports every invalid setting.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, ValidationError{Field: "database.path", Value: c.Database.Path, Message: "must not be empty"})
	}
	if !slices.Contains(ValidLogLevels(), c.Log.Level) {
		errs = append(errs, ValidationError{Field: "log.level", Value: c.Log.Level,
			Message: "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}
	if !slices.Contains(ValidLogFormats(), c.Log.Format) {
		errs = append(errs, ValidationError{Field: "log.format", Value: c.Log.Format,
			Message: "must be one of " + strings.Join(ValidLogFormats(), ", ")})
	}
	if !slices.Contains(ValidHolidaySets(), c.Calendar.Holidays) {
		errs = append(errs, ValidationError{Field: "calendar.holidays", Value: c.Calendar.Holidays,
			Message: "must be one of " + strings.Join(ValidHolidaySets(), ", ")})
	}
	return errs
}
