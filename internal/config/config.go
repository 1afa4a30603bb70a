// Package config loads the discord-archive configuration from defaults, an
// optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName = "discord-archive"

	DefaultConverter          = "weasyprint"
	DefaultOutputDir          = "."
	DefaultArchiveChannelName = "channel-archive"
	DefaultMaxRetries         = 5
	DefaultInitialDelay       = 1 * time.Second
	DefaultSendRate           = 1.0
)

// ErrConfigInvalid is returned by Validate when a value is out of range.
var ErrConfigInvalid = errors.New("config validation failed")

// Config holds application configuration.
type Config struct {
	Token              string        `yaml:"token,omitempty" mapstructure:"token"`
	ExporterPath       string        `yaml:"exporter_path,omitempty" mapstructure:"exporter_path"`
	ConverterPath      string        `yaml:"converter_path" mapstructure:"converter_path" validate:"required"`
	OutputDir          string        `yaml:"output_dir" mapstructure:"output_dir" validate:"required"`
	UploadServerID     string        `yaml:"upload_server_id,omitempty" mapstructure:"upload_server_id"`
	UploadChannelID    string        `yaml:"upload_channel_id,omitempty" mapstructure:"upload_channel_id"`
	ArchiveChannelName string        `yaml:"archive_channel_name" mapstructure:"archive_channel_name" validate:"required"`
	MaxRetries         int           `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=100"`
	InitialDelay       time.Duration `yaml:"initial_delay" mapstructure:"initial_delay" validate:"gt=0"`
	SendRate           float64       `yaml:"send_rate" mapstructure:"send_rate" validate:"gt=0"`

	configFile string
}

// env maps configuration keys to the environment variables that override them.
var env = map[string]string{
	"token":                "DISCORD_TOKEN",
	"exporter_path":        "DCE_CLI_PATH",
	"converter_path":       "WEASYPRINT_PATH",
	"output_dir":           "SAVE_DIRECTORY",
	"upload_server_id":     "UPLOAD_SERVER_ID",
	"upload_channel_id":    "UPLOAD_CHANNEL_ID",
	"archive_channel_name": "ARCHIVE_CHANNEL_NAME",
	"max_retries":          "MAX_RETRIES",
	"initial_delay":        "INITIAL_DELAY",
	"send_rate":            "SEND_RATE",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfigPath returns ~/.config/discord-archive/discord-archive.yaml, or
// "" if the home directory cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, appName+".yaml")
}

// Load reads configuration with precedence defaults < file < environment.
// An explicit path must exist; with an empty path the default path is read
// if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("converter_path", DefaultConverter)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("archive_channel_name", DefaultArchiveChannelName)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("initial_delay", DefaultInitialDelay)
	v.SetDefault("send_rate", DefaultSendRate)
	v.SetDefault("token", "")
	v.SetDefault("exporter_path", "")
	v.SetDefault("upload_server_id", "")
	v.SetDefault("upload_channel_id", "")

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, err
		}
	}

	if path == "" {
		if def := DefaultConfigPath(); def != "" {
			if _, err := os.Stat(def); err == nil {
				path = def
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	// INITIAL_DELAY may be given as plain seconds
	if s := strings.TrimSpace(v.GetString("initial_delay")); s != "" && strings.Trim(s, "0123456789.") == "" {
		v.Set("initial_delay", s+"s")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configFile = v.ConfigFileUsed()
	return &cfg, nil
}

// ConfigFile returns the path of the file the configuration was read from,
// or "" if only defaults and the environment were used.
func (c *Config) ConfigFile() string {
	return c.configFile
}

// Validate checks the configuration and creates the output directory.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var vErr validator.ValidationErrors
		if !errors.As(err, &vErr) {
			return err
		}
		problems := make([]string, 0, len(vErr))
		for _, fe := range vErr {
			problems = append(problems, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(problems, "; "))
	}
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", c.OutputDir, err)
	}
	return nil
}

// Save writes the configuration as YAML with owner-only permissions, since
// it may contain the bot token.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Redacted returns a copy of the configuration with the token masked, for
// display.
func (c *Config) Redacted() Config {
	out := *c
	out.Token = MaskToken(c.Token)
	return out
}

// MaskToken hides all but the last four characters of a secret.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}
