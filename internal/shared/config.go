package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override the file configuration.
const (
	EnvAPIEndpoint  = "GITLAB_API_ENDPOINT"
	EnvAccessToken  = "GITLAB_ACCESS_TOKEN"
	EnvPrivateToken = "GITLAB_PRIVATE_TOKEN"
)

// Config represents the application configuration loaded from a TOML (or YAML) file.
type Config struct {
	GitLab    GitLabConfig    `toml:"gitlab" yaml:"gitlab"`
	Export    ExportConfig    `toml:"export" yaml:"export"`
	Discovery DiscoveryConfig `toml:"discovery" yaml:"discovery"`
	Log       LogConfig       `toml:"log" yaml:"log"`
}

// GitLabConfig contains the API endpoint and credentials.
type GitLabConfig struct {
	APIEndpoint string   `toml:"api_endpoint" yaml:"api_endpoint"`
	AccessToken string   `toml:"access_token" yaml:"access_token"`
	Timeout     Duration `toml:"timeout" yaml:"timeout"`
	RateLimit   float64  `toml:"rate_limit" yaml:"rate_limit"`
}

// ExportConfig contains export/download settings.
type ExportConfig struct {
	OutputDir    string   `toml:"output_dir" yaml:"output_dir"`
	ProgressFile string   `toml:"progress_file" yaml:"progress_file"`
	PollAttempts int      `toml:"poll_attempts" yaml:"poll_attempts"`
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"`
}

// DiscoveryConfig controls how known records are refreshed.
type DiscoveryConfig struct {
	ResyncNames bool `toml:"resync_names" yaml:"resync_names"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// Duration is a [time.Duration] that decodes from strings like "5s" in both TOML and YAML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler], used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidConfig, string(text))
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML decodes a duration scalar.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// flatConfig is the single-level YAML layout written by earlier exporters,
// where keys may carry a leading colon (":api_endpoint").
type flatConfig struct {
	APIEndpoint       string `yaml:"api_endpoint"`
	AccessToken       string `yaml:"access_token"`
	SymbolAPIEndpoint string `yaml:":api_endpoint"`
	SymbolAccessToken string `yaml:":access_token"`
}

func (f flatConfig) apply(c *Config) {
	for _, endpoint := range []string{f.APIEndpoint, f.SymbolAPIEndpoint} {
		if endpoint != "" {
			c.GitLab.APIEndpoint = endpoint
		}
	}
	for _, token := range []string{f.AccessToken, f.SymbolAccessToken} {
		if token != "" {
			c.GitLab.AccessToken = token
		}
	}
}

// LoadConfig reads and parses a configuration file from the specified path.
//
// Files ending in .yml or .yaml are parsed as YAML, everything else as TOML.
// Values missing from the file keep the defaults of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}

		var flat flatConfig
		if err := yaml.Unmarshal(data, &flat); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		flat.apply(config)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides the GitLab endpoint and token with values from the environment.
//
// GITLAB_ACCESS_TOKEN takes priority over GITLAB_PRIVATE_TOKEN.
func (c *Config) ApplyEnv() {
	if endpoint := os.Getenv(EnvAPIEndpoint); endpoint != "" {
		c.GitLab.APIEndpoint = endpoint
	}
	if token := os.Getenv(EnvAccessToken); token != "" {
		c.GitLab.AccessToken = token
	} else if token := os.Getenv(EnvPrivateToken); token != "" {
		c.GitLab.AccessToken = token
	}
}

// Validate checks the settings required before any progress state is touched.
func (c *Config) Validate() error {
	if c.GitLab.APIEndpoint == "" {
		return fmt.Errorf("%w: gitlab.api_endpoint is not set", ErrMissingCredentials)
	}
	if c.GitLab.AccessToken == "" {
		return fmt.Errorf("%w: gitlab.access_token is not set (or export %s)", ErrMissingCredentials, EnvAccessToken)
	}
	if c.Export.PollAttempts <= 0 {
		return fmt.Errorf("%w: export.poll_attempts must be positive", ErrInvalidConfig)
	}
	if c.Export.PollInterval.Duration < 0 {
		return fmt.Errorf("%w: export.poll_interval must not be negative", ErrInvalidConfig)
	}
	if c.GitLab.RateLimit < 0 {
		return fmt.Errorf("%w: gitlab.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Export.ProgressFile == "" {
		return fmt.Errorf("%w: export.progress_file is not set", ErrInvalidConfig)
	}
	return nil
}
