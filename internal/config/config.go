// Package config loads esgsynth settings from defaults, ~/.esgsynth/config.yaml,
// ESGSYNTH_* environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. ESGSYNTH_DEFAULT_PROVIDER.
const EnvPrefix = "ESGSYNTH"

// Global configuration structure.
type Global struct {
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	BaseURL         string  `mapstructure:"base_url" yaml:"base_url,omitempty"`

	// AWS Bedrock
	AWSRegion string `mapstructure:"aws_region" yaml:"aws_region"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Response cache
	CacheTTLSec int  `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	NoCache     bool `mapstructure:"no_cache" yaml:"no_cache"`

	// Synthesis
	Engine     string `mapstructure:"engine" yaml:"engine"`
	Seed       uint64 `mapstructure:"seed" yaml:"seed"`
	MaxRowsOut int    `mapstructure:"max_rows_out" yaml:"max_rows_out"`

	// Output
	OutputDest  string `mapstructure:"output_dest" yaml:"output_dest"`
	PreviewRows int    `mapstructure:"preview_rows" yaml:"preview_rows"`

	// Web form
	ServerAddr      string  `mapstructure:"server_addr" yaml:"server_addr"`
	ServerRateLimit float64 `mapstructure:"server_rate_limit" yaml:"server_rate_limit"`
	ServerBurst     int     `mapstructure:"server_burst" yaml:"server_burst"`
	MaxUploadMB     int     `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// Dir returns ~/.esgsynth.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".esgsynth"), nil
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.esgsynth/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("default_provider", "bedrock")
	v.SetDefault("default_model", "")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.1)
	v.SetDefault("base_url", "")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("cache_ttl_sec", 600)
	v.SetDefault("no_cache", false)
	v.SetDefault("engine", "copula")
	v.SetDefault("seed", 0)
	v.SetDefault("max_rows_out", 1_000_000)
	v.SetDefault("output_dest", ".")
	v.SetDefault("preview_rows", 10)
	v.SetDefault("server_addr", "127.0.0.1:8501")
	v.SetDefault("server_rate_limit", 1.0)
	v.SetDefault("server_burst", 3)
	v.SetDefault("max_upload_mb", 10)
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// A missing file is fine; `config set` creates it. Malformed files are not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.DefaultProvider = strings.ToLower(strings.TrimSpace(c.DefaultProvider))
	return &c, nil
}
