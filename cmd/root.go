package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/esgsynth-cli/internal/ai"
	"github.com/KaramelBytes/esgsynth-cli/internal/auth"
	cfgpkg "github.com/KaramelBytes/esgsynth-cli/internal/config"
	"github.com/KaramelBytes/esgsynth-cli/internal/service"
)

var (
	// Global flags (wired to config/viper)
	cfgFile string
	debug   bool
	noCache bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "esgsynth",
	Short: "esgsynth: duplicate, extend or generate ESG datasets",
	Long: `esgsynth grows ESG tables. It can duplicate rows of an existing CSV, extend a sample
with statistically similar synthetic rows (Gaussian copula or a generative text service),
or generate a table from scratch from a few filters. Results are written as CSV.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.esgsynth/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "do not reuse cached generative service replies")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	cfg = nil
	if err := cfgpkg.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load .env: %v\n", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if f.Changed("no-cache") {
		cfg.NoCache = noCache
	}
}

// loadedConfig returns the loaded configuration, loading it on demand for callers
// that run before OnInitialize (tests) or after a failed load.
func loadedConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// providerKeyEnv names the provider specific environment variable for API keys.
var providerKeyEnv = map[string]string{
	ai.ProviderOpenRouter: "OPENROUTER_API_KEY",
	ai.ProviderOpenAI:     "OPENAI_API_KEY",
}

// resolveAPIKey looks up the key for provider: config/env api_key first, then
// the provider's own environment variable, then the OS keyring.
func resolveAPIKey(c *cfgpkg.Global, provider string) string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if name, ok := providerKeyEnv[provider]; ok {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	key, err := auth.GetKey(provider)
	if err != nil {
		if debug && !errors.Is(err, auth.ErrNoKey) {
			fmt.Fprintf(os.Stderr, "⚠ Warning: keyring lookup failed: %v\n", err)
		}
		return ""
	}
	return key
}

// newRuntime builds the generative text runtime for provider (or the configured default).
func newRuntime(ctx context.Context, c *cfgpkg.Global, provider string) (ai.Runtime, error) {
	if provider == "" {
		provider = c.DefaultProvider
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	rc := ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		BaseURL:     c.BaseURL,
		Host:        c.OllamaHost,
		Region:      c.AWSRegion,
	}
	if _, ok := providerKeyEnv[provider]; ok {
		rc.APIKey = resolveAPIKey(c, provider)
		if rc.APIKey == "" {
			return nil, fmt.Errorf("no API key for %s: run 'esgsynth auth login --provider %s' or set %s", provider, provider, providerKeyEnv[provider])
		}
	}
	return ai.NewRuntime(ctx, provider, rc)
}

// withProvider returns a copy of c targeting provider and model. A provider
// override without a model falls back to that provider's default model.
func withProvider(c *cfgpkg.Global, provider, model string) *cfgpkg.Global {
	out := *c
	if provider != "" && !strings.EqualFold(provider, c.DefaultProvider) {
		out.DefaultProvider = strings.ToLower(strings.TrimSpace(provider))
		out.DefaultModel = ""
	}
	if model != "" {
		out.DefaultModel = model
	}
	return &out
}

// runtimeFactory is swapped in tests to avoid real network clients.
var runtimeFactory = newRuntime

// newService wires a service with a runtime when withRuntime is set.
func newService(ctx context.Context, c *cfgpkg.Global, provider string, withRuntime bool, opts ...service.Option) (*service.Service, error) {
	if withRuntime {
		rt, err := runtimeFactory(ctx, c, provider)
		if err != nil {
			return nil, err
		}
		opts = append([]service.Option{service.WithRuntime(rt)}, opts...)
	}
	return service.New(c, opts...), nil
}
