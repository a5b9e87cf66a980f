package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/esgsynth-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/esgsynth-cli/internal/config"
	"github.com/KaramelBytes/esgsynth-cli/internal/service"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set esgsynth configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "api_key: %s\n", mask(cfg.APIKey))
		fmt.Fprintf(w, "default_provider: %s\n", cfg.DefaultProvider)
		fmt.Fprintf(w, "default_model: %s\n", modelFor(cfg.DefaultProvider, cfg.DefaultModel))
		fmt.Fprintf(w, "max_tokens: %d\n", cfg.MaxTokens)
		fmt.Fprintf(w, "temperature: %.3f\n", cfg.Temperature)
		if cfg.BaseURL != "" {
			fmt.Fprintf(w, "base_url: %s\n", cfg.BaseURL)
		}
		fmt.Fprintf(w, "aws_region: %s\n", cfg.AWSRegion)
		fmt.Fprintf(w, "ollama_host: %s\n", cfg.OllamaHost)
		fmt.Fprintf(w, "engine: %s\n", cfg.Engine)
		fmt.Fprintf(w, "seed: %d\n", cfg.Seed)
		fmt.Fprintf(w, "max_rows_out: %d\n", cfg.MaxRowsOut)
		fmt.Fprintf(w, "output_dest: %s\n", cfg.OutputDest)
		fmt.Fprintf(w, "preview_rows: %d\n", cfg.PreviewRows)
		fmt.Fprintf(w, "cache_ttl_sec: %d\n", cfg.CacheTTLSec)
		fmt.Fprintf(w, "server_addr: %s\n", cfg.ServerAddr)
		fmt.Fprintf(w, "server_rate_limit: %.2f\n", cfg.ServerRateLimit)
		fmt.Fprintf(w, "server_burst: %d\n", cfg.ServerBurst)
		fmt.Fprintf(w, "max_upload_mb: %d\n", cfg.MaxUploadMB)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func(lo int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < lo {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "api_key":
		c.APIKey = val
	case "default_provider":
		p := strings.ToLower(strings.TrimSpace(val))
		if !slices.Contains(ai.Providers(), p) {
			return fmt.Errorf("invalid default_provider: %s (use %s)", val, strings.Join(ai.Providers(), ", "))
		}
		if p != c.DefaultProvider {
			c.DefaultModel = ""
		}
		c.DefaultProvider = p
	case "default_model":
		c.DefaultModel = val
	case "max_tokens":
		c.MaxTokens, err = atoi(1)
	case "temperature":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f < 0 {
			return fmt.Errorf("invalid float for temperature: %v", val)
		}
		c.Temperature = f
	case "base_url":
		c.BaseURL = val
	case "aws_region":
		c.AWSRegion = val
	case "ollama_host":
		c.OllamaHost = val
	case "engine":
		e := strings.ToLower(val)
		if e != service.EngineCopula && e != service.EngineLLM {
			return fmt.Errorf("invalid engine: %s (use %s or %s)", val, service.EngineCopula, service.EngineLLM)
		}
		c.Engine = e
	case "seed":
		s, perr := strconv.ParseUint(val, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid seed: %v", val)
		}
		c.Seed = s
	case "max_rows_out":
		c.MaxRowsOut, err = atoi(1)
		if err == nil && c.MaxRowsOut > table.MaxRows {
			err = fmt.Errorf("invalid max_rows_out: %d exceeds %d", c.MaxRowsOut, table.MaxRows)
		}
	case "output_dest":
		c.OutputDest = val
	case "preview_rows":
		c.PreviewRows, err = atoi(1)
	case "cache_ttl_sec":
		c.CacheTTLSec, err = atoi(0)
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(1)
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi(0)
	case "server_addr":
		c.ServerAddr = val
	case "server_rate_limit":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f < 0 {
			return fmt.Errorf("invalid float for server_rate_limit: %v", val)
		}
		c.ServerRateLimit = f
	case "server_burst":
		c.ServerBurst, err = atoi(1)
	case "max_upload_mb":
		c.MaxUploadMB, err = atoi(1)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
