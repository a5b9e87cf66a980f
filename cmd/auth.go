package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/esgsynth-cli/internal/ai"
	"github.com/KaramelBytes/esgsynth-cli/internal/auth"
)

var (
	authProvider string
	authKey      string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Store API keys in the OS keyring",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save an API key for a provider",
	Example: `  esgsynth auth login --provider openrouter --key sk-or-...
  echo "$OPENAI_API_KEY" | esgsynth auth login --provider openai`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := keyProvider(authProvider)
		if err != nil {
			return err
		}
		key := strings.TrimSpace(authKey)
		if key == "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Enter %s API key: ", provider)
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read key: %w", err)
			}
			key = strings.TrimSpace(line)
		}
		if err := auth.StoreKey(provider, key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored %s API key %s\n", provider, mask(key))
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API key for a provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := keyProvider(authProvider)
		if err != nil {
			return err
		}
		if err := auth.DeleteKey(provider); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s API key\n", provider)
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which providers have a stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range []string{ai.ProviderOpenRouter, ai.ProviderOpenAI} {
			key, err := auth.GetKey(p)
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p, mask(key))
			case errors.Is(err, auth.ErrNoKey):
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not set\n", p)
			default:
				return err
			}
		}
		return nil
	},
}

// keyProvider validates that provider authenticates with an API key.
func keyProvider(provider string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(provider))
	if _, ok := providerKeyEnv[p]; !ok {
		return "", fmt.Errorf("provider %q does not use an API key (use openrouter or openai)", provider)
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
	authCmd.PersistentFlags().StringVar(&authProvider, "provider", ai.ProviderOpenRouter, "provider the key belongs to: openrouter|openai")
	authLoginCmd.Flags().StringVar(&authKey, "key", "", "API key (read from stdin if omitted)")
}
