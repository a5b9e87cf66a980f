package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/esgsynth-cli/internal/server"
	"github.com/KaramelBytes/esgsynth-cli/internal/service"
)

var (
	serveAddr     string
	serveProvider string
	serveModel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ESG data web form",
	Long: `Serve a single-page form with the generation and duplication options. Uploads are
previewed in the page and offered as a CSV download. Without a usable generative
runtime the form still duplicates and extends with the copula engine.`,
	Example: `  esgsynth serve
  esgsynth serve --addr :8080 --provider ollama --model llama3.1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		c = withProvider(c, serveProvider, serveModel)
		addr := c.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := newService(ctx, c, c.DefaultProvider, true)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v; generation is unavailable\n", err)
			svc = service.New(c)
		}
		srv := server.New(svc, server.Options{
			Addr:           addr,
			RateLimit:      c.ServerRateLimit,
			Burst:          c.ServerBurst,
			MaxUploadBytes: int64(c.MaxUploadMB) << 20,
			PreviewRows:    c.PreviewRows,
			Debug:          debug,
		})
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Serving on http://%s (Ctrl+C to stop)\n", addr)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "generative runtime: openrouter|openai|bedrock|ollama")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model name")
}

