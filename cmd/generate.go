package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/esgsynth-cli/internal/ai"
	"github.com/KaramelBytes/esgsynth-cli/internal/prompt"
	"github.com/KaramelBytes/esgsynth-cli/internal/service"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

var (
	genFilters     prompt.Filters
	genProvider    string
	genModel       string
	genMaxTokens   int
	genTemp        float64
	genPrintPrompt bool
	genDryRun      bool
	genStream      bool
	genOut         outputFlags
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an ESG table from scratch with a generative text service",
	Long: `Describe the dataset with a few filters and ask the generative text service for it.
The reply is recovered into a table and written as Generated_data.csv. When no table
can be recovered the raw reply is printed and nothing is written.`,
	Example: `  esgsynth generate --industry Technology --data-type "ESG Scope 1" --country India --rows 10 --columns 5
  esgsynth generate --industry Finance --rows 20 --columns 6 --provider openrouter --model openai/gpt-4o-mini
  esgsynth generate --industry Healthcare --rows 5 --columns 4 --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		c = withProvider(c, genProvider, genModel)
		if cmd.Flags().Changed("max-tokens") && genMaxTokens > 0 {
			c.MaxTokens = genMaxTokens
		}
		if cmd.Flags().Changed("temperature") {
			c.Temperature = genTemp
		}
		f := genFilters
		if err := f.Validate(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		p := prompt.BuildGenerate(f)

		if genDryRun {
			printEstimate(out, c.DefaultProvider, modelFor(c.DefaultProvider, c.DefaultModel), p, c.MaxTokens)
			fmt.Fprintln(out, "\n--dry-run: no API call will be made. Prompt preview below --")
			fmt.Fprint(out, p)
			return nil
		}
		if genPrintPrompt {
			fmt.Fprintln(out, "--print-prompt: sending the following prompt --")
			fmt.Fprintln(out, p)
		}

		var opts []service.Option
		if genStream {
			opts = append(opts, service.WithStreaming(func(d string) { fmt.Fprint(cmd.ErrOrStderr(), d) }))
		}
		svc, err := newService(cmd.Context(), c, c.DefaultProvider, true, opts...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "⚙ Generating with %s model=%s (prompt tokens≈%d) ...\n",
			c.DefaultProvider, modelFor(c.DefaultProvider, c.DefaultModel), prompt.Estimate(p))
		res, err := svc.Generate(cmd.Context(), f)
		if genStream {
			fmt.Fprintln(cmd.ErrOrStderr())
		}
		if err != nil {
			var rerr *table.RecoveryError
			if errors.As(err, &rerr) && res != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: could not recover a table from the reply:\n%s\n", res.Raw)
			}
			return err
		}
		if res.Cached {
			fmt.Fprintln(cmd.ErrOrStderr(), "✓ Using cached reply (pass --no-cache to ask again)")
		}
		dest, previewRows := genOut.resolve()
		return emit(cmd.Context(), out, res, dest, genOut.preview, previewRows)
	},
}

func modelFor(provider, model string) string {
	if model != "" {
		return model
	}
	m, _ := ai.DefaultModel(provider)
	return m
}

// printEstimate reports prompt size and, when the model is priced, a cost ceiling.
func printEstimate(w io.Writer, provider, model, p string, maxTokens int) {
	tokens := prompt.Estimate(p)
	fmt.Fprintf(w, "Provider: %s\nModel: %s\n", provider, model)
	fmt.Fprintf(w, "Tokens: prompt≈%d, max output %d\n", tokens, maxTokens)
	if mi, ok := ai.LookupModel(model); ok {
		if mi.ContextTokens > 0 && tokens+maxTokens > mi.ContextTokens {
			fmt.Fprintf(w, "⚠ Warning: prompt + max output (≈%d) exceeds the model context (%d)\n", tokens+maxTokens, mi.ContextTokens)
		}
		if cost, ok := ai.EstimateCostUSD(model, tokens, maxTokens); ok {
			fmt.Fprintf(w, "Estimated max cost: ~$%.4f (in %.4f/out %.4f per 1K tokens)\n", cost, mi.InputPerK, mi.OutputPerK)
		}
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	fl := generateCmd.Flags()
	fl.StringVar(&genFilters.Industry, "industry", "", "industry: "+strings.Join(prompt.Industries, " | "))
	fl.StringVar(&genFilters.Company, "company", "", "company the data is about")
	fl.StringVar(&genFilters.Country, "country", "", "country the data is about")
	fl.StringVar(&genFilters.Location, "location", "", "location within the country")
	fl.StringVar(&genFilters.Year, "year", "", "reporting year")
	fl.StringVar(&genFilters.DataType, "data-type", "", "type of data, e.g. ESG Scope 1, ESG Scope 2, ESG Scope 3")
	fl.IntVarP(&genFilters.Rows, "rows", "n", 1, "number of rows to generate")
	fl.IntVar(&genFilters.Columns, "columns", 1, "number of columns to generate")
	fl.StringVar(&genProvider, "provider", "", "generative runtime: openrouter|openai|bedrock|ollama (default from config)")
	fl.StringVar(&genModel, "model", "", "model name (default from config or provider)")
	fl.IntVar(&genMaxTokens, "max-tokens", 0, "max output tokens (overrides config)")
	fl.Float64Var(&genTemp, "temperature", 0.1, "sampling temperature (overrides config)")
	fl.BoolVar(&genPrintPrompt, "print-prompt", false, "print the prompt before sending")
	fl.BoolVar(&genDryRun, "dry-run", false, "build the prompt and print a token and cost estimate without calling the API")
	fl.BoolVar(&genStream, "stream", false, "stream the reply to stderr while it arrives")
	genOut.register(generateCmd)
}
