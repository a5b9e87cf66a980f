package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/esgsynth-cli/internal/ai"
	"github.com/KaramelBytes/esgsynth-cli/internal/utils"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage or inspect model catalog and pricing",
	Example: `  esgsynth models show
  esgsynth models show --json
  esgsynth models sync --file ./models.json`,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		if modelsJSON {
			b, err := utils.PrettyJSON(cat)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		rows := make([][]string, 0, len(cat))
		for _, m := range cat {
			def := ""
			if d, ok := ai.DefaultModel(m.Provider); ok && d == m.Name {
				def = "*"
			}
			rows = append(rows, []string{
				m.Provider, m.Name + def, strconv.Itoa(m.ContextTokens),
				price(m.InputPerK), price(m.OutputPerK),
			})
		}
		lt := ltable.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(borderStyle).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == ltable.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers("PROVIDER", "MODEL", "CONTEXT", "IN/1K", "OUT/1K").
			Rows(rows...)
		fmt.Fprintln(cmd.OutOrStdout(), lt.Render())
		fmt.Fprintln(cmd.OutOrStdout(), noteStyle.Render("* provider default"))
		return nil
	},
}

func price(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("$%.5f", v)
}

var syncPath string

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge model catalog/pricing from a JSON file",
	Long: `Load a JSON object of model entries and merge it into the catalog used for the
rest of this invocation. Entries with an existing name replace the built-in ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		ai.MergeCatalog(m)
		fmt.Fprintf(cmd.OutOrStdout(), "Merged %d model(s) into catalog\n", len(m))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)

	modelsShowCmd.Flags().BoolVar(&modelsJSON, "json", false, "print the catalog as JSON")
	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
}
