package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/esgsynth-cli/internal/analysis"
	"github.com/KaramelBytes/esgsynth-cli/internal/utils"
)

var (
	inspSampleRows int
	inspDecimal    string
	inspThousands  string
	inspOutliers   bool
	inspThreshold  float64
	inspJSON       bool
	inspOutput     string
	inspIn         inputFlags
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Profile the columns of a sample table",
	Long: `Summarize a CSV/TSV/XLSX table before extending it: column kinds, missing values,
numeric ranges with robust outlier counts, and the most frequent categories.`,
	Example: `  esgsynth inspect emissions.csv
  esgsynth inspect emissions.xlsx --sheet-name Data --decimal , --thousands .
  esgsynth inspect emissions.csv --json --output profile.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := inspIn.options()
		if err != nil {
			return err
		}
		t, err := readInput(cmd.InOrStdin(), args[0], opt)
		if err != nil {
			return err
		}
		aopt := analysis.DefaultOptions()
		aopt.Name = filepath.Base(args[0])
		if cmd.Flags().Changed("sample-rows") {
			aopt.SampleRows = inspSampleRows
		}
		if aopt.DecimalSeparator, err = separator("decimal", inspDecimal); err != nil {
			return err
		}
		if aopt.ThousandsSeparator, err = separator("thousands", inspThousands); err != nil {
			return err
		}
		aopt.Outliers = inspOutliers
		if inspThreshold > 0 {
			aopt.OutlierThreshold = inspThreshold
		}
		rep := analysis.Profile(t, aopt)

		var out []byte
		if inspJSON {
			if out, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			out = []byte(rep.Markdown())
		}
		if inspOutput == "" {
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}
		if err := utils.SafeWriteFile(inspOutput, out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", inspOutput)
		return nil
	},
}

func separator(name, v string) (rune, error) {
	switch v {
	case "":
		return 0, nil
	case ",", ".", " ", "'":
		return rune(v[0]), nil
	case "space":
		return ' ', nil
	}
	return 0, fmt.Errorf("unsupported --%s separator: %q", name, v)
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	fl := inspectCmd.Flags()
	fl.IntVar(&inspSampleRows, "sample-rows", 5, "example rows included in the profile")
	fl.StringVar(&inspDecimal, "decimal", "", "decimal separator: '.' | ',' (auto-detected if omitted)")
	fl.StringVar(&inspThousands, "thousands", "", "thousands separator: ',' | '.' | space (auto-detected if omitted)")
	fl.BoolVar(&inspOutliers, "outliers", true, "count robust outliers in numeric columns")
	fl.Float64Var(&inspThreshold, "outlier-threshold", 3.5, "robust z-score threshold for outliers")
	fl.BoolVar(&inspJSON, "json", false, "print the profile as JSON")
	fl.StringVar(&inspOutput, "output", "", "write the profile to a file instead of stdout")
	inspIn.register(inspectCmd)
}

