package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/esgsynth-cli/internal/parser"
	"github.com/KaramelBytes/esgsynth-cli/internal/service"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

// inputFlags are shared by every command that reads a table.
type inputFlags struct {
	delimiter  string
	maxRows    int
	sheetName  string
	sheetIndex int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	cmd.Flags().IntVar(&f.maxRows, "max-rows", 0, "maximum input rows to read (0 = unlimited)")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (f *inputFlags) options() (parser.Options, error) {
	opt := parser.Options{MaxRows: f.maxRows, SheetName: f.sheetName, SheetIndex: f.sheetIndex}
	switch strings.ToLower(f.delimiter) {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	return opt, nil
}

// outputFlags are shared by every command that produces a table.
type outputFlags struct {
	dest        string
	preview     bool
	previewRows int
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dest, "out", "o", "", "destination: directory, file://dir, s3://bucket/prefix or - for stdout (default from config)")
	cmd.Flags().BoolVar(&f.preview, "preview", true, "print a preview of the result table")
	cmd.Flags().IntVar(&f.previewRows, "preview-rows", 0, "rows shown in the preview (default from config)")
}

func (f *outputFlags) resolve() (dest string, previewRows int) {
	dest, previewRows = f.dest, f.previewRows
	if dest == "" && cfg != nil {
		dest = cfg.OutputDest
	}
	if previewRows <= 0 {
		previewRows = 10
		if cfg != nil && cfg.PreviewRows > 0 {
			previewRows = cfg.PreviewRows
		}
	}
	return dest, previewRows
}

var (
	dupRows string
	dupIn   inputFlags
	dupOut  outputFlags
)

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <file>",
	Short: "Append cyclic copies of a table's rows",
	Long: `Append N rows to the table by repeating its rows in order, wrapping around to
the first row as often as needed. The result is written as Updated_file.csv.`,
	Example: `  esgsynth duplicate emissions.csv --rows 7
  esgsynth duplicate emissions.xlsx --sheet-name Data --rows 100 --out ./out
  esgsynth duplicate emissions.csv --rows 20 --out s3://my-bucket/esg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		extra, err := table.ParseCount(dupRows)
		if err != nil {
			return err
		}
		opt, err := dupIn.options()
		if err != nil {
			return err
		}
		in, err := readInput(cmd.InOrStdin(), args[0], opt)
		if err != nil {
			return err
		}
		res, err := service.New(c).Duplicate(in, extra)
		if err != nil {
			return err
		}
		dest, previewRows := dupOut.resolve()
		return emit(cmd.Context(), cmd.OutOrStdout(), res, dest, dupOut.preview, previewRows)
	},
}

func init() {
	rootCmd.AddCommand(duplicateCmd)
	duplicateCmd.Flags().StringVarP(&dupRows, "rows", "n", "0", "number of rows to append")
	dupIn.register(duplicateCmd)
	dupOut.register(duplicateCmd)
}
