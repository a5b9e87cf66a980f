package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/esgsynth-cli/internal/service"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

var (
	recName string
	recOut  outputFlags
)

var recoverCmd = &cobra.Command{
	Use:   "recover [file|-]",
	Short: "Recover a CSV table from freeform generative service output",
	Long: `Read a saved reply (or stdin) and rebuild the table it describes. Markdown
decoration, blank lines and dash rules are dropped, and cells are split on runs of
two or more spaces. The result is written to stdout unless --out is given.`,
	Example: `  esgsynth recover reply.txt
  pbpaste | esgsynth recover - --out ./out --name Recovered.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := "-"
		if len(args) == 1 {
			src = args[0]
		}
		var (
			data []byte
			err  error
		)
		if src == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(src)
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", src, err)
		}
		t, err := table.ParseText(string(data))
		if err != nil {
			return err
		}
		dest, previewRows := recOut.resolve()
		if recOut.dest == "" {
			dest = "-"
		}
		res := &service.Result{Table: t, Filename: recName, Raw: string(data)}
		return emit(cmd.Context(), cmd.OutOrStdout(), res, dest, recOut.preview, previewRows)
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)
	recoverCmd.Flags().StringVar(&recName, "name", service.FilenameGenerated, "file name used when writing to a directory or S3")
	recOut.register(recoverCmd)
}
