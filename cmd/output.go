package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/KaramelBytes/esgsynth-cli/internal/export"
	"github.com/KaramelBytes/esgsynth-cli/internal/parser"
	"github.com/KaramelBytes/esgsynth-cli/internal/service"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	noteStyle   = lipgloss.NewStyle().Faint(true)
)

// renderPreview draws the first n rows of t as a bordered table.
func renderPreview(t *table.Table, n int) string {
	head := t.Head(n)
	rows := make([][]string, len(head.Rows))
	for i, r := range head.Rows {
		rows[i] = r
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
		Headers(head.Columns...).
		Rows(rows...)
	out := lt.Render()
	if t.Len() > head.Len() {
		out += "\n" + noteStyle.Render(fmt.Sprintf("… %d more rows", t.Len()-head.Len()))
	}
	return out
}

// readInput loads a table from path, or CSV from stdin when path is "-".
func readInput(stdin io.Reader, path string, opt parser.Options) (*table.Table, error) {
	if path == "-" {
		return table.ReadCSV(stdin, table.ReadOptions{Delimiter: opt.Delimiter, MaxRows: opt.MaxRows})
	}
	return parser.ReadFile(path, opt)
}

// emit writes the result table through the sink for dest and reports where it went.
// Progress lines go to w; a stdout sink keeps w free of anything but CSV.
func emit(ctx context.Context, w io.Writer, res *service.Result, dest string, preview bool, previewRows int) error {
	if res == nil || res.Table == nil {
		return fmt.Errorf("nothing to write")
	}
	data, err := res.Table.Bytes()
	if err != nil {
		return err
	}
	opt := export.Options{Stdout: w}
	if cfg != nil {
		opt.Region = cfg.AWSRegion
	}
	sink, err := export.NewSink(dest, opt)
	if err != nil {
		return err
	}
	_, toStdout := sink.(*export.StdoutSink)
	if preview && !toStdout {
		fmt.Fprintln(w, renderPreview(res.Table, previewRows))
	}
	loc, err := sink.Write(ctx, res.Filename, data)
	if err != nil {
		return fmt.Errorf("write %s: %w", res.Filename, err)
	}
	if !toStdout {
		fmt.Fprintf(w, "✓ Wrote %d rows to %s\n", res.Table.Len(), loc)
	}
	return nil
}
