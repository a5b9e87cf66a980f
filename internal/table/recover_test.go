package table_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

func mustParse(t *testing.T, text string) *table.Table {
	t.Helper()
	tbl, err := table.ParseText(text)
	if err != nil {
		t.Fatalf("ParseText(%q): %v", text, err)
	}
	return tbl
}

func TestParseTextStripsDecoration(t *testing.T) {
	tbl := mustParse(t, "A | B\n*1*  2")
	if !slices.Equal(tbl.Columns, []string{"A", "B"}) {
		t.Fatalf("columns = %q", tbl.Columns)
	}
	if tbl.Len() != 1 || !slices.Equal(tbl.Rows[0], table.Row{"1", "2"}) {
		t.Fatalf("rows = %q", tbl.Rows)
	}
}

func TestParseTextSkipsSeparatorLine(t *testing.T) {
	tbl := mustParse(t, "Name  Age\n----  ---\nJoe   30")
	if !slices.Equal(tbl.Columns, []string{"Name", "Age"}) {
		t.Fatalf("columns = %q", tbl.Columns)
	}
	if tbl.Len() != 1 || !slices.Equal(tbl.Rows[0], table.Row{"Joe", "30"}) {
		t.Fatalf("rows = %q", tbl.Rows)
	}
}

func TestParseTextUnicodeWhitespace(t *testing.T) {
	tests := []struct {
		name string
		text string
		cols []string
		rows []table.Row
	}{
		{"no-break space gap", "Name\u00a0\u00a0Age\nJoe\u00a0\u00a0\u00a030",
			[]string{"Name", "Age"}, []table.Row{{"Joe", "30"}}},
		{"no-break separator line", "Name  Age\n---\u00a0\u00a0---\nJoe  30",
			[]string{"Name", "Age"}, []table.Row{{"Joe", "30"}}},
		{"mixed gap", "Site  Energy\vWater\u3000 x\nA\u00a0\u2003 10\u2002\u20025",
			[]string{"Site", "Energy\vWater", "x"}, []table.Row{{"A", "10", "5"}}},
		{"vertical tab gap", "a\v\vb\n1\v\v2",
			[]string{"a", "b"}, []table.Row{{"1", "2"}}},
		{"trailing no-break padding", "\u00a0Co\u00a0\u00a0Year\u00a0\nAcme  2022\u00a0\u00a0",
			[]string{"Co", "Year"}, []table.Row{{"Acme", "2022"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustParse(t, tt.text)
			if !slices.Equal(tbl.Columns, tt.cols) {
				t.Fatalf("columns = %q, want %q", tbl.Columns, tt.cols)
			}
			if len(tbl.Rows) != len(tt.rows) {
				t.Fatalf("rows = %q, want %q", tbl.Rows, tt.rows)
			}
			for i := range tt.rows {
				if !slices.Equal(tbl.Rows[i], tt.rows[i]) {
					t.Fatalf("row %d = %q, want %q", i, tbl.Rows[i], tt.rows[i])
				}
			}
		})
	}
}

func TestParseTextRectangularizes(t *testing.T) {
	tbl := mustParse(t, "A  B  C\nx  y\np  q  r  s")
	if tbl.Len() != 2 {
		t.Fatalf("rows = %q", tbl.Rows)
	}
	if !slices.Equal(tbl.Rows[0], table.Row{"x", "y", ""}) || !slices.Equal(tbl.Rows[1], table.Row{"p", "q", "r"}) {
		t.Fatalf("rows = %q", tbl.Rows)
	}
}

func TestParseTextKeepsSingleSpacesInsideFields(t *testing.T) {
	tbl := mustParse(t, "City      Country\nNew York  United States\n")
	if !slices.Equal(tbl.Rows[0], table.Row{"New York", "United States"}) {
		t.Fatalf("row = %q", tbl.Rows[0])
	}
}

func TestParseTextMarkdownTable(t *testing.T) {
	text := `Here is the data:

| Company | Year | Scope 1 (tCO2e) |
|---------|------|-----------------|
| **Acme Motors**  | 2023  | 1520 |
| Beta Cars  | 2023  | 980 |
`
	tbl := mustParse(t, text)
	// The intro sentence is the first surviving line and becomes the header.
	if !slices.Equal(tbl.Columns, []string{"Here is the data:"}) {
		t.Fatalf("columns = %q", tbl.Columns)
	}
	if tbl.Len() != 3 {
		t.Fatalf("len = %d, want 3", tbl.Len())
	}
	for _, r := range tbl.Rows {
		if len(r) != 1 {
			t.Fatalf("row width = %d: %q", len(r), r)
		}
	}
}

func TestParseTextRowCountMatchesLines(t *testing.T) {
	tbl := mustParse(t, "Site  Energy  Water\n\nA  10  5\n---  ---  ---\nB  20  6\n  \nC  30  7\n")
	if tbl.Width() != 3 || tbl.Len() != 3 {
		t.Fatalf("shape = %dx%d, want 3x3", tbl.Len(), tbl.Width())
	}
}

func TestParseTextNeedsHeaderAndData(t *testing.T) {
	for _, text := range []string{"", "   \n\n", "only  header", "***\n|||\n---", "Name  Age\n-----  ---", "\u00a0\u00a0\n\u3000"} {
		_, err := table.ParseText(text)
		var rerr *table.RecoveryError
		if !errors.As(err, &rerr) {
			t.Fatalf("%q: expected RecoveryError, got %v", text, err)
		}
		if !errors.Is(err, table.ErrNoData) || err.Error() != "no valid data found" {
			t.Fatalf("%q: unexpected error %v", text, err)
		}
	}
}

func TestParseTextToleratesGarbage(t *testing.T) {
	inputs := []string{
		"\x00\x01  \x02\n\t\t\t\nx",
		"a\r\nb  c\r\n",
		"|||| **** ----\n  a  \n b ",
		"🙂  🙃\n😀",
		"\xff\xfe  \x80\nq  r",
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("ParseText(%q) panicked: %v", in, r)
				}
			}()
			_, _ = table.ParseText(in)
		}()
	}
}
