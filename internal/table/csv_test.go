package table_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

func TestReadCSVHeaderAndRows(t *testing.T) {
	in := "company,year,scope1\nAcme,2023,\"1,520\"\nBeta,2023,980\n"
	tbl, err := table.ReadCSV(strings.NewReader(in), table.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !slices.Equal(tbl.Columns, []string{"company", "year", "scope1"}) {
		t.Fatalf("columns = %q", tbl.Columns)
	}
	if tbl.Len() != 2 || !slices.Equal(tbl.Rows[0], table.Row{"Acme", "2023", "1,520"}) {
		t.Fatalf("rows = %q", tbl.Rows)
	}
}

func TestReadCSVSniffsSemicolonAndPadsShortRows(t *testing.T) {
	in := "\xef\xbb\xbfsite;energy;water\nA;10\nB;20;6;extra\n"
	tbl, err := table.ReadCSV(strings.NewReader(in), table.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !slices.Equal(tbl.Columns, []string{"site", "energy", "water"}) {
		t.Fatalf("columns = %q", tbl.Columns)
	}
	if !slices.Equal(tbl.Rows[0], table.Row{"A", "10", ""}) || !slices.Equal(tbl.Rows[1], table.Row{"B", "20", "6"}) {
		t.Fatalf("rows = %q", tbl.Rows)
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := table.ReadCSV(strings.NewReader(""), table.ReadOptions{}); !errors.Is(err, table.ErrEmptyCSV) {
		t.Fatalf("expected ErrEmptyCSV, got %v", err)
	}
}

func TestReadCSVFileTSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "water.tsv")
	if err := os.WriteFile(p, []byte("site\tm3\nA, north\t12\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := table.ReadCSVFile(p, table.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSVFile: %v", err)
	}
	if !slices.Equal(tbl.Rows[0], table.Row{"A, north", "12"}) {
		t.Fatalf("row = %q", tbl.Rows[0])
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	src, err := table.New([]string{"name", "note"},
		table.Row{"Acme", "plain"},
		table.Row{"Beta, Inc.", "has \"quotes\""},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, src); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "name,note\n") {
		t.Fatalf("output = %q", buf.String())
	}
	back, err := table.ReadCSV(&buf, table.ReadOptions{Delimiter: ','})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !back.Equal(src) {
		t.Fatalf("round trip = %q, want %q", back.Rows, src.Rows)
	}
}

func TestConcatRequiresSameColumns(t *testing.T) {
	a, _ := table.New([]string{"x", "y"}, table.Row{"1", "2"})
	b, _ := table.New([]string{"x", "y"}, table.Row{"3", "4"})
	c, _ := table.New([]string{"x"}, table.Row{"5"})

	out, err := table.Concat(a, b)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if out.Len() != 2 || a.Len() != 1 {
		t.Fatalf("out len = %d, a len = %d", out.Len(), a.Len())
	}
	if _, err := table.Concat(a, c); !errors.Is(err, table.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewRejectsRaggedRows(t *testing.T) {
	if _, err := table.New([]string{"a", "b"}, table.Row{"1"}); !errors.Is(err, table.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
