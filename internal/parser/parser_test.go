package parser_test

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/KaramelBytes/esgsynth-cli/internal/parser"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestReadFileCSV(t *testing.T) {
	p := writeFile(t, "esg.csv", "Company,Year,Scope 1 (tCO2e)\nAcme,2021,120\nAcme,2022,110\n")
	tb, err := parser.ReadFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tb.Len() != 2 || tb.Width() != 3 {
		t.Fatalf("unexpected shape %dx%d", tb.Len(), tb.Width())
	}
	if tb.Rows[1][2] != "110" {
		t.Fatalf("unexpected cell: %q", tb.Rows[1][2])
	}
}

func TestReadFileTSVAndMaxRows(t *testing.T) {
	p := writeFile(t, "esg.tsv", "a\tb\n1\t2\n3\t4\n5\t6\n")
	tb, err := parser.ReadFile(p, parser.Options{MaxRows: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tb.Len() != 2 || tb.Rows[1][1] != "4" {
		t.Fatalf("unexpected table: %+v", tb)
	}
}

func TestReadFileUnknownExtensionFallsBackToCSV(t *testing.T) {
	p := writeFile(t, "export.dat", "a;b\n1;2\n")
	tb, err := parser.ReadFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(tb.Columns, []string{"a", "b"}) {
		t.Fatalf("unexpected columns: %v", tb.Columns)
	}
}

func TestReadFileTextRecoversTable(t *testing.T) {
	reply := "Company  Year  Emissions\n---  ---  ---\nAcme  2023  10.5\nGlobex  2023  7\n"
	p := writeFile(t, "reply.txt", reply)
	tb, err := parser.ReadFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tb.Len() != 2 || tb.Width() != 3 || tb.Rows[0][2] != "10.5" {
		t.Fatalf("unexpected table: %+v", tb)
	}
}

func TestReadFileMarkdownKeepsPipeTable(t *testing.T) {
	md := "# Emissions\n\nSome intro text that is not part of the table.\n\n" +
		"| Company | Year | Emissions |\n|---|---|---|\n| Acme | 2023 | 10 |\n| Globex | 2023 | 7 |\n\nTrailing notes.\n"
	p := writeFile(t, "reply.md", md)
	tb, err := parser.ReadFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(tb.Columns, []string{"Company", "Year", "Emissions"}) {
		t.Fatalf("unexpected columns: %v", tb.Columns)
	}
	if tb.Len() != 2 || tb.Rows[1][0] != "Globex" {
		t.Fatalf("unexpected rows: %v", tb.Rows)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := parser.ReadFile(filepath.Join(t.TempDir(), "nope.csv"), parser.Options{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// writeWorkbook builds a two-sheet workbook: "Notes" (sheet1) and "Data" (sheet2).
func writeWorkbook(t *testing.T) string {
	t.Helper()
	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Notes" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets>
</workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="worksheet" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`,
		"xl/sharedStrings.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t>Company</t></si><si><t>Year</t></si><si><t>Emissions</t></si><si><t>Acme</t></si><si><t>Globex</t></si><si><t>note</t></si>
</sst>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>5</v></c></row>
</sheetData></worksheet>`,
		"xl/worksheets/sheet2.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c></row>
<row r="2"><c r="A2" t="s"><v>3</v></c><c r="B2"><v>2021</v></c><c r="C2"><v>12.5</v></c></row>
<row r="3"><c r="A3" t="s"><v>4</v></c><c r="C3"><v>7</v></c></row>
<row r="4"><c r="A4" t="inlineStr"><is><t>Initech</t></is></c><c r="B4"><v>2022</v></c><c r="C4"><v>3</v></c></row>
</sheetData></worksheet>`,
	}
	p := filepath.Join(t.TempDir(), "esg.xlsx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return p
}

func TestReadFileXLSXBySheetName(t *testing.T) {
	p := writeWorkbook(t)
	tb, err := parser.ReadFile(p, parser.Options{SheetName: "data"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want, _ := table.New([]string{"Company", "Year", "Emissions"},
		table.Row{"Acme", "2021", "12.5"},
		table.Row{"Globex", "", "7"},
		table.Row{"Initech", "2022", "3"},
	)
	if !tb.Equal(want) {
		t.Fatalf("unexpected table:\n got %+v\nwant %+v", tb, want)
	}
}

func TestReadFileXLSXByIndex(t *testing.T) {
	p := writeWorkbook(t)
	tb, err := parser.ReadFile(p, parser.Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tb.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", tb.Len())
	}
	first, err := parser.ReadFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("read first sheet: %v", err)
	}
	if !reflect.DeepEqual(first.Columns, []string{"note"}) || first.Len() != 0 {
		t.Fatalf("unexpected first sheet: %+v", first)
	}
}

func TestReadFileXLSXUnknownSheet(t *testing.T) {
	p := writeWorkbook(t)
	_, err := parser.ReadFile(p, parser.Options{SheetName: "Missing"})
	if !errors.Is(err, table.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
