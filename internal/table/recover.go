package table

import (
	"regexp"
	"strings"
	"unicode"
)

// spaceClass holds the characters isSpace accepts. RE2's \s is ASCII only, so
// no-break spaces and other Unicode separators are listed explicitly.
const spaceClass = `\s\v\x{1c}-\x{1f}\x{85}\p{Z}`

var (
	decoration    = strings.NewReplacer("*", "", "|", "")
	separatorLine = regexp.MustCompile(`^[-` + spaceClass + `]+$`)
	fieldGap      = regexp.MustCompile(`[` + spaceClass + `]{2,}`)
)

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func trim(s string) string { return strings.TrimFunc(s, isSpace) }

// ParseText recovers a table from loosely formatted model output.
//
// Markdown decoration ('*' and '|') is dropped, blank and dash-only lines are
// skipped, and each remaining line is split on runs of two or more Unicode
// whitespace characters. The first line is the header; every later row is
// padded with empty cells or truncated to the header width.
//
// Field values that themselves contain two consecutive spaces are split, and
// tables delimited by single spaces collapse into one column.
func ParseText(text string) (*Table, error) {
	cleaned := trim(decoration.Replace(text))
	var records [][]string
	for _, line := range strings.Split(cleaned, "\n") {
		if trim(line) == "" || separatorLine.MatchString(line) {
			continue
		}
		records = append(records, fieldGap.Split(trim(line), -1))
	}
	if len(records) < 2 {
		return nil, &RecoveryError{Lines: len(records)}
	}
	header := records[0]
	t := &Table{Columns: header, Rows: make([]Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		t.Rows = append(t.Rows, fit(rec, len(header)))
	}
	return t, nil
}
