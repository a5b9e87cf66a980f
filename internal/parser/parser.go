// Package parser turns input files into tables. Readers are chosen by file
// extension; anything unrecognized is treated as CSV.
package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

// Options tune how a file is read.
type Options struct {
	Delimiter  rune   // CSV only; 0 sniffs
	MaxRows    int    // 0 = unlimited
	SheetName  string // XLSX only
	SheetIndex int    // XLSX only, 1-based
}

// Reader decodes one file format into a table.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (*table.Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ReadFile selects a reader based on filename and returns the decoded table.
func ReadFile(path string, opt Options) (*table.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return csvReader{}.Read(path, opt)
}

// Supported lists the extensions with a registered reader.
func Supported() []string {
	return []string{".csv", ".tsv", ".xlsx", ".txt", ".md"}
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
	Register(textReader{})
	Register(markdownReader{})
}

func hasSuffixFold(name string, exts ...string) bool {
	lower := strings.ToLower(name)
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}
