package parser

import (
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

type csvReader struct{}

func (csvReader) CanRead(filename string) bool {
	return hasSuffixFold(filename, ".csv", ".tsv")
}

func (csvReader) Read(path string, opt Options) (*table.Table, error) {
	ro := table.ReadOptions{Delimiter: opt.Delimiter, MaxRows: opt.MaxRows}
	if ro.Delimiter == 0 && hasSuffixFold(path, ".tsv") {
		ro.Delimiter = '\t'
	}
	return table.ReadCSVFile(path, ro)
}
