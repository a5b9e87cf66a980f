package parser

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

// textReader recovers a table from a saved generative service reply.
type textReader struct{}

func (textReader) CanRead(filename string) bool {
	return hasSuffixFold(filename, ".txt")
}

func (textReader) Read(path string, opt Options) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	t, err := table.ParseText(string(data))
	if err != nil {
		return nil, err
	}
	if opt.MaxRows > 0 {
		t = t.Head(opt.MaxRows)
	}
	return t, nil
}
