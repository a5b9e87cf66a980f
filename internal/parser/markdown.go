package parser

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

type markdownReader struct{}

func (markdownReader) CanRead(filename string) bool {
	return hasSuffixFold(filename, ".md", ".markdown")
}

// Read keeps only the pipe table lines of the document and recovers them.
func (markdownReader) Read(path string, opt Options) (*table.Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	text := string(bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")))
	text = strings.ReplaceAll(text, "\r", "\n")

	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	src := sb.String()
	if src == "" {
		// no pipe table; try the whole document
		src = text
	}
	t, err := table.ParseText(src)
	if err != nil {
		return nil, err
	}
	if opt.MaxRows > 0 {
		t = t.Head(opt.MaxRows)
	}
	return t, nil
}
