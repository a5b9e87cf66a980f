package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/esgsynth-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"Company,Year\n", 3},
		{strings.Repeat("é", 40), 10},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got != c.want {
			t.Errorf("CountTokens(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000)
	trunc := utils.TruncateToTokenLimit(text, 300)
	if n := utils.CountTokens(trunc); n != 300 {
		t.Fatalf("tokens = %d, want 300", n)
	}
	if got := utils.TruncateToTokenLimit("short", 10); got != "short" {
		t.Fatalf("short text changed: %q", got)
	}
	if got := utils.TruncateToTokenLimit("anything", 0); got != "" {
		t.Fatalf("zero limit kept %q", got)
	}
}

func TestTruncateLinesKeepsWholeRows(t *testing.T) {
	csv := "Company,Year\n" + strings.Repeat("Acme,2021\n", 50)
	got := utils.TruncateLines(csv, 10)
	if !strings.HasPrefix(got, "Company,Year\n") || !strings.HasSuffix(got, "\n") {
		t.Fatalf("unexpected cut %q", got)
	}
	for _, line := range strings.Split(strings.TrimSuffix(got, "\n"), "\n")[1:] {
		if line != "Acme,2021" {
			t.Fatalf("partial row %q", line)
		}
	}
	if utils.TruncateLines(csv, 1000) != csv {
		t.Fatal("text within budget must be unchanged")
	}
	if got := utils.TruncateLines(strings.Repeat("x", 100), 5); got != strings.Repeat("x", 20) {
		t.Fatalf("single long line = %q", got)
	}
}
