package utils

import "strings"

// charsPerToken is the rough rune-to-token ratio used for prompt budgets.
const charsPerToken = 4

// CountTokens estimates the tokens in text. Any non-empty text counts as at least one.
func CountTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return max(1, n/charsPerToken)
}

// TruncateToTokenLimit cuts text to roughly limit tokens.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if n := limit * charsPerToken; n < len(runes) {
		return string(runes[:n])
	}
	return text
}

// TruncateLines keeps the leading whole lines of text that fit in limit tokens.
// The first line is always kept, cut to the limit if it alone is too long, so a
// CSV header survives any budget.
func TruncateLines(text string, limit int) string {
	if CountTokens(text) <= limit {
		return text
	}
	cut := TruncateToTokenLimit(text, limit)
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		return cut[:i+1]
	}
	return cut
}
