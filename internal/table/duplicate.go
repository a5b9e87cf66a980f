package table

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxRows is the largest row count any action will add to a table.
const MaxRows = 1_000_000

// CheckCount rejects counts outside [0, limit]. A limit <= 0 means MaxRows.
func CheckCount(n, limit int) error {
	if limit <= 0 || limit > MaxRows {
		limit = MaxRows
	}
	if n < 0 {
		return fmt.Errorf("%w: row count must be >= 0, got %d", ErrInvalidInput, n)
	}
	if n > limit {
		return fmt.Errorf("%w: row count %d exceeds the limit of %d", ErrInvalidInput, n, limit)
	}
	return nil
}

// Duplicate returns a new table holding every row of t followed by extra
// copies taken cyclically from t's rows (row i of the copies is t.Rows[i%N]).
// t is left untouched.
func Duplicate(t *Table, extra int) (*Table, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil table", ErrInvalidInput)
	}
	if err := CheckCount(extra, MaxRows); err != nil {
		return nil, err
	}
	n := len(t.Rows)
	if extra > 0 && n == 0 {
		return nil, fmt.Errorf("%w: cannot duplicate rows of an empty table", ErrInvalidInput)
	}
	out := t.Clone()
	out.Rows = slices.Grow(out.Rows, extra)
	for i := 0; i < extra; i++ {
		out.Rows = append(out.Rows, slices.Clone(t.Rows[i%n]))
	}
	return out, nil
}

// ParseCount parses a user supplied row count. Anything that is not a
// base-10 integer in [0, MaxRows] is rejected with ErrInvalidInput.
func ParseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidInput, s)
	}
	if err := CheckCount(n, MaxRows); err != nil {
		return 0, err
	}
	return n, nil
}
