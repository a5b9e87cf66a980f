package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

// Comparison summarizes a column pair in a real table and its synthetic counterpart.
type Comparison struct {
	ColumnA string
	ColumnB string
	Real    PairSummary
	Synth   PairSummary
}

// PairSummary holds both column profiles and, when both are numeric, their
// Pearson correlation.
type PairSummary struct {
	Rows        int
	A           ColumnSummary
	B           ColumnSummary
	Correlation float64
	HasCorr     bool
}

// Compare profiles colA and colB in both tables.
func Compare(real, synthetic *table.Table, colA, colB string) (*Comparison, error) {
	if real == nil || synthetic == nil {
		return nil, fmt.Errorf("%w: both tables are required for comparison", table.ErrInvalidInput)
	}
	rs, err := summarizePair(real, colA, colB)
	if err != nil {
		return nil, fmt.Errorf("real data: %w", err)
	}
	ss, err := summarizePair(synthetic, colA, colB)
	if err != nil {
		return nil, fmt.Errorf("synthetic data: %w", err)
	}
	return &Comparison{ColumnA: colA, ColumnB: colB, Real: rs, Synth: ss}, nil
}

func summarizePair(t *table.Table, colA, colB string) (PairSummary, error) {
	ia, okA := t.Column(colA)
	ib, okB := t.Column(colB)
	if !okA {
		return PairSummary{}, fmt.Errorf("%w: unknown column %q", table.ErrInvalidInput, colA)
	}
	if !okB {
		return PairSummary{}, fmt.Errorf("%w: unknown column %q", table.ErrInvalidInput, colB)
	}
	opt := Options{Outliers: false}
	va, vb := t.Values(ia), t.Values(ib)
	ps := PairSummary{
		Rows: t.Len(),
		A:    profileColumn(colA, va, opt),
		B:    profileColumn(colB, vb, opt),
	}
	if ps.A.Kind == "numeric" && ps.B.Kind == "numeric" {
		var xs, ys []float64
		for i := range va {
			x, okx := parseNumeric(va[i], opt)
			y, oky := parseNumeric(vb[i], opt)
			if okx && oky {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
		if r, ok := pearson(xs, ys); ok {
			ps.Correlation, ps.HasCorr = r, true
		}
	}
	return ps, nil
}

// pearson returns false when fewer than two pairs exist or either side is constant.
func pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, false
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}

// Markdown renders the comparison as two short sections.
func (c *Comparison) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[COMPARISON] %s vs %s\n", safeName(c.ColumnA), safeName(c.ColumnB)))
	for _, part := range []struct {
		label string
		ps    PairSummary
	}{{"Real", c.Real}, {"Synthetic", c.Synth}} {
		b.WriteString(fmt.Sprintf("\n%s (%d rows)\n", part.label, part.ps.Rows))
		for _, col := range []ColumnSummary{part.ps.A, part.ps.B} {
			b.WriteString("- " + describeColumn(col) + "\n")
		}
		if part.ps.HasCorr {
			b.WriteString(fmt.Sprintf("- correlation: %.3f\n", part.ps.Correlation))
		}
	}
	return b.String()
}

func describeColumn(c ColumnSummary) string {
	switch c.Kind {
	case "numeric":
		return fmt.Sprintf("%s: numeric, min %.4g, max %.4g, mean %.4g, std %.4g", safeName(c.Name), c.Min, c.Max, c.Mean, c.Std)
	case "categorical":
		parts := make([]string, 0, len(c.TopValues))
		for _, kv := range c.TopValues {
			parts = append(parts, fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
		}
		return fmt.Sprintf("%s: categorical, unique %d, top %s", safeName(c.Name), c.Unique, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%s: %s, unique %d", safeName(c.Name), c.Kind, c.Unique)
	}
}
