package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

// Options controls column profiling.
type Options struct {
	// Name labels the report (usually the source file name).
	Name string
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly profile of a table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|datetime|categorical|text|unknown
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// Profile infers a kind for every column of t and summarizes it.
func Profile(t *table.Table, opt Options) *Report {
	rep := &Report{Name: opt.Name, Rows: t.Len()}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	for i := 0; i < t.Len() && i < sampleRows; i++ {
		rep.Samples = append(rep.Samples, append([]string(nil), t.Rows[i]...))
	}
	for j := range t.Columns {
		rep.Cols = append(rep.Cols, profileColumn(t.Columns[j], t.Values(j), opt))
	}
	if t.Len() == 0 {
		rep.Warnings = append(rep.Warnings, "table has a header but no data rows")
	}
	return rep
}

func profileColumn(header string, values []string, opt Options) ColumnSummary {
	clean, unit := splitUnits(header)
	s := ColumnSummary{Name: clean, Unit: unit}
	var nums []float64
	var dtCnt, txtCnt int
	cats := map[string]int{}
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			s.Missing++
			continue
		}
		s.NonNull++
		cats[v]++
		if strings.Contains(v, "%") && s.Unit == "" {
			s.Unit = "%"
		}
		if x, ok := parseNumeric(v, opt); ok {
			nums = append(nums, x)
			continue
		}
		if _, ok := parseTimeMaybe(v); ok {
			dtCnt++
			continue
		}
		txtCnt++
		if len(s.ExampleTexts) < 3 {
			s.ExampleTexts = append(s.ExampleTexts, v)
		}
	}
	s.Unique = len(cats)

	// Decide kind by predominant parsed type
	switch {
	case len(nums) > 0 && len(nums) >= dtCnt && len(nums) >= txtCnt:
		s.Kind = "numeric"
		s.ExampleTexts = nil
		st := describe(nums)
		s.Min, s.Max, s.Mean, s.Std = st.Min, st.Max, st.Mean, st.Std
		if opt.Outliers && len(nums) >= 8 {
			s.OutliersCount, s.OutliersMaxAbsZ, s.OutlierThreshold = robustOutliers(nums, opt.OutlierThreshold)
		}
	case dtCnt > 0 && dtCnt >= txtCnt:
		s.Kind = "datetime"
		s.ExampleTexts = nil
	case txtCnt > 0 && isCategorical(cats, s.NonNull):
		s.Kind = "categorical"
		s.ExampleTexts = nil
		s.TopValues = topValues(cats, 8)
	case txtCnt > 0:
		s.Kind = "text"
	default:
		s.Kind = "unknown"
	}
	return s
}

// isCategorical treats short values that repeat, or small vocabularies, as categories.
func isCategorical(cats map[string]int, nonNull int) bool {
	for v := range cats {
		if len(v) > 64 {
			return false
		}
	}
	return len(cats) <= 20 || len(cats)*2 <= nonNull
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// NumSummary is the basic shape of a numeric sample.
type NumSummary struct {
	Count          int
	Min, Max, Mean float64
	Std            float64
}

// describe computes min/max/mean and the sample standard deviation (Welford).
func describe(vals []float64) NumSummary {
	s := NumSummary{Min: math.Inf(1), Max: math.Inf(-1)}
	var m2 float64
	for _, x := range vals {
		s.Count++
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
		delta := x - s.Mean
		s.Mean += delta / float64(s.Count)
		m2 += delta * (x - s.Mean)
	}
	if s.Count == 0 {
		s.Min, s.Max = 0, 0
	}
	if s.Count > 1 {
		s.Std = math.Sqrt(m2 / float64(s.Count-1))
	}
	return s
}

func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ, threshold float64) {
	if thr <= 0 {
		thr = 3.5
	}
	median, mad := medianMAD(vals)
	if mad > 0 {
		for _, v := range vals {
			az := math.Abs(0.6745 * (v - median) / mad)
			if az > thr {
				count++
			}
			if az > maxAbsZ {
				maxAbsZ = az
			}
		}
	}
	return count, maxAbsZ, thr
}

// Markdown renders a compact report suitable for prompts or the terminal.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(" — e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
