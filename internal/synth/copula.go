// Package synth fits a statistical model to a sample table and draws new rows from it.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/KaramelBytes/esgsynth-cli/internal/table"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrEmptySample is returned when Fit receives a table without rows.
	ErrEmptySample = errors.New("sample table has no rows")
	// ErrNotFitted is returned when Sample is called before a successful Fit.
	ErrNotFitted = errors.New("synthesizer has not been fitted")
)

// Synthesizer learns a distribution from a sample and produces new rows.
type Synthesizer interface {
	Fit(t *table.Table) error
	Sample(n int) (*table.Table, error)
}

// Options configures a GaussianCopula.
type Options struct {
	// Seed makes sampling reproducible. 0 picks a random seed.
	Seed uint64
}

// GaussianCopula models every column as categorical. Each category maps to the
// midpoint of its cumulative-frequency interval on the standard normal scale;
// dependence between columns is captured by the correlation of those latent
// values.
type GaussianCopula struct {
	columns []string
	margins []margin
	lower   *mat.TriDense
	rng     *rand.Rand
}

// margin is the empirical categorical distribution of one column.
type margin struct {
	values []string  // categories in order of first appearance
	upper  []float64 // cumulative probability at the end of each category's interval
	latent map[string]float64
}

// NewGaussianCopula returns an unfitted synthesizer.
func NewGaussianCopula(opt Options) *GaussianCopula {
	seed := opt.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &GaussianCopula{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Fit estimates the marginals and latent correlation from t.
func (g *GaussianCopula) Fit(t *table.Table) error {
	if t == nil || t.Len() == 0 {
		return ErrEmptySample
	}
	d := t.Width()
	g.columns = append([]string(nil), t.Columns...)
	g.margins = make([]margin, d)
	latent := make([][]float64, d)
	for j := 0; j < d; j++ {
		g.margins[j] = fitMargin(t.Values(j))
		latent[j] = make([]float64, t.Len())
		for i, r := range t.Rows {
			latent[j][i] = g.margins[j].latent[r[j]]
		}
	}
	g.lower = choleskyLower(correlation(latent))
	return nil
}

// Sample draws n synthetic rows with the fitted column set.
func (g *GaussianCopula) Sample(n int) (*table.Table, error) {
	if err := table.CheckCount(n, table.MaxRows); err != nil {
		return nil, fmt.Errorf("sample size: %w", err)
	}
	if g.margins == nil {
		return nil, ErrNotFitted
	}
	d := len(g.columns)
	out := &table.Table{Columns: append([]string(nil), g.columns...), Rows: make([]table.Row, 0, n)}
	z := make([]float64, d)
	for i := 0; i < n; i++ {
		for k := range z {
			z[k] = g.rng.NormFloat64()
		}
		row := make(table.Row, d)
		for j := 0; j < d; j++ {
			var x float64
			for k := 0; k <= j; k++ {
				x += g.lower.At(j, k) * z[k]
			}
			row[j] = g.margins[j].pick(distuv.UnitNormal.CDF(x))
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func fitMargin(values []string) margin {
	counts := map[string]int{}
	var order []string
	for _, v := range values {
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	m := margin{values: order, upper: make([]float64, len(order)), latent: make(map[string]float64, len(order))}
	total := float64(len(values))
	lo := 0.0
	for k, v := range order {
		hi := lo + float64(counts[v])/total
		if k == len(order)-1 {
			hi = 1
		}
		m.upper[k] = hi
		m.latent[v] = distuv.UnitNormal.Quantile((lo + hi) / 2)
		lo = hi
	}
	return m
}

// pick maps a probability back to the category whose interval contains it.
func (m margin) pick(u float64) string {
	k := sort.SearchFloat64s(m.upper, u)
	if k < len(m.upper) && m.upper[k] == u {
		k++
	}
	if k >= len(m.values) {
		k = len(m.values) - 1
	}
	return m.values[k]
}

// correlation returns the Pearson correlation matrix of the given columns.
// Constant columns are uncorrelated with everything else.
func correlation(cols [][]float64) *mat.SymDense {
	d := len(cols)
	c := mat.NewSymDense(max(d, 1), nil)
	if d == 0 {
		c.SetSym(0, 0, 1)
		return c
	}
	means := make([]float64, d)
	sds := make([]float64, d)
	for j, col := range cols {
		for _, v := range col {
			means[j] += v
		}
		means[j] /= float64(len(col))
		for _, v := range col {
			sds[j] += (v - means[j]) * (v - means[j])
		}
		sds[j] = math.Sqrt(sds[j])
	}
	for a := 0; a < d; a++ {
		c.SetSym(a, a, 1)
		for b := 0; b < a; b++ {
			if sds[a] == 0 || sds[b] == 0 {
				continue
			}
			var s float64
			for i := range cols[a] {
				s += (cols[a][i] - means[a]) * (cols[b][i] - means[b])
			}
			c.SetSym(a, b, s/(sds[a]*sds[b]))
		}
	}
	return c
}

// choleskyLower factorizes c, shrinking it toward the identity until it is
// positive definite.
func choleskyLower(c *mat.SymDense) *mat.TriDense {
	n := c.SymmetricDim()
	for _, shrink := range []float64{0, 1e-9, 1e-6, 1e-3, 1e-2, 0.1, 0.5} {
		a := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j <= i; j++ {
				v := c.At(i, j) * (1 - shrink)
				if i == j {
					v = 1
				}
				a.SetSym(i, j, v)
			}
		}
		var chol mat.Cholesky
		if chol.Factorize(a) {
			var l mat.TriDense
			chol.LTo(&l)
			return &l
		}
	}
	l := mat.NewTriDense(n, mat.Lower, nil)
	for i := 0; i < n; i++ {
		l.SetTri(i, i, 1)
	}
	return l
}
