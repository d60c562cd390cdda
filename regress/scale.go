package regress

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// standardizer centers every column and scales it to unit population
// standard deviation. Constant columns get a zero scale and are ignored by
// the solvers.
type standardizer struct {
	mean  []float64
	scale []float64
}

func newStandardizer(X [][]float64, weights []float64) *standardizer {
	p := len(X[0])
	s := &standardizer{
		mean:  make([]float64, p),
		scale: make([]float64, p),
	}

	col := make([]float64, len(X))
	for j := 0; j < p; j++ {
		for i, row := range X {
			col[i] = row[j]
		}

		mean, std := stat.PopMeanStdDev(col, weights)
		s.mean[j] = mean

		if std > 1e-12*math.Max(1, math.Abs(mean)) {
			s.scale[j] = std
		}
	}

	return s
}

func (s *standardizer) apply(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.row(row)
	}

	return out
}

func (s *standardizer) row(x []float64) []float64 {
	z := make([]float64, len(x))
	for j, v := range x {
		if s.scale[j] != 0 {
			z[j] = (v - s.mean[j]) / s.scale[j]
		}
	}

	return z
}

// unscale converts coefficients learned on standardized columns back to the
// original feature space and returns them with the matching intercept.
func (s *standardizer) unscale(beta []float64, intercept float64) ([]float64, float64) {
	coef := make([]float64, len(beta))
	for j, b := range beta {
		if s.scale[j] == 0 {
			continue
		}

		coef[j] = b / s.scale[j]
		intercept -= coef[j] * s.mean[j]
	}

	return coef, intercept
}

// linearModel is the prediction half shared by the linear families.
type linearModel struct {
	coef      []float64
	intercept float64
}

func (m *linearModel) eval(x []float64) float64 {
	if m.coef == nil {
		return math.NaN()
	}

	v := m.intercept
	for j, c := range m.coef {
		v += c * x[j]
	}

	return v
}
