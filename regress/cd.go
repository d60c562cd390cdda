package regress

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	cdMaxIter   = 10000
	cdTolerance = 1e-10
)

// coordinateDescent fits the elastic-net objective
//
//	1/(2n) ||y - Xb - c||^2 + alpha*l1 ||b||_1 + alpha*(1-l1)/2 ||b||^2
//
// optionally constrained to b >= 0. Lasso is l1 = 1, ridge is l1 = 0 and
// non-negative least squares is alpha = 0.
//
// With sumOfSquares set, alpha is divided by n so that it weighs the
// unscaled ||y - Xb - c||^2 + alpha ||b||^2 like leastSquares does.
type coordinateDescent struct {
	linearModel
	alpha        float64
	l1Ratio      float64
	positive     bool
	sumOfSquares bool
}

func (m *coordinateDescent) fit(X [][]float64, y []float64) error {
	n := len(X)
	s := newStandardizer(X, nil)
	Z := s.apply(X)
	yMean := stat.Mean(y, nil)

	alpha := m.alpha
	if m.sumOfSquares {
		alpha /= float64(n)
	}

	p := len(s.scale)
	beta := make([]float64, p)
	resid := make([]float64, n)
	for i, v := range y {
		resid[i] = v - yMean
	}

	yScale := math.Max(floats.Norm(resid, math.Inf(1)), 1e-300)

	colSq := make([]float64, p)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			colSq[j] += Z[i][j] * Z[i][j]
		}
		colSq[j] /= float64(n)
	}

	for iter := 0; iter < cdMaxIter; iter++ {
		maxDelta := 0.0

		for j := 0; j < p; j++ {
			if s.scale[j] == 0 || colSq[j] == 0 {
				continue
			}

			rho := 0.0
			for i := 0; i < n; i++ {
				rho += Z[i][j] * (resid[i] + Z[i][j]*beta[j])
			}
			rho /= float64(n)

			l1 := alpha * m.l1Ratio / s.scale[j]
			l2 := alpha * (1 - m.l1Ratio) / (s.scale[j] * s.scale[j])

			next := softThreshold(rho, l1) / (colSq[j] + l2)
			if m.positive && next < 0 {
				next = 0
			}

			delta := next - beta[j]
			if delta == 0 {
				continue
			}

			for i := 0; i < n; i++ {
				resid[i] -= Z[i][j] * delta
			}

			beta[j] = next
			maxDelta = math.Max(maxDelta, math.Abs(delta))
		}

		if maxDelta <= cdTolerance*yScale {
			break
		}
	}

	m.coef, m.intercept = s.unscale(beta, yMean)

	return nil
}

func (m *coordinateDescent) predict(x []float64) float64 {
	return m.eval(x)
}

func softThreshold(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}
