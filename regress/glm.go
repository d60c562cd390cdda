package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	glmMaxIter   = 100
	glmTolerance = 1e-10
	maxEta       = 700
)

type glmFamily int

const (
	poissonFamily glmFamily = iota
	gammaFamily
)

// glm fits a generalized linear model with a log link by iteratively
// reweighted least squares. The penalty matches
//
//	1/(2n) deviance + alpha/2 ||b||^2
//
// Positive coefficients are enforced by projecting after each step.
type glm struct {
	linearModel
	link     glmFamily
	alpha    float64
	positive bool
}

func (m *glm) fit(X [][]float64, y []float64) error {
	if err := m.checkTarget(y); err != nil {
		return err
	}

	n := len(X)
	s := newStandardizer(X, nil)
	Z := s.apply(X)

	p := len(s.scale)
	beta := make([]float64, p)
	intercept := math.Log(stat.Mean(y, nil))

	pen := penaltyDiag(s, m.alpha*float64(n))

	eta := make([]float64, n)
	w := make([]float64, n)
	z := make([]float64, n)

	for iter := 0; iter < glmMaxIter; iter++ {
		for i := range Z {
			eta[i] = intercept
			for j, b := range beta {
				eta[i] += b * Z[i][j]
			}
			eta[i] = math.Min(eta[i], maxEta)

			mu := math.Exp(eta[i])
			z[i] = eta[i] + (y[i]-mu)/mu

			switch m.link {
			case poissonFamily:
				w[i] = math.Max(mu, 1e-300)
			case gammaFamily:
				w[i] = 1
			}
		}

		next, nextIntercept := weightedRidge(Z, z, w, pen)
		if m.positive {
			for j := range next {
				if next[j] < 0 {
					next[j] = 0
				}
			}
			nextIntercept = weightedIntercept(Z, z, w, next)
		}

		delta := math.Abs(nextIntercept - intercept)
		for j := range beta {
			delta = math.Max(delta, math.Abs(next[j]-beta[j]))
		}

		beta, intercept = next, nextIntercept
		if delta < glmTolerance {
			break
		}
	}

	m.coef, m.intercept = s.unscale(beta, intercept)

	return nil
}

func (m *glm) checkTarget(y []float64) error {
	sum := 0.0
	for _, v := range y {
		switch {
		case m.link == poissonFamily && !(v >= 0):
			return fmt.Errorf("%w: poisson needs non-negative targets, got %v", ErrBadTarget, v)
		case m.link == gammaFamily && !(v > 0):
			return fmt.Errorf("%w: gamma needs positive targets, got %v", ErrBadTarget, v)
		}
		sum += v
	}

	if !(sum > 0) {
		return fmt.Errorf("%w: target sum must be positive", ErrBadTarget)
	}

	return nil
}

func (m *glm) predict(x []float64) float64 {
	return math.Exp(math.Min(m.eval(x), maxEta))
}

// weightedRidge solves the penalized weighted least squares step with an
// unpenalized intercept.
func weightedRidge(Z [][]float64, z, w, pen []float64) ([]float64, float64) {
	n, p := len(Z), len(Z[0])

	zMean := stat.Mean(z, w)
	colMean := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			col[i] = Z[i][j]
		}
		colMean[j] = stat.Mean(col, w)
	}

	Zc := make([][]float64, n)
	zc := make([]float64, n)
	for i := 0; i < n; i++ {
		Zc[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			Zc[i][j] = Z[i][j] - colMean[j]
		}
		zc[i] = z[i] - zMean
	}

	beta := solveRidge(Zc, zc, w, pen)

	intercept := zMean
	for j, b := range beta {
		intercept -= b * colMean[j]
	}

	return beta, intercept
}

func weightedIntercept(Z [][]float64, z, w, beta []float64) float64 {
	r := make([]float64, len(z))
	for i := range z {
		r[i] = z[i]
		for j, b := range beta {
			r[i] -= b * Z[i][j]
		}
	}

	return stat.Mean(r, w)
}
