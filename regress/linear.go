package regress

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// leastSquares fits ordinary least squares, or ridge when alpha > 0, through
// a pseudo-inverse so that rank-deficient designs get the minimum-norm
// solution.
type leastSquares struct {
	linearModel
	alpha float64
}

func (m *leastSquares) fit(X [][]float64, y []float64) error {
	s := newStandardizer(X, nil)
	Z := s.apply(X)
	yMean := stat.Mean(y, nil)

	yc := make([]float64, len(y))
	for i, v := range y {
		yc[i] = v - yMean
	}

	beta := solveRidge(Z, yc, nil, penaltyDiag(s, m.alpha))
	m.coef, m.intercept = s.unscale(beta, yMean)

	return nil
}

func (m *leastSquares) predict(x []float64) float64 {
	return m.eval(x)
}

// penaltyDiag returns the per-column ridge penalty, expressed on
// standardized columns, that matches alpha on the original coefficients.
func penaltyDiag(s *standardizer, alpha float64) []float64 {
	if alpha == 0 {
		return nil
	}

	d := make([]float64, len(s.scale))
	for j, sc := range s.scale {
		if sc != 0 {
			d[j] = alpha / (sc * sc)
		}
	}

	return d
}

// solveRidge minimizes sum_i w_i (y_i - z_i.b)^2 + sum_j pen_j b_j^2 over the
// columns with a non-zero scale. A nil weight slice means unit weights and a
// nil penalty means no penalty.
func solveRidge(Z [][]float64, y, w, pen []float64) []float64 {
	n, p := len(Z), len(Z[0])
	beta := make([]float64, p)

	active := make([]int, 0, p)
	for j := 0; j < p; j++ {
		nonZero := false
		for i := 0; i < n; i++ {
			if Z[i][j] != 0 {
				nonZero = true
				break
			}
		}

		if nonZero {
			active = append(active, j)
		}
	}

	if len(active) == 0 {
		return beta
	}

	rows := n
	if pen != nil {
		rows += len(active)
	}

	a := mat.NewDense(rows, len(active), nil)
	b := mat.NewVecDense(rows, nil)

	for i := 0; i < n; i++ {
		sw := 1.0
		if w != nil {
			sw = math.Sqrt(w[i])
		}

		for c, j := range active {
			a.Set(i, c, sw*Z[i][j])
		}
		b.SetVec(i, sw*y[i])
	}

	if pen != nil {
		for c, j := range active {
			a.Set(n+c, c, math.Sqrt(pen[j]))
		}
	}

	sol := pseudoSolve(a, b)
	for c, j := range active {
		beta[j] = sol[c]
	}

	return beta
}

// pseudoSolve returns the minimum-norm least squares solution of a x = b.
func pseudoSolve(a *mat.Dense, b *mat.VecDense) []float64 {
	_, cols := a.Dims()
	x := make([]float64, cols)

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return x
	}

	values := svd.Values(nil)

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	tol := 0.0
	if len(values) > 0 {
		rows, _ := a.Dims()
		tol = values[0] * float64(max(rows, cols)) * 1e-15
	}

	for k, sv := range values {
		if sv <= tol {
			continue
		}

		coef := mat.Dot(u.ColView(k), b) / sv
		for j := 0; j < cols; j++ {
			x[j] += coef * v.At(j, k)
		}
	}

	return x
}
