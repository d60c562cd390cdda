package regress

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// meanModel predicts the sample mean whatever the features.
type meanModel struct {
	mean   float64
	fitted bool
}

func (m *meanModel) fit(_ [][]float64, y []float64) error {
	m.mean = stat.Mean(y, nil)
	m.fitted = true

	return nil
}

func (m *meanModel) predict(_ []float64) float64 {
	if !m.fitted {
		return math.NaN()
	}

	return m.mean
}
