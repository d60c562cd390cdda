package regress

// polyFeatures expands a feature row into every monomial of degree 1 up to
// the configured degree, without a bias column. Monomials are ordered by
// degree, then lexicographically by feature index.
type polyFeatures struct {
	inputs int
	terms  [][]int
}

func newPolyFeatures(inputs, degree int) *polyFeatures {
	p := &polyFeatures{inputs: inputs}

	var combine func(start int, prefix []int, remaining int)
	combine = func(start int, prefix []int, remaining int) {
		if remaining == 0 {
			p.terms = append(p.terms, append([]int(nil), prefix...))
			return
		}

		for i := start; i < inputs; i++ {
			combine(i, append(prefix, i), remaining-1)
		}
	}

	for d := 1; d <= degree; d++ {
		combine(0, nil, d)
	}

	return p
}

func (p *polyFeatures) transform(x []float64) []float64 {
	out := make([]float64, len(p.terms))
	for t, term := range p.terms {
		v := 1.0
		for _, i := range term {
			v *= x[i]
		}
		out[t] = v
	}

	return out
}
