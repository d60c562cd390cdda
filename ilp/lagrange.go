package ilp

import "math"

const (
	multiplierCeiling    = 1e15
	multiplierIterations = 100
)

// relax picks a multiplier for every LessEq constraint and fills restLag.
//
// For any multipliers lambda >= 0 the Lagrangian
//
//	sum over groups of min(cost + lambda . contribution) - lambda . (rhs + eps)
//
// is a lower bound on the objective. Multipliers are chosen one constraint at
// a time by bisection on the subgradient, which for a single budget
// constraint gives the bound of the convex hull (LP) relaxation.
func (s *search) relax() {
	nc := len(s.p.Constraints)
	s.lambda = make([]float64, nc)

	for c, con := range s.p.Constraints {
		if con.Sense != LessEq {
			continue
		}

		s.lambda[c] = s.bestMultiplier(c)
	}

	ng := len(s.groups)
	s.restLag = make([]float64, ng+1)
	s.lagConst = 0

	for c, con := range s.p.Constraints {
		s.lagConst -= s.lambda[c] * (con.RHS + tolerance(con.RHS))
	}

	for gi := ng - 1; gi >= 0; gi-- {
		best := math.Inf(1)
		for _, o := range s.groups[gi].options {
			best = math.Min(best, s.reducedCost(o))
		}

		s.restLag[gi] = s.restLag[gi+1] + best
	}
}

func (s *search) reducedCost(o option) float64 {
	rc := o.cost
	for c, l := range s.lambda {
		if l != 0 {
			rc += l * s.contribution(c, o)
		}
	}

	return rc
}

// slope returns the dual value and the subgradient along constraint c at the
// current multipliers.
func (s *search) slope(c int) (value, grad float64) {
	con := s.p.Constraints[c]

	for _, g := range s.groups {
		best := math.Inf(1)
		bestCon := 0.0

		for _, o := range g.options {
			rc := s.reducedCost(o)
			if rc < best {
				best = rc
				bestCon = s.contribution(c, o)
			}
		}

		value += best
		grad += bestCon
	}

	limit := con.RHS + tolerance(con.RHS)
	for cc, l := range s.lambda {
		value -= l * (s.p.Constraints[cc].RHS + tolerance(s.p.Constraints[cc].RHS))
	}

	return value, grad - limit
}

func (s *search) bestMultiplier(c int) float64 {
	s.lambda[c] = 0
	if _, g := s.slope(c); g <= 0 {
		return 0
	}

	hi := 1.0
	for {
		s.lambda[c] = hi
		if _, g := s.slope(c); g <= 0 || hi >= multiplierCeiling {
			break
		}
		hi *= 4
	}

	lo := 0.0
	for i := 0; i < multiplierIterations; i++ {
		mid := (lo + hi) / 2
		s.lambda[c] = mid

		if _, g := s.slope(c); g > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	s.lambda[c] = lo
	vLo, _ := s.slope(c)
	s.lambda[c] = hi
	vHi, _ := s.slope(c)

	if vLo > vHi {
		return lo
	}

	return hi
}

// lagrangeBound is the Lagrangian bound of the best completion of groups gi..
// given the options already applied.
func (s *search) lagrangeBound(gi int) float64 {
	b := s.cost + s.lagConst + s.restLag[gi]
	for c, l := range s.lambda {
		if l != 0 {
			b += l * s.lhs[c]
		}
	}

	return b
}

// orderByReducedCost sorts the options of each group so the search tries
// the ones favored by the relaxation first.
func (s *search) orderByReducedCost() {
	for gi := range s.groups {
		opts := s.groups[gi].options
		rc := make(map[Var]float64, len(opts))
		for _, o := range opts {
			rc[o.v] = s.reducedCost(o)
		}

		sortOptions(opts, func(a, b option) bool {
			if rc[a.v] != rc[b.v] {
				return rc[a.v] < rc[b.v]
			}

			return a.cost < b.cost
		})
	}
}
