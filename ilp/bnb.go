package ilp

import (
	"fmt"
	"log/slog"
	"sort"
)

// DefaultNodeLimit bounds the search of a zero-valued BranchAndBound.
const DefaultNodeLimit = 2_000_000

// BranchAndBound is a depth-first branch-and-bound solver.
//
// Constraints of the form sum(x) = 1 with unit coefficients are detected as
// choice groups. The search branches on which member of a group is set;
// variables outside any group branch on 0 and 1. Nodes are pruned when a
// lower bound on the best completion cannot beat the incumbent or when a
// constraint cannot be met by any completion. The bound is the larger of
// the cheapest unconstrained completion and a Lagrangian relaxation of the
// LessEq constraints.
type BranchAndBound struct {
	NodeLimit int
}

type option struct {
	v    Var // -1 leaves every member at zero
	cost float64
}

type group struct {
	options []option

	// minCon and maxCon are the smallest and largest contribution of any
	// option to each constraint.
	minCon []float64
	maxCon []float64
}

type search struct {
	p      *Problem
	groups []group
	coef   [][]float64 // coef[c][v]
	limit  int

	lhs       []float64
	restMin   [][]float64 // restMin[g][c]: min contribution of groups g..
	restMax   [][]float64
	restCost  []float64
	lambda    []float64 // multiplier per constraint, zero unless LessEq
	restLag   []float64 // restLag[g]: sum of min reduced costs of groups g..
	lagConst  float64
	current   []Var
	cost      float64
	best      []Var
	bestCost  float64
	found     bool
	nodes     int
	truncated bool
}

// Solve finds an assignment minimizing the objective.
func (b BranchAndBound) Solve(p *Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, err
	}

	limit := b.NodeLimit
	if limit <= 0 {
		limit = DefaultNodeLimit
	}

	s := newSearch(p, limit)
	s.dfs(0)

	if !s.found {
		if s.truncated {
			return Solution{Nodes: s.nodes}, ErrNodeLimit
		}

		return Solution{Nodes: s.nodes}, ErrInfeasible
	}

	sol := Solution{
		Values:  make([]bool, p.NumVars()),
		Optimal: !s.truncated,
		Nodes:   s.nodes,
	}
	for _, v := range s.best {
		if v >= 0 {
			sol.Values[v] = true
		}
	}

	obj, ok := p.Evaluate(sol.Values)
	if !ok {
		return Solution{}, fmt.Errorf("%w: incumbent violates a constraint", ErrInvalidModel)
	}
	sol.Objective = obj

	if s.truncated {
		slog.Warn("branch and bound stopped at node limit",
			"nodes", s.nodes, "objective", obj)
	}

	return sol, nil
}

func newSearch(p *Problem, limit int) *search {
	s := &search{p: p, limit: limit}

	s.coef = make([][]float64, len(p.Constraints))
	for c, con := range p.Constraints {
		s.coef[c] = make([]float64, p.NumVars())
		for _, t := range con.Terms {
			s.coef[c][t.Var] += t.Coef
		}
	}

	s.groups = s.buildGroups()
	s.precompute()
	s.lhs = make([]float64, len(p.Constraints))
	s.relax()
	s.orderByReducedCost()

	return s
}

func (s *search) buildGroups() []group {
	p := s.p
	grouped := make([]bool, p.NumVars())

	var groups []group
	for _, con := range p.Constraints {
		if !isChoice(con, grouped) {
			continue
		}

		g := group{}
		for _, t := range con.Terms {
			grouped[t.Var] = true
			g.options = append(g.options, option{v: t.Var, cost: p.Cost[t.Var]})
		}
		groups = append(groups, g)
	}

	for v := 0; v < p.NumVars(); v++ {
		if grouped[v] {
			continue
		}

		groups = append(groups, group{options: []option{
			{v: -1},
			{v: Var(v), cost: p.Cost[v]},
		}})
	}

	for i := range groups {
		sortOptions(groups[i].options, func(a, b option) bool { return a.cost < b.cost })
	}

	return groups
}

func sortOptions(opts []option, less func(a, b option) bool) {
	sort.SliceStable(opts, func(a, b int) bool { return less(opts[a], opts[b]) })
}

func isChoice(con Constraint, grouped []bool) bool {
	if con.Sense != Equal || con.RHS != 1 || len(con.Terms) == 0 {
		return false
	}

	seen := map[Var]bool{}
	for _, t := range con.Terms {
		if t.Coef != 1 || grouped[t.Var] || seen[t.Var] {
			return false
		}
		seen[t.Var] = true
	}

	return true
}

func (s *search) contribution(c int, o option) float64 {
	if o.v < 0 {
		return 0
	}

	return s.coef[c][o.v]
}

func (s *search) precompute() {
	nc := len(s.p.Constraints)
	ng := len(s.groups)

	for gi := range s.groups {
		g := &s.groups[gi]
		g.minCon = make([]float64, nc)
		g.maxCon = make([]float64, nc)

		for c := 0; c < nc; c++ {
			for oi, o := range g.options {
				x := s.contribution(c, o)
				if oi == 0 || x < g.minCon[c] {
					g.minCon[c] = x
				}
				if oi == 0 || x > g.maxCon[c] {
					g.maxCon[c] = x
				}
			}
		}
	}

	s.restMin = make([][]float64, ng+1)
	s.restMax = make([][]float64, ng+1)
	s.restCost = make([]float64, ng+1)
	s.restMin[ng] = make([]float64, nc)
	s.restMax[ng] = make([]float64, nc)

	for gi := ng - 1; gi >= 0; gi-- {
		g := s.groups[gi]
		s.restMin[gi] = make([]float64, nc)
		s.restMax[gi] = make([]float64, nc)

		for c := 0; c < nc; c++ {
			s.restMin[gi][c] = s.restMin[gi+1][c] + g.minCon[c]
			s.restMax[gi][c] = s.restMax[gi+1][c] + g.maxCon[c]
		}

		cheapest := g.options[0].cost
		for _, o := range g.options[1:] {
			cheapest = min(cheapest, o.cost)
		}
		s.restCost[gi] = s.restCost[gi+1] + cheapest
	}
}

// feasible reports whether some completion of groups gi.. can satisfy every
// constraint given the current left-hand sides.
func (s *search) feasible(gi int) bool {
	for c, con := range s.p.Constraints {
		lo := s.lhs[c] + s.restMin[gi][c]
		hi := s.lhs[c] + s.restMax[gi][c]
		eps := tolerance(con.RHS)

		switch con.Sense {
		case LessEq:
			if lo > con.RHS+eps {
				return false
			}
		case GreaterEq:
			if hi < con.RHS-eps {
				return false
			}
		default:
			if lo > con.RHS+eps || hi < con.RHS-eps {
				return false
			}
		}
	}

	return true
}

func (s *search) dfs(gi int) {
	if s.nodes >= s.limit {
		s.truncated = true
		return
	}
	s.nodes++

	if s.found && (s.cost+s.restCost[gi] >= s.bestCost || s.lagrangeBound(gi) >= s.bestCost) {
		return
	}

	if !s.feasible(gi) {
		return
	}

	if gi == len(s.groups) {
		s.found = true
		s.bestCost = s.cost
		s.best = append(s.best[:0], s.current...)

		return
	}

	for _, o := range s.groups[gi].options {
		s.apply(o, 1)
		s.current = append(s.current, o.v)

		s.dfs(gi + 1)

		s.current = s.current[:len(s.current)-1]
		s.apply(o, -1)

		if s.truncated {
			return
		}
	}
}

func (s *search) apply(o option, sign float64) {
	s.cost += sign * o.cost
	for c := range s.lhs {
		s.lhs[c] += sign * s.contribution(c, o)
	}
}
