package policy

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/ilp"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// OptimalMCKP solves the choice of one configuration per operation as a
// multiple-choice knapsack: minimize the total energy subject to the total
// time fitting the budget.
type OptimalMCKP struct {
	Options

	// Solver defaults to ilp.BranchAndBound.
	Solver ilp.Solver
}

// NewOptimalMCKP creates an MCKP energy policy.
func NewOptimalMCKP(opts Options) *OptimalMCKP {
	return &OptimalMCKP{Options: opts}
}

// Name returns the policy name.
func (m *OptimalMCKP) Name() string { return m.name("optimal_mckp_energy") }

// Kind returns KindMCKP.
func (m *OptimalMCKP) Kind() Kind { return KindMCKP }

// Run plans the workload.
func (m *OptimalMCKP) Run(p Predictor, wl workload.Workload, budgetS float64, mem hw.MemoryCapacity) Result {
	r := newResult(m, budgetS)

	s, err := prepare(m.Name(), p, wl, budgetS, mem, m.Options)
	if err != nil {
		return r.fail(err)
	}

	all, err := s.allCandidates(wl, s.voltages)
	if err != nil {
		return r.fail(err)
	}

	chosen, err := s.selectMCKP(all, units.SToNs(budgetS), m.Solver)
	if err != nil {
		return r.fail(err)
	}

	return r.plan(chosen)
}

// MCKP builds the 0-1 program over the candidate sets. vars[i][j] is the
// variable of all[i][j].
func MCKP(all [][]Configuration, budgetNs float64) (*ilp.Problem, [][]ilp.Var) {
	prob := ilp.NewProblem()
	vars := make([][]ilp.Var, len(all))

	var timeTerms []ilp.Term
	for i, cands := range all {
		for j, c := range cands {
			v := prob.AddVar(fmt.Sprintf("x_%d_%d", i, j), c.EnergyNJ)
			vars[i] = append(vars[i], v)
			timeTerms = append(timeTerms, ilp.Term{Var: v, Coef: c.ExecutionTimeNs})
		}

		prob.ExactlyOne(fmt.Sprintf("op_%d", i), vars[i]...)
	}

	prob.AddConstraint("time_budget", timeTerms, ilp.LessEq, budgetNs)

	return prob, vars
}

// solverSlack tightens the budget of a re-solve so that the relative
// feasibility tolerance of the solver cannot admit a plan over budget.
const solverSlack = 1e-9

func (s setup) selectMCKP(all [][]Configuration, budgetNs float64, solver ilp.Solver) ([]Configuration, error) {
	if solver == nil {
		solver = ilp.BranchAndBound{}
	}

	front := make([][]Configuration, len(all))
	for i, cands := range all {
		front[i] = paretoFront(cands)
	}

	limit := budgetNs
	for attempt := 0; attempt < 2; attempt++ {
		chosen, sol, err := s.solveMCKP(front, limit, solver)

		switch {
		case errors.Is(err, ilp.ErrInfeasible) && attempt == 0:
			return nil, fmt.Errorf("%w: no combination of configurations fits %.4f ms",
				ErrInfeasibleBudget, units.NsToMs(budgetNs))
		case errors.Is(err, ilp.ErrInfeasible), errors.Is(err, ilp.ErrNodeLimit):
			s.trace("solver gave up, falling back to greedy", "error", err)
			return s.selectGreedy(all, budgetNs)
		case err != nil:
			return nil, fmt.Errorf("solving MCKP: %w", err)
		}

		s.trace("mckp solved", "energy_nj", sol.Objective, "optimal", sol.Optimal, "nodes", sol.Nodes)

		if totalTime(chosen) > budgetNs {
			s.trace("mckp plan exceeds the budget within solver tolerance, tightening",
				"total_ns", totalTime(chosen), "budget_ns", budgetNs)
			limit = budgetNs - solverSlack*max(1, math.Abs(budgetNs))
			continue
		}

		if !sol.Optimal {
			if greedy, gErr := s.selectGreedy(all, budgetNs); gErr == nil &&
				summarize(greedy).EnergyNJ < summarize(chosen).EnergyNJ {
				return greedy, nil
			}
		}

		return chosen, nil
	}

	return s.selectGreedy(all, budgetNs)
}

func (s setup) solveMCKP(
	front [][]Configuration,
	budgetNs float64,
	solver ilp.Solver,
) ([]Configuration, ilp.Solution, error) {
	prob, vars := MCKP(front, budgetNs)

	sol, err := solver.Solve(prob)
	if err != nil {
		return nil, sol, err
	}

	chosen := make([]Configuration, len(front))
	for i := range front {
		for j, v := range vars[i] {
			if sol.Values[v] {
				chosen[i] = front[i][j]
			}
		}
	}

	return chosen, sol, nil
}
