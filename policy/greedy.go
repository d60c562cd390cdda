package policy

import (
	"fmt"
	"sort"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// Greedy starts from the minimum-energy configuration of every operation
// and, while the plan is over budget, applies the swaps that buy the most
// time per added nanojoule.
type Greedy struct {
	Options
}

// NewGreedy creates a greedy energy policy.
func NewGreedy(opts Options) *Greedy {
	return &Greedy{Options: opts}
}

// Name returns the policy name.
func (g *Greedy) Name() string { return g.name("greedy_energy") }

// Kind returns KindGreedy.
func (g *Greedy) Kind() Kind { return KindGreedy }

// Run plans the workload.
func (g *Greedy) Run(p Predictor, wl workload.Workload, budgetS float64, mem hw.MemoryCapacity) Result {
	r := newResult(g, budgetS)

	s, err := prepare(g.Name(), p, wl, budgetS, mem, g.Options)
	if err != nil {
		return r.fail(err)
	}

	all, err := s.allCandidates(wl, s.voltages)
	if err != nil {
		return r.fail(err)
	}

	chosen, err := s.selectGreedy(all, units.SToNs(budgetS))
	if err != nil {
		return r.fail(err)
	}

	return r.plan(chosen)
}

type swap struct {
	op    int
	alt   Configuration
	ratio float64
}

// selectGreedy picks per operation among the candidates. The result meets
// the budget or an ErrInfeasibleBudget is returned.
func (s setup) selectGreedy(all [][]Configuration, budgetNs float64) ([]Configuration, error) {
	chosen := make([]Configuration, len(all))
	for i, cands := range all {
		chosen[i] = minEnergy(cands)
		s.trace("initial pick", "op", i, "choice", chosen[i].String())
	}

	total := totalTime(chosen)
	if total <= budgetNs {
		return chosen, nil
	}

	var swaps []swap
	for i, cands := range all {
		for _, c := range cands {
			dE := c.EnergyNJ - chosen[i].EnergyNJ
			dT := c.ExecutionTimeNs - chosen[i].ExecutionTimeNs
			if dE > 0 && dT < 0 {
				swaps = append(swaps, swap{op: i, alt: c, ratio: -dT / dE})
			}
		}
	}

	sort.SliceStable(swaps, func(a, b int) bool { return swaps[a].ratio > swaps[b].ratio })

	for _, sw := range swaps {
		if total <= budgetNs {
			break
		}

		cur := chosen[sw.op]
		if sw.alt.ExecutionTimeNs >= cur.ExecutionTimeNs {
			continue
		}

		total += sw.alt.ExecutionTimeNs - cur.ExecutionTimeNs
		chosen[sw.op] = sw.alt
		s.trace("swap", "op", sw.op, "ratio_ns_per_nj", sw.ratio,
			"choice", sw.alt.String(), "total_ms", units.NsToMs(total))
	}

	total = totalTime(chosen)
	if total > budgetNs {
		return nil, fmt.Errorf("%w: greedy swaps exhausted at %.4f ms, budget is %.4f ms",
			ErrInfeasibleBudget, units.NsToMs(total), units.NsToMs(budgetNs))
	}

	return chosen, nil
}
