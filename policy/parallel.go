package policy

import (
	"fmt"
	"strings"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/tiling"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// ParallelTiling partitions every operation across all allowed PEs at once.
// The PEs run the tiles of a batch concurrently and the batches one after
// another. The voltage of each operation is then chosen like Greedy does.
//
// The same PE may be listed more than once to model identical instances.
type ParallelTiling struct {
	Options
}

// NewParallelTiling creates a multi-PE parallel tiling policy.
func NewParallelTiling(opts Options) *ParallelTiling {
	return &ParallelTiling{Options: opts}
}

// Name returns the policy name.
func (pt *ParallelTiling) Name() string { return pt.name("parallel_tiling") }

// Kind returns KindParallelTiling.
func (pt *ParallelTiling) Kind() Kind { return KindParallelTiling }

// Run plans the workload.
func (pt *ParallelTiling) Run(p Predictor, wl workload.Workload, budgetS float64, mem hw.MemoryCapacity) Result {
	r := newResult(pt, budgetS)

	opts := pt.Options
	opts.Tiled = true

	s, err := prepare(pt.Name(), p, wl, budgetS, mem, opts)
	if err != nil {
		return r.fail(err)
	}

	cfgs := make([]tiling.PEConfig, len(s.pes))
	for i, pe := range s.pes {
		b, _ := s.mem.Of(pe)
		cfgs[i] = tiling.PEConfig{ID: i, Name: pe, MemBytes: b}
	}

	all := make([][]Configuration, len(wl))
	for i, op := range wl {
		for _, v := range s.voltages {
			if !s.allHave(v) {
				continue
			}

			c, err := s.evaluateParallel(op, cfgs, v)
			if err != nil {
				s.trace("dropping parallel candidate", "op", op.String(),
					"voltage", float64(v), "error", err)
				continue
			}

			all[i] = append(all[i], c)
		}

		if len(all[i]) == 0 {
			return r.fail(fmt.Errorf("%w for operation %d %s across %v",
				ErrMissingData, i, op, s.pes))
		}
	}

	chosen, err := s.selectGreedy(all, units.SToNs(budgetS))
	if err != nil {
		return r.fail(err)
	}

	return r.plan(chosen)
}

func (s setup) allHave(v hw.Voltage) bool {
	for _, pe := range s.pes {
		if !s.pred.Has(pe, v) {
			return false
		}
	}

	return true
}

type batchCost struct {
	timeNs   float64
	energyNJ float64
}

func (s setup) evaluateParallel(
	op workload.Operation,
	cfgs []tiling.PEConfig,
	v hw.Voltage,
) (Configuration, error) {
	part, err := tiling.Split(cfgs, op, s.elem)
	if err != nil {
		return Configuration{}, err
	}

	c := Configuration{
		Op:      op,
		Voltage: v,
		Tiles:   part.Tiles(),
		Batches: len(part.Batches),
	}
	for _, a := range part.Assignments {
		c.PEs = append(c.PEs, a.PE.Name)
	}

	c.Freq, _ = s.pred.Ceiling(v)
	cache := map[string]batchCost{}

	for i, b := range part.Batches {
		key := batchKey(b)
		bc, ok := cache[key]
		if !ok {
			if bc, err = s.evaluateBatch(b, v); err != nil {
				return Configuration{}, fmt.Errorf("batch %d: %w", i, err)
			}
			cache[key] = bc
		}

		c.ExecutionTimeNs += bc.timeNs
		c.EnergyNJ += bc.energyNJ
	}

	c.AvgPowerMW = units.PowerMW(c.EnergyNJ, c.ExecutionTimeNs)

	return c, nil
}

func (s setup) evaluateBatch(batch []tiling.Tile, v hw.Voltage) (batchCost, error) {
	if len(batch) == 1 {
		t := batch[0]
		pred, err := s.pred.PredictSinglePE(t.PEName, t.Op(), v, 0)
		if err != nil {
			return batchCost{}, err
		}

		return batchCost{timeNs: pred.ExecutionTimeNs, energyNJ: pred.TotalEnergyNJ}, nil
	}

	pes := make([]hw.PE, len(batch))
	ops := make([]workload.Operation, len(batch))
	for i, t := range batch {
		pes[i] = t.PEName
		ops[i] = t.Op()
	}

	mp, err := s.pred.PredictMultiPE(pes, ops, v, 0)
	if err != nil {
		return batchCost{}, err
	}

	if mp.Dropped > 0 {
		return batchCost{}, fmt.Errorf("%w: %d of %d tiles could not be predicted",
			ErrMissingData, mp.Dropped, len(batch))
	}

	return batchCost{timeNs: mp.ExecutionTimeNs, energyNJ: mp.TotalEnergyNJ}, nil
}

func batchKey(batch []tiling.Tile) string {
	b := strings.Builder{}
	for _, t := range batch {
		fmt.Fprintf(&b, "%s:%dx%dx%d;", t.PEName, t.M, t.K, t.N)
	}

	return b.String()
}
