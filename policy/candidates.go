package policy

import (
	"fmt"
	"math"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/tiling"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/util"
	"github.com/sarchlab/eve/workload"
)

// setup is the validated input of one run.
type setup struct {
	policy   string
	pred     Predictor
	pes      []hw.PE
	voltages []hw.Voltage
	mem      hw.MemoryCapacity
	elem     int
	tiled    bool
	verbose  bool
}

func prepare(
	name string,
	p Predictor,
	wl workload.Workload,
	budgetS float64,
	mem hw.MemoryCapacity,
	opts Options,
) (setup, error) {
	if p == nil {
		return setup{}, fmt.Errorf("%w: no power model", ErrConfiguration)
	}

	if err := wl.Validate(); err != nil {
		return setup{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if math.IsNaN(budgetS) || budgetS < 0 {
		return setup{}, fmt.Errorf("%w: budget must be a non-negative number of seconds, got %v",
			ErrConfiguration, budgetS)
	}

	pes, err := opts.pes(p)
	if err != nil {
		return setup{}, err
	}

	if len(pes) == 0 {
		return setup{}, fmt.Errorf("%w: no PE to schedule on", ErrConfiguration)
	}

	voltages, err := opts.voltages(p, pes)
	if err != nil {
		return setup{}, err
	}

	if mem == nil {
		mem = hw.DefaultMemoryCapacity()
	}

	s := setup{
		policy:   name,
		pred:     p,
		pes:      pes,
		voltages: voltages,
		mem:      mem,
		elem:     opts.elementBytes(),
		tiled:    opts.Tiled,
		verbose:  opts.Verbose,
	}

	if s.tiled {
		if err := s.checkMemory(pes); err != nil {
			return setup{}, err
		}
	}

	return s, nil
}

func (s setup) checkMemory(pes []hw.PE) error {
	for _, pe := range pes {
		if b, ok := s.mem.Of(pe); !ok || b <= 0 {
			return fmt.Errorf("%w: no memory capacity for PE %s", ErrConfiguration, pe)
		}
	}

	return nil
}

func (s setup) trace(msg string, args ...any) {
	util.TraceIf(s.verbose, msg, append([]any{"policy", s.policy}, args...)...)
}

// evaluate predicts op on pe at the ceiling frequency of v, tiled into the
// PE memory when tiled is set.
func (s setup) evaluate(op workload.Operation, pe hw.PE, v hw.Voltage, tiled bool) (Configuration, error) {
	if !tiled {
		pred, err := s.pred.Predict(pe, op, v, 0)
		if err != nil {
			return Configuration{}, err
		}

		return Configuration{
			Op:              op,
			PEs:             []hw.PE{pe},
			Voltage:         v,
			Freq:            pred.Freq,
			ExecutionTimeNs: pred.ExecutionTimeNs,
			EnergyNJ:        pred.TotalEnergyNJ,
			AvgPowerMW:      pred.TotalPowerMW,
		}, nil
	}

	memBytes, _ := s.mem.Of(pe)
	tiles, err := tiling.Plan(memBytes, op, s.elem)
	if err != nil {
		return Configuration{}, err
	}

	c := Configuration{Op: op, PEs: []hw.PE{pe}, Voltage: v, Tiles: tiles}
	cache := map[workload.Operation]Configuration{}

	for _, t := range tiles {
		sub, ok := cache[t.Op()]
		if !ok {
			if sub, err = s.evaluate(t.Op(), pe, v, false); err != nil {
				return Configuration{}, fmt.Errorf("tile %s: %w", t, err)
			}
			cache[t.Op()] = sub
		}

		c.Freq = sub.Freq
		c.ExecutionTimeNs += sub.ExecutionTimeNs
		c.EnergyNJ += sub.EnergyNJ
	}

	c.AvgPowerMW = units.PowerMW(c.EnergyNJ, c.ExecutionTimeNs)

	return c, nil
}

// candidates evaluates op over every allowed (PE, voltage) pair, PE-major
// and in the given voltage order. Pairs without a fitted model are skipped
// and failed predictions are dropped.
func (s setup) candidates(op workload.Operation, voltages []hw.Voltage) []Configuration {
	var out []Configuration

	for _, pe := range s.pes {
		for _, v := range voltages {
			if !s.pred.Has(pe, v) {
				continue
			}

			c, err := s.evaluate(op, pe, v, s.tiled)
			if err != nil {
				s.trace("dropping candidate", "op", op.String(), "pe", pe,
					"voltage", float64(v), "error", err)
				continue
			}

			out = append(out, c)
		}
	}

	return out
}

// allCandidates builds the candidate sets of every operation. An operation
// without any candidate fails the run.
func (s setup) allCandidates(wl workload.Workload, voltages []hw.Voltage) ([][]Configuration, error) {
	all := make([][]Configuration, len(wl))
	for i, op := range wl {
		all[i] = s.candidates(op, voltages)
		if len(all[i]) == 0 {
			return nil, fmt.Errorf("%w for operation %d %s on %v at %v",
				ErrMissingData, i, op, s.pes, voltages)
		}
	}

	return all, nil
}

func minEnergy(cands []Configuration) Configuration {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.EnergyNJ < best.EnergyNJ {
			best = c
		}
	}

	return best
}

func minTime(cands []Configuration) Configuration {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.ExecutionTimeNs < best.ExecutionTimeNs {
			best = c
		}
	}

	return best
}

// paretoFront drops candidates that another candidate beats or ties on both
// time and energy. Among exact ties the first one is kept.
func paretoFront(cands []Configuration) []Configuration {
	var out []Configuration

	for i, c := range cands {
		dominated := false
		for j, o := range cands {
			if i == j {
				continue
			}

			better := o.ExecutionTimeNs <= c.ExecutionTimeNs && o.EnergyNJ <= c.EnergyNJ
			strictly := o.ExecutionTimeNs < c.ExecutionTimeNs || o.EnergyNJ < c.EnergyNJ
			if better && (strictly || j < i) {
				dominated = true
				break
			}
		}

		if !dominated {
			out = append(out, c)
		}
	}

	return out
}
