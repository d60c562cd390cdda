package policy

import (
	"fmt"
	"sort"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// FixedPE runs every operation on one PE at one voltage and its ceiling
// frequency. With WithMemory set, operations are tiled into the PE memory
// and the per-tile predictions summed.
type FixedPE struct {
	Options

	PE         hw.PE
	Voltage    hw.Voltage
	WithMemory bool
}

// NewFixedPE creates a fixed-PE policy.
func NewFixedPE(pe hw.PE, v hw.Voltage, opts Options) *FixedPE {
	return &FixedPE{Options: opts, PE: pe, Voltage: v}
}

// NewFixedPEWMem creates a fixed-PE policy that tiles into the PE memory.
func NewFixedPEWMem(pe hw.PE, v hw.Voltage, opts Options) *FixedPE {
	return &FixedPE{Options: opts, PE: pe, Voltage: v, WithMemory: true}
}

// Name returns the policy name.
func (f *FixedPE) Name() string {
	suffix := ""
	if f.WithMemory {
		suffix = "_wmem"
	}

	return f.name(fmt.Sprintf("fixed_%s_%dmv%s", f.PE, f.Voltage.MilliVolts(), suffix))
}

// Kind returns KindFixedPE or KindFixedPEWMem.
func (f *FixedPE) Kind() Kind {
	if f.WithMemory {
		return KindFixedPEWMem
	}

	return KindFixedPE
}

// Run plans the workload.
func (f *FixedPE) Run(p Predictor, wl workload.Workload, budgetS float64, mem hw.MemoryCapacity) Result {
	r := newResult(f, budgetS)

	opts := f.Options
	opts.PEs = []hw.PE{f.PE}
	opts.Voltages = []hw.Voltage{f.Voltage}
	opts.Tiled = opts.Tiled || f.WithMemory

	s, err := prepare(f.Name(), p, wl, budgetS, mem, opts)
	if err != nil {
		return r.fail(err)
	}

	if !p.Has(f.PE, f.Voltage) {
		return r.fail(fmt.Errorf("%w: %s is not characterized at %s", ErrConfiguration, f.PE, f.Voltage))
	}

	chosen := make([]Configuration, len(wl))
	for i, op := range wl {
		c, err := s.evaluate(op, f.PE, f.Voltage, s.tiled)
		if err != nil {
			return r.fail(fmt.Errorf("%w for operation %d %s: %v", ErrMissingData, i, op, err))
		}

		chosen[i] = c
	}

	return r.plan(chosen)
}

// MaxPerformance picks the fastest configuration of every operation,
// ignoring energy. With WithMemory set, candidates are tiled and voltages
// are tried from the highest down.
type MaxPerformance struct {
	Options

	WithMemory bool
}

// NewMaxPerformance creates a performance-maximizing policy.
func NewMaxPerformance(opts Options) *MaxPerformance {
	return &MaxPerformance{Options: opts}
}

// NewMaxPerformanceWMem creates a performance-maximizing policy that tiles
// into the PE memories.
func NewMaxPerformanceWMem(opts Options) *MaxPerformance {
	return &MaxPerformance{Options: opts, WithMemory: true}
}

// Name returns the policy name.
func (m *MaxPerformance) Name() string {
	if m.WithMemory {
		return m.name("max_performance_wmem")
	}

	return m.name("max_performance")
}

// Kind returns KindMaxPerformance or KindMaxPerformanceWMem.
func (m *MaxPerformance) Kind() Kind {
	if m.WithMemory {
		return KindMaxPerformanceWMem
	}

	return KindMaxPerformance
}

// Run plans the workload.
func (m *MaxPerformance) Run(p Predictor, wl workload.Workload, budgetS float64, mem hw.MemoryCapacity) Result {
	r := newResult(m, budgetS)

	opts := m.Options
	opts.Tiled = opts.Tiled || m.WithMemory

	s, err := prepare(m.Name(), p, wl, budgetS, mem, opts)
	if err != nil {
		return r.fail(err)
	}

	voltages := append([]hw.Voltage(nil), s.voltages...)
	if m.WithMemory {
		sort.Slice(voltages, func(i, j int) bool { return voltages[i] > voltages[j] })
	}

	all, err := s.allCandidates(wl, voltages)
	if err != nil {
		return r.fail(err)
	}

	chosen := make([]Configuration, len(all))
	for i, cands := range all {
		chosen[i] = minTime(cands)
	}

	s.trace("fastest plan", "total_ms", units.NsToMs(totalTime(chosen)))

	return r.plan(chosen)
}

// OptimalFixedVoltage solves the MCKP with every candidate at one voltage.
type OptimalFixedVoltage struct {
	OptimalMCKP

	Voltage hw.Voltage
}

// NewOptimalFixedVoltage creates an MCKP policy restricted to one voltage.
func NewOptimalFixedVoltage(v hw.Voltage, opts Options) *OptimalFixedVoltage {
	return &OptimalFixedVoltage{OptimalMCKP: OptimalMCKP{Options: opts}, Voltage: v}
}

// Name returns the policy name.
func (o *OptimalFixedVoltage) Name() string {
	return o.name(fmt.Sprintf("optimal_fixed_voltage_%dmv", o.Voltage.MilliVolts()))
}

// Kind returns KindOptimalFixedVoltage.
func (o *OptimalFixedVoltage) Kind() Kind { return KindOptimalFixedVoltage }

// Run plans the workload.
func (o *OptimalFixedVoltage) Run(p Predictor, wl workload.Workload, budgetS float64, mem hw.MemoryCapacity) Result {
	r := newResult(o, budgetS)

	opts := o.Options
	opts.Voltages = []hw.Voltage{o.Voltage}

	s, err := prepare(o.Name(), p, wl, budgetS, mem, opts)
	if err != nil {
		return r.fail(err)
	}

	all, err := s.allCandidates(wl, s.voltages)
	if err != nil {
		return r.fail(err)
	}

	chosen, err := s.selectMCKP(all, units.SToNs(budgetS), o.Solver)
	if err != nil {
		return r.fail(err)
	}

	return r.plan(chosen)
}

// PerOperationFixedVoltage picks the minimum-energy configuration of every
// operation at one voltage and then checks the budget.
type PerOperationFixedVoltage struct {
	Options

	Voltage hw.Voltage
}

// NewPerOperationFixedVoltage creates a per-operation fixed-voltage policy.
func NewPerOperationFixedVoltage(v hw.Voltage, opts Options) *PerOperationFixedVoltage {
	return &PerOperationFixedVoltage{Options: opts, Voltage: v}
}

// Name returns the policy name.
func (o *PerOperationFixedVoltage) Name() string {
	return o.name(fmt.Sprintf("per_op_fixed_voltage_%dmv", o.Voltage.MilliVolts()))
}

// Kind returns KindPerOpFixedVoltage.
func (o *PerOperationFixedVoltage) Kind() Kind { return KindPerOpFixedVoltage }

// Run plans the workload.
func (o *PerOperationFixedVoltage) Run(
	p Predictor,
	wl workload.Workload,
	budgetS float64,
	mem hw.MemoryCapacity,
) Result {
	r := newResult(o, budgetS)

	opts := o.Options
	opts.Voltages = []hw.Voltage{o.Voltage}

	s, err := prepare(o.Name(), p, wl, budgetS, mem, opts)
	if err != nil {
		return r.fail(err)
	}

	all, err := s.allCandidates(wl, s.voltages)
	if err != nil {
		return r.fail(err)
	}

	chosen := make([]Configuration, len(all))
	for i, cands := range all {
		chosen[i] = minEnergy(cands)
	}

	return r.plan(chosen)
}
