package policy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/tiling"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// Configuration is one way to execute one operation.
type Configuration struct {
	Op      workload.Operation
	PEs     []hw.PE
	Voltage hw.Voltage
	Freq    sim.Freq

	ExecutionTimeNs float64
	EnergyNJ        float64
	AvgPowerMW      float64

	// Tiles is set when the operation is executed tiled. Batches counts the
	// sequential multi-PE batches of a parallel configuration.
	Tiles   []tiling.Tile
	Batches int
}

// PE returns the first PE of the configuration.
func (c Configuration) PE() hw.PE {
	if len(c.PEs) == 0 {
		return ""
	}

	return c.PEs[0]
}

func (c Configuration) String() string {
	return fmt.Sprintf("%s on %v at %s/%.0fMHz: %.1f ns, %.3f nJ",
		c.Op, c.PEs, c.Voltage, units.MHz(c.Freq), c.ExecutionTimeNs, c.EnergyNJ)
}

// Detail is a configuration chosen for the operation at Index.
type Detail struct {
	Index int
	Configuration
}

// Totals aggregates a successful plan.
type Totals struct {
	EnergyNJ float64
	TimeNs   float64

	EnergyMJ         float64
	TimeMS           float64
	AvgEnergyPerOpMJ float64
	AvgTimePerOpMS   float64
	AvgPowerMW       float64
}

// Result is the outcome of one policy run. Totals is nil and Details is empty
// when Success is false.
type Result struct {
	Policy  string
	Kind    Kind
	RunID   string
	BudgetS float64

	Success bool
	Message string

	Totals  *Totals
	Details []Detail
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}

	return errors.New(r.Message)
}

func newResult(p Policy, budgetS float64) Result {
	return Result{
		Policy:  p.Name(),
		Kind:    p.Kind(),
		RunID:   xid.New().String(),
		BudgetS: budgetS,
	}
}

func (r Result) fail(err error) Result {
	r.Success = false
	r.Message = err.Error()
	r.Totals = nil
	r.Details = nil

	return r
}

// plan fills a successful result from one configuration per operation,
// failing if the plan exceeds the budget.
func (r Result) plan(chosen []Configuration) Result {
	t := summarize(chosen)
	if t.TimeNs > units.SToNs(r.BudgetS) {
		return r.fail(fmt.Errorf("%w: plan takes %.4f ms, budget is %.4f ms",
			ErrInfeasibleBudget, t.TimeMS, units.NsToMs(units.SToNs(r.BudgetS))))
	}

	r.Success = true
	r.Totals = &t
	r.Details = make([]Detail, len(chosen))
	for i, c := range chosen {
		r.Details[i] = Detail{Index: i, Configuration: c}
	}

	return r
}

func summarize(chosen []Configuration) Totals {
	t := Totals{}
	for _, c := range chosen {
		t.EnergyNJ += c.EnergyNJ
		t.TimeNs += c.ExecutionTimeNs
	}

	n := float64(len(chosen))
	t.EnergyMJ = units.NJToMJ(t.EnergyNJ)
	t.TimeMS = units.NsToMs(t.TimeNs)
	if n > 0 {
		t.AvgEnergyPerOpMJ = t.EnergyMJ / n
		t.AvgTimePerOpMS = t.TimeMS / n
	}
	t.AvgPowerMW = units.PowerMW(t.EnergyNJ, t.TimeNs)

	return t
}

func totalTime(chosen []Configuration) float64 {
	total := 0.0
	for _, c := range chosen {
		total += c.ExecutionTimeNs
	}

	return total
}

func sortVoltages(vs []hw.Voltage) {
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
}
