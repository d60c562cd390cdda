// Package emu runs scheduling policies over one workload and budget and
// reports their plans side by side.
package emu

import (
	"log/slog"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/policy"
	"github.com/sarchlab/eve/workload"
)

// Builder can build emulators.
type Builder struct {
	predictor policy.Predictor
	wl        workload.Workload
	budgetS   float64
	mem       hw.MemoryCapacity
}

// WithPredictor sets the power model the policies plan with.
func (b Builder) WithPredictor(p policy.Predictor) Builder {
	b.predictor = p
	return b
}

// WithWorkload sets the operations to plan.
func (b Builder) WithWorkload(wl workload.Workload) Builder {
	b.wl = wl
	return b
}

// WithBudget sets the time budget in seconds.
func (b Builder) WithBudget(seconds float64) Builder {
	b.budgetS = seconds
	return b
}

// WithMemory sets the local memory of every PE. The default capacities are
// used when it is not set.
func (b Builder) WithMemory(mem hw.MemoryCapacity) Builder {
	b.mem = mem
	return b
}

// Build creates an emulator.
func (b Builder) Build() *Emulator {
	mem := b.mem
	if mem == nil {
		mem = hw.DefaultMemoryCapacity()
	}

	return &Emulator{
		predictor: b.predictor,
		wl:        append(workload.Workload(nil), b.wl...),
		budgetS:   b.budgetS,
		mem:       mem,
		results:   make(map[string]policy.Result),
	}
}

// Emulator runs policies on identical inputs and keeps their results by
// policy name.
type Emulator struct {
	predictor policy.Predictor
	wl        workload.Workload
	budgetS   float64
	mem       hw.MemoryCapacity

	results map[string]policy.Result
	order   []string
}

// Workload returns the planned operations.
func (e *Emulator) Workload() workload.Workload {
	return e.wl
}

// Budget returns the time budget in seconds.
func (e *Emulator) Budget() float64 {
	return e.budgetS
}

// Run runs one policy and stores its result, replacing an earlier result
// of the same name.
func (e *Emulator) Run(p policy.Policy) policy.Result {
	r := p.Run(e.predictor, e.wl, e.budgetS, e.mem)

	if _, seen := e.results[r.Policy]; !seen {
		e.order = append(e.order, r.Policy)
	}
	e.results[r.Policy] = r

	if r.Success {
		slog.Info("policy planned",
			"policy", r.Policy, "run_id", r.RunID,
			"energy_mj", r.Totals.EnergyMJ, "time_ms", r.Totals.TimeMS)
	} else {
		slog.Info("policy failed",
			"policy", r.Policy, "run_id", r.RunID, "reason", r.Message)
	}

	return r
}

// RunMultiple runs the policies one after another.
func (e *Emulator) RunMultiple(ps []policy.Policy) []policy.Result {
	out := make([]policy.Result, 0, len(ps))
	for _, p := range ps {
		out = append(out, e.Run(p))
	}

	return out
}

// Result returns the stored result of a policy.
func (e *Emulator) Result(name string) (policy.Result, bool) {
	r, ok := e.results[name]
	return r, ok
}

// Results returns the stored results in the order the policies first ran.
func (e *Emulator) Results() []policy.Result {
	out := make([]policy.Result, len(e.order))
	for i, name := range e.order {
		out[i] = e.results[name]
	}

	return out
}
