// Package policy implements the scheduling policies. Every policy turns a
// workload and a time budget into a plan with one configuration per
// operation, or a failure with a reason.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/power"
	"github.com/sarchlab/eve/workload"
)

// Errors behind failed results.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrInfeasibleBudget = errors.New("infeasible budget")
	ErrMissingData      = errors.New("no configuration could be predicted")
)

// DefaultElementBytes is the size of one matrix element in local memory.
const DefaultElementBytes = 4

// Predictor is what policies need from a power model.
type Predictor interface {
	Predict(pe hw.PE, op workload.Operation, v hw.Voltage, f sim.Freq) (power.Prediction, error)
	PredictSinglePE(pe hw.PE, op workload.Operation, v hw.Voltage, f sim.Freq) (power.Prediction, error)
	PredictMultiPE(pes []hw.PE, ops []workload.Operation, v hw.Voltage, f sim.Freq) (power.MultiPrediction, error)
	Has(pe hw.PE, v hw.Voltage) bool
	PEs() []hw.PE
	Voltages(pe hw.PE) []hw.Voltage
	Ceiling(v hw.Voltage) (sim.Freq, bool)
}

// Policy derives a plan for a workload under a time budget in seconds.
// Run never panics on bad input; failures are reported in the Result.
type Policy interface {
	Name() string
	Kind() Kind
	Run(p Predictor, wl workload.Workload, budgetS float64, mem hw.MemoryCapacity) Result
}

// Kind tags the policy variants.
type Kind int

// The policy variants.
const (
	KindGreedy Kind = iota
	KindMCKP
	KindFixedPE
	KindFixedPEWMem
	KindMaxPerformance
	KindMaxPerformanceWMem
	KindOptimalFixedVoltage
	KindPerOpFixedVoltage
	KindParallelTiling
	numKinds
)

var kindNames = [numKinds]string{
	"greedy",
	"mckp",
	"fixed-pe",
	"fixed-pe-wmem",
	"max-perf",
	"max-perf-wmem",
	"optimal-fixed-voltage",
	"per-op-fixed-voltage",
	"parallel-tiling",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		panic(fmt.Sprintf("invalid policy kind %d", int(k)))
	}

	return kindNames[k]
}

// Kinds returns every policy kind.
func Kinds() []Kind {
	ks := make([]Kind, numKinds)
	for i := range ks {
		ks[i] = Kind(i)
	}

	return ks
}

// ParseKind converts a name such as "fixed-pe" into a Kind.
func ParseKind(name string) (Kind, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for i, kn := range kindNames {
		if kn == n {
			return Kind(i), nil
		}
	}

	return 0, fmt.Errorf("unknown policy kind %q", name)
}

// Options are the knobs every policy shares.
type Options struct {
	// Label overrides the default policy name.
	Label string

	// PEs and Voltages restrict the candidates. Empty means every
	// characterized PE or voltage.
	PEs      []hw.PE
	Voltages []hw.Voltage

	// Tiled evaluates candidates on memory-fitting tiles.
	Tiled bool

	// ElementBytes is the size of a matrix element, DefaultElementBytes if
	// zero.
	ElementBytes int

	// Verbose traces every decision.
	Verbose bool
}

func (o Options) name(def string) string {
	if o.Label != "" {
		return o.Label
	}

	return def
}

func (o Options) elementBytes() int {
	if o.ElementBytes > 0 {
		return o.ElementBytes
	}

	return DefaultElementBytes
}

// pes resolves the PE restriction against the predictor.
func (o Options) pes(p Predictor) ([]hw.PE, error) {
	if len(o.PEs) == 0 {
		return p.PEs(), nil
	}

	known := p.PEs()
	for _, pe := range o.PEs {
		if !containsPE(known, pe) {
			return nil, fmt.Errorf("%w: PE %q is not characterized", ErrConfiguration, pe)
		}
	}

	return o.PEs, nil
}

// voltages resolves the voltage restriction against the predictor. A voltage
// is accepted when it has a ceiling and at least one of pes was fitted at it.
func (o Options) voltages(p Predictor, pes []hw.PE) ([]hw.Voltage, error) {
	if len(o.Voltages) == 0 {
		return characterized(p, pes), nil
	}

	for _, v := range o.Voltages {
		if err := checkVoltage(p, pes, v); err != nil {
			return nil, err
		}
	}

	return o.Voltages, nil
}

func checkVoltage(p Predictor, pes []hw.PE, v hw.Voltage) error {
	if _, ok := p.Ceiling(v); !ok {
		return fmt.Errorf("%w: voltage %s has no frequency ceiling", ErrConfiguration, v)
	}

	for _, pe := range pes {
		if p.Has(pe, v) {
			return nil
		}
	}

	return fmt.Errorf("%w: voltage %s is not characterized for %v", ErrConfiguration, v, pes)
}

func characterized(p Predictor, pes []hw.PE) []hw.Voltage {
	seen := map[int]bool{}
	var out []hw.Voltage

	for _, pe := range pes {
		for _, v := range p.Voltages(pe) {
			if !seen[v.MilliVolts()] {
				seen[v.MilliVolts()] = true
				out = append(out, v)
			}
		}
	}

	sortVoltages(out)

	return out
}

func containsPE(pes []hw.PE, pe hw.PE) bool {
	for _, p := range pes {
		if p == pe {
			return true
		}
	}

	return false
}
