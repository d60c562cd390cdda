// Package synth generates deterministic characterization data from simple
// analytic PE profiles. It stands in for the measured tables when testing
// and in the samples.
package synth

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eve/char"
	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// Profile describes how a PE spends time and power.
//
// The execution time is (OverheadCycles + ops/MACsPerCycle) clock periods.
// Dynamic power is Dynamic[d]*V^2 at the reference clock and static power is
// Static[d]*V, so both are independent of the shape.
type Profile struct {
	PE             hw.PE
	OverheadCycles float64
	MACsPerCycle   float64
	Dynamic        hw.DomainPower
	Static         hw.DomainPower
}

// DefaultProfiles returns illustrative profiles for the four PEs.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			PE:             hw.CPU,
			OverheadCycles: 2000,
			MACsPerCycle:   0.25,
			Dynamic:        hw.DomainPower{hw.Sys: 0.8, hw.CPUDomain: 3.0, hw.Mem: 1.2},
			Static:         hw.DomainPower{hw.Sys: 0.2, hw.CPUDomain: 0.3, hw.Mem: 0.4},
		},
		{
			PE:             hw.Carus,
			OverheadCycles: 800,
			MACsPerCycle:   8,
			Dynamic:        hw.DomainPower{hw.Sys: 0.8, hw.CPUDomain: 0.6, hw.Mem: 1.5, hw.CarusDomain: 4.0},
			Static:         hw.DomainPower{hw.Sys: 0.2, hw.CPUDomain: 0.3, hw.Mem: 0.4, hw.CarusDomain: 0.5},
		},
		{
			PE:             hw.Caesar,
			OverheadCycles: 500,
			MACsPerCycle:   4,
			Dynamic:        hw.DomainPower{hw.Sys: 0.8, hw.CPUDomain: 0.6, hw.Mem: 1.5, hw.CaesarDomain: 2.5},
			Static:         hw.DomainPower{hw.Sys: 0.2, hw.CPUDomain: 0.3, hw.Mem: 0.4, hw.CaesarDomain: 0.3},
		},
		{
			PE:             hw.CGRA,
			OverheadCycles: 1500,
			MACsPerCycle:   2,
			Dynamic:        hw.DomainPower{hw.Sys: 0.8, hw.CPUDomain: 0.9, hw.Mem: 1.3, hw.CGRADomain: 6.0},
			Static:         hw.DomainPower{hw.Sys: 0.2, hw.CPUDomain: 0.3, hw.Mem: 0.4, hw.CGRADomain: 1.0},
		},
	}
}

// Generator sweeps profiles over voltages and shapes.
type Generator struct {
	RefFreq  sim.Freq
	Voltages []hw.Voltage
	Shapes   []workload.Operation
	Profiles []Profile
}

// NewGenerator returns a generator over the default profiles, every
// characterized voltage and a small shape sweep, recorded at 100 MHz.
func NewGenerator() Generator {
	return Generator{
		RefFreq:  100 * sim.MHz,
		Voltages: hw.DefaultCeilings().Voltages(),
		Shapes:   Sweep([]int{4, 8, 16, 32}, []int{4, 8, 16, 32}, []int{16, 64, 256, 1024}),
		Profiles: DefaultProfiles(),
	}
}

// Sweep returns the Cartesian product of the dimension lists, M outermost.
func Sweep(ms, ks, ns []int) []workload.Operation {
	var out []workload.Operation
	for _, m := range ms {
		for _, k := range ks {
			for _, n := range ns {
				out = append(out, workload.Op(m, k, n))
			}
		}
	}

	return out
}

// Point returns the synthetic measurement of one configuration.
func (p Profile) Point(op workload.Operation, v hw.Voltage, f sim.Freq) char.Measurement {
	period := units.PeriodNs(f)
	cycles := p.OverheadCycles + float64(op.Ops())/p.MACsPerCycle
	vv := float64(v)

	return char.Measurement{
		PE:              p.PE,
		Op:              op,
		Voltage:         v,
		ClockPeriodNs:   period,
		ExecutionTimeNs: cycles * period,
		Dynamic:         p.Dynamic.Scale(vv * vv),
		Static:          p.Static.Scale(vv),
	}
}

// Measurements returns every point of the sweep, profile-major.
func (g Generator) Measurements() []char.Measurement {
	var out []char.Measurement
	for _, p := range g.Profiles {
		for _, v := range g.Voltages {
			for _, op := range g.Shapes {
				out = append(out, p.Point(op, v, g.RefFreq))
			}
		}
	}

	return out
}

// Store loads the sweep into a new store using the default ceilings.
func (g Generator) Store() (*char.Store, error) {
	s := char.NewStore(hw.DefaultCeilings())
	if err := s.Load(g.Measurements()); err != nil {
		return nil, err
	}

	return s, nil
}
