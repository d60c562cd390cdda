package power

import (
	"fmt"
	"math"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eve/char"
	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// Prediction is the modeled cost of one operation on one PE.
type Prediction struct {
	PE      hw.PE
	Op      workload.Operation
	Voltage hw.Voltage
	Freq    sim.Freq

	ExecutionTimeNs float64
	DynPowerMW      float64
	StaticPowerMW   float64
	TotalPowerMW    float64
	TotalEnergyNJ   float64

	// Dynamic and Static are nil unless the model is per-domain.
	Dynamic hw.DomainPower
	Static  hw.DomainPower
}

// Predict evaluates the model for one operation. A zero frequency selects
// the ceiling frequency of the voltage.
func (m *Model) Predict(
	pe hw.PE,
	op workload.Operation,
	v hw.Voltage,
	f sim.Freq,
) (Prediction, error) {
	pair, ok := m.pairs[pvKey{pe: pe, mv: v.MilliVolts()}]
	if !ok {
		return Prediction{}, fmt.Errorf("%w: no fitted model for %s at %s",
			char.ErrMissingData, pe, v)
	}

	freq, err := m.targetFreq(v, f)
	if err != nil {
		return Prediction{}, err
	}

	x := m.features(op)

	tRef := pair.time.Predict(x)
	if !(tRef > 0) || math.IsInf(tRef, 0) {
		return Prediction{}, fmt.Errorf("%w: %v ns for %s%s at %s",
			ErrInvalidPrediction, tRef, pe, op, v)
	}

	ratio := float64(freq) / float64(m.cfg.RefFreq)

	p := Prediction{
		PE:              pe,
		Op:              op,
		Voltage:         v,
		Freq:            freq,
		ExecutionTimeNs: tRef / ratio,
	}

	if m.cfg.PerDomain {
		p.Dynamic = make(hw.DomainPower, len(pair.domains))
		p.Static = make(hw.DomainPower, len(pair.domains))

		for _, d := range pair.domains {
			p.Dynamic[d] = nonNegative(pair.domainDyn[d].Predict(x)) * ratio
			p.Static[d] = nonNegative(pair.domainStatic[d].Predict(x))
		}

		p.DynPowerMW = p.Dynamic.Sum(pair.domains)
		p.StaticPowerMW = p.Static.Sum(pair.domains)
	} else {
		p.DynPowerMW = nonNegative(pair.dyn.Predict(x)) * ratio
		p.StaticPowerMW = nonNegative(pair.static.Predict(x))
	}

	p.TotalPowerMW = p.DynPowerMW + p.StaticPowerMW
	p.TotalEnergyNJ = units.EnergyNJ(p.TotalPowerMW, p.ExecutionTimeNs)

	return p, nil
}

// PredictSinglePE is Predict with a guaranteed per-domain breakdown.
func (m *Model) PredictSinglePE(
	pe hw.PE,
	op workload.Operation,
	v hw.Voltage,
	f sim.Freq,
) (Prediction, error) {
	if !m.cfg.PerDomain {
		return Prediction{}, ErrNoDomainBreakdown
	}

	return m.Predict(pe, op, v, f)
}

func (m *Model) targetFreq(v hw.Voltage, f sim.Freq) (sim.Freq, error) {
	ceiling, ok := m.ceilings.Ceiling(v)
	if !ok {
		return 0, fmt.Errorf("%w %s", char.ErrUnknownVoltage, v)
	}

	if f == 0 {
		return ceiling, nil
	}

	if f < 0 || f > ceiling {
		return 0, fmt.Errorf("%w: %.1f MHz > %.1f MHz at %s",
			char.ErrFrequencyOutOfRange, units.MHz(f), units.MHz(ceiling), v)
	}

	return f, nil
}
