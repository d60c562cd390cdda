package power

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eve/char"
	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// MultiPrediction is the modeled cost of sub-operations running
// concurrently on several PEs.
type MultiPrediction struct {
	Voltage hw.Voltage
	Freq    sim.Freq

	// PerPE holds the single-PE predictions that could be evaluated, in
	// input order. Dropped counts the ones that could not.
	PerPE   []Prediction
	Dropped int

	// ExecutionTimeNs is the time of the slowest PE.
	ExecutionTimeNs float64

	// SharedDynamic and SharedStatic are the element-wise maxima over the
	// PEs of the shared-fabric domain powers.
	SharedDynamic hw.DomainPower
	SharedStatic  hw.DomainPower

	// DomainEnergyNJ breaks the total energy down per domain.
	DomainEnergyNJ map[hw.Domain]float64

	SharedEnergyNJ     float64
	PESpecificEnergyNJ float64
	TotalEnergyNJ      float64
	AvgPowerMW         float64
}

// PredictMultiPE predicts the concurrent execution of ops[i] on pes[i].
// PE-local domains are charged per PE over that PE's own execution time.
// Shared domains are charged once, at the maximum power any PE draws,
// over the time of the slowest PE.
func (m *Model) PredictMultiPE(
	pes []hw.PE,
	ops []workload.Operation,
	v hw.Voltage,
	f sim.Freq,
) (MultiPrediction, error) {
	if len(pes) != len(ops) {
		return MultiPrediction{}, fmt.Errorf("got %d PEs for %d sub-operations", len(pes), len(ops))
	}

	if !m.cfg.PerDomain {
		return MultiPrediction{}, ErrNoDomainBreakdown
	}

	mp := MultiPrediction{
		Voltage:        v,
		SharedDynamic:  hw.DomainPower{},
		SharedStatic:   hw.DomainPower{},
		DomainEnergyNJ: map[hw.Domain]float64{},
	}

	for i, pe := range pes {
		p, err := m.PredictSinglePE(pe, ops[i], v, f)
		if err != nil {
			slog.Debug("dropping sub-operation from multi-PE prediction",
				"pe", pe, "op", ops[i].String(), "error", err)
			mp.Dropped++
			continue
		}

		mp.PerPE = append(mp.PerPE, p)
		mp.Freq = p.Freq
		mp.ExecutionTimeNs = max(mp.ExecutionTimeNs, p.ExecutionTimeNs)
	}

	if len(mp.PerPE) == 0 {
		return MultiPrediction{}, fmt.Errorf("%w: no sub-operation could be predicted",
			char.ErrMissingData)
	}

	for _, p := range mp.PerPE {
		for _, d := range p.Dynamic.Domains() {
			if d.Shared() {
				mp.SharedDynamic[d] = max(mp.SharedDynamic[d], p.Dynamic[d])
				mp.SharedStatic[d] = max(mp.SharedStatic[d], p.Static[d])
				continue
			}

			e := units.EnergyNJ(p.Dynamic[d]+p.Static[d], p.ExecutionTimeNs)
			mp.DomainEnergyNJ[d] += e
			mp.PESpecificEnergyNJ += e
		}
	}

	for _, d := range mp.SharedDynamic.Domains() {
		e := units.EnergyNJ(mp.SharedDynamic[d]+mp.SharedStatic[d], mp.ExecutionTimeNs)
		mp.DomainEnergyNJ[d] += e
		mp.SharedEnergyNJ += e
	}

	mp.TotalEnergyNJ = mp.SharedEnergyNJ + mp.PESpecificEnergyNJ
	mp.AvgPowerMW = units.PowerMW(mp.TotalEnergyNJ, mp.ExecutionTimeNs)

	return mp, nil
}
