package char

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// PowerType selects which component of the power a query reports.
type PowerType int

// Power components.
const (
	TotalPower PowerType = iota
	DynamicPower
	StaticPower
)

func (t PowerType) String() string {
	switch t {
	case TotalPower:
		return "total"
	case DynamicPower:
		return "dynamic"
	case StaticPower:
		return "static"
	default:
		panic(fmt.Sprintf("invalid power type %d", int(t)))
	}
}

// Query describes a point lookup.
type Query struct {
	PE      hw.PE
	Op      workload.Operation
	Voltage hw.Voltage

	// Freq is the target clock. Zero keeps the recorded clock.
	Freq sim.Freq

	PowerType PowerType

	// Domains overrides the PE's default domain selection when not nil.
	Domains hw.DomainSet
}

// PointResult is a measurement scaled to the requested frequency and
// restricted to the requested domains.
type PointResult struct {
	Key             Key
	Freq            sim.Freq
	Scale           float64
	ExecutionTimeNs float64
	Dynamic         hw.DomainPower
	Static          hw.DomainPower

	// PowerMW is the selected power type summed over the selected domains.
	PowerMW float64

	// EnergyNJ is the total (dynamic plus static) energy of the point.
	EnergyNJ float64
}

// Query looks up an exact point and scales it to the requested frequency.
// Dynamic power scales linearly with the frequency and the execution time
// inversely; static power is left unchanged.
func (s *Store) Query(q Query) (PointResult, error) {
	res, err := s.query(q)
	if err != nil {
		slog.Debug("characterization query failed",
			"pe", q.PE, "op", q.Op.String(), "voltage", float64(q.Voltage), "error", err)
	}

	return res, err
}

func (s *Store) query(q Query) (PointResult, error) {
	if !q.PE.Valid() || !s.hasPE(q.PE) {
		return PointResult{}, fmt.Errorf("%w %q", ErrUnknownPE, q.PE)
	}

	ceiling, ok := s.ceilings.Ceiling(q.Voltage)
	if !ok {
		return PointResult{}, fmt.Errorf("%w %s", ErrUnknownVoltage, q.Voltage)
	}

	key := Key{PE: q.PE, Op: q.Op, MilliVolts: q.Voltage.MilliVolts()}
	m, ok := s.points[key]
	if !ok {
		return PointResult{}, fmt.Errorf("%w: %s", ErrMissingData, key)
	}

	recorded := m.Freq()
	freq := recorded
	scale := 1.0

	if q.Freq != 0 {
		if q.Freq > ceiling {
			return PointResult{}, fmt.Errorf("%w: %.1f MHz > %.1f MHz at %s",
				ErrFrequencyOutOfRange, units.MHz(q.Freq), units.MHz(ceiling), q.Voltage)
		}

		freq = q.Freq
		scale = float64(q.Freq) / float64(recorded)
	}

	domains := q.Domains
	if domains == nil {
		domains = hw.DefaultDomains(q.PE)
	}

	res := PointResult{
		Key:             key,
		Freq:            freq,
		Scale:           scale,
		ExecutionTimeNs: m.ExecutionTimeNs / scale,
		Dynamic:         make(hw.DomainPower, len(domains)),
		Static:          make(hw.DomainPower, len(domains)),
	}

	for _, d := range domains {
		res.Dynamic[d] = m.Dynamic[d] * scale
		res.Static[d] = m.Static[d]
	}

	dyn := res.Dynamic.Sum(domains)
	static := res.Static.Sum(domains)

	switch q.PowerType {
	case TotalPower:
		res.PowerMW = dyn + static
	case DynamicPower:
		res.PowerMW = dyn
	case StaticPower:
		res.PowerMW = static
	default:
		return PointResult{}, fmt.Errorf("invalid power type %d", int(q.PowerType))
	}

	res.EnergyNJ = units.EnergyNJ(dyn+static, res.ExecutionTimeNs)

	return res, nil
}
