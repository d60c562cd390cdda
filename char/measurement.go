// Package char holds the characterization database: measured time and power
// of every processing element for a set of shapes and voltages.
package char

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/akita/v4/sim"
	"go.uber.org/multierr"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// Errors reported by the store.
var (
	ErrMissingData         = errors.New("no measurement for the requested point")
	ErrUnknownPE           = errors.New("unknown PE")
	ErrUnknownVoltage      = errors.New("unknown voltage")
	ErrFrequencyOutOfRange = errors.New("frequency above the voltage ceiling")
)

// Key identifies a measured point.
type Key struct {
	PE         hw.PE
	Op         workload.Operation
	MilliVolts int
}

func (k Key) String() string {
	return fmt.Sprintf("%s%s@%dmV", k.PE, k.Op, k.MilliVolts)
}

// Measurement is one characterized point. Powers are in mW, times in ns.
type Measurement struct {
	PE              hw.PE
	Op              workload.Operation
	Voltage         hw.Voltage
	ClockPeriodNs   float64
	ExecutionTimeNs float64
	Dynamic         hw.DomainPower
	Static          hw.DomainPower
}

// Key returns the lookup key of the measurement.
func (m Measurement) Key() Key {
	return Key{PE: m.PE, Op: m.Op, MilliVolts: m.Voltage.MilliVolts()}
}

// Freq returns the clock frequency the point was recorded at.
func (m Measurement) Freq() sim.Freq {
	return units.FreqFromPeriodNs(m.ClockPeriodNs)
}

// Validate checks the invariants of a measurement.
func (m Measurement) Validate(ceilings hw.CeilingTable) error {
	var err error

	if !m.PE.Valid() {
		err = multierr.Append(err, fmt.Errorf("%w %q", ErrUnknownPE, m.PE))
	}

	if _, ok := ceilings.Ceiling(m.Voltage); !ok {
		err = multierr.Append(err, fmt.Errorf("%w %s", ErrUnknownVoltage, m.Voltage))
	}

	if opErr := m.Op.Validate(); opErr != nil {
		err = multierr.Append(err, opErr)
	}

	if !(m.ClockPeriodNs > 0) || math.IsInf(m.ClockPeriodNs, 0) {
		err = multierr.Append(err, fmt.Errorf("clock period must be positive, got %v", m.ClockPeriodNs))
	}

	if !(m.ExecutionTimeNs >= 0) {
		err = multierr.Append(err, fmt.Errorf("execution time must be non-negative, got %v", m.ExecutionTimeNs))
	}

	err = multierr.Append(err, checkPowers("dynamic", m.Dynamic))
	err = multierr.Append(err, checkPowers("static", m.Static))

	if err != nil {
		return fmt.Errorf("measurement %s: %w", m.Key(), err)
	}

	return nil
}

func checkPowers(kind string, p hw.DomainPower) error {
	var err error

	for _, d := range p.Domains() {
		if d < 0 || d >= hw.NumDomains {
			err = multierr.Append(err, fmt.Errorf("invalid %s power domain %d", kind, int(d)))
			continue
		}

		v := p[d]
		if !(v >= 0) || math.IsInf(v, 0) {
			err = multierr.Append(err, fmt.Errorf("%s power of %s must be non-negative, got %v", kind, d, v))
		}
	}

	return err
}

func (m Measurement) clone() Measurement {
	m.Dynamic = m.Dynamic.Clone()
	m.Static = m.Static.Clone()

	return m
}
