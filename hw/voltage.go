package hw

import (
	"fmt"
	"math"
	"sort"

	"github.com/sarchlab/akita/v4/sim"
)

// Voltage is a supply voltage in volts.
type Voltage float64

// MilliVolts returns the voltage rounded to the closest millivolt. It is used
// as the map key wherever voltages index tables.
func (v Voltage) MilliVolts() int {
	return int(math.Round(float64(v) * 1000))
}

func (v Voltage) String() string {
	return fmt.Sprintf("%.2fV", float64(v))
}

// FromMilliVolts converts a millivolt key back into a Voltage.
func FromMilliVolts(mv int) Voltage {
	return Voltage(float64(mv) / 1000)
}

// CeilingTable maps a voltage, in millivolts, to the maximum clock
// frequency allowed at that voltage.
type CeilingTable map[int]sim.Freq

// DefaultCeilings returns the ceiling table of the characterized SoC.
func DefaultCeilings() CeilingTable {
	return CeilingTable{
		500: 122 * sim.MHz,
		650: 347 * sim.MHz,
		800: 578 * sim.MHz,
		900: 690 * sim.MHz,
	}
}

// Ceiling returns the maximum frequency at v.
func (c CeilingTable) Ceiling(v Voltage) (sim.Freq, bool) {
	f, ok := c[v.MilliVolts()]
	return f, ok
}

// Voltages returns the voltages of the table in ascending order.
func (c CeilingTable) Voltages() []Voltage {
	mvs := make([]int, 0, len(c))
	for mv := range c {
		mvs = append(mvs, mv)
	}
	sort.Ints(mvs)

	vs := make([]Voltage, len(mvs))
	for i, mv := range mvs {
		vs[i] = FromMilliVolts(mv)
	}

	return vs
}

// Validate checks that the ceiling frequency never decreases as the voltage
// rises and that every frequency is positive.
func (c CeilingTable) Validate() error {
	prev := sim.Freq(0)
	for _, v := range c.Voltages() {
		f := c[v.MilliVolts()]
		if f <= 0 {
			return fmt.Errorf("ceiling at %s must be positive", v)
		}

		if f < prev {
			return fmt.Errorf("ceiling at %s (%.0f Hz) is below a lower voltage (%.0f Hz)",
				v, float64(f), float64(prev))
		}

		prev = f
	}

	return nil
}
