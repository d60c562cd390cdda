// Package units centralizes the conversions between the internal units
// (ns, nJ, mW) and the reported units (ms, mJ, mW, s).
package units

import "github.com/sarchlab/akita/v4/sim"

// EnergyNJ returns the energy, in nJ, spent drawing powerMW for timeNs.
func EnergyNJ(powerMW, timeNs float64) float64 {
	return powerMW * timeNs / 1000
}

// PowerMW returns the average power, in mW, of spending energyNJ over
// timeNs. A non-positive duration yields zero.
func PowerMW(energyNJ, timeNs float64) float64 {
	if timeNs <= 0 {
		return 0
	}

	return energyNJ * 1000 / timeNs
}

// NsToMs converts nanoseconds to milliseconds.
func NsToMs(ns float64) float64 { return ns / 1e6 }

// NsToS converts nanoseconds to seconds.
func NsToS(ns float64) float64 { return ns / 1e9 }

// SToNs converts seconds to nanoseconds.
func SToNs(s float64) float64 { return s * 1e9 }

// NJToMJ converts nanojoules to millijoules.
func NJToMJ(nj float64) float64 { return nj / 1e6 }

// PeriodNs returns the clock period of f in nanoseconds.
func PeriodNs(f sim.Freq) float64 {
	return 1e9 / float64(f)
}

// FreqFromPeriodNs returns the frequency whose period is periodNs.
func FreqFromPeriodNs(periodNs float64) sim.Freq {
	return sim.Freq(1e9 / periodNs)
}

// MHz expresses f in megahertz.
func MHz(f sim.Freq) float64 {
	return float64(f / sim.MHz)
}

// SameFreq reports whether two frequencies agree within a relative
// tolerance of 1e-6.
func SameFreq(a, b sim.Freq) bool {
	d := float64(a - b)
	if d < 0 {
		d = -d
	}

	return d <= 1e-6*float64(b)
}
