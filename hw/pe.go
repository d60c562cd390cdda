// Package hw describes the processing elements, power domains, voltages and
// memories of the target SoC.
package hw

import (
	"fmt"
	"strings"
)

// PE names a processing element on the SoC.
type PE string

// The processing elements that can be characterized.
const (
	CPU    PE = "cpu"
	Carus  PE = "carus"
	Caesar PE = "caesar"
	CGRA   PE = "cgra"
)

// KnownPEs returns every PE in enumeration order.
func KnownPEs() []PE {
	return []PE{CPU, Carus, Caesar, CGRA}
}

// Valid reports whether the PE is one of the known processing elements.
func (p PE) Valid() bool {
	switch p {
	case CPU, Carus, Caesar, CGRA:
		return true
	default:
		return false
	}
}

// ParsePE converts a name into a PE.
func ParsePE(name string) (PE, error) {
	pe := PE(strings.ToLower(strings.TrimSpace(name)))
	if !pe.Valid() {
		return "", fmt.Errorf("unknown PE %q", name)
	}

	return pe, nil
}

// DefaultDomains returns the power domains charged when the PE executes an
// operation. Unknown PEs get no domains.
func DefaultDomains(pe PE) DomainSet {
	switch pe {
	case Carus:
		return DomainSet{Sys, CPUDomain, Mem, CarusDomain}
	case Caesar:
		return DomainSet{Sys, CPUDomain, Mem, CaesarDomain}
	case CGRA:
		return DomainSet{Sys, CPUDomain, Mem, CGRADomain}
	case CPU:
		return DomainSet{Sys, CPUDomain, Mem}
	default:
		return nil
	}
}
