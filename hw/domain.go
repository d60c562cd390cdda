package hw

import (
	"fmt"
	"sort"
	"strings"
)

// Domain is a power accounting bucket.
type Domain int

// The closed set of power domains.
const (
	Sys Domain = iota
	CPUDomain
	Mem
	CarusDomain
	CaesarDomain
	CGRADomain
	NumDomains
)

var domainNames = [NumDomains]string{"sys", "cpu", "mem", "carus", "caesar", "cgra"}

func (d Domain) String() string {
	if d < 0 || d >= NumDomains {
		panic(fmt.Sprintf("invalid domain %d", int(d)))
	}

	return domainNames[d]
}

// Shared reports whether the domain belongs to the shared fabric (bus, host
// CPU and memory subsystem) rather than to a single accelerator.
func (d Domain) Shared() bool {
	return d == Sys || d == CPUDomain || d == Mem
}

// ParseDomain converts a name into a Domain.
func ParseDomain(name string) (Domain, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, dn := range domainNames {
		if dn == n {
			return Domain(i), nil
		}
	}

	return 0, fmt.Errorf("unknown power domain %q", name)
}

// AllDomains lists every domain in enumeration order.
func AllDomains() DomainSet {
	ds := make(DomainSet, 0, NumDomains)
	for d := Domain(0); d < NumDomains; d++ {
		ds = append(ds, d)
	}

	return ds
}

// DomainSet is an ordered list of distinct domains.
type DomainSet []Domain

// Contains reports whether d is part of the set.
func (s DomainSet) Contains(d Domain) bool {
	for _, x := range s {
		if x == d {
			return true
		}
	}

	return false
}

// DomainPower maps a domain to a power value in mW.
type DomainPower map[Domain]float64

// Sum adds the values of the domains in the set. Domains missing from the
// map count as zero.
func (p DomainPower) Sum(set DomainSet) float64 {
	total := 0.0
	for _, d := range set {
		total += p[d]
	}

	return total
}

// Total adds every value in the map.
func (p DomainPower) Total() float64 {
	total := 0.0
	for _, d := range p.Domains() {
		total += p[d]
	}

	return total
}

// Domains returns the keys of the map in enumeration order.
func (p DomainPower) Domains() DomainSet {
	ds := make(DomainSet, 0, len(p))
	for d := range p {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })

	return ds
}

// Scale returns a copy with every value multiplied by s.
func (p DomainPower) Scale(s float64) DomainPower {
	out := make(DomainPower, len(p))
	for d, v := range p {
		out[d] = v * s
	}

	return out
}

// Clone returns a copy of the map.
func (p DomainPower) Clone() DomainPower {
	return p.Scale(1)
}
