package hw

// MemoryCapacity maps a PE to the size of its local memory in bytes.
type MemoryCapacity map[PE]int

// DefaultMemoryCapacity returns the local memory sizes of the SoC.
func DefaultMemoryCapacity() MemoryCapacity {
	return MemoryCapacity{
		CPU:    262144,
		CGRA:   262144,
		Carus:  32768,
		Caesar: 32768,
	}
}

// Of returns the capacity of the PE and whether it is configured.
func (m MemoryCapacity) Of(pe PE) (int, bool) {
	b, ok := m[pe]
	return b, ok && b > 0
}
