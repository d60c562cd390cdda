package char

import (
	"fmt"
	"log/slog"
	"sort"

	"go.uber.org/multierr"

	"github.com/sarchlab/eve/hw"
)

// Store is an in-memory table of measured points. It is filled once and
// must not be mutated while predictions are drawn from it.
type Store struct {
	ceilings hw.CeilingTable
	points   map[Key]Measurement
	order    []Key
	pes      map[hw.PE]bool
}

// NewStore creates an empty store that enforces the given ceiling table.
func NewStore(ceilings hw.CeilingTable) *Store {
	c := make(hw.CeilingTable, len(ceilings))
	for mv, f := range ceilings {
		c[mv] = f
	}

	return &Store{
		ceilings: c,
		points:   make(map[Key]Measurement),
		pes:      make(map[hw.PE]bool),
	}
}

// Ceilings returns a copy of the ceiling table of the store.
func (s *Store) Ceilings() hw.CeilingTable {
	c := make(hw.CeilingTable, len(s.ceilings))
	for mv, f := range s.ceilings {
		c[mv] = f
	}

	return c
}

// Load ingests a batch of measurements. Invalid records are skipped and
// reported together in the returned error; valid ones are kept. A record
// whose key already exists replaces the earlier one.
func (s *Store) Load(records []Measurement) error {
	var errs error

	loaded := 0
	for _, m := range records {
		if err := m.Validate(s.ceilings); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		s.put(m)
		loaded++
	}

	slog.Debug("characterization loaded",
		"records", len(records), "accepted", loaded, "total", len(s.points))

	return errs
}

func (s *Store) put(m Measurement) {
	k := m.Key()
	if _, ok := s.points[k]; !ok {
		s.order = append(s.order, k)
	}

	s.pes[k.PE] = true

	s.points[k] = m.clone()
}

// Len returns the number of stored points.
func (s *Store) Len() int {
	return len(s.points)
}

// Get returns the raw measurement stored under the key.
func (s *Store) Get(k Key) (Measurement, bool) {
	m, ok := s.points[k]
	if !ok {
		return Measurement{}, false
	}

	return m.clone(), true
}

// All returns every measurement in insertion order.
func (s *Store) All() []Measurement {
	out := make([]Measurement, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.points[k].clone())
	}

	return out
}

// Measurements returns the points of a PE at a voltage in insertion order.
func (s *Store) Measurements(pe hw.PE, v hw.Voltage) []Measurement {
	mv := v.MilliVolts()

	var out []Measurement
	for _, k := range s.order {
		if k.PE == pe && k.MilliVolts == mv {
			out = append(out, s.points[k].clone())
		}
	}

	return out
}

// PEs returns the characterized PEs in the order of hw.KnownPEs.
func (s *Store) PEs() []hw.PE {
	var out []hw.PE
	for _, pe := range hw.KnownPEs() {
		if s.pes[pe] {
			out = append(out, pe)
		}
	}

	return out
}

// Voltages returns the voltages characterized for a PE, ascending.
func (s *Store) Voltages(pe hw.PE) []hw.Voltage {
	seen := make(map[int]bool)
	for _, k := range s.order {
		if k.PE == pe {
			seen[k.MilliVolts] = true
		}
	}

	mvs := make([]int, 0, len(seen))
	for mv := range seen {
		mvs = append(mvs, mv)
	}
	sort.Ints(mvs)

	out := make([]hw.Voltage, len(mvs))
	for i, mv := range mvs {
		out[i] = hw.FromMilliVolts(mv)
	}

	return out
}

func (s *Store) hasPE(pe hw.PE) bool {
	return s.pes[pe]
}

func (s *Store) String() string {
	return fmt.Sprintf("Store(%d points, %d PEs)", len(s.points), len(s.PEs()))
}
