package power

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eve/char"
	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/regress"
	"github.com/sarchlab/eve/units"
	"github.com/sarchlab/eve/workload"
)

// Errors reported by the model.
var (
	ErrNoModels          = errors.New("no (PE, voltage) pair could be fitted")
	ErrInvalidPrediction = errors.New("regression produced a non-positive execution time")
	ErrNoDomainBreakdown = errors.New("model was fitted without per-domain breakdowns")
)

type pvKey struct {
	pe hw.PE
	mv int
}

type fittedPair struct {
	samples int
	domains hw.DomainSet

	time   regress.Regressor
	dyn    regress.Regressor
	static regress.Regressor

	domainDyn    map[hw.Domain]regress.Regressor
	domainStatic map[hw.Domain]regress.Regressor
}

// Model holds one fitted set of regressions per characterized (PE, voltage)
// pair. It is immutable once built and safe for concurrent reads.
type Model struct {
	cfg      Config
	ceilings hw.CeilingTable
	pairs    map[pvKey]*fittedPair
	order    []pvKey
}

// Build fits the model on the measurements recorded at cfg.RefFreq. Pairs
// that cannot be fitted are skipped with a warning.
func Build(store *char.Store, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid power model config: %w", err)
	}

	m := &Model{
		cfg:      cfg,
		ceilings: store.Ceilings(),
		pairs:    make(map[pvKey]*fittedPair),
	}

	for _, pe := range store.PEs() {
		for _, v := range store.Voltages(pe) {
			points := atFreq(store.Measurements(pe, v), cfg.RefFreq)
			if len(points) == 0 {
				slog.Debug("no points at reference clock",
					"pe", pe, "voltage", float64(v), "ref_mhz", units.MHz(cfg.RefFreq))
				continue
			}

			pair, err := m.fitPair(pe, points)
			if err != nil {
				slog.Warn("skipping power model pair",
					"pe", pe, "voltage", float64(v), "error", err)
				continue
			}

			k := pvKey{pe: pe, mv: v.MilliVolts()}
			m.pairs[k] = pair
			m.order = append(m.order, k)
		}
	}

	if len(m.pairs) == 0 {
		return nil, ErrNoModels
	}

	slog.Info("power model built", "pairs", len(m.pairs), "per_domain", cfg.PerDomain)

	return m, nil
}

func atFreq(ms []char.Measurement, f sim.Freq) []char.Measurement {
	var out []char.Measurement
	for _, m := range ms {
		if units.SameFreq(m.Freq(), f) {
			out = append(out, m)
		}
	}

	return out
}

func (m *Model) features(op workload.Operation) []float64 {
	if m.cfg.UseTotalOps {
		return []float64{float64(op.Ops())}
	}

	return []float64{float64(op.M), float64(op.K), float64(op.N)}
}

func (m *Model) fitPair(pe hw.PE, points []char.Measurement) (*fittedPair, error) {
	domains := hw.DefaultDomains(pe)
	X := make([][]float64, len(points))
	yTime := make([]float64, len(points))
	yDyn := make([]float64, len(points))
	yStatic := make([]float64, len(points))

	for i, p := range points {
		X[i] = m.features(p.Op)
		yTime[i] = p.ExecutionTimeNs
		yDyn[i] = p.Dynamic.Sum(domains)
		yStatic[i] = p.Static.Sum(domains)
	}

	pair := &fittedPair{samples: len(points), domains: domains}

	var err error
	if pair.time, err = m.fit(timeTarget, X, yTime); err != nil {
		return nil, err
	}

	if !m.cfg.PerDomain {
		if pair.dyn, err = m.fit(dynTarget, X, yDyn); err != nil {
			return nil, err
		}

		if pair.static, err = m.fit(staticTarget, X, yStatic); err != nil {
			return nil, err
		}

		return pair, nil
	}

	pair.domainDyn = make(map[hw.Domain]regress.Regressor, len(domains))
	pair.domainStatic = make(map[hw.Domain]regress.Regressor, len(domains))

	for _, d := range domains {
		for i, p := range points {
			yDyn[i] = p.Dynamic[d]
			yStatic[i] = p.Static[d]
		}

		if pair.domainDyn[d], err = m.fit(dynTarget, X, yDyn); err != nil {
			return nil, fmt.Errorf("domain %s: %w", d, err)
		}

		if pair.domainStatic[d], err = m.fit(staticTarget, X, yStatic); err != nil {
			return nil, fmt.Errorf("domain %s: %w", d, err)
		}
	}

	return pair, nil
}

func (m *Model) fit(t target, X [][]float64, y []float64) (regress.Regressor, error) {
	r, err := regress.New(m.cfg.regressConfig(t))
	if err != nil {
		return nil, err
	}

	if err := r.Fit(X, y); err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}

	return r, nil
}

// Config returns the configuration the model was built with.
func (m *Model) Config() Config {
	return m.cfg
}

// Has reports whether a model was fitted for the PE at the voltage.
func (m *Model) Has(pe hw.PE, v hw.Voltage) bool {
	_, ok := m.pairs[pvKey{pe: pe, mv: v.MilliVolts()}]
	return ok
}

// PEs returns the PEs with at least one fitted voltage, in hw.KnownPEs order.
func (m *Model) PEs() []hw.PE {
	var out []hw.PE
	for _, pe := range hw.KnownPEs() {
		if len(m.Voltages(pe)) > 0 {
			out = append(out, pe)
		}
	}

	return out
}

// Voltages returns the fitted voltages of a PE in ascending order.
func (m *Model) Voltages(pe hw.PE) []hw.Voltage {
	var out []hw.Voltage
	for _, v := range m.ceilings.Voltages() {
		if m.Has(pe, v) {
			out = append(out, v)
		}
	}

	return out
}

// Ceiling returns the maximum frequency at the voltage.
func (m *Model) Ceiling(v hw.Voltage) (sim.Freq, bool) {
	return m.ceilings.Ceiling(v)
}

// Samples returns how many points the pair was fitted on.
func (m *Model) Samples(pe hw.PE, v hw.Voltage) int {
	p, ok := m.pairs[pvKey{pe: pe, mv: v.MilliVolts()}]
	if !ok {
		return 0
	}

	return p.samples
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}

	return v
}
