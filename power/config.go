// Package power predicts execution time, power and energy of matmul
// operations on every PE from regressions fitted on the characterization.
package power

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"go.uber.org/multierr"

	"github.com/sarchlab/eve/regress"
)

// DefaultRefFreq is the clock the characterization is recorded at.
const DefaultRefFreq = 100 * sim.MHz

// Config groups the fitting knobs of the power model. Each of the time,
// dynamic power and static power targets has its own family, polynomial
// degree, log transform and regularization.
type Config struct {
	// UseTotalOps collapses (M, K, N) into the single feature M*K*N.
	UseTotalOps bool `yaml:"use_total_ops"`

	DegreeTime   int `yaml:"degree_time"`
	DegreeDyn    int `yaml:"degree_dyn"`
	DegreeStatic int `yaml:"degree_static"`

	ModelTime   regress.Family `yaml:"model_type_time"`
	ModelDyn    regress.Family `yaml:"model_type_dyn"`
	ModelStatic regress.Family `yaml:"model_type_static"`

	LogTime   bool `yaml:"apply_log_transform_time"`
	LogDyn    bool `yaml:"apply_log_transform_dyn"`
	LogStatic bool `yaml:"apply_log_transform_static"`

	Positive bool `yaml:"positive"`

	AlphaTime   float64 `yaml:"alpha_time"`
	AlphaDyn    float64 `yaml:"alpha_dyn"`
	AlphaStatic float64 `yaml:"alpha_static"`

	L1RatioTime   float64 `yaml:"l1_ratio_time"`
	L1RatioDyn    float64 `yaml:"l1_ratio_dyn"`
	L1RatioStatic float64 `yaml:"l1_ratio_static"`

	// PerDomain fits one dynamic and one static model per power domain
	// instead of a single aggregate. Multi-PE predictions need it.
	PerDomain bool `yaml:"per_domain"`

	// RefFreq selects the characterized points used for fitting.
	RefFreq sim.Freq `yaml:"-"`

	// Seed feeds the random forest family.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the configuration used when nothing is specified:
// a linear time and dynamic power model on the total op count, a constant
// static power and per-domain breakdowns.
func DefaultConfig() Config {
	return Config{
		UseTotalOps:   true,
		DegreeTime:    1,
		DegreeDyn:     1,
		DegreeStatic:  0,
		ModelTime:     regress.Linear,
		ModelDyn:      regress.Linear,
		ModelStatic:   regress.Linear,
		AlphaTime:     1,
		AlphaDyn:      1,
		AlphaStatic:   1,
		L1RatioTime:   0.5,
		L1RatioDyn:    0.5,
		L1RatioStatic: 0.5,
		PerDomain:     true,
		RefFreq:       DefaultRefFreq,
	}
}

type target int

const (
	timeTarget target = iota
	dynTarget
	staticTarget
)

func (t target) String() string {
	return [...]string{"time", "dynamic power", "static power"}[t]
}

func (c Config) regressConfig(t target) regress.Config {
	rc := regress.Config{Positive: c.Positive, Seed: c.Seed}

	switch t {
	case timeTarget:
		rc.Family, rc.Degree, rc.LogTarget = c.ModelTime, c.DegreeTime, c.LogTime
		rc.Alpha, rc.L1Ratio = c.AlphaTime, c.L1RatioTime
	case dynTarget:
		rc.Family, rc.Degree, rc.LogTarget = c.ModelDyn, c.DegreeDyn, c.LogDyn
		rc.Alpha, rc.L1Ratio = c.AlphaDyn, c.L1RatioDyn
	case staticTarget:
		rc.Family, rc.Degree, rc.LogTarget = c.ModelStatic, c.DegreeStatic, c.LogStatic
		rc.Alpha, rc.L1Ratio = c.AlphaStatic, c.L1RatioStatic
	}

	if rc.Family == "" {
		rc.Family = regress.Linear
	}

	return rc
}

// Validate checks every knob.
func (c Config) Validate() error {
	var err error

	if c.RefFreq <= 0 {
		err = multierr.Append(err, fmt.Errorf("reference frequency must be positive"))
	}

	for _, t := range []target{timeTarget, dynTarget, staticTarget} {
		if rcErr := c.regressConfig(t).Validate(); rcErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s model: %w", t, rcErr))
		}
	}

	return err
}
