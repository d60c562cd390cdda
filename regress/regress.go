// Package regress provides the regression families used to model execution
// time and power from matmul shapes. Every family sits behind the same
// Fit/Predict interface so that swapping one for another is local.
package regress

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Family names a regression family.
type Family string

// Available families.
const (
	Linear       Family = "linear"
	Ridge        Family = "ridge"
	Lasso        Family = "lasso"
	ElasticNet   Family = "elastic-net"
	Poisson      Family = "poisson"
	Gamma        Family = "gamma"
	RandomForest Family = "random-forest"
)

// Families lists every family in a fixed order.
func Families() []Family {
	return []Family{Linear, Ridge, Lasso, ElasticNet, Poisson, Gamma, RandomForest}
}

// ParseFamily converts a name into a Family. Underscores are accepted in
// place of dashes.
func ParseFamily(name string) (Family, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if n == "elasticnet" {
		n = string(ElasticNet)
	}

	for _, f := range Families() {
		if string(f) == n {
			return f, nil
		}
	}

	return "", fmt.Errorf("unknown regression family %q", name)
}

// Errors reported while fitting.
var (
	ErrNoSamples     = errors.New("no samples to fit")
	ErrShapeMismatch = errors.New("feature and target lengths differ")
	ErrBadTarget     = errors.New("target outside the family's domain")
	ErrNotFitted     = errors.New("model is not fitted")
)

// Config selects a family and its knobs.
type Config struct {
	Family Family

	// Degree is the order of the polynomial feature expansion. Zero fits a
	// constant mean and ignores the features.
	Degree int

	// LogTarget fits on log(y) and exponentiates predictions.
	LogTarget bool

	// Positive constrains every coefficient to be non-negative.
	Positive bool

	// Alpha is the regularization strength of ridge, lasso, elastic-net and
	// the generalized linear families.
	Alpha float64

	// L1Ratio is the elastic-net mix; 1 is lasso and 0 is ridge.
	L1Ratio float64

	// Random forest knobs. Zero values select the defaults.
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

// DefaultConfig returns a degree-1 ordinary least squares configuration.
func DefaultConfig() Config {
	return Config{
		Family:  Linear,
		Degree:  1,
		Alpha:   1,
		L1Ratio: 0.5,
	}
}

// Validate checks the knobs.
func (c Config) Validate() error {
	if _, err := ParseFamily(string(c.Family)); err != nil {
		return err
	}

	if c.Degree < 0 {
		return fmt.Errorf("degree must be >= 0, got %d", c.Degree)
	}

	if c.Alpha < 0 || math.IsNaN(c.Alpha) {
		return fmt.Errorf("alpha must be >= 0, got %v", c.Alpha)
	}

	if c.L1Ratio < 0 || c.L1Ratio > 1 || math.IsNaN(c.L1Ratio) {
		return fmt.Errorf("l1 ratio must be in [0, 1], got %v", c.L1Ratio)
	}

	if c.Trees < 0 || c.MaxDepth < 0 || c.MinLeaf < 0 {
		return fmt.Errorf("forest knobs must be >= 0")
	}

	return nil
}

// Regressor is a fitted-on-demand model of a scalar target.
type Regressor interface {
	// Fit learns the model from rows of features X and targets y.
	Fit(X [][]float64, y []float64) error

	// Predict evaluates the model on one row of features. It returns NaN
	// when the model is not fitted.
	Predict(x []float64) float64
}

// estimator is the family-specific part of a Regressor. It sees expanded
// features and the (possibly log-transformed) target.
type estimator interface {
	fit(X [][]float64, y []float64) error
	predict(x []float64) float64
}

// New creates an unfitted Regressor for the configuration.
func New(cfg Config) (Regressor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	family, _ := ParseFamily(string(cfg.Family))
	cfg.Family = family

	return &pipeline{cfg: cfg, est: newEstimator(cfg)}, nil
}

func newEstimator(cfg Config) estimator {
	if cfg.Degree == 0 {
		return &meanModel{}
	}

	switch cfg.Family {
	case Linear:
		if cfg.Positive {
			return &coordinateDescent{positive: true}
		}
		return &leastSquares{}
	case Ridge:
		if cfg.Positive {
			return &coordinateDescent{alpha: cfg.Alpha, positive: true, sumOfSquares: true}
		}
		return &leastSquares{alpha: cfg.Alpha}
	case Lasso:
		return &coordinateDescent{alpha: cfg.Alpha, l1Ratio: 1, positive: cfg.Positive}
	case ElasticNet:
		return &coordinateDescent{alpha: cfg.Alpha, l1Ratio: cfg.L1Ratio, positive: cfg.Positive}
	case Poisson:
		return &glm{link: poissonFamily, alpha: cfg.Alpha, positive: cfg.Positive}
	case Gamma:
		return &glm{link: gammaFamily, alpha: cfg.Alpha, positive: cfg.Positive}
	case RandomForest:
		return newForest(cfg)
	default:
		panic(fmt.Sprintf("unhandled family %q", cfg.Family))
	}
}

type pipeline struct {
	cfg    Config
	est    estimator
	poly   *polyFeatures
	fitted bool
}

func (p *pipeline) Fit(X [][]float64, y []float64) error {
	if len(y) == 0 {
		return ErrNoSamples
	}

	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(X), len(y))
	}

	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d",
				ErrShapeMismatch, i, len(row), width)
		}
	}

	p.poly = newPolyFeatures(width, p.cfg.Degree)

	expanded := make([][]float64, len(X))
	for i, row := range X {
		expanded[i] = p.poly.transform(row)
	}

	target := y
	if p.cfg.LogTarget {
		target = make([]float64, len(y))
		for i, v := range y {
			if !(v > 0) {
				return fmt.Errorf("%w: log transform needs positive targets, got %v", ErrBadTarget, v)
			}
			target[i] = math.Log(v)
		}
	}

	if err := p.est.fit(expanded, target); err != nil {
		p.fitted = false
		return fmt.Errorf("fitting %s: %w", p.cfg.Family, err)
	}

	p.fitted = true

	return nil
}

func (p *pipeline) Predict(x []float64) float64 {
	if !p.fitted || len(x) != p.poly.inputs {
		return math.NaN()
	}

	v := p.est.predict(p.poly.transform(x))
	if p.cfg.LogTarget {
		return math.Exp(v)
	}

	return v
}
