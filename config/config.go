// Package config loads the YAML run configuration: the budget, the PE
// memories, the power model knobs, the workload and the policies to run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarchlab/akita/v4/sim"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/eve/char"
	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/policy"
	"github.com/sarchlab/eve/power"
	"github.com/sarchlab/eve/synth"
	"github.com/sarchlab/eve/workload"
)

// PolicySpec selects and configures one policy.
type PolicySpec struct {
	Kind     string       `yaml:"kind"`
	Name     string       `yaml:"name,omitempty"`
	PEs      []hw.PE      `yaml:"pes,omitempty"`
	Voltages []hw.Voltage `yaml:"voltages,omitempty"`
	PE       hw.PE        `yaml:"pe,omitempty"`
	Voltage  hw.Voltage   `yaml:"voltage,omitempty"`
	Tiled    bool         `yaml:"tiled,omitempty"`
	Verbose  bool         `yaml:"verbose,omitempty"`
}

// Config is a run configuration.
type Config struct {
	BudgetS      float64 `yaml:"budget_s"`
	ElementBytes int     `yaml:"element_bytes"`

	// Snapshot is a characterization snapshot. The synthetic
	// characterization is used when it is empty.
	Snapshot string `yaml:"snapshot,omitempty"`

	// WorkloadFile is read into Workload when set.
	WorkloadFile string            `yaml:"workload_file,omitempty"`
	Workload     workload.Workload `yaml:"workload,omitempty"`

	Memory     hw.MemoryCapacity `yaml:"memory,omitempty"`
	RefFreqMHz float64           `yaml:"ref_freq_mhz"`
	PowerModel power.Config      `yaml:"power_model"`

	PolicySpecs []PolicySpec `yaml:"policies"`
}

// Default returns a configuration with the default memories and power
// model and no workload or policies.
func Default() Config {
	return Config{
		ElementBytes: policy.DefaultElementBytes,
		Memory:       hw.DefaultMemoryCapacity(),
		RefFreqMHz:   float64(power.DefaultRefFreq / sim.MHz),
		PowerModel:   power.DefaultConfig(),
	}
}

// Parse decodes a YAML configuration over the defaults. It does not
// validate.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	c.PowerModel.RefFreq = sim.Freq(c.RefFreqMHz) * sim.MHz

	return c, nil
}

// Load reads, resolves and validates a configuration file. Relative
// workload and snapshot paths are taken from the directory of the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return Config{}, err
	}

	dir := filepath.Dir(path)
	if c.Snapshot != "" && !filepath.IsAbs(c.Snapshot) {
		c.Snapshot = filepath.Join(dir, c.Snapshot)
	}

	if c.WorkloadFile != "" {
		wlPath := c.WorkloadFile
		if !filepath.IsAbs(wlPath) {
			wlPath = filepath.Join(dir, wlPath)
		}

		if c.Workload, err = workload.Load(wlPath); err != nil {
			return Config{}, err
		}
	}

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return c, nil
}

// Validate reports every problem of the configuration at once.
func (c Config) Validate() error {
	var err error

	if !(c.BudgetS > 0) {
		err = multierr.Append(err, fmt.Errorf("budget_s must be positive, got %v", c.BudgetS))
	}

	if c.ElementBytes <= 0 {
		err = multierr.Append(err, fmt.Errorf("element_bytes must be positive, got %d", c.ElementBytes))
	}

	if wlErr := c.Workload.Validate(); wlErr != nil {
		err = multierr.Append(err, wlErr)
	}

	for pe, b := range c.Memory {
		if !pe.Valid() {
			err = multierr.Append(err, fmt.Errorf("memory: unknown PE %q", pe))
		}
		if b <= 0 {
			err = multierr.Append(err, fmt.Errorf("memory: %s must be positive, got %d", pe, b))
		}
	}

	if pmErr := c.PowerModel.Validate(); pmErr != nil {
		err = multierr.Append(err, fmt.Errorf("power_model: %w", pmErr))
	}

	if len(c.PolicySpecs) == 0 {
		err = multierr.Append(err, fmt.Errorf("no policies configured"))
	}

	ceilings, ceilErr := c.ceilings()
	if ceilErr != nil {
		err = multierr.Append(err, fmt.Errorf("snapshot: %w", ceilErr))
	}

	names := map[string]int{}
	for i, p := range c.PolicySpecs {
		err = multierr.Append(err, p.validate(i, ceilings))

		if built, buildErr := p.build(c.ElementBytes); buildErr == nil {
			if j, dup := names[built.Name()]; dup {
				err = multierr.Append(err, fmt.Errorf("policies[%d] and policies[%d] are both named %q",
					j, i, built.Name()))
			}
			names[built.Name()] = i
		}
	}

	return err
}

// ceilings returns the ceiling table policy voltages are checked against.
func (c Config) ceilings() (hw.CeilingTable, error) {
	if c.Snapshot == "" {
		return hw.DefaultCeilings(), nil
	}

	return char.LoadCeilings(c.Snapshot)
}

// validate checks one spec. Voltages are not checked when ceilings is nil.
func (p PolicySpec) validate(i int, ceilings hw.CeilingTable) error {
	var err error

	kind, kindErr := policy.ParseKind(p.Kind)
	if kindErr != nil {
		return fmt.Errorf("policies[%d]: %w", i, kindErr)
	}

	for _, pe := range p.PEs {
		if !pe.Valid() {
			err = multierr.Append(err, fmt.Errorf("policies[%d]: unknown PE %q", i, pe))
		}
	}

	for _, v := range p.Voltages {
		if _, ok := ceilings.Ceiling(v); !ok && ceilings != nil {
			err = multierr.Append(err, fmt.Errorf("policies[%d]: voltage %s is not characterized", i, v))
		}
	}

	switch kind {
	case policy.KindFixedPE, policy.KindFixedPEWMem:
		if !p.PE.Valid() {
			err = multierr.Append(err, fmt.Errorf("policies[%d]: %s needs a known pe, got %q", i, kind, p.PE))
		}
		fallthrough
	case policy.KindOptimalFixedVoltage, policy.KindPerOpFixedVoltage:
		if _, ok := ceilings.Ceiling(p.Voltage); !ok && ceilings != nil {
			err = multierr.Append(err, fmt.Errorf("policies[%d]: %s needs a characterized voltage, got %s",
				i, kind, p.Voltage))
		}
	}

	return err
}

func (p PolicySpec) build(elementBytes int) (policy.Policy, error) {
	kind, err := policy.ParseKind(p.Kind)
	if err != nil {
		return nil, err
	}

	opts := policy.Options{
		Label:        p.Name,
		PEs:          p.PEs,
		Voltages:     p.Voltages,
		Tiled:        p.Tiled,
		ElementBytes: elementBytes,
		Verbose:      p.Verbose,
	}

	switch kind {
	case policy.KindGreedy:
		return policy.NewGreedy(opts), nil
	case policy.KindMCKP:
		return policy.NewOptimalMCKP(opts), nil
	case policy.KindFixedPE:
		return policy.NewFixedPE(p.PE, p.Voltage, opts), nil
	case policy.KindFixedPEWMem:
		return policy.NewFixedPEWMem(p.PE, p.Voltage, opts), nil
	case policy.KindMaxPerformance:
		return policy.NewMaxPerformance(opts), nil
	case policy.KindMaxPerformanceWMem:
		return policy.NewMaxPerformanceWMem(opts), nil
	case policy.KindOptimalFixedVoltage:
		return policy.NewOptimalFixedVoltage(p.Voltage, opts), nil
	case policy.KindPerOpFixedVoltage:
		return policy.NewPerOperationFixedVoltage(p.Voltage, opts), nil
	case policy.KindParallelTiling:
		return policy.NewParallelTiling(opts), nil
	default:
		panic(fmt.Sprintf("unhandled policy kind %s", kind))
	}
}

// Policies builds the configured policies in order.
func (c Config) Policies() ([]policy.Policy, error) {
	out := make([]policy.Policy, 0, len(c.PolicySpecs))
	for i, spec := range c.PolicySpecs {
		p, err := spec.build(c.ElementBytes)
		if err != nil {
			return nil, fmt.Errorf("policies[%d]: %w", i, err)
		}

		out = append(out, p)
	}

	return out, nil
}

// PowerConfig returns the power model configuration.
func (c Config) PowerConfig() power.Config {
	return c.PowerModel
}

// Characterization loads the snapshot, or generates the synthetic
// characterization when no snapshot is configured.
func (c Config) Characterization() (*char.Store, error) {
	if c.Snapshot == "" {
		return synth.NewGenerator().Store()
	}

	return char.LoadSnapshot(c.Snapshot)
}

// Model builds the power model from the characterization.
func (c Config) Model() (*power.Model, error) {
	store, err := c.Characterization()
	if err != nil {
		return nil, err
	}

	return power.Build(store, c.PowerConfig())
}
