// Package workload defines the ordered matmul sequences that are planned.
package workload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Operation is a dense matrix multiplication C[M,N] = A[M,K] * B[K,N].
type Operation struct {
	M int `yaml:"row_a" json:"row_a"`
	K int `yaml:"col_a" json:"col_a"`
	N int `yaml:"col_b" json:"col_b"`
}

// Op is shorthand for building an Operation.
func Op(m, k, n int) Operation {
	return Operation{M: m, K: k, N: n}
}

// Ops returns the number of multiply-accumulates of the operation.
func (o Operation) Ops() int {
	return o.M * o.K * o.N
}

// Validate checks that every dimension is positive.
func (o Operation) Validate() error {
	if o.M <= 0 || o.K <= 0 || o.N <= 0 {
		return fmt.Errorf("operation %s: dimensions must be positive", o)
	}

	return nil
}

func (o Operation) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.M, o.K, o.N)
}

// Workload is an ordered list of operations. The order is the execution
// order on the device.
type Workload []Operation

// Validate checks every operation of the workload.
func (w Workload) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("workload is empty")
	}

	for i, op := range w {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}

	return nil
}

// TotalOps returns the number of multiply-accumulates of the workload.
func (w Workload) TotalOps() int {
	total := 0
	for _, op := range w {
		total += op.Ops()
	}

	return total
}

// Parse decodes a workload from YAML. JSON documents are valid YAML and are
// accepted as well.
func Parse(data []byte) (Workload, error) {
	var w Workload

	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing workload: %w", err)
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	return w, nil
}

// Load reads a workload file.
func Load(path string) (Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload file: %w", err)
	}

	return Parse(data)
}

// Save writes the workload as JSON when the path ends in .json and as YAML
// otherwise.
func (w Workload) Save(path string) error {
	var (
		data []byte
		err  error
	)

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(w, "", "  ")
	} else {
		data, err = yaml.Marshal(w)
	}

	if err != nil {
		return fmt.Errorf("encoding workload: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
