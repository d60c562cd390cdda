// Package tiling splits matmul operations into sub-operations whose working
// sets fit the local memory of a PE, and partitions operations across
// several PEs.
package tiling

import (
	"errors"
	"fmt"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/workload"
)

// Errors reported by the tiler.
var (
	ErrInvalidDimensions = errors.New("invalid tiling dimensions")
	ErrDoesNotFit        = errors.New("operation cannot be tiled into memory")
)

// Tile is a sub-operation covering output rows [StartRow, StartRow+M) and
// output columns [StartCol, StartCol+N) with the full inner dimension K.
type Tile struct {
	M        int `json:"tile_M" yaml:"tile_M"`
	K        int `json:"tile_K" yaml:"tile_K"`
	N        int `json:"tile_N" yaml:"tile_N"`
	StartRow int `json:"start_row" yaml:"start_row"`
	StartCol int `json:"start_col" yaml:"start_col"`

	// PEID and PEName are only set by the multi-PE partitioner.
	PEID   int   `json:"pe_id,omitempty" yaml:"pe_id,omitempty"`
	PEName hw.PE `json:"pe_name,omitempty" yaml:"pe_name,omitempty"`
}

// Op returns the shape of the tile as an operation.
func (t Tile) Op() workload.Operation {
	return workload.Op(t.M, t.K, t.N)
}

// Footprint returns the bytes of the A slab, B slab and C tile the tile
// keeps resident.
func (t Tile) Footprint(elemBytes int) int {
	return elemBytes * (t.M*t.K + t.K*t.N + t.M*t.N)
}

func (t Tile) String() string {
	return fmt.Sprintf("%dx%dx%d@(%d,%d)", t.M, t.K, t.N, t.StartRow, t.StartCol)
}

// Ops returns the number of multiply-accumulates of all tiles.
func Ops(tiles []Tile) int {
	total := 0
	for _, t := range tiles {
		total += t.M * t.K * t.N
	}

	return total
}

// Coverage checks that the tiles cover the rows x cols output grid exactly
// once.
func Coverage(tiles []Tile, rows, cols int) error {
	area := 0

	for i, t := range tiles {
		if t.M <= 0 || t.N <= 0 {
			return fmt.Errorf("tile %d (%s) is empty", i, t)
		}

		if t.StartRow < 0 || t.StartCol < 0 ||
			t.StartRow+t.M > rows || t.StartCol+t.N > cols {
			return fmt.Errorf("tile %d (%s) exceeds the %dx%d output", i, t, rows, cols)
		}

		for j := 0; j < i; j++ {
			if overlap(t, tiles[j]) {
				return fmt.Errorf("tiles %d (%s) and %d (%s) overlap", j, tiles[j], i, t)
			}
		}

		area += t.M * t.N
	}

	if area != rows*cols {
		return fmt.Errorf("tiles cover %d of %d output elements", area, rows*cols)
	}

	return nil
}

func overlap(a, b Tile) bool {
	return a.StartRow < b.StartRow+b.M && b.StartRow < a.StartRow+a.M &&
		a.StartCol < b.StartCol+b.N && b.StartCol < a.StartCol+a.N
}
