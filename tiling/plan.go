package tiling

import (
	"fmt"

	"github.com/sarchlab/eve/workload"
)

// Plan tiles op into memBytes of local memory. Tiles are produced row-major:
// a row slab is the largest number of rows whose A slab and full-width C
// slab fit, and within it each tile takes the largest number of columns
// whose B slab also fits. K is never split.
//
// When not even a one-row full-width slab fits, the row slab shrinks to the
// largest height for which a single output column still fits.
func Plan(memBytes int, op workload.Operation, elemBytes int) ([]Tile, error) {
	if memBytes <= 0 || elemBytes <= 0 {
		return nil, fmt.Errorf("%w: memory %d B, element %d B",
			ErrInvalidDimensions, memBytes, elemBytes)
	}

	if err := op.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDimensions, err)
	}

	capacity := memBytes / elemBytes
	k := op.K

	// Rows that still leave room for one column of B and C.
	maxRows := (capacity - k) / (k + 1)
	if maxRows < 1 {
		return nil, fmt.Errorf("%w: %s needs %d B for one output element, have %d B",
			ErrDoesNotFit, op, elemBytes*(2*k+1), memBytes)
	}

	var tiles []Tile

	for row := 0; row < op.M; {
		tileM := rowSlab(capacity, k, op.N, op.M-row, maxRows)

		for col := 0; col < op.N; {
			tileN := min((capacity-tileM*k)/(k+tileM), op.N-col)

			tiles = append(tiles, Tile{
				M:        tileM,
				K:        k,
				N:        tileN,
				StartRow: row,
				StartCol: col,
			})

			col += tileN
		}

		row += tileM
	}

	return tiles, nil
}

func rowSlab(capacity, k, n, remaining, maxRows int) int {
	fullWidth := capacity / (k + n)
	if fullWidth < 1 {
		return min(maxRows, remaining)
	}

	return min(fullWidth, maxRows, remaining)
}
