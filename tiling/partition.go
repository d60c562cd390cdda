package tiling

import (
	"fmt"
	"math"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/workload"
)

// PEConfig is one PE taking part in a multi-PE partition.
type PEConfig struct {
	ID       int   `json:"id" yaml:"id"`
	Name     hw.PE `json:"name" yaml:"name"`
	MemBytes int   `json:"mem" yaml:"mem"`
}

// Dimension names the output dimension an operation is split along.
type Dimension int

// The dimensions an operation can be split along.
const (
	SplitM Dimension = iota
	SplitN
)

func (d Dimension) String() string {
	switch d {
	case SplitM:
		return "M"
	case SplitN:
		return "N"
	default:
		panic("invalid split dimension")
	}
}

// Assignment is the slab of an operation given to one PE.
type Assignment struct {
	PE PEConfig

	// Start and Length locate the slab along the split dimension.
	Start  int
	Length int

	Op    workload.Operation
	Tiles []Tile
}

// Partition is an operation split across PEs.
type Partition struct {
	Op          workload.Operation
	Dim         Dimension
	Assignments []Assignment

	// Batches[i] holds tile i of every PE that has one. Tiles in a batch
	// run concurrently; batches run one after another.
	Batches [][]Tile
}

// Split splits op along N when N > M or along M otherwise. Each PE gets
// a share proportional to its memory, rounded, with the rounding residual
// given to the first PE. Every slab is then tiled into its PE's memory.
// PEs whose share rounds to zero get no tiles.
func Split(pes []PEConfig, op workload.Operation, elemBytes int) (Partition, error) {
	if len(pes) == 0 {
		return Partition{}, fmt.Errorf("%w: no PEs to partition over", ErrInvalidDimensions)
	}

	if err := op.Validate(); err != nil {
		return Partition{}, fmt.Errorf("%w: %v", ErrInvalidDimensions, err)
	}

	totalMem := 0
	for _, pe := range pes {
		if pe.MemBytes <= 0 {
			return Partition{}, fmt.Errorf("%w: PE %d has %d B of memory",
				ErrInvalidDimensions, pe.ID, pe.MemBytes)
		}

		totalMem += pe.MemBytes
	}

	p := Partition{Op: op, Dim: SplitM}
	length := op.M
	if op.N > op.M {
		p.Dim = SplitN
		length = op.N
	}

	shares := Shares(pes, length, totalMem)

	start := 0
	for i, pe := range pes {
		if shares[i] <= 0 {
			continue
		}

		a := Assignment{PE: pe, Start: start, Length: shares[i]}
		a.Op = sliceOp(op, p.Dim, shares[i])

		tiles, err := Plan(pe.MemBytes, a.Op, elemBytes)
		if err != nil {
			return Partition{}, fmt.Errorf("PE %d (%s): %w", pe.ID, pe.Name, err)
		}

		for j := range tiles {
			tiles[j].PEID = pe.ID
			tiles[j].PEName = pe.Name
			if p.Dim == SplitN {
				tiles[j].StartCol += start
			} else {
				tiles[j].StartRow += start
			}
		}

		a.Tiles = tiles
		p.Assignments = append(p.Assignments, a)
		start += shares[i]
	}

	p.Batches = batch(p.Assignments)

	return p, nil
}

// Shares distributes length over the PEs proportionally to their memories.
// The shares always sum to length.
func Shares(pes []PEConfig, length, totalMem int) []int {
	shares := make([]int, len(pes))
	sum := 0

	for i, pe := range pes {
		shares[i] = int(math.Round(float64(length) * float64(pe.MemBytes) / float64(totalMem)))
		sum += shares[i]
	}

	shares[0] += length - sum

	// Rounding up many small shares can push the first one negative.
	for i := len(shares) - 1; i > 0 && shares[0] < 0; i-- {
		take := min(shares[i], -shares[0])
		shares[i] -= take
		shares[0] += take
	}

	return shares
}

// Tiles returns the tiles of every PE, PE by PE.
func (p Partition) Tiles() []Tile {
	var out []Tile
	for _, a := range p.Assignments {
		out = append(out, a.Tiles...)
	}

	return out
}

func sliceOp(op workload.Operation, dim Dimension, length int) workload.Operation {
	if dim == SplitN {
		return workload.Op(op.M, op.K, length)
	}

	return workload.Op(length, op.K, op.N)
}

func batch(as []Assignment) [][]Tile {
	n := 0
	for _, a := range as {
		n = max(n, len(a.Tiles))
	}

	batches := make([][]Tile, n)
	for i := range batches {
		for _, a := range as {
			if i < len(a.Tiles) {
				batches[i] = append(batches[i], a.Tiles[i])
			}
		}
	}

	return batches
}
