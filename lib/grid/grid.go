package grid

/* grid.go contains the patch and grid descriptors. Neither carries cell data:
they are the structural templates an external storage layer fills in. */

import (
	"fmt"
	"sort"

	"github.com/phil-mansfield/gotetra/render/geom"
)

// Patch is an axis-aligned block of a grid given by inclusive index bounds.
type Patch struct {
	Lo, Hi Coord
}

// NewPatch creates a patch from its inclusive bounds.
func NewPatch(lo, hi Coord) (Patch, error) {
	for dim := 0; dim < NDim; dim++ {
		if hi[dim] < lo[dim] {
			return Patch{ }, fmt.Errorf("Patch upper bound %d is below lower bound %d on axis %d.", hi[dim], lo[dim], dim)
		}
	}
	return Patch{ lo, hi }, nil
}

// Span returns the number of cells along each axis of the patch.
func (p Patch) Span() Coord {
	s := Coord{ }
	for dim := range s { s[dim] = p.Hi[dim] - p.Lo[dim] + 1 }
	return s
}

// Cells returns the number of cells in the patch.
func (p Patch) Cells() uint64 { return p.Span().Volume() }

// Contains returns true if the global index c falls inside the patch.
func (p Patch) Contains(c Coord) bool {
	for dim := 0; dim < NDim; dim++ {
		if c[dim] < p.Lo[dim] || c[dim] > p.Hi[dim] { return false }
	}
	return true
}

// Overlaps returns true if the two patches share at least one cell.
func (p Patch) Overlaps(q Patch) bool {
	for dim := 0; dim < NDim; dim++ {
		if p.Hi[dim] < q.Lo[dim] || q.Hi[dim] < p.Lo[dim] { return false }
	}
	return true
}

// VarType is the element type of a variable attached to a Grid.
type VarType int
const (
	Int8Var VarType = iota
	Uint64Var
	Float32Var
	Float64Var
)

func (t VarType) String() string {
	switch t {
	case Int8Var: return "i8"
	case Uint64Var: return "u64"
	case Float32Var: return "f32"
	case Float64Var: return "f64"
	}
	return fmt.Sprintf("VarType(%d)", int(t))
}

// Var describes a variable which will be stored in each patch of a grid.
type Var struct {
	Name string
	Type VarType
	Components int
}

// Grid describes a regular grid split into patches. Origin and Extent give
// the physical box in box units.
type Grid struct {
	Name string
	Origin, Extent geom.Vec
	Dims Coord

	Vars []Var
	Patches []Patch
}

// NewGrid creates a grid with no variables and no patches.
func NewGrid(name string, origin, extent geom.Vec, dims Coord) *Grid {
	return &Grid{ Name: name, Origin: origin, Extent: extent, Dims: dims }
}

// AttachVar adds a variable to the grid. Names must be unique.
func (g *Grid) AttachVar(v Var) error {
	for i := range g.Vars {
		if g.Vars[i].Name == v.Name {
			return fmt.Errorf("The variable '%s' is attached to grid '%s' more than once.", v.Name, g.Name)
		}
	}
	g.Vars = append(g.Vars, v)
	return nil
}

// AttachPatch adds a patch to the grid. The patch must lie inside the grid.
func (g *Grid) AttachPatch(p Patch) error {
	if !InSpan(g.Dims, p.Lo) || !InSpan(g.Dims, p.Hi) {
		return fmt.Errorf("Patch %v-%v does not fit inside grid '%s' with dimensions %v.", p.Lo, p.Hi, g.Name, g.Dims)
	}
	g.Patches = append(g.Patches, p)
	return nil
}

// Cells returns the number of cells in the full grid.
func (g *Grid) Cells() uint64 { return g.Dims.Volume() }

// CheckCoverage returns an error unless the patches cover the grid exactly
// once: every patch is non-empty and inside the grid, no two patches share a
// cell, and their cell counts add up to the grid's.
//
// Overlaps are found by cutting each axis at every patch edge. Each patch is
// then a box of cells of that coarser lattice, and each lattice cell may be
// claimed by only one patch. For patches which come from splitting the grid
// into tiles, the lattice is the tile grid itself.
func (g *Grid) CheckCoverage() error {
	total := uint64(0)
	edges := [NDim][]int{ }
	for i, p := range g.Patches {
		for dim := 0; dim < NDim; dim++ {
			if p.Hi[dim] < p.Lo[dim] {
				return fmt.Errorf("Patch %d of grid '%s' has upper bound %d below lower bound %d on axis %d.", i, g.Name, p.Hi[dim], p.Lo[dim], dim)
			}
		}
		if !InSpan(g.Dims, p.Lo) || !InSpan(g.Dims, p.Hi) {
			return fmt.Errorf("Patch %d of grid '%s', %v-%v, does not fit inside dimensions %v.", i, g.Name, p.Lo, p.Hi, g.Dims)
		}

		total += p.Cells()
		for dim := 0; dim < NDim; dim++ {
			edges[dim] = append(edges[dim], p.Lo[dim], p.Hi[dim] + 1)
		}
	}

	if total != g.Cells() {
		return fmt.Errorf("Patches of grid '%s' contain %d cells, but the grid has %d.", g.Name, total, g.Cells())
	}
	if len(g.Patches) == 0 { return nil }

	lattice := Coord{ }
	for dim := 0; dim < NDim; dim++ {
		edges[dim] = uniqueInts(edges[dim])
		lattice[dim] = len(edges[dim]) - 1
	}

	// owner[k] is one more than the index of the patch holding lattice cell
	// k, or 0 if no patch holds it yet.
	owner := make([]int32, lattice.Volume())
	for i, p := range g.Patches {
		lo, span := Coord{ }, Coord{ }
		for dim := 0; dim < NDim; dim++ {
			lo[dim] = sort.SearchInts(edges[dim], p.Lo[dim])
			span[dim] = sort.SearchInts(edges[dim], p.Hi[dim] + 1) - lo[dim]
		}

		for j := 0; j < int(span.Volume()); j++ {
			c := IndexToCoord(span, j)
			for dim := range c { c[dim] += lo[dim] }
			k := CoordToIndex(lattice, c)
			if owner[k] != 0 {
				return fmt.Errorf("Patches %d and %d of grid '%s' overlap.", owner[k] - 1, i, g.Name)
			}
			owner[k] = int32(i + 1)
		}
	}

	return nil
}

// uniqueInts sorts x and removes repeated values in place.
func uniqueInts(x []int) []int {
	sort.Ints(x)
	n := 0
	for i := range x {
		if i == 0 || x[i] != x[n-1] {
			x[n] = x[i]
			n++
		}
	}
	return x[:n]
}
