/*package grid contains the index arithmetic shared by everything in refmask
that walks a regular D-dimensional grid, along with the patch and grid
descriptors handed to external grid/storage code.

All linear indices use the same radix convention: the first axis is the
least significant one, so for a span s the coordinate c has the index
c[0] + c[1]*s[0] + c[2]*s[0]*s[1].
*/
package grid

import (
	"fmt"
)

// NDim is the spatial dimensionality of every grid in refmask. Volumetric
// scaling laws (factor^NDim) depend on it, so it is fixed at compile time.
const NDim = 3

// Coord is a D-dimensional integer coordinate or span.
type Coord [NDim]int

// Volume returns the number of cells in a box with span s.
func (s Coord) Volume() uint64 {
	n := uint64(1)
	for dim := 0; dim < NDim; dim++ {
		n *= uint64(s[dim])
	}
	return n
}

// Uniform returns a span with n cells along every axis.
func Uniform(n int) Coord {
	s := Coord{ }
	for dim := range s { s[dim] = n }
	return s
}

// CoordToIndex converts a coordinate within a box of the given span to its
// linear index.
func CoordToIndex(span, c Coord) int {
	idx, stride := 0, 1
	for dim := 0; dim < NDim; dim++ {
		idx += c[dim]*stride
		stride *= span[dim]
	}
	return idx
}

// IndexToCoord converts a linear index within a box of the given span to its
// coordinate. It is the inverse of CoordToIndex.
func IndexToCoord(span Coord, idx int) Coord {
	c := Coord{ }
	for dim := 0; dim < NDim; dim++ {
		c[dim] = idx % span[dim]
		idx /= span[dim]
	}
	return c
}

// InSpan returns true if c lies inside a box with the given span.
func InSpan(span, c Coord) bool {
	for dim := 0; dim < NDim; dim++ {
		if c[dim] < 0 || c[dim] >= span[dim] { return false }
	}
	return true
}

// Segment splits an axis of n cells into k contiguous segments and returns
// the inclusive bounds of segment i. Every segment has n/k cells and the
// first n%k segments get one extra, so the segments cover [0, n-1] exactly
// with no gaps or overlaps.
func Segment(n, k, i int) (lo, hi int, err error) {
	if k <= 0 {
		return 0, 0, fmt.Errorf("Cannot split an axis into %d segments.", k)
	} else if k > n {
		return 0, 0, fmt.Errorf("Cannot split an axis of %d cells into %d non-empty segments.", n, k)
	} else if i < 0 || i >= k {
		return 0, 0, fmt.Errorf("Segment %d requested, but the axis only has %d segments.", i, k)
	}

	base, extra := n / k, n % k
	if i < extra {
		lo = i*(base + 1)
		hi = lo + base
	} else {
		lo = extra*(base + 1) + (i - extra)*base
		hi = lo + base - 1
	}

	return lo, hi, nil
}

// IndexRange returns the inclusive per-axis index bounds of the tile at
// coordinate tile when a grid with dims cells per axis is split into
// numTiles tiles per axis. See Segment for the splitting rule.
func IndexRange(tile, dims, numTiles Coord) (lo, hi Coord, err error) {
	for dim := 0; dim < NDim; dim++ {
		lo[dim], hi[dim], err = Segment(dims[dim], numTiles[dim], tile[dim])
		if err != nil {
			return Coord{ }, Coord{ }, fmt.Errorf("Axis %d: %s", dim, err.Error())
		}
	}
	return lo, hi, nil
}
