/*package hierarchy implements the ordered set of resolution levels used to
build refinement masks. Level 0 is the coarsest; every level has an integer
number of cells per axis, and the cell count of a finer level is always an
exact multiple of the cell count of a coarser one.*/
package hierarchy

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrInexact is returned when two levels are not related by an exact
	// integer factor.
	ErrInexact = errors.New("inexact factor between levels")
	// ErrLevel is returned when a level outside the hierarchy is requested.
	ErrLevel = errors.New("level outside hierarchy")
)

// Hierarchy is a shared, immutable list of per-axis cell counts. It is
// reference counted: New returns a Hierarchy with one reference, and every
// holder that keeps it around should call Retain and later Release.
type Hierarchy struct {
	dims []uint32
	refs int32
}

// New creates a hierarchy from the per-axis cell counts of each level,
// ordered from coarsest to finest.
func New(dims []uint32) (*Hierarchy, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("A hierarchy needs at least one level.")
	}

	for i := range dims {
		if dims[i] == 0 {
			return nil, fmt.Errorf("Level %d has a dimension of 0.", i)
		}
		if i == 0 { continue }
		if dims[i] < dims[i-1] {
			return nil, fmt.Errorf("Level %d has dimension %d, which is smaller than the dimension of level %d, %d.", i, dims[i], i-1, dims[i-1])
		} else if dims[i] % dims[i-1] != 0 {
			return nil, fmt.Errorf("Level %d has dimension %d, which is not a multiple of the dimension of level %d, %d: %w", i, dims[i], i-1, dims[i-1], ErrInexact)
		}
	}

	h := &Hierarchy{ dims: append([]uint32{ }, dims...), refs: 1 }
	return h, nil
}

// NewGeometric creates a hierarchy with numLevels levels where level 0 has
// minDim1D cells per axis and every level is factor times finer than the
// previous one.
func NewGeometric(minDim1D, factor uint32, numLevels int) (*Hierarchy, error) {
	if numLevels <= 0 {
		return nil, fmt.Errorf("A hierarchy needs at least one level, but %d were requested.", numLevels)
	} else if factor == 0 {
		return nil, fmt.Errorf("The refinement factor between levels must be positive.")
	}

	dims := make([]uint32, numLevels)
	dims[0] = minDim1D
	for i := 1; i < numLevels; i++ {
		next := uint64(dims[i-1])*uint64(factor)
		if next > uint64(^uint32(0)) {
			return nil, fmt.Errorf("Level %d would have %d cells per axis, which overflows a uint32.", i, next)
		}
		dims[i] = uint32(next)
	}

	return New(dims)
}

// Levels returns the number of levels in the hierarchy.
func (h *Hierarchy) Levels() int { return len(h.dims) }

// Dims returns a copy of the per-axis cell counts of every level.
func (h *Hierarchy) Dims() []uint32 { return append([]uint32{ }, h.dims...) }

// Dim1D returns the number of cells along one axis at the given level.
func (h *Hierarchy) Dim1D(level int) (uint32, error) {
	if level < 0 || level >= len(h.dims) {
		return 0, fmt.Errorf("Level %d requested from a hierarchy with %d levels: %w", level, len(h.dims), ErrLevel)
	}
	return h.dims[level], nil
}

// FactorBetween returns dim(max(a, b)) / dim(min(a, b)), the linear
// refinement factor between two levels. The order of a and b does not
// matter.
func (h *Hierarchy) FactorBetween(a, b int) (uint64, error) {
	if a > b { a, b = b, a }
	lo, err := h.Dim1D(a)
	if err != nil { return 0, err }
	hi, err := h.Dim1D(b)
	if err != nil { return 0, err }

	if hi % lo != 0 {
		return 0, fmt.Errorf("Level %d has dimension %d and level %d has dimension %d: %w", a, lo, b, hi, ErrInexact)
	}
	return uint64(hi / lo), nil
}

// Retain adds a reference to the hierarchy.
func (h *Hierarchy) Retain() { atomic.AddInt32(&h.refs, 1) }

// Release drops a reference to the hierarchy and returns true if it was the
// last one.
func (h *Hierarchy) Release() bool {
	n := atomic.AddInt32(&h.refs, -1)
	if n < 0 {
		panic(fmt.Sprintf("Internal error: hierarchy released %d more times than it was retained.", -n))
	}
	return n == 0
}

// Refs returns the number of references currently held.
func (h *Hierarchy) Refs() int { return int(atomic.LoadInt32(&h.refs)) }
