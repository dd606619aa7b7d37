package mask

/* buffer.go contains Buffer, the dense per-cell level storage of a tile. */

import (
	"fmt"

	"github.com/phil-mansfield/refmask/lib/grid"
)

// Buffer is a dense block of refinement levels covering one tile at the
// mask's resolution. Cells are addressed by their coordinate within the tile
// and linearised with grid.CoordToIndex.
//
// Once a Buffer has been installed in a Mask with SetTileBuffer, the Mask
// owns it and it must not be modified until SetTileBuffer hands it back.
type Buffer struct {
	span grid.Coord
	levels []int8
}

// NewBuffer creates a Buffer with the given span where every cell is set to
// level.
func NewBuffer(span grid.Coord, level int8) *Buffer {
	b := &Buffer{ span, make([]int8, span.Volume()) }
	b.Fill(level)
	return b
}

// WrapBuffer creates a Buffer around an existing level array. The Buffer
// takes ownership of levels, which must have exactly one entry per cell of
// span.
func WrapBuffer(span grid.Coord, levels []int8) (*Buffer, error) {
	if uint64(len(levels)) != span.Volume() {
		return nil, fmt.Errorf("A buffer with span %v needs %d levels, but %d were given: %w", span, span.Volume(), len(levels), ErrOutOfRange)
	}
	return &Buffer{ span, levels }, nil
}

// Span returns the number of cells along each axis of the buffer.
func (b *Buffer) Span() grid.Coord { return b.span }

// Len returns the number of cells in the buffer.
func (b *Buffer) Len() int { return len(b.levels) }

// Levels returns the underlying level array in linear index order.
func (b *Buffer) Levels() []int8 { return b.levels }

// At returns the level of the cell at c.
func (b *Buffer) At(c grid.Coord) int8 {
	return b.levels[grid.CoordToIndex(b.span, c)]
}

// Set sets the level of the cell at c.
func (b *Buffer) Set(c grid.Coord, level int8) {
	b.levels[grid.CoordToIndex(b.span, c)] = level
}

// Fill sets every cell in the buffer to level.
func (b *Buffer) Fill(level int8) {
	for i := range b.levels { b.levels[i] = level }
}

// Count returns the number of cells set to level.
func (b *Buffer) Count(level int8) uint64 {
	n := uint64(0)
	for _, x := range b.levels {
		if x == level { n++ }
	}
	return n
}

// checkRange returns an error describing the first cell whose level lies
// outside [minLevel, maxLevel].
func (b *Buffer) checkRange(minLevel, maxLevel int) error {
	for i, x := range b.levels {
		if int(x) < minLevel || int(x) > maxLevel {
			return fmt.Errorf("Cell %v has level %d, outside the range [%d, %d]", grid.IndexToCoord(b.span, i), x, minLevel, maxLevel)
		}
	}
	return nil
}
