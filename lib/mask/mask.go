/*package mask implements tiled refinement masks: a sparse assignment of a
refinement level to every cell of a simulation volume.

The volume is split into tiles at the resolution of the mask's tile level.
A tile is either Uniform, meaning every cell in it is at the mask's minimum
level and no storage is allocated, or Dense, in which case it owns a Buffer
holding one level per cell at the mask level's resolution. Tiles are only
ever replaced wholesale through SetTileBuffer.

Masks follow a single-writer/multiple-reader discipline: every read method
may be called concurrently as long as no call to SetTileBuffer or Release is
in flight on the same mask. Mask does no locking of its own.
*/
package mask

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sync/atomic"

	"github.com/phil-mansfield/refmask/lib/grid"
)

var (
	// ErrInvalidLevels is returned when a mask is constructed with levels
	// that violate tileLevel <= minLevel <= maskLevel <= maxLevel.
	ErrInvalidLevels = errors.New("invalid mask levels")
	// ErrOutOfRange is returned when a tile, level, or buffer is outside of
	// the range a mask accepts. It always indicates a caller mistake.
	ErrOutOfRange = errors.New("out of range")
	// ErrInexact is returned when a cell count cannot be rescaled between
	// levels exactly. It indicates a corrupted tile or a hierarchy that does
	// not match the mask, not a caller mistake.
	ErrInexact = errors.New("inexact cell count rescaling")
	// ErrCorrupt is returned when a dense tile contains a level outside of
	// [minLevel, maxLevel].
	ErrCorrupt = errors.New("corrupt tile data")
	// ErrReleased is returned when a mask is used after its last reference
	// has been released.
	ErrReleased = errors.New("mask has been released")
)

// Hierarchy is the part of a level hierarchy that a Mask needs. It is
// satisfied by *hierarchy.Hierarchy.
type Hierarchy interface {
	// Levels returns the number of levels in the hierarchy.
	Levels() int
	// Dim1D returns the number of cells along one axis at a level.
	Dim1D(level int) (uint32, error)
	// FactorBetween returns the exact linear refinement factor between two
	// levels, in either order.
	FactorBetween(a, b int) (uint64, error)
	// Retain and Release manage shared ownership.
	Retain()
	Release() bool
}

// TileKind tags which representation a tile uses.
type TileKind int8
const (
	// Uniform tiles have every cell at the mask's minimum level and store
	// nothing.
	Uniform TileKind = iota
	// Dense tiles store one level per cell in a Buffer.
	Dense
)

func (k TileKind) String() string {
	switch k {
	case Uniform: return "uniform"
	case Dense: return "dense"
	}
	return fmt.Sprintf("TileKind(%d)", int(k))
}

// Tile is the contents of one tile slot. Buffer is nil for Uniform tiles.
type Tile struct {
	Kind TileKind
	Buffer *Buffer
}

// Mask is a reference-counted tiled refinement mask. Create one with New.
type Mask struct {
	h Hierarchy
	maskLevel, minLevel, maxLevel, tileLevel int

	numTiles grid.Coord
	totalTiles int
	tileSpan grid.Coord // Cells per axis of a tile at maskLevel.
	dim1D int // Cells per axis of the whole mask at maskLevel.

	// maxCells[i] is the number of cells in a tile refined uniformly to
	// level minLevel + i.
	maxCells []uint64

	tiles []Tile
	refs int32
}

// New creates a mask over the hierarchy h whose cells are stored at
// maskLevel, may be assigned any level in [minLevel, maxLevel], and are
// grouped into tiles of one cell at tileLevel. Every tile starts Uniform.
// The returned mask holds one reference and retains its own share of h.
func New(
	h Hierarchy, maskLevel, minLevel, maxLevel, tileLevel int,
) (*Mask, error) {
	if h == nil {
		return nil, fmt.Errorf("No hierarchy was given: %w", ErrInvalidLevels)
	} else if tileLevel < 0 || tileLevel > minLevel || minLevel > maskLevel ||
		maskLevel > maxLevel || maxLevel >= h.Levels() {
		return nil, fmt.Errorf("Mask levels must satisfy 0 <= tileLevel (%d) <= minLevel (%d) <= maskLevel (%d) <= maxLevel (%d) < number of levels (%d): %w", tileLevel, minLevel, maskLevel, maxLevel, h.Levels(), ErrInvalidLevels)
	} else if maxLevel > math.MaxInt8 {
		return nil, fmt.Errorf("maxLevel %d cannot be stored in an int8: %w", maxLevel, ErrInvalidLevels)
	}

	m := &Mask{
		h: h, maskLevel: maskLevel, minLevel: minLevel,
		maxLevel: maxLevel, tileLevel: tileLevel, refs: 1,
	}

	if err := m.setTiling(); err != nil { return nil, err }
	if err := m.setMaxCells(); err != nil { return nil, err }

	m.tiles = make([]Tile, m.totalTiles)
	h.Retain()

	return m, nil
}

// setTiling computes the tile layout from the hierarchy.
func (m *Mask) setTiling() error {
	tileDim, err := m.h.Dim1D(m.tileLevel)
	if err != nil { return fmt.Errorf("%s: %w", err.Error(), ErrInvalidLevels) }
	maskDim, err := m.h.Dim1D(m.maskLevel)
	if err != nil { return fmt.Errorf("%s: %w", err.Error(), ErrInvalidLevels) }
	span, err := m.h.FactorBetween(m.tileLevel, m.maskLevel)
	if err != nil { return fmt.Errorf("%s: %w", err.Error(), ErrInvalidLevels) }

	total, ok := powNDim(uint64(tileDim))
	if !ok || total > math.MaxInt32 {
		return fmt.Errorf("A tile level with %d tiles per axis has too many tiles: %w", tileDim, ErrInvalidLevels)
	}

	m.numTiles = grid.Uniform(int(tileDim))
	m.totalTiles = int(total)
	m.tileSpan = grid.Uniform(int(span))
	m.dim1D = int(maskDim)
	return nil
}

// setMaxCells caches the maximum number of cells in a tile for every level
// and makes sure that none of the counts this mask can produce overflow.
func (m *Mask) setMaxCells() error {
	m.maxCells = make([]uint64, m.NumLevel())
	for i := range m.maxCells {
		level := m.minLevel + i
		f, err := m.h.FactorBetween(m.tileLevel, level)
		if err != nil { return fmt.Errorf("%s: %w", err.Error(), ErrInvalidLevels) }

		n, ok := powNDim(f)
		if hi, _ := bits.Mul64(n, uint64(m.totalTiles)); !ok || hi != 0 {
			return fmt.Errorf("Level %d has too many cells to count in a uint64: %w", level, ErrInvalidLevels)
		}
		m.maxCells[i] = n
	}
	return nil
}

// powNDim returns x^NDim and false if the result overflows.
func powNDim(x uint64) (uint64, bool) {
	n := uint64(1)
	for dim := 0; dim < grid.NDim; dim++ {
		hi, lo := bits.Mul64(n, x)
		if hi != 0 { return 0, false }
		n = lo
	}
	return n, true
}

// Retain adds a reference to the mask and returns it. A mask can't be
// retained once its last reference has been released.
func (m *Mask) Retain() *Mask {
	for {
		n := atomic.LoadInt32(&m.refs)
		if n <= 0 {
			panic("Internal error: mask retained after its last reference was released.")
		}
		if atomic.CompareAndSwapInt32(&m.refs, n, n + 1) { return m }
	}
}

// Release drops a reference to the mask. When the last reference is dropped
// all dense buffers are discarded, the hierarchy share is released, and any
// further use of the mask returns ErrReleased. Release returns true if this
// call freed the mask.
func (m *Mask) Release() bool {
	n := atomic.AddInt32(&m.refs, -1)
	if n < 0 {
		panic(fmt.Sprintf("Internal error: mask released %d more times than it was retained.", -n))
	} else if n > 0 {
		return false
	}

	m.tiles = nil
	m.h.Release()
	m.h = nil
	return true
}

// Refs returns the number of references currently held.
func (m *Mask) Refs() int { return int(atomic.LoadInt32(&m.refs)) }

func (m *Mask) MaskLevel() int { return m.maskLevel }
func (m *Mask) MinLevel() int { return m.minLevel }
func (m *Mask) MaxLevel() int { return m.maxLevel }
func (m *Mask) TileLevel() int { return m.tileLevel }

// NumLevel returns the number of levels a cell may be assigned.
func (m *Mask) NumLevel() int { return m.maxLevel - m.minLevel + 1 }

// TotalTiles returns the number of tiles in the mask.
func (m *Mask) TotalTiles() int { return m.totalTiles }

// NumTiles returns the number of tiles along each axis.
func (m *Mask) NumTiles() grid.Coord { return m.numTiles }

// TileSpan returns the number of mask cells along each axis of one tile.
func (m *Mask) TileSpan() grid.Coord { return m.tileSpan }

// Dim1D returns the number of mask cells along one axis of the volume.
func (m *Mask) Dim1D() int { return m.dim1D }

// NumCellsInMask returns the number of cells in the whole mask.
func (m *Mask) NumCellsInMask() uint64 { return grid.Uniform(m.dim1D).Volume() }

// NumCellsInMaskTile returns the number of mask cells in one tile.
func (m *Mask) NumCellsInMaskTile() uint64 { return m.tileSpan.Volume() }

// Hierarchy returns the mask's hierarchy with an extra reference, which the
// caller must release.
func (m *Mask) Hierarchy() (Hierarchy, error) {
	if m.tiles == nil { return nil, ErrReleased }
	m.h.Retain()
	return m.h, nil
}

// NewTileBuffer returns a buffer with the span of one tile where every cell
// is at minLevel.
func (m *Mask) NewTileBuffer() *Buffer {
	return NewBuffer(m.tileSpan, int8(m.minLevel))
}

// checkTile returns an error if the mask has been released or tile is not a
// valid tile index.
func (m *Mask) checkTile(tile int) error {
	if m.tiles == nil {
		return ErrReleased
	} else if tile < 0 || tile >= m.totalTiles {
		return fmt.Errorf("Tile %d requested from a mask with %d tiles: %w", tile, m.totalTiles, ErrOutOfRange)
	}
	return nil
}

// Tile returns the contents of a tile slot.
func (m *Mask) Tile(tile int) (Tile, error) {
	if err := m.checkTile(tile); err != nil { return Tile{ }, err }
	return m.tiles[tile], nil
}

// TileBuffer returns the buffer of a tile, or nil if the tile is Uniform.
// The buffer still belongs to the mask and must not be modified.
func (m *Mask) TileBuffer(tile int) (*Buffer, error) {
	if err := m.checkTile(tile); err != nil { return nil, err }
	return m.tiles[tile].Buffer, nil
}

// SetTileBuffer installs buf as the data of a tile and returns the buffer it
// replaces, or nil if the tile was Uniform. Ownership of buf passes to the
// mask and ownership of the returned buffer passes to the caller. Passing a
// nil buf reverts the tile to Uniform. Installing the buffer which is
// already in the tile is a no-op and returns nil.
//
// buf must have the span returned by TileSpan and only contain levels in
// [MinLevel, MaxLevel]. On error the tile is left unchanged.
func (m *Mask) SetTileBuffer(tile int, buf *Buffer) (*Buffer, error) {
	if err := m.checkTile(tile); err != nil { return nil, err }

	if buf != nil {
		if buf.Span() != m.tileSpan {
			return nil, fmt.Errorf("Tile %d needs a buffer with span %v, but the buffer has span %v: %w", tile, m.tileSpan, buf.Span(), ErrOutOfRange)
		}
		if err := buf.checkRange(m.minLevel, m.maxLevel); err != nil {
			return nil, fmt.Errorf("Cannot install buffer in tile %d. %s: %w", tile, err.Error(), ErrOutOfRange)
		}
	}

	old := m.tiles[tile].Buffer
	if old == buf { return nil, nil }

	if buf == nil {
		m.tiles[tile] = Tile{ Uniform, nil }
	} else {
		m.tiles[tile] = Tile{ Dense, buf }
	}
	return old, nil
}

// NumDenseTiles returns the number of tiles which currently store a buffer.
func (m *Mask) NumDenseTiles() int {
	n := 0
	for i := range m.tiles {
		if m.tiles[i].Kind == Dense { n++ }
	}
	return n
}
