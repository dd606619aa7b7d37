package mask

/* accounting.go contains functions for counting how many cells a mask has at
each refinement level. All counts are exact: a cell count is always given at
the resolution of the level it describes, so one level-l cell covers
FactorBetween(l, maskLevel)^NDim mask cells when l is coarser than the mask
level and 1/FactorBetween(l, maskLevel)^NDim of one when l is finer. */

import (
	"fmt"
)

// clipLevel clamps a level to [minLevel, maxLevel].
func (m *Mask) clipLevel(level int) int {
	if level < m.minLevel { return m.minLevel }
	if level > m.maxLevel { return m.maxLevel }
	return level
}

// checkLevel returns an error if level is outside [minLevel, maxLevel].
func (m *Mask) checkLevel(level int) error {
	if level < m.minLevel || level > m.maxLevel {
		return fmt.Errorf("Level %d requested from a mask with levels [%d, %d]: %w", level, m.minLevel, m.maxLevel, ErrOutOfRange)
	}
	return nil
}

// MaxCellsInTileForLevel returns the number of cells in one tile if every
// cell in it were refined to level. Levels outside [minLevel, maxLevel] are
// clipped to the nearest bound.
func (m *Mask) MaxCellsInTileForLevel(level int) uint64 {
	return m.maxCells[m.clipLevel(level) - m.minLevel]
}

// MaxCellsInTile returns MaxCellsInTileForLevel for every level in
// [minLevel, maxLevel], in order.
func (m *Mask) MaxCellsInTile() []uint64 {
	return append([]uint64{ }, m.maxCells...)
}

// rescale converts a count of mask cells that are at level into a count of
// level cells.
func (m *Mask) rescale(count uint64, level int) (uint64, error) {
	nLevel := m.MaxCellsInTileForLevel(level)
	nMask := m.MaxCellsInTileForLevel(m.maskLevel)

	if nLevel < nMask {
		fac := nMask / nLevel
		if count % fac != 0 {
			return 0, fmt.Errorf("%d mask cells at level %d do not make up a whole number of level-%d cells of %d mask cells each: %w", count, level, level, fac, ErrInexact)
		}
		return count / fac, nil
	}
	return count * (nLevel / nMask), nil
}

// CellsInTileForLevel returns the number of level cells in a tile. Like
// CellsInTile, it returns ErrCorrupt if a dense tile stores a level outside
// [minLevel, maxLevel].
func (m *Mask) CellsInTileForLevel(tile, level int) (uint64, error) {
	if err := m.checkTile(tile); err != nil { return 0, err }
	if err := m.checkLevel(level); err != nil { return 0, err }

	t := m.tiles[tile]
	if t.Kind == Uniform {
		if level == m.minLevel { return m.MaxCellsInTileForLevel(level), nil }
		return 0, nil
	}

	if err := t.Buffer.checkRange(m.minLevel, m.maxLevel); err != nil {
		return 0, fmt.Errorf("Tile %d: %s: %w", tile, err.Error(), ErrCorrupt)
	}

	n, err := m.rescale(t.Buffer.Count(int8(level)), level)
	if err != nil { return 0, fmt.Errorf("Tile %d: %w", tile, err) }
	return n, nil
}

// CellsInTile returns the number of cells in a tile at every level in
// [minLevel, maxLevel]. If out has length NumLevel it is overwritten and
// returned instead of allocating a new slice.
func (m *Mask) CellsInTile(tile int, out []uint64) ([]uint64, error) {
	if err := m.checkTile(tile); err != nil { return nil, err }
	out = m.initCounts(out)

	t := m.tiles[tile]
	if t.Kind == Uniform {
		out[0] = m.MaxCellsInTileForLevel(m.minLevel)
		return out, nil
	}

	for i, x := range t.Buffer.Levels() {
		level := int(x)
		if level < m.minLevel || level > m.maxLevel {
			return nil, fmt.Errorf("Tile %d has level %d in cell %d, outside of [%d, %d]: %w", tile, level, i, m.minLevel, m.maxLevel, ErrCorrupt)
		}
		out[level - m.minLevel]++
	}

	for i := range out {
		var err error
		out[i], err = m.rescale(out[i], m.minLevel + i)
		if err != nil { return nil, fmt.Errorf("Tile %d: %w", tile, err) }
	}

	return out, nil
}

// CellsTotal returns the number of cells in the whole mask at every level in
// [minLevel, maxLevel]. This is the sum of CellsInTile over all tiles.
func (m *Mask) CellsTotal() ([]uint64, error) {
	if m.tiles == nil { return nil, ErrReleased }

	total := m.initCounts(nil)
	local := m.initCounts(nil)
	uniform := uint64(0)

	for tile := range m.tiles {
		if m.tiles[tile].Kind == Uniform {
			uniform++
			continue
		}

		var err error
		local, err = m.CellsInTile(tile, local)
		if err != nil { return nil, err }
		for i := range total { total[i] += local[i] }
	}

	total[0] += uniform*m.MaxCellsInTileForLevel(m.minLevel)
	return total, nil
}

// MaskEquivalent converts a vector of per-level cell counts, as returned by
// CellsInTile or CellsTotal, into the number of mask-level cells they cover.
// For CellsTotal the result is always NumCellsInMask.
func (m *Mask) MaskEquivalent(counts []uint64) (uint64, error) {
	if len(counts) != m.NumLevel() {
		return 0, fmt.Errorf("Expected %d level counts, got %d: %w", m.NumLevel(), len(counts), ErrOutOfRange)
	}

	nMask := m.MaxCellsInTileForLevel(m.maskLevel)
	sum := uint64(0)
	for i, n := range counts {
		level := m.minLevel + i
		nLevel := m.MaxCellsInTileForLevel(level)

		if nLevel < nMask {
			sum += n*(nMask / nLevel)
		} else {
			fac := nLevel / nMask
			if n % fac != 0 {
				return 0, fmt.Errorf("%d level-%d cells do not fill a whole number of mask cells: %w", n, level, ErrInexact)
			}
			sum += n / fac
		}
	}
	return sum, nil
}

// initCounts zeroes out a count vector, allocating it if it does not have
// length NumLevel.
func (m *Mask) initCounts(out []uint64) []uint64 {
	if len(out) != m.NumLevel() {
		return make([]uint64, m.NumLevel())
	}
	for i := range out { out[i] = 0 }
	return out
}
