package mask

/* projection.go maps tiles onto index ranges of the mask-level grid. */

import (
	"fmt"

	"github.com/phil-mansfield/gotetra/render/geom"
	"github.com/phil-mansfield/refmask/lib/grid"
)

// VarName is the name of the variable attached to the grids returned by
// EmptyGridStructure.
const VarName = "Mask"

// TileCoordinate returns the coordinate of a tile in the tile grid.
func (m *Mask) TileCoordinate(tile int) (grid.Coord, error) {
	if err := m.checkTile(tile); err != nil { return grid.Coord{ }, err }
	return grid.IndexToCoord(m.numTiles, tile), nil
}

// EmptyPatchForTile returns the patch of the mask-level grid covered by a
// tile.
func (m *Mask) EmptyPatchForTile(tile int) (grid.Patch, error) {
	c, err := m.TileCoordinate(tile)
	if err != nil { return grid.Patch{ }, err }
	return m.patch(c)
}

func (m *Mask) patch(c grid.Coord) (grid.Patch, error) {
	lo, hi, err := grid.IndexRange(c, grid.Uniform(m.dim1D), m.numTiles)
	if err != nil {
		return grid.Patch{ }, fmt.Errorf("Tile %v: %s: %w", c, err.Error(), ErrOutOfRange)
	}
	return grid.NewPatch(lo, hi)
}

// EmptyGridStructure returns a grid over the unit box with the mask's
// resolution, a single int8 variable, and one patch per tile in tile order.
// No cell data is attached.
func (m *Mask) EmptyGridStructure() (*grid.Grid, error) {
	if m.tiles == nil { return nil, ErrReleased }

	g := grid.NewGrid(VarName, geom.Vec{ 0, 0, 0 }, geom.Vec{ 1, 1, 1 },
		grid.Uniform(m.dim1D))
	err := g.AttachVar(grid.Var{ Name: VarName, Type: grid.Int8Var, Components: 1 })
	if err != nil { return nil, err }

	for tile := 0; tile < m.totalTiles; tile++ {
		p, err := m.patch(grid.IndexToCoord(m.numTiles, tile))
		if err != nil { return nil, err }
		if err = g.AttachPatch(p); err != nil { return nil, err }
	}

	return g, nil
}
