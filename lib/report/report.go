/*package report summarises how a mask divides its volume between refinement
levels. A Census lists, for each level, how many cells are at that level, what
fraction of the box they cover, and the width and particle mass of one cell
for a given cosmology. Censuses can be written as aligned text or CSV.
*/
package report

import (
	"fmt"
	"io"
	"math/big"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/phil-mansfield/refmask/lib/grid"
	"github.com/phil-mansfield/refmask/lib/mask"
)

const (
	// RhoCritical is the critical density in h^2 Msun / Mpc^3.
	RhoCritical = 2.775e11
	// FractionEps is how far the volume fractions of all the levels can sum
	// away from one before a Census is rejected.
	FractionEps = 1e-9
)

// Cosmology holds the parameters needed to turn cell counts into physical
// units. BoxSize is in Mpc/h.
type Cosmology struct {
	BoxSize, OmegaM, H100 float64
}

// Level is one row of a Census.
type Level struct {
	Level int `csv:"level"`
	Dim1D uint32 `csv:"dim1D"`
	Cells uint64 `csv:"cells"`
	VolumeFraction float64 `csv:"volume_fraction"`
	// CellWidth is in Mpc/h.
	CellWidth float64 `csv:"cell_width"`
	// ParticleMass is in Msun/h.
	ParticleMass float64 `csv:"particle_mass"`
	// ParticleMassMsun is ParticleMass in Msun.
	ParticleMassMsun float64 `csv:"particle_mass_msun"`
}

// Census is the per-level summary of a mask.
type Census struct {
	MaskLevel, MinLevel, MaxLevel, TileLevel int
	TotalTiles, DenseTiles int
	// MaskCells is the number of mask-level cells covered by all the levels
	// together. It always equals the number of cells in the mask.
	MaskCells uint64
	Levels []Level
}

// NewCensus counts the cells of m at every level and returns the rows for the
// requested levels in the order they were given. levels must lie in
// [m.MinLevel(), m.MaxLevel()].
func NewCensus(m *mask.Mask, cosmo Cosmology, levels []int) (*Census, error) {
	totals, err := m.CellsTotal()
	if err != nil { return nil, err }

	maskCells, err := m.MaskEquivalent(totals)
	if err != nil {
		return nil, err
	} else if maskCells != m.NumCellsInMask() {
		return nil, fmt.Errorf("The mask's levels cover %d mask cells, but the mask has %d: %w", maskCells, m.NumCellsInMask(), mask.ErrCorrupt)
	}

	h, err := m.Hierarchy()
	if err != nil { return nil, err }
	defer h.Release()

	n := m.NumLevel()
	dims := make([]uint32, n)
	cells, volume := make([]float64, n), make([]float64, n)
	for i := range dims {
		if dims[i], err = h.Dim1D(m.MinLevel() + i); err != nil { return nil, err }
		d := float64(dims[i])
		cells[i] = float64(totals[i])
		volume[i] = 1 / (d*d*d)
	}

	// fraction = cells * volume per cell
	frac := make([]float64, n)
	floats.MulTo(frac, cells, volume)
	if sum := floats.Sum(frac); !scalar.EqualWithinAbs(sum, 1, FractionEps) {
		return nil, fmt.Errorf("The mask's levels cover a fraction %g of the box instead of 1: %w", sum, mask.ErrCorrupt)
	}

	c := &Census{
		MaskLevel: m.MaskLevel(), MinLevel: m.MinLevel(),
		MaxLevel: m.MaxLevel(), TileLevel: m.TileLevel(),
		TotalTiles: m.TotalTiles(), DenseTiles: m.NumDenseTiles(),
		MaskCells: maskCells,
		Levels: make([]Level, len(levels)),
	}

	for j, level := range levels {
		if level < m.MinLevel() || level > m.MaxLevel() {
			return nil, fmt.Errorf("Level %d requested from a mask with levels [%d, %d]: %w", level, m.MinLevel(), m.MaxLevel(), mask.ErrOutOfRange)
		}
		i := level - m.MinLevel()
		width := cosmo.BoxSize / float64(dims[i])
		mass := RhoCritical*cosmo.OmegaM*width*width*width
		c.Levels[j] = Level{
			Level: level, Dim1D: dims[i], Cells: totals[i],
			VolumeFraction: frac[i], CellWidth: width,
			ParticleMass: mass, ParticleMassMsun: mass / cosmo.H100,
		}
	}

	return c, nil
}

// WriteCSV writes the rows of c as a CSV table with a header line.
func WriteCSV(w io.Writer, c *Census) error {
	return gocsv.Marshal(c.Levels, w)
}

// WriteText writes c as a human-readable table.
func WriteText(w io.Writer, c *Census) error {
	_, err := fmt.Fprintf(w,
		"# Mask level %d, levels [%d, %d], tile level %d\n# %s of %s tiles are dense, %s mask cells\n",
		c.MaskLevel, c.MinLevel, c.MaxLevel, c.TileLevel,
		humanize.Comma(int64(c.DenseTiles)), humanize.Comma(int64(c.TotalTiles)),
		comma(c.MaskCells),
	)
	if err != nil { return err }

	_, err = fmt.Fprintf(w, "# %5s %8s %16s %12s %14s %14s\n",
		"level", "dim1D", "cells", "fraction", "width", "mass")
	if err != nil { return err }

	for _, l := range c.Levels {
		_, err = fmt.Fprintf(w, "  %5d %8d %16s %12.6g %14.6g %14.6g\n",
			l.Level, l.Dim1D, comma(l.Cells),
			l.VolumeFraction, l.CellWidth, l.ParticleMass)
		if err != nil { return err }
	}
	return nil
}

// WritePatches lists the patches of a grid along with their cell counts.
func WritePatches(w io.Writer, g *grid.Grid) error {
	_, err := fmt.Fprintf(w, "# Grid '%s', %d x %d x %d cells, %d patches\n",
		g.Name, g.Dims[0], g.Dims[1], g.Dims[2], len(g.Patches))
	if err != nil { return err }

	for i, p := range g.Patches {
		_, err = fmt.Fprintf(w, "  %6d  %v  %v  %12s\n",
			i, p.Lo, p.Hi, comma(p.Cells()))
		if err != nil { return err }
	}
	return nil
}

// comma formats a cell count with thousands separators. Counts can exceed
// the range of an int64.
func comma(n uint64) string {
	return humanize.BigComma(new(big.Int).SetUint64(n))
}
