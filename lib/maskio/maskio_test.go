package maskio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/phil-mansfield/refmask/lib/eq"
	"github.com/phil-mansfield/refmask/lib/grid"
	"github.com/phil-mansfield/refmask/lib/hierarchy"
	"github.com/phil-mansfield/refmask/lib/mask"
)

func testMask(t *testing.T) (*hierarchy.Hierarchy, *mask.Mask) {
	h, err := hierarchy.NewGeometric(4, 2, 4)
	if err != nil { t.Fatalf("Got unexpected error '%s'.", err.Error()) }
	m, err := mask.New(h, 2, 0, 3, 0)
	if err != nil { t.Fatalf("Got unexpected error '%s'.", err.Error()) }

	// One tile at level 3, one with a level-1 octant, one at level 2.
	if _, err = m.SetTileBuffer(5, mask.NewBuffer(m.TileSpan(), 3)); err != nil {
		t.Fatalf("Got unexpected error '%s'.", err.Error())
	}

	buf := mask.NewBuffer(m.TileSpan(), 2)
	for i := 0; i < 8; i++ {
		buf.Set(grid.IndexToCoord(grid.Uniform(2), i), 1)
	}
	buf.Set(grid.Coord{3, 3, 3}, 3)
	if _, err = m.SetTileBuffer(17, buf); err != nil {
		t.Fatalf("Got unexpected error '%s'.", err.Error())
	}

	if _, err = m.SetTileBuffer(63, mask.NewBuffer(m.TileSpan(), 2)); err != nil {
		t.Fatalf("Got unexpected error '%s'.", err.Error())
	}

	return h, m
}

func checkSame(t *testing.T, m1, m2 *mask.Mask) {
	if m1.TotalTiles() != m2.TotalTiles() || m1.MaskLevel() != m2.MaskLevel() ||
		m1.MinLevel() != m2.MinLevel() || m1.MaxLevel() != m2.MaxLevel() ||
		m1.TileLevel() != m2.TileLevel() {
		t.Fatalf("Mask levels or tiling do not match after reading.")
	}

	for tile := 0; tile < m1.TotalTiles(); tile++ {
		b1, _ := m1.TileBuffer(tile)
		b2, _ := m2.TileBuffer(tile)
		if (b1 == nil) != (b2 == nil) {
			t.Errorf("Tile %d: expected uniform = %v, got %v.", tile, b1 == nil, b2 == nil)
		} else if b1 != nil && !eq.Int8s(b1.Levels(), b2.Levels()) {
			t.Errorf("Tile %d: levels do not match after reading.", tile)
		}
	}

	c1, err1 := m1.CellsTotal()
	c2, err2 := m2.CellsTotal()
	if err1 != nil || err2 != nil {
		t.Errorf("Got unexpected errors %v, %v.", err1, err2)
	} else if !eq.Uint64s(c1, c2) {
		t.Errorf("Expected CellsTotal() = %d, got %d.", c1, c2)
	}
}

func TestReadWrite(t *testing.T) {
	h, m := testMask(t)

	wr := &bytes.Buffer{ }
	if err := Write(wr, m); err != nil {
		t.Fatalf("Got unexpected error '%s'.", err.Error())
	}

	m2, err := Read(bytes.NewReader(wr.Bytes()), h)
	if err != nil { t.Fatalf("Got unexpected error '%s'.", err.Error()) }
	checkSame(t, m, m2)

	if m2.NumDenseTiles() != 3 {
		t.Errorf("Expected 3 dense tiles, got %d.", m2.NumDenseTiles())
	}
}

func TestReadWriteFile(t *testing.T) {
	h, m := testMask(t)
	fileName := filepath.Join(t.TempDir(), "test.msk")

	if err := WriteFile(fileName, m); err != nil {
		t.Fatalf("Got unexpected error '%s'.", err.Error())
	}
	m2, err := ReadFile(fileName, h)
	if err != nil { t.Fatalf("Got unexpected error '%s'.", err.Error()) }
	checkSame(t, m, m2)

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.msk"), h); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a missing file to give os.ErrNotExist, got %v.", err)
	}
}

func TestReadErrors(t *testing.T) {
	h, m := testMask(t)
	wr := &bytes.Buffer{ }
	if err := Write(wr, m); err != nil {
		t.Fatalf("Got unexpected error '%s'.", err.Error())
	}
	data := wr.Bytes()

	// Same levels, but a coarser tile level.
	other, _ := hierarchy.NewGeometric(8, 2, 4)
	if _, err := Read(bytes.NewReader(data), other); !errors.Is(err, ErrMismatch) {
		t.Errorf("Expected ErrMismatch for a different hierarchy, got %v.", err)
	}
	if other.Refs() != 1 {
		t.Errorf("Expected a failed read to release its hierarchy share, got %d refs.", other.Refs())
	}

	bad := append([]byte{ }, data...)
	bad[0] ^= 0xff
	if _, err := Read(bytes.NewReader(bad), h); err == nil {
		t.Errorf("Expected a bad magic number to be rejected.")
	}

	if _, err := Read(bytes.NewReader(data[:len(data) - 3]), h); err == nil {
		t.Errorf("Expected a truncated file to be rejected.")
	}
	if _, err := Read(bytes.NewReader(data[:10]), h); err == nil {
		t.Errorf("Expected a truncated header to be rejected.")
	}
}
