/*package maskio reads and writes refinement masks in refmask's binary mask
format. It only uses the public tile primitives of package mask.

A mask file is a little-endian Header followed by one record per tile, in
tile order. A record is an int64 byte count followed by that many bytes. A
count of 0 marks a uniform tile; otherwise the bytes are a zstd block
holding the tile's levels in linear index order.
*/
package maskio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/DataDog/zstd"

	"github.com/phil-mansfield/refmask/lib/mask"
)

const (
	// MagicNumber identifies refmask mask files.
	MagicNumber uint64 = 0xf00dcafe6d61736b
	// Version is the version of the file format.
	Version uint64 = 1
	// CompressionLevel is the zstd level used for dense tiles.
	CompressionLevel = 1
)

// ErrMismatch is returned when a mask file was written for a different
// hierarchy or tiling than the one it is read with.
var ErrMismatch = errors.New("mask file does not match hierarchy")

// Header is the fixed-size header at the start of every mask file.
type Header struct {
	Magic, Version uint64
	MaskLevel, MinLevel, MaxLevel, TileLevel int64
	TotalTiles, DenseTiles int64
	Dim1D int64
}

// NewHeader creates the header describing m.
func NewHeader(m *mask.Mask) Header {
	return Header{
		Magic: MagicNumber, Version: Version,
		MaskLevel: int64(m.MaskLevel()), MinLevel: int64(m.MinLevel()),
		MaxLevel: int64(m.MaxLevel()), TileLevel: int64(m.TileLevel()),
		TotalTiles: int64(m.TotalTiles()), DenseTiles: int64(m.NumDenseTiles()),
		Dim1D: int64(m.Dim1D()),
	}
}

// Write writes m to wr.
func Write(wr io.Writer, m *mask.Mask) error {
	hd := NewHeader(m)
	if err := binary.Write(wr, binary.LittleEndian, &hd); err != nil {
		return err
	}

	b, buf := []byte{ }, []byte{ }
	for tile := 0; tile < m.TotalTiles(); tile++ {
		tb, err := m.TileBuffer(tile)
		if err != nil { return err }

		if tb == nil {
			err = binary.Write(wr, binary.LittleEndian, int64(0))
			if err != nil { return err }
			continue
		}

		b = int8ToBytes(tb.Levels(), b)
		buf, err = zstd.CompressLevel(buf, b, CompressionLevel)
		if err != nil { return err }

		err = binary.Write(wr, binary.LittleEndian, int64(len(buf)))
		if err != nil { return err }
		if _, err = wr.Write(buf); err != nil { return err }
	}

	return nil
}

// ReadHeader reads the header of a mask file and checks its magic number and
// version.
func ReadHeader(rd io.Reader) (Header, error) {
	hd := Header{ }
	if err := binary.Read(rd, binary.LittleEndian, &hd); err != nil {
		return Header{ }, err
	}

	if hd.Magic != MagicNumber {
		return Header{ }, fmt.Errorf("Magic number 0x%x does not belong to a mask file.", hd.Magic)
	} else if hd.Version != Version {
		return Header{ }, fmt.Errorf("Mask file has version %d, but only version %d is supported.", hd.Version, Version)
	}
	return hd, nil
}

// Read reads a mask from rd, building it on top of the hierarchy h. The
// returned mask holds one reference.
func Read(rd io.Reader, h mask.Hierarchy) (*mask.Mask, error) {
	hd, err := ReadHeader(rd)
	if err != nil { return nil, err }

	m, err := mask.New(h, int(hd.MaskLevel), int(hd.MinLevel),
		int(hd.MaxLevel), int(hd.TileLevel))
	if err != nil { return nil, err }

	if err = readTiles(rd, hd, m); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func readTiles(rd io.Reader, hd Header, m *mask.Mask) error {
	if int64(m.TotalTiles()) != hd.TotalTiles || int64(m.Dim1D()) != hd.Dim1D {
		return fmt.Errorf("File has %d tiles over %d^3 cells, but the hierarchy gives %d tiles over %d^3 cells: %w", hd.TotalTiles, hd.Dim1D, m.TotalTiles(), m.Dim1D(), ErrMismatch)
	}

	n := int(m.NumCellsInMaskTile())
	b, buf := []byte{ }, []byte{ }
	dense := int64(0)

	for tile := 0; tile < m.TotalTiles(); tile++ {
		nBuf := int64(0)
		if err := binary.Read(rd, binary.LittleEndian, &nBuf); err != nil {
			return fmt.Errorf("Could not read record of tile %d: %s", tile, err.Error())
		}
		if nBuf == 0 { continue }
		if nBuf < 0 {
			return fmt.Errorf("Tile %d has a negative record length, %d.", tile, nBuf)
		}

		buf = resizeBytes(buf, int(nBuf))
		if _, err := io.ReadFull(rd, buf); err != nil {
			return fmt.Errorf("Could not read record of tile %d: %s", tile, err.Error())
		}

		var err error
		b, err = zstd.Decompress(resizeBytes(b, n), buf)
		if err != nil { return fmt.Errorf("Could not decompress tile %d: %s", tile, err.Error()) }
		if len(b) != n {
			return fmt.Errorf("Tile %d has %d cells, but tiles should have %d: %w", tile, len(b), n, ErrMismatch)
		}

		tb, err := mask.WrapBuffer(m.TileSpan(), bytesToInt8(b, nil))
		if err != nil { return err }
		if _, err = m.SetTileBuffer(tile, tb); err != nil { return err }
		dense++
	}

	if dense != hd.DenseTiles {
		return fmt.Errorf("Header lists %d dense tiles, but %d were read.", hd.DenseTiles, dense)
	}
	return nil
}

// WriteFile writes m to the named file.
func WriteFile(fileName string, m *mask.Mask) error {
	f, err := os.Create(fileName)
	if err != nil { return err }

	wr := bufio.NewWriter(f)
	if err = Write(wr, m); err != nil {
		f.Close()
		return err
	}
	if err = wr.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a mask from the named file.
func ReadFile(fileName string, h mask.Hierarchy) (*mask.Mask, error) {
	f, err := os.Open(fileName)
	if err != nil { return nil, err }
	defer f.Close()

	return Read(bufio.NewReader(f), h)
}

// int8ToBytes copies x into a byte buffer, resizing it as needed.
func int8ToBytes(x []int8, b []byte) []byte {
	b = resizeBytes(b, len(x))
	for i := range x { b[i] = byte(x[i]) }
	return b
}

// bytesToInt8 copies b into an int8 buffer, resizing it as needed.
func bytesToInt8(b []byte, x []int8) []int8 {
	if cap(x) >= len(b) {
		x = x[:len(b)]
	} else {
		x = make([]int8, len(b))
	}
	for i := range b { x[i] = int8(b[i]) }
	return x
}

// resizeBytes resizes a byte buffer to have length n.
func resizeBytes(b []byte, n int) []byte {
	if cap(b) >= n { return b[:n] }
	b = b[:cap(b)]
	return append(b, make([]byte, n - len(b))...)
}
