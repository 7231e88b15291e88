package spec

import (
	"math/bits"

	"github.com/google/hilbert"

	"github.com/eak1mov/go-mapsforge/tile"
)

// zoomBase returns the number of tiles on all zoom levels below z.
func zoomBase(z uint32) uint64 {
	return (1<<(2*z) - 1) / 3
}

// EncodeTileID returns the archive tile code: the position of the tile on
// the Hilbert curve of its zoom level, after all tiles of lower levels.
func EncodeTileID(id tile.ID) uint64 {
	h, _ := hilbert.NewHilbert(1 << id.Z)
	d, _ := h.MapInverse(int(id.X), int(id.Y))
	return zoomBase(id.Z) + uint64(d)
}

func DecodeTileID(code uint64) tile.ID {
	z := uint32(bits.Len64(3*code+1)-1) / 2
	h, _ := hilbert.NewHilbert(1 << z)
	x, y, _ := h.Map(int(code - zoomBase(z)))
	return tile.ID{X: uint32(x), Y: uint32(y), Z: z}
}
