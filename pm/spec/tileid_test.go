package spec_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/eak1mov/go-mapsforge/pm/spec"
	"github.com/eak1mov/go-mapsforge/tile"
)

func TestEncodeDecodeTileID(t *testing.T) {
	for z := range uint32(8) {
		for x := range uint32(1) << z {
			for y := range uint32(1) << z {
				id := tile.ID{X: x, Y: y, Z: z}
				if diff := cmp.Diff(id, spec.DecodeTileID(spec.EncodeTileID(id))); diff != "" {
					t.Errorf("DecodeTileID(EncodeTileID(%v)) mismatch (-want +got):\n%s", id, diff)
				}
			}
		}
	}
	for z := range uint32(31) {
		id := tile.ID{X: 1<<z - 1, Y: 1<<z - 1, Z: z}
		if diff := cmp.Diff(id, spec.DecodeTileID(spec.EncodeTileID(id))); diff != "" {
			t.Errorf("DecodeTileID(EncodeTileID(%v)) mismatch (-want +got):\n%s", id, diff)
		}
	}
}

func TestTileCodesByZoom(t *testing.T) {
	require.Equal(t, uint64(0), spec.EncodeTileID(tile.ID{}))
	require.Equal(t, uint64(1), spec.EncodeTileID(tile.ID{X: 0, Y: 0, Z: 1}))
	require.Equal(t, uint64(5), spec.EncodeTileID(tile.ID{X: 0, Y: 0, Z: 2}))
	require.Equal(t, uint64(21), spec.EncodeTileID(tile.ID{X: 0, Y: 0, Z: 3}))
}
