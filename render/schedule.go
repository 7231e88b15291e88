package render

import (
	"cmp"
	"slices"

	"github.com/google/hilbert"

	"github.com/eak1mov/go-mapsforge/tile"
)

// Schedule orders tiles by zoom level and then along a Hilbert curve, so
// that consecutive tiles are mostly neighbours and carried labels are
// resolved soon after they are created. Tiles outside their grid go last.
func Schedule(tiles []tile.Tile) []tile.Tile {
	type keyed struct {
		t    tile.Tile
		code int
	}
	curves := make(map[uint8]*hilbert.Hilbert)
	keys := make([]keyed, len(tiles))
	for i, t := range tiles {
		keys[i] = keyed{t: t, code: -1}
		if !t.Valid() {
			continue
		}
		h, ok := curves[t.Zoom]
		if !ok {
			h, _ = hilbert.NewHilbert(1 << t.Zoom)
			curves[t.Zoom] = h
		}
		if h == nil {
			continue
		}
		if code, err := h.MapInverse(int(t.X), int(t.Y)); err == nil {
			keys[i].code = code
		}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int {
		if (a.code < 0) != (b.code < 0) {
			if a.code < 0 {
				return 1
			}
			return -1
		}
		return cmp.Or(cmp.Compare(a.t.Zoom, b.t.Zoom), cmp.Compare(a.code, b.code))
	})

	out := make([]tile.Tile, len(keys))
	for i, k := range keys {
		out[i] = k.t
	}
	return out
}
