package render_test

import (
	"slices"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/stretchr/testify/require"

	"github.com/eak1mov/go-mapsforge/cache"
	"github.com/eak1mov/go-mapsforge/label"
	"github.com/eak1mov/go-mapsforge/render"
	"github.com/eak1mov/go-mapsforge/theme"
	"github.com/eak1mov/go-mapsforge/tile"
)

type memoryStore struct {
	tiles     map[tile.ID][]byte
	reads     int
	finalized bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{tiles: make(map[tile.ID][]byte)}
}

func (s *memoryStore) ReadTile(id tile.ID) ([]byte, error) {
	s.reads++
	return s.tiles[id], nil
}

func (s *memoryStore) WriteTile(id tile.ID, data []byte) error {
	s.tiles[id] = data
	return nil
}

func (s *memoryStore) Finalize() error {
	s.finalized = true
	return nil
}

func TestTileCache(t *testing.T) {
	store := newMemoryStore()
	store.tiles[tile.ID{X: 1, Y: 1, Z: 1}] = []byte("stored")
	c, err := render.NewTileCache(1, store)
	require.NoError(t, err)

	data, err := c.Get(tile.ID{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	require.Equal(t, []byte("stored"), data)
	_, err = c.Get(tile.ID{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	require.Equal(t, 1, store.reads)

	input := []byte("fresh")
	require.NoError(t, c.Put(tile.ID{X: 0, Y: 0, Z: 0}, input))
	input[0] = 'F'
	data, err = c.Get(tile.ID{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)
	require.Equal(t, []byte("fresh"), data)

	data, err = c.Get(tile.ID{X: 0, Y: 1, Z: 1})
	require.NoError(t, err)
	require.Empty(t, data)

	require.NoError(t, c.Finalize())
	require.True(t, store.finalized)

	memoryOnly, err := render.NewTileCache(2, nil)
	require.NoError(t, err)
	data, err = memoryOnly.Get(tile.ID{})
	require.NoError(t, err)
	require.Empty(t, data)
	require.NoError(t, memoryOnly.Finalize())
}

func TestTileCacheCapacity(t *testing.T) {
	for _, capacity := range []int{0, -3} {
		c, err := render.NewTileCache(capacity, newMemoryStore())
		require.ErrorIs(t, err, cache.ErrInvalidCapacity)
		require.Nil(t, c)
	}
}

func TestSchedule(t *testing.T) {
	var tiles []tile.Tile
	for y := range int64(8) {
		for x := range int64(8) {
			tiles = append(tiles, tile.New(x, y, 3, 256))
		}
	}
	tiles = append(tiles, tile.New(9, 0, 3, 256), tile.New(1, 1, 1, 256))

	got := render.Schedule(tiles)
	require.Len(t, got, len(tiles))
	require.Equal(t, tile.New(1, 1, 1, 256), got[0])
	require.Equal(t, tile.New(9, 0, 3, 256), got[len(got)-1])

	grid := got[1 : len(got)-1]
	for i := 1; i < len(grid); i++ {
		dx, dy := grid[i].X-grid[i-1].X, grid[i].Y-grid[i-1].Y
		require.Equal(t, int64(1), max(dx, -dx)+max(dy, -dy), "%v follows %v", grid[i], grid[i-1])
	}
	require.False(t, slices.Equal(tiles, got))
}

func TestFontMeasurer(t *testing.T) {
	m := render.NewFontMeasurer()
	p := label.Paint{FontSize: 13}

	w1, h1 := m.Measure("ab", p)
	w2, h2 := m.Measure("abcd", p)
	require.InDelta(t, 14, w1, 1e-9)
	require.InDelta(t, 2*w1, w2, 1e-9)
	require.Equal(t, h1, h2)
	require.InDelta(t, 13, h1, 1e-9)

	w3, h3 := m.Measure("ab", label.Paint{FontSize: 26})
	require.InDelta(t, 2*w1, w3, 1e-9)
	require.InDelta(t, 2*h1, h3, 1e-9)

	w4, _ := m.Measure("ab", label.Paint{FontSize: 13, StrokeWidth: 2})
	require.InDelta(t, w1+2, w4, 1e-9)
}

func TestEncodeMVTScalesToExtent(t *testing.T) {
	frame := &render.Frame{
		Tile: tile.New(0, 0, 0, 256),
		Shapes: []render.Shape{
			{Style: &theme.Circle{}, Geometry: orb.Point{64, 128}},
		},
		Symbols: []*label.Symbol{{Name: "poi", X: 10, Y: 20, Width: 12, Height: 12}},
	}
	data, err := render.EncodeMVT(frame, 512)
	require.NoError(t, err)

	layers, err := mvt.UnmarshalGzipped(data)
	require.NoError(t, err)
	byName := make(map[string]*mvt.Layer)
	for _, l := range layers {
		byName[l.Name] = l
	}

	shapes := byName[render.LayerShapes]
	require.NotNil(t, shapes)
	require.EqualValues(t, 512, shapes.Extent)
	require.Len(t, shapes.Features, 1)
	require.Equal(t, orb.Point{128, 256}, shapes.Features[0].Geometry)
	require.Equal(t, "circle", shapes.Features[0].Properties["kind"])

	symbols := byName[render.LayerSymbols]
	require.NotNil(t, symbols)
	require.Equal(t, orb.Point{32, 52}, symbols.Features[0].Geometry)
	require.Equal(t, "poi", symbols.Features[0].Properties["name"])

	// the frame keeps pixel coordinates
	require.Equal(t, orb.Point{64, 128}, frame.Shapes[0].Geometry)
}
