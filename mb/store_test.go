package mb_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/eak1mov/go-mapsforge/geo"
	"github.com/eak1mov/go-mapsforge/mapfile/spec"
	"github.com/eak1mov/go-mapsforge/mb"
	"github.com/eak1mov/go-mapsforge/tile"
)

func TestStoreReadWrite(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "tiles.mbtiles")

	tiles := map[tile.ID][]byte{
		{X: 0, Y: 0, Z: 0}: []byte("tile000"),
		{X: 1, Y: 0, Z: 1}: []byte("tile101"),
		{X: 5, Y: 9, Z: 6}: []byte("tile596"),
	}

	store, err := mb.NewStore(filePath, mb.WithMetadata(map[string]string{"name": "test"}))
	require.NoError(t, err)
	for id, data := range tiles {
		require.NoError(t, store.WriteTile(id, data))
	}
	require.NoError(t, store.WriteTile(tile.ID{X: 5, Y: 9, Z: 6}, []byte("replaced")))
	tiles[tile.ID{X: 5, Y: 9, Z: 6}] = []byte("replaced")
	require.Error(t, store.WriteTile(tile.ID{X: 4, Y: 0, Z: 1}, []byte("bad")))
	require.NoError(t, store.Finalize())
	require.NoError(t, store.Close())

	// reopening keeps tiles and metadata
	store, err = mb.NewStore(filePath)
	require.NoError(t, err)
	defer store.Close()

	got := make(map[tile.ID][]byte)
	require.NoError(t, store.VisitTiles(func(id tile.ID, data []byte) error {
		got[id] = data
		return nil
	}))
	if diff := cmp.Diff(tiles, got); diff != "" {
		t.Errorf("VisitTiles mismatch (-want +got):\n%s", diff)
	}

	for id, want := range tiles {
		data, err := store.ReadTile(id)
		require.NoError(t, err)
		require.Equal(t, want, data)
	}

	data, err := store.ReadTile(tile.ID{X: 9, Y: 9, Z: 9})
	require.NoError(t, err)
	require.Empty(t, data)

	metadata, err := store.ReadMetadata()
	require.NoError(t, err)
	require.Equal(t, "test", metadata["name"])
	require.Equal(t, "0", metadata["minzoom"])
	require.Equal(t, "6", metadata["maxzoom"])
}

func TestMetadata(t *testing.T) {
	zoom := uint8(12)
	h := &spec.Header{
		Version:       3,
		MapDate:       time.Unix(0, 0),
		BoundingBox:   geo.NewBound(52, 13, 53, 14),
		TilePixelSize: 256,
		StartZoom:     &zoom,
		Comment:       "test map",
		ZoomLevelMin:  2,
		ZoomLevelMax:  16,
	}
	got := mb.Metadata("berlin", h, []string{"shapes", "labels"})
	want := map[string]string{
		"name":        "berlin",
		"format":      "pbf",
		"type":        "baselayer",
		"version":     "3",
		"bounds":      "13.000000,52.000000,14.000000,53.000000",
		"center":      "13.500000,52.500000,12",
		"minzoom":     "2",
		"maxzoom":     "16",
		"json":        `{"vector_layers":[{"id":"shapes","fields":{}},{"id":"labels","fields":{}}]}`,
		"description": "test map",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}
}
