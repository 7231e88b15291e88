package pm_test

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/eak1mov/go-mapsforge/geo"
	mapspec "github.com/eak1mov/go-mapsforge/mapfile/spec"
	"github.com/eak1mov/go-mapsforge/pm"
	"github.com/eak1mov/go-mapsforge/pm/spec"
	"github.com/eak1mov/go-mapsforge/tile"
)

func fullPyramid(maxZoom uint32) map[tile.ID][]byte {
	tiles := make(map[tile.ID][]byte)
	for z := range maxZoom + 1 {
		for x := range uint32(1) << z {
			for y := range uint32(1) << z {
				// neighbouring columns share contents
				tiles[tile.ID{X: x, Y: y, Z: z}] = fmt.Appendf(nil, "%d/%d/%d", z, x/2, y)
			}
		}
	}
	return tiles
}

func sparseTiles(n int) map[tile.ID][]byte {
	rnd := rand.New(rand.NewSource(1))
	tiles := make(map[tile.ID][]byte)
	for len(tiles) < n {
		id := tile.ID{X: uint32(rnd.Intn(1 << 14)), Y: uint32(rnd.Intn(1 << 14)), Z: 14}
		tiles[id] = fmt.Appendf(nil, "tile %v %d", id, rnd.Intn(1000))
	}
	return tiles
}

func TestWriterReader(t *testing.T) {
	for name, tiles := range map[string]map[tile.ID][]byte{
		"empty":  {},
		"single": {{X: 1, Y: 2, Z: 3}: []byte("one")},
		"full5":  fullPyramid(5),
		"sparse": sparseTiles(20000),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			filePath := filepath.Join(t.TempDir(), "tiles.pmtiles")
			writerMetadata := []byte(`{"vector_layers":[]}`)
			headerMetadata := pm.HeaderMetadata{
				TileCompression: spec.CompressionGzip,
				TileType:        spec.TileTypeMvt,
				MinZoom:         2,
				MaxZoom:         14,
				MinLonE7:        130000000,
				MaxLatE7:        530000000,
				CenterZoom:      10,
			}

			writer, err := pm.NewWriter(filePath, pm.WithMetadata(writerMetadata), pm.WithHeaderMetadata(headerMetadata))
			require.NoError(t, err)
			defer writer.Close()
			for id, data := range tiles {
				require.NoError(t, writer.WriteTile(id, data))
			}
			require.NoError(t, writer.Finalize())

			reader, err := pm.NewFileReader(filePath)
			require.NoError(t, err)
			defer reader.Close()

			require.Equal(t, headerMetadata, reader.HeaderMetadata())
			readerMetadata, err := reader.ReadMetadata()
			require.NoError(t, err)
			require.Equal(t, writerMetadata, readerMetadata)

			got := make(map[tile.ID][]byte)
			require.NoError(t, reader.VisitTiles(func(id tile.ID, data []byte) error {
				got[id] = data
				return nil
			}))
			if diff := cmp.Diff(tiles, got); diff != "" {
				t.Errorf("VisitTiles mismatch (-want +got):\n%s", diff)
			}

			checked := 0
			for id, want := range tiles {
				if checked == 2000 {
					break
				}
				data, err := reader.ReadTile(id)
				require.NoError(t, err)
				require.Equal(t, want, data, "tile %v", id)
				checked++
			}
			data, err := reader.ReadTile(tile.ID{X: 0, Y: 0, Z: 20})
			require.NoError(t, err)
			require.Empty(t, data)
		})
	}
}

func TestWriterReadsBack(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "tiles.pmtiles")
	writer, err := pm.NewWriter(filePath)
	require.NoError(t, err)
	defer writer.Close()

	a, b := tile.ID{X: 0, Y: 0, Z: 1}, tile.ID{X: 1, Y: 0, Z: 1}
	require.NoError(t, writer.WriteTile(a, []byte("first")))
	require.NoError(t, writer.WriteTile(b, []byte("first")))

	data, err := writer.ReadTile(b)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), data)
	data, err = writer.ReadTile(tile.ID{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	require.Empty(t, data)

	// a tile written again is replaced
	require.NoError(t, writer.WriteTile(a, []byte("second")))
	data, err = writer.ReadTile(a)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), data)

	require.Error(t, writer.WriteTile(tile.ID{X: 2, Y: 0, Z: 1}, []byte("bad")))
	require.NoError(t, writer.WriteTile(tile.ID{}, nil))

	require.NoError(t, writer.Finalize())
	require.ErrorIs(t, writer.Finalize(), pm.ErrFinalized)
	require.ErrorIs(t, writer.WriteTile(a, []byte("late")), pm.ErrFinalized)
	_, err = writer.ReadTile(a)
	require.ErrorIs(t, err, pm.ErrFinalized)

	reader, err := pm.NewFileReader(filePath)
	require.NoError(t, err)
	defer reader.Close()
	want := map[tile.ID][]byte{a: []byte("second"), b: []byte("first")}
	got := make(map[tile.ID][]byte)
	require.NoError(t, reader.VisitTiles(func(id tile.ID, data []byte) error {
		got[id] = data
		return nil
	}))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("VisitTiles mismatch (-want +got):\n%s", diff)
	}
	data, err = reader.ReadTile(tile.ID{})
	require.NoError(t, err)
	require.Empty(t, data)
	metadata, err := reader.ReadMetadata()
	require.NoError(t, err)
	require.Empty(t, metadata)
}

func TestNewFileReaderInvalid(t *testing.T) {
	_, err := pm.NewFileReader(filepath.Join(t.TempDir(), "missing.pmtiles"))
	require.Error(t, err)

	_, err = pm.NewReader(func(offset, length uint64) ([]byte, error) {
		return make([]byte, length), nil
	})
	require.ErrorIs(t, err, spec.ErrInvalidHeader)
}

func TestMetadata(t *testing.T) {
	zoom := uint8(12)
	h := &mapspec.Header{
		Version:       3,
		MapDate:       time.Unix(0, 0),
		BoundingBox:   geo.NewBound(52, 13, 53, 14),
		TilePixelSize: 256,
		StartZoom:     &zoom,
		ZoomLevelMin:  2,
		ZoomLevelMax:  16,
	}
	want := pm.HeaderMetadata{
		TileCompression: spec.CompressionGzip,
		TileType:        spec.TileTypeMvt,
		MinZoom:         2,
		MaxZoom:         16,
		MinLonE7:        130000000,
		MinLatE7:        520000000,
		MaxLonE7:        140000000,
		MaxLatE7:        530000000,
		CenterZoom:      12,
		CenterLonE7:     135000000,
		CenterLatE7:     525000000,
	}
	if diff := cmp.Diff(want, pm.Metadata(h)); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}
}
