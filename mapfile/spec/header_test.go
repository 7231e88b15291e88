package spec_test

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/eak1mov/go-mapsforge/geo"
	"github.com/eak1mov/go-mapsforge/mapfile/spec"
	"github.com/eak1mov/go-mapsforge/model"
	"github.com/eak1mov/go-mapsforge/projection"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testHeader() *spec.Header {
	startZoom := uint8(14)
	startPosition := geo.GeoPoint{Latitude: 52.5, Longitude: 13.4}
	return &spec.Header{
		Version:            spec.SupportedVersion,
		FileSize:           100000,
		MapDate:            time.Date(2012, time.March, 4, 5, 6, 7, 0, time.UTC),
		BoundingBox:        geo.NewBound(52.4, 13.3, 52.6, 13.5),
		TilePixelSize:      spec.TilePixelSize,
		ProjectionName:     "Mercator",
		StartPosition:      &startPosition,
		StartZoom:          &startZoom,
		LanguagePreference: "de",
		Comment:            "test map",
		CreatedBy:          "go-mapsforge",
		NodeTags:           []model.Tag{{Key: "amenity", Value: "cafe"}, {Key: "place", Value: "city"}},
		WayTags:            []model.Tag{{Key: "highway", Value: "primary"}, {Key: "natural", Value: "water"}},
		SubFiles: []spec.SubFile{
			{BaseZoom: 7, ZoomMin: 0, ZoomMax: 11, StartAddress: 500, SubFileSize: 1000},
			{BaseZoom: 14, ZoomMin: 12, ZoomMax: 21, StartAddress: 1500, SubFileSize: 5000},
		},
	}
}

type subFileTable struct {
	BaseZoom, ZoomMin, ZoomMax uint8
	StartAddress, SubFileSize  int64
}

func table(subFiles []spec.SubFile) []subFileTable {
	var t []subFileTable
	for _, s := range subFiles {
		t = append(t, subFileTable{s.BaseZoom, s.ZoomMin, s.ZoomMax, s.StartAddress, s.SubFileSize})
	}
	return t
}

func TestHeaderSerializer(t *testing.T) {
	want := testHeader()
	got, err := spec.DeserializeHeader(spec.SerializeHeader(want), want.FileSize)
	require.NoError(t, err)

	require.Equal(t, want.Version, got.Version)
	require.Equal(t, want.FileSize, got.FileSize)
	require.True(t, want.MapDate.Equal(got.MapDate), "map date %v", got.MapDate)
	require.Equal(t, want.BoundingBox, got.BoundingBox)
	require.Equal(t, want.TilePixelSize, got.TilePixelSize)
	require.Equal(t, want.ProjectionName, got.ProjectionName)
	require.Equal(t, *want.StartPosition, *got.StartPosition)
	require.Equal(t, *want.StartZoom, *got.StartZoom)
	require.Equal(t, want.LanguagePreference, got.LanguagePreference)
	require.Equal(t, want.Comment, got.Comment)
	require.Equal(t, want.CreatedBy, got.CreatedBy)
	require.False(t, got.Debug)

	if diff := cmp.Diff(want.NodeTags, got.NodeTags); diff != "" {
		t.Errorf("node tags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.WayTags, got.WayTags); diff != "" {
		t.Errorf("way tags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(table(want.SubFiles), table(got.SubFiles)); diff != "" {
		t.Errorf("sub-file table mismatch (-want +got):\n%s", diff)
	}

	base, ok := got.Language()
	require.True(t, ok)
	require.Equal(t, "de", base.String())
}

func TestHeaderZoomLookup(t *testing.T) {
	h := testHeader()
	got, err := spec.DeserializeHeader(spec.SerializeHeader(h), h.FileSize)
	require.NoError(t, err)

	require.Equal(t, uint8(0), got.ZoomLevelMin)
	require.Equal(t, uint8(21), got.ZoomLevelMax)

	tests := []struct {
		zoom     uint8
		baseZoom uint8
	}{
		{0, 7}, {11, 7}, {12, 14}, {21, 14}, {22, 14},
	}
	for _, tt := range tests {
		s := got.SubFileForZoom(tt.zoom)
		require.NotNilf(t, s, "zoom %d", tt.zoom)
		require.Equalf(t, tt.baseZoom, s.BaseZoom, "zoom %d", tt.zoom)
	}
	require.Equal(t, uint8(21), got.ClampZoom(22))
}

func TestSubFileGrid(t *testing.T) {
	h := testHeader()
	h.Debug = true
	got, err := spec.DeserializeHeader(spec.SerializeHeader(h), h.FileSize)
	require.NoError(t, err)
	require.True(t, got.Debug)

	m := projection.NewMercator(256)
	for _, s := range got.SubFiles {
		upperLeft := m.GeoPointToTile(geo.GeoPoint{Latitude: 52.6, Longitude: 13.3}, s.BaseZoom)
		lowerRight := m.GeoPointToTile(geo.GeoPoint{Latitude: 52.4, Longitude: 13.5}, s.BaseZoom)

		require.Equal(t, upperLeft.X, s.BoundaryTileLeft)
		require.Equal(t, upperLeft.Y, s.BoundaryTileTop)
		require.Equal(t, lowerRight.X, s.BoundaryTileRight)
		require.Equal(t, lowerRight.Y, s.BoundaryTileBottom)
		require.Equal(t, s.BoundaryTileRight-s.BoundaryTileLeft+1, s.BlocksWidth)
		require.Equal(t, s.BoundaryTileBottom-s.BoundaryTileTop+1, s.BlocksHeight)
		require.Equal(t, s.BlocksWidth*s.BlocksHeight, s.NumberOfBlocks)
		require.Equal(t, s.StartAddress+spec.DebugIndexSignatureLength, s.IndexStartAddress)
		require.Equal(t, s.IndexStartAddress+s.NumberOfBlocks*spec.IndexEntryLength, s.IndexEndAddress)
	}
}

func TestHeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(h *spec.Header)
	}{
		{"version", func(h *spec.Header) { h.Version = 4 }},
		{"map date", func(h *spec.Header) { h.MapDate = time.Date(2007, time.December, 31, 0, 0, 0, 0, time.UTC) }},
		{"tile size", func(h *spec.Header) { h.TilePixelSize = 512 }},
		{"bounding box", func(h *spec.Header) { h.BoundingBox = geo.NewBound(52.6, 13.3, 52.4, 13.5) }},
		{"start zoom", func(h *spec.Header) { z := uint8(23); h.StartZoom = &z }},
		{"language length", func(h *spec.Header) { h.LanguagePreference = "deu" }},
		{"base zoom", func(h *spec.Header) { h.SubFiles[0].BaseZoom = 21 }},
		{"zoom range", func(h *spec.Header) { h.SubFiles[0].ZoomMin = 12; h.SubFiles[0].ZoomMax = 11 }},
		{"zoom max", func(h *spec.Header) { h.SubFiles[1].ZoomMax = 23 }},
		{"start address low", func(h *spec.Header) { h.SubFiles[0].StartAddress = 69 }},
		{"start address high", func(h *spec.Header) { h.SubFiles[0].StartAddress = h.FileSize }},
		{"sub-file size", func(h *spec.Header) { h.SubFiles[1].SubFileSize = 0 }},
		{"no sub-files", func(h *spec.Header) { h.SubFiles = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := testHeader()
			tt.modify(h)
			_, err := spec.DeserializeHeader(spec.SerializeHeader(h), h.FileSize)
			require.Truef(t, errors.Is(err, spec.ErrInvalidHeader), "%v", err)
		})
	}
}

func TestHeaderFileSizeMismatch(t *testing.T) {
	h := testHeader()
	_, err := spec.DeserializeHeader(spec.SerializeHeader(h), h.FileSize+1)
	require.Truef(t, errors.Is(err, spec.ErrInvalidHeader), "%v", err)
}

func TestHeaderPrefixErrors(t *testing.T) {
	_, err := spec.DeserializeHeaderPrefix([]byte("mapsforge"))
	require.Truef(t, errors.Is(err, spec.ErrInvalidHeader), "%v", err)
	require.Truef(t, errors.Is(err, io.ErrUnexpectedEOF), "%v", err)

	data := spec.SerializeHeader(testHeader())
	bad := append([]byte(nil), data...)
	bad[0] = 'M'
	_, err = spec.DeserializeHeaderPrefix(bad)
	require.Truef(t, errors.Is(err, spec.ErrInvalidHeader), "%v", err)

	for _, size := range []uint32{69, 1000001} {
		bad = append([]byte(nil), data...)
		binary.BigEndian.PutUint32(bad[len(spec.Magic):], size)
		_, err = spec.DeserializeHeaderPrefix(bad)
		require.Truef(t, errors.Is(err, spec.ErrInvalidHeader), "size %d: %v", size, err)
	}

	remaining, err := spec.DeserializeHeaderPrefix(data)
	require.NoError(t, err)
	require.Equal(t, len(data)-spec.HeaderPrefixLength, remaining)
}

func TestHeaderTruncated(t *testing.T) {
	h := testHeader()
	data := spec.SerializeHeader(h)
	_, err := spec.DeserializeHeader(data[:len(data)-1], h.FileSize)
	require.Truef(t, errors.Is(err, spec.ErrInvalidHeader), "%v", err)
	require.Truef(t, errors.Is(err, io.ErrUnexpectedEOF), "%v", err)
}
