// Package pm stores rendered tiles in PMTiles v3 archives.
package pm

import (
	"math"

	"github.com/eak1mov/go-mapsforge/geo"
	mapspec "github.com/eak1mov/go-mapsforge/mapfile/spec"
	"github.com/eak1mov/go-mapsforge/pm/spec"
)

// HeaderMetadata is the descriptive part of the archive header.
type HeaderMetadata struct {
	TileCompression spec.Compression
	TileType        spec.TileType
	MinZoom         uint8
	MaxZoom         uint8
	MinLonE7        int32
	MinLatE7        int32
	MaxLonE7        int32
	MaxLatE7        int32
	CenterZoom      uint8
	CenterLonE7     int32
	CenterLatE7     int32
}

func headerMetadata(h *spec.Header) HeaderMetadata {
	return HeaderMetadata{
		TileCompression: h.TileCompression,
		TileType:        h.TileType,
		MinZoom:         h.MinZoom,
		MaxZoom:         h.MaxZoom,
		MinLonE7:        h.MinLonE7,
		MinLatE7:        h.MinLatE7,
		MaxLonE7:        h.MaxLonE7,
		MaxLatE7:        h.MaxLatE7,
		CenterZoom:      h.CenterZoom,
		CenterLonE7:     h.CenterLonE7,
		CenterLatE7:     h.CenterLatE7,
	}
}

func (m *HeaderMetadata) apply(h *spec.Header) {
	h.TileCompression = m.TileCompression
	h.TileType = m.TileType
	h.MinZoom, h.MaxZoom = m.MinZoom, m.MaxZoom
	h.MinLonE7, h.MinLatE7 = m.MinLonE7, m.MinLatE7
	h.MaxLonE7, h.MaxLatE7 = m.MaxLonE7, m.MaxLatE7
	h.CenterZoom = m.CenterZoom
	h.CenterLonE7, h.CenterLatE7 = m.CenterLonE7, m.CenterLatE7
}

func e7(degrees float64) int32 {
	return int32(math.Round(degrees * 1e7))
}

// Metadata describes the gzip-compressed vector tiles rendered from a map
// file with header h.
func Metadata(h *mapspec.Header) HeaderMetadata {
	b := h.BoundingBox
	center := geo.BoundCenter(b)
	if h.StartPosition != nil {
		center = *h.StartPosition
	}
	zoom := h.ZoomLevelMin
	if h.StartZoom != nil {
		zoom = *h.StartZoom
	}
	return HeaderMetadata{
		TileCompression: spec.CompressionGzip,
		TileType:        spec.TileTypeMvt,
		MinZoom:         h.ZoomLevelMin,
		MaxZoom:         h.ZoomLevelMax,
		MinLonE7:        e7(b.Min.Lon()),
		MinLatE7:        e7(b.Min.Lat()),
		MaxLonE7:        e7(b.Max.Lon()),
		MaxLatE7:        e7(b.Max.Lat()),
		CenterZoom:      zoom,
		CenterLonE7:     e7(center.Longitude),
		CenterLatE7:     e7(center.Latitude),
	}
}
