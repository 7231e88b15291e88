package mb

import (
	"encoding/json"
	"fmt"

	"github.com/eak1mov/go-mapsforge/geo"
	"github.com/eak1mov/go-mapsforge/mapfile/spec"
)

// Metadata derives MBTiles metadata from a map file header. Layer names
// are listed in the vector_layers entry.
func Metadata(name string, h *spec.Header, layers []string) map[string]string {
	b := h.BoundingBox
	center := geo.BoundCenter(b)
	zoom := h.ZoomLevelMin
	if h.StartZoom != nil {
		zoom = *h.StartZoom
	}
	if h.StartPosition != nil {
		center = *h.StartPosition
	}

	type vectorLayer struct {
		ID     string            `json:"id"`
		Fields map[string]string `json:"fields"`
	}
	vectorLayers := make([]vectorLayer, len(layers))
	for i, l := range layers {
		vectorLayers[i] = vectorLayer{ID: l, Fields: map[string]string{}}
	}
	layersJSON, _ := json.Marshal(map[string]any{"vector_layers": vectorLayers})

	m := map[string]string{
		"name":    name,
		"format":  "pbf",
		"type":    "baselayer",
		"version": fmt.Sprint(h.Version),
		"bounds":  fmt.Sprintf("%f,%f,%f,%f", b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()),
		"center":  fmt.Sprintf("%f,%f,%d", center.Longitude, center.Latitude, zoom),
		"minzoom": fmt.Sprint(h.ZoomLevelMin),
		"maxzoom": fmt.Sprint(h.ZoomLevelMax),
		"json":    string(layersJSON),
	}
	if h.Comment != "" {
		m["description"] = h.Comment
	}
	if h.CreatedBy != "" {
		m["generator"] = h.CreatedBy
	}
	return m
}
