package render

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"

	"github.com/eak1mov/go-mapsforge/label"
	"github.com/eak1mov/go-mapsforge/theme"
)

// DefaultExtent is the coordinate range of encoded tiles.
const DefaultExtent = mvt.DefaultExtent

// Layer names of encoded tiles.
const (
	LayerShapes     = "shapes"
	LayerPathLabels = "path_labels"
	LayerLabels     = "labels"
	LayerAreaLabels = "area_labels"
	LayerSymbols    = "symbols"
)

// EncodeMVT encodes a frame as a gzipped Mapbox Vector Tile. Pixel
// coordinates are scaled to [0, extent].
func EncodeMVT(frame *Frame, extent uint32) ([]byte, error) {
	scale := float64(extent) / float64(frame.Tile.Size)
	scaled := func(g orb.Geometry) orb.Geometry {
		return scaleGeometry(orb.Clone(g), scale)
	}

	shapes := make([]*geojson.Feature, 0, len(frame.Shapes))
	for _, s := range frame.Shapes {
		f := geojson.NewFeature(scaled(s.Geometry))
		f.Properties["layer"] = s.Layer
		f.Properties["level"] = s.Level
		f.Properties["kind"] = shapeKind(s.Style)
		for _, tag := range s.Tags.Tags() {
			f.Properties[tag.Key] = tag.Value
		}
		shapes = append(shapes, f)
	}

	pathLabels := make([]*geojson.Feature, 0, len(frame.PathLabels))
	for _, l := range frame.PathLabels {
		f := geojson.NewFeature(scaled(l.Path))
		f.Properties["text"] = l.Text
		f.Properties["size"] = l.Front.FontSize
		pathLabels = append(pathLabels, f)
	}

	symbols := make([]*geojson.Feature, 0, len(frame.Symbols))
	for _, s := range frame.Symbols {
		f := geojson.NewFeature(scaled(orb.Point{s.X + s.Width/2, s.Y + s.Height/2}))
		f.Properties["name"] = s.Name
		symbols = append(symbols, f)
	}

	layers := mvt.Layers{
		newLayer(LayerShapes, extent, shapes),
		newLayer(LayerPathLabels, extent, pathLabels),
		newLayer(LayerLabels, extent, textFeatures(frame.Labels, scaled)),
		newLayer(LayerAreaLabels, extent, textFeatures(frame.AreaLabels, scaled)),
		newLayer(LayerSymbols, extent, symbols),
	}
	data, err := mvt.MarshalGzipped(layers)
	if err != nil {
		return nil, fmt.Errorf("encode tile %v: %w", frame.Tile, err)
	}
	return data, nil
}

func newLayer(name string, extent uint32, features []*geojson.Feature) *mvt.Layer {
	return &mvt.Layer{Name: name, Version: 2, Extent: extent, Features: features}
}

// textFeatures encodes placed labels at the left end of their baseline.
func textFeatures(labels []label.PointText, scaled func(orb.Geometry) orb.Geometry) []*geojson.Feature {
	features := make([]*geojson.Feature, 0, len(labels))
	for _, l := range labels {
		f := geojson.NewFeature(scaled(orb.Point{l.X, l.Y}))
		f.Properties["text"] = l.Text
		f.Properties["width"] = l.Width
		f.Properties["height"] = l.Height
		f.Properties["size"] = l.Front.FontSize
		features = append(features, f)
	}
	return features
}

func shapeKind(s theme.Shape) string {
	switch s.(type) {
	case *theme.Area:
		return "area"
	case *theme.Line:
		return "line"
	case *theme.Circle:
		return "circle"
	}
	return "unknown"
}

func scaleGeometry(g orb.Geometry, scale float64) orb.Geometry {
	switch g := g.(type) {
	case orb.Point:
		return orb.Point{g[0] * scale, g[1] * scale}
	case orb.LineString:
		scalePoints(g, scale)
	case orb.MultiLineString:
		for _, l := range g {
			scalePoints(l, scale)
		}
	case orb.Polygon:
		for _, r := range g {
			scalePoints(r, scale)
		}
	}
	return g
}

func scalePoints(points []orb.Point, scale float64) {
	for i := range points {
		points[i] = orb.Point{points[i][0] * scale, points[i][1] * scale}
	}
}
