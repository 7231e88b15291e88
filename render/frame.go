package render

import (
	"cmp"
	"slices"

	"github.com/paulmach/orb"

	"github.com/eak1mov/go-mapsforge/label"
	"github.com/eak1mov/go-mapsforge/model"
	"github.com/eak1mov/go-mapsforge/theme"
	"github.com/eak1mov/go-mapsforge/tile"
)

// Layers is the number of drawing layers; element layers are clamped to
// [0, Layers-1].
const Layers = 11

// Shape is a geometry styled by an area, line or circle instruction.
// Coordinates are tile pixels.
type Shape struct {
	Layer    int
	Level    int
	Style    theme.Shape
	Geometry orb.Geometry
	Tags     model.TagList
}

// PathLabel is a text written along a way.
type PathLabel struct {
	Text  string
	Front label.Paint
	Back  label.Paint
	Path  orb.LineString
}

// Frame is everything drawn on one tile, in draw order.
type Frame struct {
	Tile       tile.Tile
	Water      bool
	Shapes     []Shape
	PathLabels []PathLabel
	Labels     []label.PointText
	AreaLabels []label.PointText
	Symbols    []*label.Symbol
}

// Empty reports whether nothing is drawn on the frame.
func (f *Frame) Empty() bool {
	return len(f.Shapes) == 0 && len(f.PathLabels) == 0 &&
		len(f.Labels) == 0 && len(f.AreaLabels) == 0 && len(f.Symbols) == 0
}

func (f *Frame) sortShapes() {
	slices.SortStableFunc(f.Shapes, func(a, b Shape) int {
		return cmp.Or(cmp.Compare(a.Layer, b.Layer), cmp.Compare(a.Level, b.Level))
	})
}

func clampLayer(layer int8) int {
	return min(max(int(layer), 0), Layers-1)
}
