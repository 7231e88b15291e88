// Package label places point labels, area labels and symbols on a tile
// without overlaps, carrying labels that cross a tile edge over to the
// neighbouring tiles.
package label

import (
	"fmt"
	"image/color"

	"github.com/eak1mov/go-mapsforge/internal/geom"
)

const (
	labelDistanceToLabel    = 2
	labelDistanceToSymbol   = 2
	symbolDistanceToSymbol  = 2
	startDistanceToSymbols  = 4
	dependencyLabelDistance = 2
)

// Paint is the text style of a label. Paints are compared by value.
type Paint struct {
	Color       color.NRGBA
	StrokeWidth float64
	FontSize    float64
	Bold        bool
	Italic      bool
}

// Symbol is an icon drawn with its top-left corner at (X, Y) in tile pixels.
type Symbol struct {
	Name          string
	X, Y          float64
	Width, Height float64
}

func (s *Symbol) Rect() geom.Rect {
	return geom.SymbolRect(s.X, s.Y, s.Width, s.Height)
}

// PointText is a text label. Before placement (X, Y) is the anchor: the
// horizontal centre of the text and its baseline. After placement (X, Y)
// is the left end of the baseline.
type PointText struct {
	Text          string
	X, Y          float64
	Width, Height float64

	// Front is the fill paint, Back the optional halo behind it.
	Front Paint
	Back  Paint

	// Symbol is the icon the label belongs to, if any.
	Symbol *Symbol
}

// Rect returns the box of a placed label.
func (l *PointText) Rect() geom.Rect {
	return geom.TextRect(l.X, l.Y, l.Width, l.Height)
}

func (l *PointText) centeredRect() geom.Rect {
	return geom.TextRect(l.X-l.Width/2, l.Y, l.Width, l.Height)
}

func (l *PointText) sameText(o *PointText) bool {
	return l.Text == o.Text && l.Front == o.Front && l.Back == o.Back
}

func (l PointText) String() string {
	return fmt.Sprintf("%q@%.1f,%.1f", l.Text, l.X, l.Y)
}

// Result holds the collections that are drawn for a tile. No two boxes of
// the three collections overlap.
type Result struct {
	Labels     []PointText
	Symbols    []*Symbol
	AreaLabels []PointText
}

// Strategy selects the candidate positions tried for point labels.
type Strategy int

const (
	// FourPoint tries above, below, left and right of the symbol.
	FourPoint Strategy = iota
	// TwoPoint tries above and below the symbol.
	TwoPoint
)

func (s Strategy) String() string {
	switch s {
	case FourPoint:
		return "four"
	case TwoPoint:
		return "two"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts the names returned by Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "four", "":
		return FourPoint, nil
	case "two":
		return TwoPoint, nil
	}
	return 0, fmt.Errorf("unknown placement strategy %q", s)
}
