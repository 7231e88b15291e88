package theme

import (
	"image/color"

	"github.com/eak1mov/go-mapsforge/label"
)

// Instruction is one drawing step produced by a matching rule.
type Instruction interface {
	instruction()
}

// Shape instructions are drawn in level order; New assigns each one a
// distinct level in rule order.
type Shape interface {
	Instruction
	Level() int
	setLevel(int)
}

type level struct{ level int }

func (l *level) Level() int       { return l.level }
func (l *level) setLevel(lvl int) { l.level = lvl }

// Area fills and outlines a closed way.
type Area struct {
	level
	Fill        color.NRGBA
	Stroke      color.NRGBA
	StrokeWidth float64
}

// Line strokes a way.
type Line struct {
	level
	Stroke color.NRGBA
	Width  float64
	Dash   []float64
}

// Circle draws a disc around a node.
type Circle struct {
	level
	Radius      float64
	Fill        color.NRGBA
	Stroke      color.NRGBA
	StrokeWidth float64
}

// Caption labels a node with the value of Key.
type Caption struct {
	Key   string
	Front label.Paint
	Back  label.Paint
	// DY moves the anchor down, in pixels.
	DY float64
}

// PathText writes the value of Key along a way.
type PathText struct {
	Key   string
	Front label.Paint
	Back  label.Paint
}

// Symbol draws an icon centred on a node.
type Symbol struct {
	Name          string
	Width, Height float64
}

// AreaCaption labels a way at the centre of its outer ring.
type AreaCaption struct {
	Key   string
	Front label.Paint
	Back  label.Paint
}

// AreaSymbol draws an icon at the centre of the outer ring of a way.
type AreaSymbol struct {
	Name          string
	Width, Height float64
}

func (*Area) instruction()        {}
func (*Line) instruction()        {}
func (*Circle) instruction()      {}
func (*Caption) instruction()     {}
func (*PathText) instruction()    {}
func (*Symbol) instruction()      {}
func (*AreaCaption) instruction() {}
func (*AreaSymbol) instruction()  {}
