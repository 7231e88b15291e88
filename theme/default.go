package theme

import (
	"image/color"

	"github.com/eak1mov/go-mapsforge/label"
	"github.com/eak1mov/go-mapsforge/model"
)

var (
	black = color.NRGBA{A: 0xff}
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	water = color.NRGBA{R: 0xb5, G: 0xd0, B: 0xd0, A: 0xff}
	green = color.NRGBA{R: 0xc8, G: 0xfa, B: 0xcc, A: 0xff}
	grey  = color.NRGBA{R: 0xd9, G: 0xd0, B: 0xc9, A: 0xff}
	road  = color.NRGBA{R: 0xfc, G: 0xd6, B: 0xa4, A: 0xff}
	minor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	edge  = color.NRGBA{R: 0xa0, G: 0xa0, B: 0xa0, A: 0xff}
)

func paint(c color.NRGBA, size float64, bold bool) label.Paint {
	return label.Paint{Color: c, FontSize: size, Bold: bold}
}

func halo(size float64) label.Paint {
	return label.Paint{Color: white, StrokeWidth: 2, FontSize: size}
}

// Default returns a small built-in theme covering water, land use,
// buildings, roads, places and points of interest.
func Default(opts ...Option) *Theme {
	return New([]*Rule{
		{
			Element: WayElement, Closed: ClosedWay,
			Match: model.NewMatcher("natural", "water|bay"),
			Instructions: []Instruction{
				&Area{Fill: water},
				&AreaCaption{Key: model.KeyName, Front: paint(color.NRGBA{B: 0x80, A: 0xff}, 11, false), Back: halo(11)},
			},
		},
		{
			Element: WayElement, Closed: ClosedWay, ZoomMin: 10,
			Match: model.NewMatcher("landuse|leisure", "forest|grass|meadow|park|garden"),
			Instructions: []Instruction{
				&Area{Fill: green},
			},
			Children: []*Rule{{
				ZoomMin:      14,
				Match:        model.NewMatcher("leisure", "park"),
				Instructions: []Instruction{&AreaCaption{Key: model.KeyName, Front: paint(black, 10, false), Back: halo(10)}},
			}},
		},
		{
			Element: WayElement, Closed: ClosedWay, ZoomMin: 15,
			Match: model.NewMatcher("building", "*"),
			Instructions: []Instruction{
				&Area{Fill: grey, Stroke: edge, StrokeWidth: 0.5},
				&AreaCaption{Key: model.KeyHouseNumber, Front: paint(black, 9, false)},
			},
		},
		{
			Element: WayElement, Closed: OpenWay,
			Match: model.NewMatcher("waterway", "river|canal|stream"),
			Instructions: []Instruction{
				&Line{Stroke: water, Width: 2},
			},
		},
		{
			Element: WayElement,
			Match:   model.NewMatcher("highway", "motorway*|trunk*|primary*|secondary*"),
			Instructions: []Instruction{
				&Line{Stroke: edge, Width: 5},
				&Line{Stroke: road, Width: 4},
				&PathText{Key: model.KeyRef, Front: paint(black, 10, true), Back: halo(10)},
			},
		},
		{
			Element: WayElement, ZoomMin: 13,
			Match: model.NewMatcher("highway", "tertiary|residential|unclassified|service|living_street"),
			Instructions: []Instruction{
				&Line{Stroke: edge, Width: 3},
				&Line{Stroke: minor, Width: 2},
			},
			Children: []*Rule{{
				ZoomMin:      15,
				Instructions: []Instruction{&PathText{Key: model.KeyName, Front: paint(black, 9, false), Back: halo(9)}},
			}},
		},
		{
			Element: WayElement, ZoomMin: 14,
			Match: model.NewMatcher("highway", "footway|path|cycleway|track|steps"),
			Instructions: []Instruction{
				&Line{Stroke: edge, Width: 1, Dash: []float64{3, 2}},
			},
		},
		{
			Element: NodeElement,
			Match:   model.NewMatcher("place", "city|town"),
			Instructions: []Instruction{
				&Caption{Key: model.KeyName, Front: paint(black, 14, true), Back: halo(14)},
			},
		},
		{
			Element: NodeElement, ZoomMin: 12,
			Match: model.NewMatcher("place", "village|suburb|hamlet"),
			Instructions: []Instruction{
				&Caption{Key: model.KeyName, Front: paint(black, 11, false), Back: halo(11)},
			},
		},
		{
			Element: NodeElement, ZoomMin: 14,
			Match: model.NewMatcher("natural", "peak"),
			Instructions: []Instruction{
				&Symbol{Name: "peak", Width: 12, Height: 12},
				&Caption{Key: model.KeyName, Front: paint(black, 10, false), Back: halo(10), DY: 8},
				&Caption{Key: model.KeyElevation, Front: paint(edge, 9, false), Back: halo(9), DY: 18},
			},
		},
		{
			Element: NodeElement, ZoomMin: 16,
			Match: model.NewMatcher("amenity", "*"),
			Instructions: []Instruction{
				&Circle{Radius: 2, Fill: road},
			},
			Children: []*Rule{{
				Match: model.NewMatcher("amenity", "cafe|restaurant|pub|bar|pharmacy|school"),
				Instructions: []Instruction{
					&Symbol{Name: "amenity", Width: 14, Height: 14},
					&Caption{Key: model.KeyName, Front: paint(black, 9, false), Back: halo(9)},
				},
			}},
		},
		{
			Element: WayElement, Closed: ClosedWay, ZoomMin: 16,
			Match: model.NewMatcher("amenity", "parking"),
			Instructions: []Instruction{
				&AreaSymbol{Name: "parking", Width: 12, Height: 12},
			},
		},
	}, opts...)
}
