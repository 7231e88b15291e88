package render

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/eak1mov/go-mapsforge/label"
)

// TextMeasurer returns the size of a text drawn with a paint.
type TextMeasurer interface {
	Measure(text string, p label.Paint) (width, height float64)
}

// FontMeasurer measures text with a fixed bitmap face scaled to the font
// size of the paint.
type FontMeasurer struct {
	face font.Face
}

func NewFontMeasurer() FontMeasurer {
	return FontMeasurer{face: basicfont.Face7x13}
}

func (m FontMeasurer) Measure(text string, p label.Paint) (width, height float64) {
	metrics := m.face.Metrics()
	base := float64(metrics.Height) / 64
	scale := 1.0
	if p.FontSize > 0 {
		scale = p.FontSize / base
	}
	width = float64(font.MeasureString(m.face, text)) / 64 * scale
	height = base * scale
	if p.Bold {
		width += float64(len([]rune(text))) * scale / 2
	}
	return width + p.StrokeWidth, height + p.StrokeWidth
}
