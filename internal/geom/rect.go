// Package geom holds the pixel geometry shared by label placement and
// rendering.
package geom

import "github.com/paulmach/orb"

// Rect is an axis-aligned box in tile pixels. Y grows downwards.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewRect returns the box spanned by two corners in any order.
func NewRect(x1, y1, x2, y2 float64) Rect {
	return Rect{
		MinX: min(x1, x2),
		MinY: min(y1, y2),
		MaxX: max(x1, x2),
		MaxY: max(y1, y2),
	}
}

// TextRect returns the box of a text whose baseline starts at (x, y).
func TextRect(x, y, width, height float64) Rect {
	return Rect{MinX: x, MinY: y - height, MaxX: x + width, MaxY: y}
}

// SymbolRect returns the box of a symbol whose top-left corner is (x, y).
func SymbolRect(x, y, width, height float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + width, MaxY: y + height}
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Intersects reports whether the interiors of r and o overlap. Boxes that
// only touch along an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX < o.MaxX && o.MinX < r.MaxX &&
		r.MinY < o.MaxY && o.MinY < r.MaxY
}

// Expand grows r by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{MinX: r.MinX - d, MinY: r.MinY - d, MaxX: r.MaxX + d, MaxY: r.MaxY + d}
}

func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{MinX: r.MinX + dx, MinY: r.MinY + dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

// Inside reports whether r lies within [0,size] x [0,size], edges included.
func (r Rect) Inside(size float64) bool {
	return r.MinX >= 0 && r.MinY >= 0 && r.MaxX <= size && r.MaxY <= size
}

// Outside reports whether r lies entirely beyond one edge of the square
// [0,size] x [0,size].
func (r Rect) Outside(size float64) bool {
	return r.MinX > size || r.MinY > size || r.MaxX < 0 || r.MaxY < 0
}

// Bound converts r to an orb bound with Y as the second coordinate.
func (r Rect) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{r.MinX, r.MinY}, Max: orb.Point{r.MaxX, r.MaxY}}
}

// CenterOfBoundingBox returns the centre of the bounding box of points.
func CenterOfBoundingBox(points []orb.Point) orb.Point {
	if len(points) == 0 {
		return orb.Point{}
	}
	return orb.MultiPoint(points).Bound().Center()
}
