package label

import (
	"github.com/dhconnelly/rtreego"

	"github.com/eak1mov/go-mapsforge/internal/geom"
)

// rtreego rejects zero-length sides.
const minRectLength = 1e-6

type obstacle struct {
	rect geom.Rect
}

func (o *obstacle) Bounds() rtreego.Rect {
	return toRTree(o.rect)
}

func toRTree(r geom.Rect) rtreego.Rect {
	point := rtreego.Point{r.MinX, r.MinY}
	lengths := []float64{max(r.Width(), minRectLength), max(r.Height(), minRectLength)}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// obstacles is a spatial index of boxes that candidates must not overlap.
type obstacles struct {
	tree *rtreego.Rtree
}

func newObstacles() *obstacles {
	return &obstacles{tree: rtreego.NewTree(2, 25, 50)}
}

func (o *obstacles) add(r geom.Rect) {
	o.tree.Insert(&obstacle{rect: r})
}

// hit reports whether r overlaps any obstacle. The tree narrows the
// search, the strict box test decides.
func (o *obstacles) hit(r geom.Rect) bool {
	if o.tree.Size() == 0 {
		return false
	}
	for _, s := range o.tree.SearchIntersect(toRTree(r)) {
		if s.(*obstacle).rect.Intersects(r) {
			return true
		}
	}
	return false
}
