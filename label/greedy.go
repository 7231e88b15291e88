package label

import (
	"github.com/eak1mov/go-mapsforge/internal/geom"
	"github.com/eak1mov/go-mapsforge/internal/pqueue"
)

// candidate is a possible baseline position for a label.
type candidate struct {
	label int
	x, y  float64
	rect  geom.Rect
}

func newCandidate(label int, l *PointText, x, y float64) candidate {
	return candidate{label: label, x: x, y: y, rect: geom.TextRect(x, y, l.Width, l.Height)}
}

// fourPointCandidates places the label above, below, left or right of its
// symbol, or centred on its anchor when it has none.
func fourPointCandidates(i int, l *PointText) []candidate {
	w, h := l.Width, l.Height
	if l.Symbol == nil {
		return []candidate{newCandidate(i, l, l.X-w/2, l.Y)}
	}
	sw, sh := l.Symbol.Width, l.Symbol.Height
	const d = startDistanceToSymbols
	return []candidate{
		newCandidate(i, l, l.X-w/2, l.Y-sh/2-d),
		newCandidate(i, l, l.X-w/2, l.Y+sh/2+h+d),
		newCandidate(i, l, l.X-sw/2-w-d, l.Y+h/2),
		newCandidate(i, l, l.X+sw/2+d, l.Y+h/2-0.1),
	}
}

// twoPointCandidates places the label above or below its symbol.
func twoPointCandidates(i int, l *PointText) []candidate {
	w, h := l.Width, l.Height
	if l.Symbol == nil {
		return []candidate{newCandidate(i, l, l.X-w/2-0.1, l.Y)}
	}
	const d = startDistanceToSymbols
	return []candidate{
		newCandidate(i, l, l.X-w/2-0.1, l.Y-h-d),
		newCandidate(i, l, l.X-w/2, l.Y+l.Symbol.Height+d),
	}
}

// sweepAxis orders candidates for the greedy sweep. The candidate with the
// smallest commit key is placed first; candidates are then visited by their
// sweep key while it is below the far edge of the committed box.
type sweepAxis struct {
	commitKey func(r geom.Rect) float64
	sweepKey  func(r geom.Rect) float64
	farEdge   func(r geom.Rect) float64
}

var (
	verticalSweep = sweepAxis{
		commitKey: func(r geom.Rect) float64 { return r.MaxY },
		sweepKey:  func(r geom.Rect) float64 { return r.MinY },
		farEdge:   func(r geom.Rect) float64 { return r.MaxY },
	}
	horizontalSweep = sweepAxis{
		commitKey: func(r geom.Rect) float64 { return r.MaxX },
		sweepKey:  func(r geom.Rect) float64 { return r.MinX },
		farEdge:   func(r geom.Rect) float64 { return r.MaxX },
	}
)

func lessFloat(a, b float64) bool { return a < b }

// greedy picks one candidate per label so that no two placed labels
// overlap. Labels without a valid candidate are dropped.
func (p *Placement) greedy(state *tileState, labels []PointText, symbols []*Symbol, areaLabels []PointText) []PointText {
	generate, axis := fourPointCandidates, verticalSweep
	if p.strategy == TwoPoint {
		generate, axis = twoPointCandidates, horizontalSweep
	}

	var candidates []candidate
	for i := range labels {
		candidates = append(candidates, generate(i, &labels[i])...)
	}
	valid := removeNonValidateReferencePosition(state, candidates, symbols, areaLabels)

	siblings := make([][]int, len(labels))
	commit := pqueue.New(lessFloat)
	sweep := pqueue.New(lessFloat)
	for id, c := range candidates {
		if !valid[id] {
			continue
		}
		siblings[c.label] = append(siblings[c.label], id)
		commit.Push(id, axis.commitKey(c.rect))
		sweep.Push(id, axis.sweepKey(c.rect))
	}

	var placed []PointText
	for commit.Len() > 0 {
		id, _, _ := commit.Pop()
		c := candidates[id]

		l := labels[c.label]
		l.X, l.Y = c.x, c.y
		placed = append(placed, l)

		for _, sibling := range siblings[c.label] {
			commit.Remove(sibling)
			sweep.Remove(sibling)
		}

		far := axis.farEdge(c.rect)
		var survivors []int
		for {
			other, key, ok := sweep.Peek()
			if !ok || key >= far {
				break
			}
			sweep.Pop()
			if candidates[other].rect.Intersects(c.rect) {
				commit.Remove(other)
			} else {
				survivors = append(survivors, other)
			}
		}
		for _, other := range survivors {
			sweep.Push(other, axis.sweepKey(candidates[other].rect))
		}
	}
	return placed
}

// removeNonValidateReferencePosition reports which candidates keep clear of
// symbols, area labels and drawn neighbours, and of the boxes committed
// into this tile or its undrawn neighbours.
func removeNonValidateReferencePosition(state *tileState, candidates []candidate, symbols []*Symbol, areaLabels []PointText) []bool {
	o := newObstacles()
	for _, s := range symbols {
		o.add(s.Rect().Expand(labelDistanceToSymbol))
	}
	for i := range areaLabels {
		o.add(areaLabels[i].Rect().Expand(labelDistanceToLabel))
	}
	state.addDependencyObstacles(o)

	valid := make([]bool, len(candidates))
	for i, c := range candidates {
		valid[i] = !state.crossesDrawn(c.rect, true) && !o.hit(c.rect)
	}
	return valid
}
