package label

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru"

	"github.com/eak1mov/go-mapsforge/internal/geom"
	"github.com/eak1mov/go-mapsforge/tile"
)

// DefaultDependencyCapacity is the number of settled tiles remembered as
// drawn.
const DefaultDependencyCapacity = 4096

type labelDependency struct {
	label  PointText
	origin tile.Key
}

type symbolDependency struct {
	symbol Symbol
	origin tile.Key
}

// dependencyOnTile holds what other tiles committed into one tile. Coordinates
// are in the pixel frame of that tile.
type dependencyOnTile struct {
	drawn   bool
	labels  []labelDependency
	symbols []symbolDependency
}

func (d *dependencyOnTile) empty() bool {
	return len(d.labels) == 0 && len(d.symbols) == 0
}

func (d *dependencyOnTile) hitsLabel(r geom.Rect, margin float64) bool {
	for i := range d.labels {
		if d.labels[i].label.Rect().Expand(margin).Intersects(r) {
			return true
		}
	}
	return false
}

func (d *dependencyOnTile) hitsSymbol(r geom.Rect, margin float64) bool {
	for i := range d.symbols {
		if d.symbols[i].symbol.Rect().Expand(margin).Intersects(r) {
			return true
		}
	}
	return false
}

// DependencyCache records labels and symbols that cross tile edges so the
// neighbouring tiles draw them too and keep clear of them.
//
// Tiles that still carry dependencies or are not drawn yet are kept until
// Reset. Drawn tiles without dependencies only need their drawn flag; they
// are remembered in an LRU of bounded size.
//
// DependencyCache is not safe for concurrent use.
type DependencyCache struct {
	pending map[tile.Key]*dependencyOnTile
	settled *lru.Cache
	logger  *slog.Logger
}

// NewDependencyCache returns an empty cache remembering up to capacity
// settled tiles. It panics if capacity is not positive.
func NewDependencyCache(capacity int, logger *slog.Logger) *DependencyCache {
	c := &DependencyCache{
		pending: make(map[tile.Key]*dependencyOnTile),
		logger:  logger,
	}
	settled, err := lru.NewWithEvict(capacity, func(key, _ any) {
		c.logger.Debug("mapsforge: forgetting drawn tile", "tile", key)
	})
	if err != nil {
		panic(err)
	}
	c.settled = settled
	return c
}

// Len returns the number of tiles the cache knows about.
func (c *DependencyCache) Len() int {
	return len(c.pending) + c.settled.Len()
}

// Drawn reports whether placement already ran for the tile.
func (c *DependencyCache) Drawn(key tile.Key) bool {
	if d, ok := c.pending[key]; ok {
		return d.drawn
	}
	return c.settled.Contains(key)
}

// Reset forgets every tile.
func (c *DependencyCache) Reset() {
	c.pending = make(map[tile.Key]*dependencyOnTile)
	c.settled.Purge()
}

// entry returns the pending entry of key, creating it when missing.
func (c *DependencyCache) entry(key tile.Key) *dependencyOnTile {
	if d, ok := c.pending[key]; ok {
		return d
	}
	d := &dependencyOnTile{drawn: c.settled.Contains(key)}
	c.settled.Remove(key)
	c.pending[key] = d
	return d
}

func (c *DependencyCache) settle(key tile.Key) {
	d, ok := c.pending[key]
	if !ok || !d.drawn || !d.empty() {
		return
	}
	delete(c.pending, key)
	c.settled.Add(key, struct{}{})
}

// tileState is the view of the cache while one tile is placed.
type tileState struct {
	cache *DependencyCache
	tile  tile.Tile
	key   tile.Key
	size  float64
	entry *dependencyOnTile

	// nearby holds the boxes other tiles committed into the undrawn
	// neighbours, moved into the frame of this tile.
	nearby dependencyOnTile

	up, down, left, right bool
}

// generateTileAndDependencyOnTile makes t the current tile.
func (c *DependencyCache) generateTileAndDependencyOnTile(t tile.Tile) *tileState {
	key := t.Key()
	s := &tileState{
		cache: c,
		tile:  t,
		key:   key,
		size:  float64(t.Size),
		entry: c.entry(key),
		up:    c.Drawn(t.Neighbour(0, -1).Key()),
		down:  c.Drawn(t.Neighbour(0, 1).Key()),
		left:  c.Drawn(t.Neighbour(-1, 0).Key()),
		right: c.Drawn(t.Neighbour(1, 0).Key()),
	}
	s.collectNearby()
	return s
}

// collectNearby gathers what other tiles committed into the undrawn
// neighbours. Boxes this tile carries into a neighbour must keep clear of
// them.
func (s *tileState) collectNearby() {
	for _, n := range neighbours {
		d, ok := s.cache.pending[s.tile.Neighbour(n[0], n[1]).Key()]
		if !ok || d.drawn {
			continue
		}
		dx, dy := float64(n[0])*s.size, float64(n[1])*s.size
		for _, dep := range d.labels {
			if dep.origin == s.key {
				continue
			}
			dep.label.X += dx
			dep.label.Y += dy
			s.nearby.labels = append(s.nearby.labels, dep)
		}
		for _, dep := range d.symbols {
			if dep.origin == s.key {
				continue
			}
			dep.symbol.X += dx
			dep.symbol.Y += dy
			s.nearby.symbols = append(s.nearby.symbols, dep)
		}
	}
}

// crossesDrawn reports whether a box reaches into an already drawn
// neighbour. A box ending exactly on the lower edge counts as crossing.
func (s *tileState) crossesDrawn(r geom.Rect, lowerInclusive bool) bool {
	down := r.MaxY > s.size
	if lowerInclusive {
		down = r.MaxY >= s.size
	}
	return (s.up && r.MinY < 0) ||
		(s.down && down) ||
		(s.left && r.MinX < 0) ||
		(s.right && r.MaxX > s.size)
}

// removeAreaLabelsInAlreadyDrawnAreas drops area labels reaching into a
// drawn neighbour.
func (s *tileState) removeAreaLabelsInAlreadyDrawnAreas(areaLabels []PointText) []PointText {
	return filter(areaLabels, func(l *PointText) bool {
		return !s.crossesDrawn(l.Rect(), false)
	})
}

// removeSymbolsFromDrawnAreas drops symbols reaching into a drawn neighbour.
func (s *tileState) removeSymbolsFromDrawnAreas(symbols []*Symbol) []*Symbol {
	return filter(symbols, func(sym **Symbol) bool {
		return !s.crossesDrawn((*sym).Rect(), false)
	})
}

// removeOverlappingObjectsWithDependencyOnTile drops everything clashing
// with what the neighbours already committed into this tile or into the
// undrawn neighbours: labels with the same text and paints, and any box
// too close to a committed one.
func (s *tileState) removeOverlappingObjectsWithDependencyOnTile(labels, areaLabels []PointText, symbols []*Symbol) ([]PointText, []PointText, []*Symbol) {
	if len(s.entry.labels) > 0 {
		labels = filter(labels, func(l *PointText) bool {
			for i := range s.entry.labels {
				if l.sameText(&s.entry.labels[i].label) {
					return false
				}
			}
			return true
		})
	}
	if s.entry.empty() && s.nearby.empty() {
		return labels, areaLabels, symbols
	}
	symbols = filter(symbols, func(sym **Symbol) bool {
		r := (*sym).Rect()
		return !s.hitsDependencyLabel(r, labelDistanceToSymbol) &&
			!s.hitsDependencySymbol(r, symbolDistanceToSymbol)
	})
	areaLabels = filter(areaLabels, func(l *PointText) bool {
		r := l.Rect()
		return !s.hitsDependencyLabel(r, labelDistanceToLabel) &&
			!s.hitsDependencySymbol(r, labelDistanceToSymbol)
	})
	return labels, areaLabels, symbols
}

func (s *tileState) hitsDependencyLabel(r geom.Rect, margin float64) bool {
	return s.entry.hitsLabel(r, margin) || s.nearby.hitsLabel(r, margin)
}

func (s *tileState) hitsDependencySymbol(r geom.Rect, margin float64) bool {
	return s.entry.hitsSymbol(r, margin) || s.nearby.hitsSymbol(r, margin)
}

// addDependencyObstacles adds the committed boxes that candidates must avoid.
func (s *tileState) addDependencyObstacles(o *obstacles) {
	for _, d := range []*dependencyOnTile{s.entry, &s.nearby} {
		for i := range d.labels {
			o.add(d.labels[i].label.Rect().Expand(dependencyLabelDistance))
		}
		for i := range d.symbols {
			o.add(d.symbols[i].symbol.Rect().Expand(labelDistanceToSymbol))
		}
	}
}

// neighbours lists the offsets of the eight surrounding tiles.
var neighbours = [8][2]int64{
	{0, -1}, {0, 1}, {-1, 0}, {1, 0},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// overflow returns the offsets of the neighbours that r reaches into.
func (s *tileState) overflow(r geom.Rect) [][2]int64 {
	var out [][2]int64
	for _, n := range neighbours {
		if n[0] < 0 && !(r.MinX < 0) || n[0] > 0 && !(r.MaxX > s.size) {
			continue
		}
		if n[1] < 0 && !(r.MinY < 0) || n[1] > 0 && !(r.MaxY > s.size) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// fillDependencyOnTile marks the tile drawn, mirrors everything crossing an
// edge into the neighbours that are not drawn yet and returns the final
// collections, including what the neighbours committed into this tile.
func (s *tileState) fillDependencyOnTile(labels []PointText, symbols []*Symbol, areaLabels []PointText) Result {
	s.entry.drawn = true

	for _, list := range [][]PointText{labels, areaLabels} {
		for _, l := range list {
			r := l.Rect()
			if l.Symbol != nil {
				r = union(r, l.Symbol.Rect())
			}
			s.mirrorLabel(l, r)
		}
	}
	for _, sym := range symbols {
		s.mirrorSymbol(*sym)
	}

	result := Result{Labels: labels, Symbols: symbols, AreaLabels: areaLabels}
	for _, dep := range s.entry.labels {
		if !containsLabel(result.Labels, dep.label) && !containsLabel(result.AreaLabels, dep.label) {
			result.Labels = append(result.Labels, dep.label)
		}
	}
	for _, dep := range s.entry.symbols {
		if !containsSymbol(result.Symbols, dep.symbol) {
			sym := dep.symbol
			result.Symbols = append(result.Symbols, &sym)
		}
	}

	s.cache.settle(s.key)
	return result
}

func (s *tileState) mirrorLabel(l PointText, r geom.Rect) {
	recorded := false
	for _, n := range s.overflow(r) {
		neighbour := s.tile.Neighbour(n[0], n[1]).Key()
		if s.cache.Drawn(neighbour) {
			continue
		}
		mirrored := l
		mirrored.Symbol = nil
		mirrored.X -= float64(n[0]) * s.size
		mirrored.Y -= float64(n[1]) * s.size
		box := mirrored.Rect()
		if d, ok := s.cache.pending[neighbour]; ok && (d.hitsLabel(box, 0) || d.hitsSymbol(box, labelDistanceToSymbol)) {
			s.cache.logger.Debug("mapsforge: dependency clash", "tile", s.tile.String(), "label", mirrored.String())
			continue
		}
		if !recorded {
			s.entry.labels = append(s.entry.labels, labelDependency{label: l, origin: s.key})
			recorded = true
		}
		d := s.cache.entry(neighbour)
		d.labels = append(d.labels, labelDependency{label: mirrored, origin: s.key})
	}
}

func (s *tileState) mirrorSymbol(sym Symbol) {
	recorded := false
	for _, n := range s.overflow(sym.Rect()) {
		neighbour := s.tile.Neighbour(n[0], n[1]).Key()
		if s.cache.Drawn(neighbour) {
			continue
		}
		mirrored := sym
		mirrored.X -= float64(n[0]) * s.size
		mirrored.Y -= float64(n[1]) * s.size
		box := mirrored.Rect()
		if d, ok := s.cache.pending[neighbour]; ok && (d.hitsLabel(box, labelDistanceToSymbol) || d.hitsSymbol(box, symbolDistanceToSymbol)) {
			s.cache.logger.Debug("mapsforge: dependency clash", "tile", s.tile.String(), "symbol", mirrored.Name)
			continue
		}
		if !recorded {
			s.entry.symbols = append(s.entry.symbols, symbolDependency{symbol: sym, origin: s.key})
			recorded = true
		}
		d := s.cache.entry(neighbour)
		d.symbols = append(d.symbols, symbolDependency{symbol: mirrored, origin: s.key})
	}
}

func union(a, b geom.Rect) geom.Rect {
	return geom.Rect{
		MinX: min(a.MinX, b.MinX),
		MinY: min(a.MinY, b.MinY),
		MaxX: max(a.MaxX, b.MaxX),
		MaxY: max(a.MaxY, b.MaxY),
	}
}

func containsLabel(labels []PointText, l PointText) bool {
	for i := range labels {
		if labels[i].sameText(&l) && labels[i].X == l.X && labels[i].Y == l.Y {
			return true
		}
	}
	return false
}

func containsSymbol(symbols []*Symbol, s Symbol) bool {
	for _, sym := range symbols {
		if sym.Name == s.Name && sym.X == s.X && sym.Y == s.Y {
			return true
		}
	}
	return false
}

// filter returns the elements of s for which keep is true in a new slice.
func filter[T any](s []T, keep func(*T) bool) []T {
	var out []T
	for i := range s {
		if keep(&s[i]) {
			out = append(out, s[i])
		}
	}
	return out
}
