package label

import (
	"log/slog"

	"github.com/eak1mov/go-mapsforge/tile"
)

type config struct {
	Strategy           Strategy
	DependencyCapacity int
	Logger             *slog.Logger
}

type Option func(*config)

func WithStrategy(s Strategy) Option {
	return func(c *config) { c.Strategy = s }
}

// WithDependencyCapacity bounds the number of settled tiles remembered by
// the dependency cache. A capacity below one keeps the default.
func WithDependencyCapacity(capacity int) Option {
	return func(c *config) {
		if capacity > 0 {
			c.DependencyCapacity = capacity
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

// Placement removes overlaps between the labels and symbols of a tile.
//
// A Placement keeps state across tiles so that labels crossing a tile edge
// are drawn consistently on both sides. Tiles must be placed one at a time;
// Placement is not safe for concurrent use.
type Placement struct {
	strategy Strategy
	deps     *DependencyCache
	logger   *slog.Logger
}

func NewPlacement(opts ...Option) *Placement {
	config := config{
		Strategy:           FourPoint,
		DependencyCapacity: DefaultDependencyCapacity,
		Logger:             slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Placement{
		strategy: config.Strategy,
		deps:     NewDependencyCache(config.DependencyCapacity, config.Logger),
		logger:   config.Logger,
	}
}

func (p *Placement) Strategy() Strategy {
	return p.strategy
}

// Dependencies returns the cross-tile state of the placement.
func (p *Placement) Dependencies() *DependencyCache {
	return p.deps
}

// Reset forgets all tiles placed so far.
func (p *Placement) Reset() {
	p.deps.Reset()
}

// PlaceLabels returns the labels, symbols and area labels of tile t that
// can be drawn without overlaps. Labels and area labels are given by their
// anchor; the result holds their final baseline position. The inputs are
// not modified.
func (p *Placement) PlaceLabels(labels []PointText, symbols []*Symbol, areaLabels []PointText, t tile.Tile) Result {
	state := p.deps.generateTileAndDependencyOnTile(t)

	areaLabels = p.preprocessAreaLabels(state, areaLabels)
	labels = preprocessLabels(state, labels)
	symbols = preprocessSymbols(state, symbols)
	labels = removeEmptySymbolReferences(labels, symbols)
	symbols = removeOverlappingSymbolsWithAreaLabels(symbols, areaLabels)
	labels, areaLabels, symbols = state.removeOverlappingObjectsWithDependencyOnTile(labels, areaLabels, symbols)
	labels = removeEmptySymbolReferences(labels, symbols)

	if len(labels) > 0 {
		labels = p.greedy(state, labels, symbols, areaLabels)
	}

	result := state.fillDependencyOnTile(labels, symbols, areaLabels)
	p.logger.Debug("mapsforge: placed",
		"tile", t.String(),
		"labels", len(labels),
		"symbols", len(symbols),
		"area_labels", len(areaLabels),
		"carried", len(result.Labels)+len(result.Symbols)-len(labels)-len(symbols))
	return result
}

// preprocessAreaLabels centres area labels on their anchor and drops those
// outside the tile, those overlapping an earlier one and those reaching
// into a drawn neighbour.
func (p *Placement) preprocessAreaLabels(state *tileState, areaLabels []PointText) []PointText {
	centered := make([]PointText, 0, len(areaLabels))
	for _, l := range areaLabels {
		l.X -= l.Width / 2
		if !l.Rect().Outside(state.size) {
			centered = append(centered, l)
		}
	}

	var kept []PointText
	for _, l := range centered {
		r := l.Rect()
		overlaps := false
		for i := range kept {
			if kept[i].Rect().Expand(labelDistanceToLabel).Intersects(r) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, l)
		}
	}

	if len(kept) > 0 {
		kept = state.removeAreaLabelsInAlreadyDrawnAreas(kept)
	}
	return kept
}

// preprocessLabels drops labels whose centred box lies outside the tile.
func preprocessLabels(state *tileState, labels []PointText) []PointText {
	return filter(labels, func(l *PointText) bool {
		return !l.centeredRect().Outside(state.size)
	})
}

// preprocessSymbols drops symbols outside the tile, those overlapping an
// earlier one and those reaching into a drawn neighbour.
func preprocessSymbols(state *tileState, symbols []*Symbol) []*Symbol {
	var kept []*Symbol
	for _, s := range symbols {
		r := s.Rect()
		if r.Outside(state.size) {
			continue
		}
		overlaps := false
		for _, k := range kept {
			if k.Rect().Expand(symbolDistanceToSymbol).Intersects(r) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, s)
		}
	}
	return state.removeSymbolsFromDrawnAreas(kept)
}

// removeEmptySymbolReferences unlinks labels from symbols that were dropped.
func removeEmptySymbolReferences(labels []PointText, symbols []*Symbol) []PointText {
	live := make(map[*Symbol]bool, len(symbols))
	for _, s := range symbols {
		live[s] = true
	}
	out := make([]PointText, len(labels))
	for i, l := range labels {
		if l.Symbol != nil && !live[l.Symbol] {
			l.Symbol = nil
		}
		out[i] = l
	}
	return out
}

// removeOverlappingSymbolsWithAreaLabels drops symbols too close to an area
// label.
func removeOverlappingSymbolsWithAreaLabels(symbols []*Symbol, areaLabels []PointText) []*Symbol {
	return filter(symbols, func(s **Symbol) bool {
		r := (*s).Rect()
		for i := range areaLabels {
			if areaLabels[i].Rect().Expand(labelDistanceToSymbol).Intersects(r) {
				return false
			}
		}
		return true
	})
}
