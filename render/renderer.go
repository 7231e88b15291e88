// Package render turns map data of a tile into a styled frame with placed
// labels.
package render

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/eak1mov/go-mapsforge/geo"
	"github.com/eak1mov/go-mapsforge/internal/geom"
	"github.com/eak1mov/go-mapsforge/label"
	"github.com/eak1mov/go-mapsforge/mapfile"
	"github.com/eak1mov/go-mapsforge/model"
	"github.com/eak1mov/go-mapsforge/projection"
	"github.com/eak1mov/go-mapsforge/theme"
	"github.com/eak1mov/go-mapsforge/tile"
)

var ErrInvalidTile = errors.New("invalid tile")

var waterTags = model.NewTagList(model.Tag{Key: "natural", Value: "water"})

type config struct {
	Theme     *theme.Theme
	Placement *label.Placement
	Measurer  TextMeasurer
	Logger    *slog.Logger
	TileCache *TileCache
}

type Option func(*config)

func WithTheme(t *theme.Theme) Option {
	return func(c *config) { c.Theme = t }
}

// WithPlacement sets the label placement. Tiles of one renderer share its
// dependency state.
func WithPlacement(p *label.Placement) Option {
	return func(c *config) { c.Placement = p }
}

func WithTextMeasurer(m TextMeasurer) Option {
	return func(c *config) { c.Measurer = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

// WithTileCache makes Render serve and store encoded tiles through cache.
func WithTileCache(cache *TileCache) Option {
	return func(c *config) { c.TileCache = cache }
}

// Renderer styles the tiles of one map file.
//
// A Renderer is not safe for concurrent use; use one per goroutine.
type Renderer struct {
	db        mapfile.Database
	theme     *theme.Theme
	placement *label.Placement
	measurer  TextMeasurer
	logger    *slog.Logger
	tileCache *TileCache
}

func NewRenderer(db mapfile.Database, opts ...Option) *Renderer {
	config := config{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Theme == nil {
		config.Theme = theme.Default(theme.WithLogger(config.Logger))
	}
	if config.Placement == nil {
		config.Placement = label.NewPlacement(label.WithLogger(config.Logger))
	}
	if config.Measurer == nil {
		config.Measurer = NewFontMeasurer()
	}
	return &Renderer{
		db:        db,
		theme:     config.Theme,
		placement: config.Placement,
		measurer:  config.Measurer,
		logger:    config.Logger,
		tileCache: config.TileCache,
	}
}

// frameBuilder collects the elements of one tile before placement.
type frameBuilder struct {
	frame      *Frame
	projection projection.Mercator
	origin     tile.MapPoint

	labels     []label.PointText
	symbols    []*label.Symbol
	areaLabels []label.PointText
}

func (b *frameBuilder) pixel(p geo.GeoPoint) orb.Point {
	mp := b.projection.GeoPointToMapPoint(p, b.origin.Zoom)
	return orb.Point{mp.X - b.origin.X, mp.Y - b.origin.Y}
}

func (b *frameBuilder) shape(layer int, s theme.Shape, g orb.Geometry, tags model.TagList) {
	b.frame.Shapes = append(b.frame.Shapes, Shape{Layer: layer, Level: s.Level(), Style: s, Geometry: g, Tags: tags})
}

// RenderTile reads the tile from the map file, styles it and places its
// labels. A failed query is logged and rendered as an empty frame.
func (r *Renderer) RenderTile(t tile.Tile) (*Frame, error) {
	if !t.Valid() || t.Size <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTile, t)
	}

	b := &frameBuilder{
		frame:      &Frame{Tile: t},
		projection: projection.NewMercator(t.Size),
		origin:     t.MapPoint1(),
	}

	result, err := r.db.ReadMapData(t)
	if err != nil {
		r.logger.Warn("mapsforge: tile query failed", "tile", t.String(), "error", err)
		result = &mapfile.ReadResult{}
	}

	if result.IsWater {
		b.frame.Water = true
		r.renderWay(b, r.waterWay(t))
	}
	for _, node := range result.Nodes {
		r.renderNode(b, node)
	}
	for _, way := range result.Ways {
		r.renderWay(b, way)
	}

	placed := r.placement.PlaceLabels(b.labels, b.symbols, b.areaLabels, t)
	b.frame.Labels = placed.Labels
	b.frame.Symbols = placed.Symbols
	b.frame.AreaLabels = placed.AreaLabels
	b.frame.sortShapes()

	r.logger.Debug("mapsforge: tile rendered",
		"tile", t.String(),
		"nodes", len(result.Nodes),
		"ways", len(result.Ways),
		"shapes", len(b.frame.Shapes))
	return b.frame, nil
}

// waterWay covers the whole tile with a closed water square.
func (r *Renderer) waterWay(t tile.Tile) model.Way {
	m := projection.NewMercator(t.Size)
	p1, p2 := t.MapPoint1(), t.MapPoint2()
	nw := m.MapPointToGeoPoint(p1)
	se := m.MapPointToGeoPoint(p2)
	ring := []geo.GeoPoint{
		nw,
		{Latitude: nw.Latitude, Longitude: se.Longitude},
		se,
		{Latitude: se.Latitude, Longitude: nw.Longitude},
		nw,
	}
	return model.Way{Layer: 0, Tags: waterTags, Rings: [][]geo.GeoPoint{ring}}
}

func (r *Renderer) renderNode(b *frameBuilder, node model.Node) {
	layer := clampLayer(node.Layer)
	p := b.pixel(node.Position)

	var symbol *label.Symbol
	for _, in := range r.theme.MatchNode(node.Tags, b.origin.Zoom) {
		switch in := in.(type) {
		case *theme.Circle:
			b.shape(layer, in, p, node.Tags)
		case *theme.Symbol:
			symbol = &label.Symbol{Name: in.Name, X: p[0] - in.Width/2, Y: p[1] - in.Height/2, Width: in.Width, Height: in.Height}
			b.symbols = append(b.symbols, symbol)
		case *theme.Caption:
			text, ok := node.Tags.Value(in.Key)
			if !ok || text == "" {
				continue
			}
			l := r.pointText(text, in.Front, in.Back, p[0], p[1]+in.DY)
			l.Symbol = symbol
			b.labels = append(b.labels, l)
		}
	}
}

func (r *Renderer) renderWay(b *frameBuilder, way model.Way) {
	if len(way.Rings) == 0 || len(way.Rings[0]) == 0 {
		return
	}
	layer := clampLayer(way.Layer)
	closed := way.Closed()

	lines := make(orb.MultiLineString, len(way.Rings))
	for i, ring := range way.Rings {
		line := make(orb.LineString, len(ring))
		for j, p := range ring {
			line[j] = b.pixel(p)
		}
		lines[i] = line
	}

	center := geom.CenterOfBoundingBox(lines[0])
	if way.LabelPosition != nil {
		center = b.pixel(*way.LabelPosition)
	}

	for _, in := range r.theme.MatchWay(way.Tags, b.origin.Zoom, closed) {
		switch in := in.(type) {
		case *theme.Area:
			polygon := make(orb.Polygon, len(lines))
			for i, line := range lines {
				polygon[i] = orb.Ring(line)
			}
			b.shape(layer, in, polygon, way.Tags)
		case *theme.Line:
			b.shape(layer, in, lines, way.Tags)
		case *theme.PathText:
			text, ok := way.Tags.Value(in.Key)
			if !ok || text == "" || len(lines[0]) < 2 {
				continue
			}
			b.frame.PathLabels = append(b.frame.PathLabels, PathLabel{Text: text, Front: in.Front, Back: in.Back, Path: lines[0]})
		case *theme.AreaCaption:
			text, ok := way.Tags.Value(in.Key)
			if !ok || text == "" {
				continue
			}
			b.areaLabels = append(b.areaLabels, r.pointText(text, in.Front, in.Back, center[0], center[1]))
		case *theme.AreaSymbol:
			b.symbols = append(b.symbols, &label.Symbol{
				Name: in.Name, X: center[0] - in.Width/2, Y: center[1] - in.Height/2, Width: in.Width, Height: in.Height,
			})
		}
	}
}

func (r *Renderer) pointText(text string, front, back label.Paint, x, y float64) label.PointText {
	w, h := r.measurer.Measure(text, front)
	if back != (label.Paint{}) {
		bw, bh := r.measurer.Measure(text, back)
		w, h = max(w, bw), max(h, bh)
	}
	return label.PointText{Text: text, X: x, Y: y, Width: w, Height: h, Front: front, Back: back}
}

// Render returns the tile encoded as a gzipped vector tile, serving it from
// the tile cache when one is configured.
func (r *Renderer) Render(t tile.Tile) ([]byte, error) {
	if r.tileCache != nil {
		data, err := r.tileCache.Get(t.ID())
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			return data, nil
		}
	}

	frame, err := r.RenderTile(t)
	if err != nil {
		return nil, err
	}
	data, err := EncodeMVT(frame, DefaultExtent)
	if err != nil {
		return nil, err
	}

	if r.tileCache != nil {
		if err := r.tileCache.Put(t.ID(), data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Reset forgets labels carried between tiles.
func (r *Renderer) Reset() {
	r.placement.Reset()
}
