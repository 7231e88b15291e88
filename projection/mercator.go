// Package projection converts between geographic coordinates and map pixels.
package projection

import (
	"math"

	"github.com/eak1mov/go-mapsforge/geo"
	"github.com/eak1mov/go-mapsforge/tile"
)

// Projection maps geographic coordinates onto the pixel grid of a zoom level.
type Projection interface {
	GeoPointToMapPoint(p geo.GeoPoint, zoom uint8) tile.MapPoint
	MapPointToGeoPoint(p tile.MapPoint) geo.GeoPoint
	MapPointToTile(p tile.MapPoint) tile.Tile
	GeoPointToTile(p geo.GeoPoint, zoom uint8) tile.Tile
}

// MaxLatitude is the latitude at which the Mercator square ends.
const MaxLatitude = 85.05112877980659

// Mercator is the spherical Mercator projection used by mapsforge files.
type Mercator struct {
	TileSize int
}

var _ Projection = Mercator{}

func NewMercator(tileSize int) Mercator {
	return Mercator{TileSize: tileSize}
}

// MapSize returns the side of the whole map in pixels.
func (m Mercator) MapSize(zoom uint8) float64 {
	return float64(int64(m.TileSize) << zoom)
}

func (m Mercator) LongitudeToPixelX(longitude float64, zoom uint8) float64 {
	return (math.Mod(longitude, 360)/360 + 0.5) * m.MapSize(zoom)
}

func (m Mercator) LatitudeToPixelY(latitude float64, zoom uint8) float64 {
	latitude = math.Max(-MaxLatitude, math.Min(MaxLatitude, latitude))
	sin := math.Sin(latitude * math.Pi / 180)
	y := 0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)
	return y * m.MapSize(zoom)
}

func (m Mercator) PixelXToLongitude(x float64, zoom uint8) float64 {
	return 360 * (x/m.MapSize(zoom) - 0.5)
}

func (m Mercator) PixelYToLatitude(y float64, zoom uint8) float64 {
	v := 0.5 - y/m.MapSize(zoom)
	return 90 - 360*math.Atan(math.Exp(-v*2*math.Pi))/math.Pi
}

func (m Mercator) GeoPointToMapPoint(p geo.GeoPoint, zoom uint8) tile.MapPoint {
	return tile.MapPoint{
		X:    m.LongitudeToPixelX(p.Longitude, zoom),
		Y:    m.LatitudeToPixelY(p.Latitude, zoom),
		Zoom: zoom,
	}
}

func (m Mercator) MapPointToGeoPoint(p tile.MapPoint) geo.GeoPoint {
	return geo.GeoPoint{
		Latitude:  m.PixelYToLatitude(p.Y, p.Zoom),
		Longitude: m.PixelXToLongitude(p.X, p.Zoom),
	}
}

// MapPointToTile returns the tile containing p, clamped to the grid.
func (m Mercator) MapPointToTile(p tile.MapPoint) tile.Tile {
	return tile.New(
		m.pixelToTile(p.X, p.Zoom),
		m.pixelToTile(p.Y, p.Zoom),
		p.Zoom,
		m.TileSize,
	)
}

func (m Mercator) GeoPointToTile(p geo.GeoPoint, zoom uint8) tile.Tile {
	return m.MapPointToTile(m.GeoPointToMapPoint(p, zoom))
}

// TileGeoPoints returns the north-west and south-east corners of t.
func (m Mercator) TileGeoPoints(t tile.Tile) (geo.GeoPoint, geo.GeoPoint) {
	return m.MapPointToGeoPoint(t.MapPoint1()), m.MapPointToGeoPoint(t.MapPoint2())
}

func (m Mercator) pixelToTile(v float64, zoom uint8) int64 {
	n := int64(1) << zoom
	t := int64(math.Floor(v / float64(m.TileSize)))
	return max(0, min(n-1, t))
}
