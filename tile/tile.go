// Package tile provides map tile coordinates, pixel positions and the
// interfaces of rendered tile stores.
package tile

import "fmt"

// MaxZoom is the highest zoom level a map file may address.
const MaxZoom = 22

// ID represents rendered tile coordinates in the XYZ scheme (Tiled web map).
type ID struct {
	X uint32
	Y uint32
	Z uint32
}

func (t ID) Valid() bool {
	return t.Z < 32 && t.X < (1<<t.Z) && t.Y < (1<<t.Z)
}

// Tile is a square grid cell of the map at a zoom level.
//
// X and Y are signed so that neighbours of edge tiles can be named; such
// tiles never carry map data.
type Tile struct {
	X    int64
	Y    int64
	Zoom uint8
	Size int
}

func New(x, y int64, zoom uint8, size int) Tile {
	return Tile{X: x, Y: y, Zoom: zoom, Size: size}
}

// Key identifies a tile regardless of its pixel size.
type Key struct {
	X    int64
	Y    int64
	Zoom uint8
}

func (t Tile) Key() Key {
	return Key{X: t.X, Y: t.Y, Zoom: t.Zoom}
}

func (t Tile) ID() ID {
	return ID{X: uint32(t.X), Y: uint32(t.Y), Z: uint32(t.Zoom)}
}

// Valid reports whether the tile lies on the grid of its zoom level.
func (t Tile) Valid() bool {
	n := int64(1) << t.Zoom
	return t.Zoom <= MaxZoom && t.X >= 0 && t.Y >= 0 && t.X < n && t.Y < n
}

// MapPoint1 returns the top-left pixel of the tile.
func (t Tile) MapPoint1() MapPoint {
	return MapPoint{
		X:    float64(t.X * int64(t.Size)),
		Y:    float64(t.Y * int64(t.Size)),
		Zoom: t.Zoom,
	}
}

// MapPoint2 returns the bottom-right pixel of the tile.
func (t Tile) MapPoint2() MapPoint {
	return MapPoint{
		X:    float64((t.X + 1) * int64(t.Size)),
		Y:    float64((t.Y + 1) * int64(t.Size)),
		Zoom: t.Zoom,
	}
}

// Contains reports whether p lies inside the tile, edges included.
// A point at another zoom level is rescaled first.
func (t Tile) Contains(p MapPoint) bool {
	if p.Zoom != t.Zoom {
		p = p.ChangeZoom(t.Zoom)
	}
	p1, p2 := t.MapPoint1(), t.MapPoint2()
	return p.X >= p1.X && p.X <= p2.X && p.Y >= p1.Y && p.Y <= p2.Y
}

// Neighbour returns the tile dx columns and dy rows away.
func (t Tile) Neighbour(dx, dy int64) Tile {
	return Tile{X: t.X + dx, Y: t.Y + dy, Zoom: t.Zoom, Size: t.Size}
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// MapPoint is a pixel position on the whole map at a zoom level.
type MapPoint struct {
	X    float64
	Y    float64
	Zoom uint8
}

// ChangeZoom rescales the point to another zoom level.
func (p MapPoint) ChangeZoom(zoom uint8) MapPoint {
	switch {
	case zoom > p.Zoom:
		f := float64(uint64(1) << (zoom - p.Zoom))
		return MapPoint{X: p.X * f, Y: p.Y * f, Zoom: zoom}
	case zoom < p.Zoom:
		f := float64(uint64(1) << (p.Zoom - zoom))
		return MapPoint{X: p.X / f, Y: p.Y / f, Zoom: zoom}
	}
	return p
}

// Writer defines an interface for writing rendered tiles to a tileset.
type Writer interface {
	// WriteTile writes a single tile to the tileset.
	WriteTile(tileID ID, tileData []byte) error

	// Finalize completes the writing process: flushes buffers, writes indices.
	// It must be called before closing the Writer.
	Finalize() error
}

type Reader interface {
	// ReadTile reads a single tile from the tileset.
	// If the tile does not exist, it returns an empty slice with no error.
	ReadTile(tileID ID) ([]byte, error)
}
