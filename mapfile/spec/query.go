package spec

import "github.com/eak1mov/go-mapsforge/tile"

// Index layout.
const (
	IndexEntryLength     = 5
	IndexEntriesPerBlock = 128
	IndexBlockSize       = IndexEntriesPerBlock * IndexEntryLength

	// IndexWaterBit marks a block that lies entirely in water.
	IndexWaterBit = 0x8000000000
	// IndexOffsetMask extracts the block offset relative to the sub-file start.
	IndexOffsetMask = 0x7FFFFFFFFF
)

// QueryParameters addresses the blocks and way bitmask of one tile query.
type QueryParameters struct {
	QueryZoom uint8

	FromBaseTileX int64
	FromBaseTileY int64
	ToBaseTileX   int64
	ToBaseTileY   int64

	FromBlockX int64
	FromBlockY int64
	ToBlockX   int64
	ToBlockY   int64

	UseTileBitmask   bool
	QueryTileBitmask uint16
}

// CalculateQuery maps t onto the block grid of s. queryZoom selects the
// zoom table row and must already be clamped to the file's zoom range.
func CalculateQuery(t tile.Tile, s *SubFile, queryZoom uint8) QueryParameters {
	q := QueryParameters{QueryZoom: queryZoom}
	q.calculateBaseTiles(t, s)
	q.calculateBlocks(s)
	return q
}

func (q *QueryParameters) calculateBaseTiles(t tile.Tile, s *SubFile) {
	switch {
	case t.Zoom < s.BaseZoom:
		// the tile covers a square of base tiles
		diff := s.BaseZoom - t.Zoom
		q.FromBaseTileX = t.X << diff
		q.FromBaseTileY = t.Y << diff
		q.ToBaseTileX = q.FromBaseTileX + (1 << diff) - 1
		q.ToBaseTileY = q.FromBaseTileY + (1 << diff) - 1
		q.UseTileBitmask = false
	case t.Zoom > s.BaseZoom:
		// the tile is a part of one base tile
		diff := t.Zoom - s.BaseZoom
		q.FromBaseTileX = t.X >> diff
		q.FromBaseTileY = t.Y >> diff
		q.ToBaseTileX = q.FromBaseTileX
		q.ToBaseTileY = q.FromBaseTileY
		q.UseTileBitmask = true
		q.QueryTileBitmask = TileBitmask(t, diff)
	default:
		q.FromBaseTileX = t.X
		q.FromBaseTileY = t.Y
		q.ToBaseTileX = t.X
		q.ToBaseTileY = t.Y
		q.UseTileBitmask = false
	}
}

func (q *QueryParameters) calculateBlocks(s *SubFile) {
	q.FromBlockX = max(q.FromBaseTileX-s.BoundaryTileLeft, 0)
	q.FromBlockY = max(q.FromBaseTileY-s.BoundaryTileTop, 0)
	q.ToBlockX = min(q.ToBaseTileX-s.BoundaryTileLeft, s.BlocksWidth-1)
	q.ToBlockY = min(q.ToBaseTileY-s.BoundaryTileTop, s.BlocksHeight-1)
}

// Each base tile is split into a 4x4 grid of subtiles; bit 15 is the
// top-left subtile and bits run row by row.
var (
	firstLevelBitmask = [2][2]uint16{
		{0xcc00, 0x3300}, // y even: x even, x odd
		{0x00cc, 0x0033}, // y odd
	}
	secondLevelBitmask = [2][2][2][2]uint16{
		// parent y even
		{
			{{0x8000, 0x4000}, {0x0800, 0x0400}}, // upper left
			{{0x2000, 0x1000}, {0x0200, 0x0100}}, // upper right
		},
		// parent y odd
		{
			{{0x0080, 0x0040}, {0x0008, 0x0004}}, // lower left
			{{0x0020, 0x0010}, {0x0002, 0x0001}}, // lower right
		},
	}
)

// TileBitmask returns the subtile bits of the base tile that t overlaps,
// where t is zoomDiff levels finer than the base zoom.
func TileBitmask(t tile.Tile, zoomDiff uint8) uint16 {
	if zoomDiff == 1 {
		return firstLevelBitmask[t.Y&1][t.X&1]
	}
	subX := t.X >> (zoomDiff - 2)
	subY := t.Y >> (zoomDiff - 2)
	parentX, parentY := subX>>1, subY>>1
	return secondLevelBitmask[parentY&1][parentX&1][subY&1][subX&1]
}
