package spec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eak1mov/go-mapsforge/geo"
	"github.com/eak1mov/go-mapsforge/model"
)

var (
	ErrInvalidBlock = errors.New("invalid block")
	ErrInvalidIndex = errors.New("invalid index")
)

const (
	// MaxBlockSize caps the byte length of a single block.
	MaxBlockSize = 2500000

	// SignatureLength is the size of the debug signatures of blocks, nodes and ways.
	SignatureLength = 32

	BlockSignaturePrefix = "###TileStart"
	NodeSignaturePrefix  = "***nodestart"
	WaySignaturePrefix   = "---WayStart"

	maxZoomTableCount   = 65536
	maxCoordinateBlocks = 32767
	minWayNodes         = 2
	maxWayNodes         = 8192
)

// Feature byte flags.
const (
	NodeFeatureName        = 0x80
	NodeFeatureHouseNumber = 0x40
	NodeFeatureElevation   = 0x20

	WayFeatureName          = 0x80
	WayFeatureHouseNumber   = 0x40
	WayFeatureRef           = 0x20
	WayFeatureLabelPosition = 0x10
	WayFeatureDataBlocks    = 0x08
	WayFeatureDoubleDelta   = 0x04
)

// BlockDecoder decodes the data blocks of one sub-file for one query.
type BlockDecoder struct {
	Header  *Header
	SubFile *SubFile
	Query   *QueryParameters

	buf          Buffer
	tilePosition geo.GeoPoint
}

func blockError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidBlock, fmt.Sprintf(format, args...))
}

func wrapBlock(err error) error {
	if errors.Is(err, ErrInvalidBlock) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidBlock, err)
}

// Decode returns the nodes and ways of the block stored in data whose
// top-left corner is tilePosition.
func (d *BlockDecoder) Decode(data []byte, tilePosition geo.GeoPoint) ([]model.Node, []model.Way, error) {
	d.buf.Reset(data)
	d.tilePosition = tilePosition

	nodes, ways, err := d.decode()
	if err != nil {
		return nil, nil, wrapBlock(err)
	}
	return nodes, ways, nil
}

func (d *BlockDecoder) decode() ([]model.Node, []model.Way, error) {
	if d.Header.Debug {
		if err := d.checkSignature(BlockSignaturePrefix); err != nil {
			return nil, nil, err
		}
	}

	nodeCount, wayCount, err := d.readZoomTable()
	if err != nil {
		return nil, nil, err
	}

	firstWayOffset, err := d.buf.ReadUnsignedVarint()
	if err != nil {
		return nil, nil, err
	}
	if firstWayOffset > uint64(d.buf.Remaining()) {
		return nil, nil, blockError("first way offset %d beyond block of %d bytes", firstWayOffset, d.buf.Len())
	}
	firstWay := d.buf.Position() + int(firstWayOffset)

	nodes, err := d.decodeNodes(nodeCount)
	if err != nil {
		return nil, nil, err
	}

	if d.buf.Position() > firstWay {
		return nil, nil, blockError("nodes overrun first way offset: %d > %d", d.buf.Position(), firstWay)
	}
	if err := d.buf.SetPosition(firstWay); err != nil {
		return nil, nil, err
	}

	ways, err := d.decodeWays(wayCount)
	if err != nil {
		return nil, nil, err
	}
	return nodes, ways, nil
}

func (d *BlockDecoder) checkSignature(prefix string) error {
	signature, err := d.buf.ReadUTF8Len(SignatureLength)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(signature, prefix) {
		return blockError("signature %q, want prefix %q", signature, prefix)
	}
	return nil
}

// readZoomTable returns the node and way counts of the query zoom row.
func (d *BlockDecoder) readZoomTable() (int, int, error) {
	rows := int(d.SubFile.ZoomMax) - int(d.SubFile.ZoomMin) + 1
	row := int(d.Query.QueryZoom) - int(d.SubFile.ZoomMin)
	if row < 0 || row >= rows {
		return 0, 0, blockError("query zoom %d outside %d..%d", d.Query.QueryZoom, d.SubFile.ZoomMin, d.SubFile.ZoomMax)
	}

	var nodes, ways uint64
	var queryNodes, queryWays int
	for i := range rows {
		n, err := d.buf.ReadUnsignedVarint()
		if err != nil {
			return 0, 0, err
		}
		w, err := d.buf.ReadUnsignedVarint()
		if err != nil {
			return 0, 0, err
		}
		nodes += n
		ways += w
		if n > maxZoomTableCount || nodes > maxZoomTableCount {
			return 0, 0, blockError("zoom table row %d: %d nodes", i, nodes)
		}
		if w > maxZoomTableCount || ways > maxZoomTableCount {
			return 0, 0, blockError("zoom table row %d: %d ways", i, ways)
		}
		if i == row {
			queryNodes, queryWays = int(nodes), int(ways)
		}
	}
	return queryNodes, queryWays, nil
}

func (d *BlockDecoder) readTags(dictionary []model.Tag, count int, tags *model.TagList) error {
	for range count {
		id, err := d.buf.ReadUnsignedVarint()
		if err != nil {
			return err
		}
		if id >= uint64(len(dictionary)) {
			return blockError("tag id %d outside dictionary of %d", id, len(dictionary))
		}
		tags.Add(dictionary[id])
	}
	return nil
}

func (d *BlockDecoder) readOffset() (float64, error) {
	v, err := d.buf.ReadSignedVarint()
	if err != nil {
		return 0, err
	}
	return float64(v) / 1e6, nil
}

func (d *BlockDecoder) readPosition() (lat, lon float64, err error) {
	if lat, err = d.readOffset(); err != nil {
		return 0, 0, err
	}
	if lon, err = d.readOffset(); err != nil {
		return 0, 0, err
	}
	return d.tilePosition.Latitude + lat, d.tilePosition.Longitude + lon, nil
}

func (d *BlockDecoder) readString(tags *model.TagList, key string) error {
	s, err := d.buf.ReadUTF8()
	if err != nil {
		return err
	}
	tags.Add(model.Tag{Key: key, Value: s})
	return nil
}

func (d *BlockDecoder) decodeNodes(count int) ([]model.Node, error) {
	nodes := make([]model.Node, 0, count)
	for range count {
		if d.Header.Debug {
			if err := d.checkSignature(NodeSignaturePrefix); err != nil {
				return nil, err
			}
		}

		lat, lon, err := d.readPosition()
		if err != nil {
			return nil, err
		}

		special, err := d.buf.ReadByte()
		if err != nil {
			return nil, err
		}
		var tags model.TagList
		if err := d.readTags(d.Header.NodeTags, int(special&0x0f), &tags); err != nil {
			return nil, err
		}

		feature, err := d.buf.ReadByte()
		if err != nil {
			return nil, err
		}
		if feature&NodeFeatureName != 0 {
			if err := d.readString(&tags, model.KeyName); err != nil {
				return nil, err
			}
		}
		if feature&NodeFeatureHouseNumber != 0 {
			if err := d.readString(&tags, model.KeyHouseNumber); err != nil {
				return nil, err
			}
		}
		if feature&NodeFeatureElevation != 0 {
			ele, err := d.buf.ReadSignedVarint()
			if err != nil {
				return nil, err
			}
			tags.Add(model.Tag{Key: model.KeyElevation, Value: strconv.FormatInt(ele, 10)})
		}

		if lat <= geo.LatitudeMin || lat >= geo.LatitudeMax {
			continue
		}
		nodes = append(nodes, model.Node{
			Layer:    int8(special >> 4),
			Tags:     tags,
			Position: geo.GeoPoint{Latitude: lat, Longitude: geo.ClampLongitude(lon)},
		})
	}
	return nodes, nil
}

func (d *BlockDecoder) decodeWays(count int) ([]model.Way, error) {
	var ways []model.Way
	for range count {
		if d.Header.Debug {
			if err := d.checkSignature(WaySignaturePrefix); err != nil {
				return nil, err
			}
		}

		size, err := d.buf.ReadUnsignedVarint()
		if err != nil {
			return nil, err
		}
		if size > uint64(d.buf.Remaining()) {
			return nil, blockError("way size %d beyond block", size)
		}

		if d.Query.UseTileBitmask {
			bitmask, err := d.buf.ReadInt16()
			if err != nil {
				return nil, err
			}
			if d.Query.QueryTileBitmask&uint16(bitmask) == 0 {
				if size < 2 {
					return nil, blockError("way size %d", size)
				}
				if err := d.buf.Skip(int(size) - 2); err != nil {
					return nil, err
				}
				continue
			}
		} else if err := d.buf.Skip(2); err != nil {
			return nil, err
		}

		decoded, err := d.decodeWay()
		if err != nil {
			return nil, err
		}
		ways = append(ways, decoded...)
	}
	return ways, nil
}

// decodeWay decodes one way record into one Way per data block.
func (d *BlockDecoder) decodeWay() ([]model.Way, error) {
	special, err := d.buf.ReadByte()
	if err != nil {
		return nil, err
	}
	layer := int8(special >> 4)
	var tags model.TagList
	if err := d.readTags(d.Header.WayTags, int(special&0x0f), &tags); err != nil {
		return nil, err
	}

	feature, err := d.buf.ReadByte()
	if err != nil {
		return nil, err
	}
	if feature&WayFeatureName != 0 {
		if err := d.readString(&tags, model.KeyName); err != nil {
			return nil, err
		}
	}
	if feature&WayFeatureHouseNumber != 0 {
		if err := d.readString(&tags, model.KeyHouseNumber); err != nil {
			return nil, err
		}
	}
	if feature&WayFeatureRef != 0 {
		if err := d.readString(&tags, model.KeyRef); err != nil {
			return nil, err
		}
	}

	var labelPosition *geo.GeoPoint
	if feature&WayFeatureLabelPosition != 0 {
		lat, lon, err := d.readPosition()
		if err != nil {
			return nil, err
		}
		labelPosition = &geo.GeoPoint{Latitude: geo.ClampLatitude(lat), Longitude: geo.ClampLongitude(lon)}
	}

	dataBlocks := uint64(1)
	if feature&WayFeatureDataBlocks != 0 {
		if dataBlocks, err = d.buf.ReadUnsignedVarint(); err != nil {
			return nil, err
		}
		if dataBlocks < 1 {
			return nil, blockError("way data blocks %d", dataBlocks)
		}
	}

	doubleDelta := feature&WayFeatureDoubleDelta != 0
	ways := make([]model.Way, 0, min(dataBlocks, maxCoordinateBlocks))
	for range dataBlocks {
		rings, err := d.decodeWayDataBlock(doubleDelta)
		if err != nil {
			return nil, err
		}
		ways = append(ways, model.Way{
			Layer:         layer,
			Tags:          tags,
			Rings:         rings,
			LabelPosition: labelPosition,
		})
	}
	return ways, nil
}

func (d *BlockDecoder) decodeWayDataBlock(doubleDelta bool) ([][]geo.GeoPoint, error) {
	blocks, err := d.buf.ReadUnsignedVarint()
	if err != nil {
		return nil, err
	}
	if blocks < 1 || blocks > maxCoordinateBlocks {
		return nil, blockError("way coordinate blocks %d", blocks)
	}

	rings := make([][]geo.GeoPoint, 0, blocks)
	for range blocks {
		n, err := d.buf.ReadUnsignedVarint()
		if err != nil {
			return nil, err
		}
		if n < minWayNodes || n > maxWayNodes {
			return nil, blockError("way nodes %d", n)
		}

		var ring []geo.GeoPoint
		if doubleDelta {
			ring, err = d.decodeDoubleDelta(int(n))
		} else {
			ring, err = d.decodeSingleDelta(int(n))
		}
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
	}
	return rings, nil
}

func (d *BlockDecoder) wayPoint(latE6, lonE6 int64) geo.GeoPoint {
	lat := d.tilePosition.Latitude + float64(latE6)/1e6
	lon := d.tilePosition.Longitude + float64(lonE6)/1e6
	return geo.GeoPoint{Latitude: geo.ClampLatitude(lat), Longitude: geo.ClampLongitude(lon)}
}

func (d *BlockDecoder) readPair() (lat, lon int64, err error) {
	if lat, err = d.buf.ReadSignedVarint(); err != nil {
		return 0, 0, err
	}
	if lon, err = d.buf.ReadSignedVarint(); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// decodeSingleDelta reads points stored as offsets from their predecessor.
// Offsets are summed in microdegrees so a ring returning to its start
// closes exactly.
func (d *BlockDecoder) decodeSingleDelta(n int) ([]geo.GeoPoint, error) {
	ring := make([]geo.GeoPoint, 0, n)
	var lat, lon int64
	for i := range n {
		dLat, dLon, err := d.readPair()
		if err != nil {
			return nil, err
		}
		if i == 0 {
			lat, lon = dLat, dLon
		} else {
			lat += dLat
			lon += dLon
		}
		ring = append(ring, d.wayPoint(lat, lon))
	}
	return ring, nil
}

// decodeDoubleDelta reads points whose offsets are stored as the change of
// the previous offset. The offset before the second point is zero.
func (d *BlockDecoder) decodeDoubleDelta(n int) ([]geo.GeoPoint, error) {
	ring := make([]geo.GeoPoint, 0, n)
	var lat, lon, deltaLat, deltaLon int64
	for i := range n {
		ddLat, ddLon, err := d.readPair()
		if err != nil {
			return nil, err
		}
		if i == 0 {
			lat, lon = ddLat, ddLon
		} else {
			deltaLat += ddLat
			deltaLon += ddLon
			lat += deltaLat
			lon += deltaLon
		}
		ring = append(ring, d.wayPoint(lat, lon))
	}
	return ring, nil
}
