// Package spec implements the binary layout of mapsforge map files (version 3).
package spec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/eak1mov/go-mapsforge/geo"
	"github.com/eak1mov/go-mapsforge/model"
	"github.com/eak1mov/go-mapsforge/projection"
	"github.com/eak1mov/go-mapsforge/tile"
	"github.com/paulmach/orb"
	"golang.org/x/text/language"
)

const (
	Magic = "mapsforge binary OSM"

	// HeaderPrefixLength covers the magic and the remaining header size.
	HeaderPrefixLength = len(Magic) + 4

	RemainingHeaderSizeMin = 70
	RemainingHeaderSizeMax = 1000000

	SupportedVersion = 3
	TilePixelSize    = 256

	BaseZoomMax  = 20
	ZoomLevelMax = 22

	// DebugIndexSignatureLength precedes the index of a sub-file in debug files.
	DebugIndexSignatureLength = 16

	languagePreferenceLength = 2
)

// MapDateMin is the earliest accepted map date, 2008-01-01.
var MapDateMin = time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC)

// Optional header field flags.
const (
	flagDebug              = 0x80
	flagStartPosition      = 0x40
	flagStartZoom          = 0x20
	flagLanguagePreference = 0x10
	flagComment            = 0x08
	flagCreatedBy          = 0x04
)

var ErrInvalidHeader = errors.New("invalid file header")

// Header is the immutable file-level metadata of a map file.
type Header struct {
	Version        int32
	FileSize       int64
	MapDate        time.Time
	BoundingBox    orb.Bound
	TilePixelSize  int
	ProjectionName string

	Debug              bool
	StartPosition      *geo.GeoPoint
	StartZoom          *uint8
	LanguagePreference string
	Comment            string
	CreatedBy          string

	NodeTags []model.Tag
	WayTags  []model.Tag

	// SubFiles keeps the order of the sub-file table.
	SubFiles []SubFile

	ZoomLevelMin uint8
	ZoomLevelMax uint8

	// lookup[z] indexes SubFiles for zoom levels 0..ZoomLevelMax.
	lookup []int
}

// SubFileForZoom returns the sub-file serving zoom, clamped to the file's
// zoom range, or nil if no sub-file covers it.
func (h *Header) SubFileForZoom(zoom uint8) *SubFile {
	zoom = h.ClampZoom(zoom)
	if int(zoom) >= len(h.lookup) || h.lookup[zoom] < 0 {
		return nil
	}
	return &h.SubFiles[h.lookup[zoom]]
}

// ClampZoom limits zoom to [ZoomLevelMin, ZoomLevelMax].
func (h *Header) ClampZoom(zoom uint8) uint8 {
	return max(h.ZoomLevelMin, min(h.ZoomLevelMax, zoom))
}

func (h *Header) buildLookup() {
	h.ZoomLevelMin = ZoomLevelMax
	h.ZoomLevelMax = 0
	for _, s := range h.SubFiles {
		h.ZoomLevelMin = min(h.ZoomLevelMin, s.ZoomMin)
		h.ZoomLevelMax = max(h.ZoomLevelMax, s.ZoomMax)
	}
	h.lookup = make([]int, int(h.ZoomLevelMax)+1)
	for i := range h.lookup {
		h.lookup[i] = -1
	}
	for i, s := range h.SubFiles {
		for z := s.ZoomMin; z <= s.ZoomMax; z++ {
			h.lookup[z] = i
		}
	}
}

// Language parses the language preference, if present.
func (h *Header) Language() (language.Base, bool) {
	if h.LanguagePreference == "" {
		return language.Base{}, false
	}
	base, err := language.ParseBase(h.LanguagePreference)
	return base, err == nil
}

// SubFile describes one zoom interval of a map file with its block grid.
type SubFile struct {
	BaseZoom     uint8
	ZoomMin      uint8
	ZoomMax      uint8
	StartAddress int64
	SubFileSize  int64

	IndexStartAddress int64
	IndexEndAddress   int64

	BoundaryTileLeft   int64
	BoundaryTileTop    int64
	BoundaryTileRight  int64
	BoundaryTileBottom int64

	BlocksWidth    int64
	BlocksHeight   int64
	NumberOfBlocks int64
}

// SubFileKey identifies a sub-file within one open file.
type SubFileKey struct {
	StartAddress int64
	SubFileSize  int64
	BaseZoom     uint8
}

func (s *SubFile) Key() SubFileKey {
	return SubFileKey{StartAddress: s.StartAddress, SubFileSize: s.SubFileSize, BaseZoom: s.BaseZoom}
}

// NewSubFile derives the block grid and index addresses of a sub-file
// covering bbox.
func NewSubFile(baseZoom, zoomMin, zoomMax uint8, startAddress, size int64, debug bool, bbox orb.Bound) SubFile {
	s := SubFile{
		BaseZoom:          baseZoom,
		ZoomMin:           zoomMin,
		ZoomMax:           zoomMax,
		StartAddress:      startAddress,
		SubFileSize:       size,
		IndexStartAddress: startAddress,
	}
	if debug {
		s.IndexStartAddress += DebugIndexSignatureLength
	}

	mercator := projection.NewMercator(TilePixelSize)
	upperLeft := mercator.GeoPointToTile(geo.GeoPoint{Latitude: bbox.Max.Lat(), Longitude: bbox.Min.Lon()}, baseZoom)
	lowerRight := mercator.GeoPointToTile(geo.GeoPoint{Latitude: bbox.Min.Lat(), Longitude: bbox.Max.Lon()}, baseZoom)
	s.BoundaryTileLeft = upperLeft.X
	s.BoundaryTileTop = upperLeft.Y
	s.BoundaryTileRight = lowerRight.X
	s.BoundaryTileBottom = lowerRight.Y

	s.BlocksWidth = s.BoundaryTileRight - s.BoundaryTileLeft + 1
	s.BlocksHeight = s.BoundaryTileBottom - s.BoundaryTileTop + 1
	s.NumberOfBlocks = s.BlocksWidth * s.BlocksHeight
	s.IndexEndAddress = s.IndexStartAddress + s.NumberOfBlocks*IndexEntryLength
	return s
}

// BlockTile returns the base zoom tile of the block at grid column and row.
func (s *SubFile) BlockTile(col, row int64) tile.Tile {
	return tile.New(s.BoundaryTileLeft+col, s.BoundaryTileTop+row, s.BaseZoom, TilePixelSize)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidHeader, fmt.Sprintf(format, args...))
}

func wrapRead(err error) error {
	if errors.Is(err, ErrBufferBounds) {
		err = fmt.Errorf("%w: %w", io.ErrUnexpectedEOF, err)
	}
	return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
}

// DeserializeHeaderPrefix checks the magic and returns the length of the
// header data that follows the prefix.
func DeserializeHeaderPrefix(data []byte) (int, error) {
	if len(data) < HeaderPrefixLength {
		return 0, fmt.Errorf("%w: %w", ErrInvalidHeader, io.ErrUnexpectedEOF)
	}
	if string(data[:len(Magic)]) != Magic {
		return 0, invalid("magic %q", data[:len(Magic)])
	}
	size := int32(binary.BigEndian.Uint32(data[len(Magic):HeaderPrefixLength]))
	if size < RemainingHeaderSizeMin || size > RemainingHeaderSizeMax {
		return 0, invalid("remaining header size %d", size)
	}
	return int(size), nil
}

// DeserializeHeader decodes a whole header (prefix included) and checks it
// against the actual file size.
func DeserializeHeader(data []byte, fileSize int64) (*Header, error) {
	remaining, err := DeserializeHeaderPrefix(data)
	if err != nil {
		return nil, err
	}
	if len(data) < HeaderPrefixLength+remaining {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, io.ErrUnexpectedEOF)
	}

	buf := NewBuffer(data[HeaderPrefixLength : HeaderPrefixLength+remaining])
	h := &Header{}
	if err := h.readRequired(buf, fileSize); err != nil {
		return nil, err
	}
	if err := h.readOptional(buf); err != nil {
		return nil, err
	}
	if h.NodeTags, err = readTags(buf); err != nil {
		return nil, err
	}
	if h.WayTags, err = readTags(buf); err != nil {
		return nil, err
	}
	if err := h.readSubFiles(buf); err != nil {
		return nil, err
	}
	h.buildLookup()
	return h, nil
}

func (h *Header) readRequired(buf *Buffer, fileSize int64) error {
	var err error
	if h.Version, err = buf.ReadInt32(); err != nil {
		return wrapRead(err)
	}
	if h.Version != SupportedVersion {
		return invalid("unsupported file version %d", h.Version)
	}

	if h.FileSize, err = buf.ReadInt64(); err != nil {
		return wrapRead(err)
	}
	if h.FileSize != fileSize {
		return invalid("file size %d, actual %d", h.FileSize, fileSize)
	}

	date, err := buf.ReadInt64()
	if err != nil {
		return wrapRead(err)
	}
	h.MapDate = time.UnixMilli(date).UTC()
	if h.MapDate.Before(MapDateMin) {
		return invalid("map date %v", h.MapDate)
	}

	var bbox [4]int32
	for i := range bbox {
		if bbox[i], err = buf.ReadInt32(); err != nil {
			return wrapRead(err)
		}
	}
	minLat, minLon := geo.MicrodegreesToDegrees(bbox[0]), geo.MicrodegreesToDegrees(bbox[1])
	maxLat, maxLon := geo.MicrodegreesToDegrees(bbox[2]), geo.MicrodegreesToDegrees(bbox[3])
	if _, err := geo.NewGeoPoint(minLat, minLon); err != nil {
		return fmt.Errorf("%w: bounding box: %w", ErrInvalidHeader, err)
	}
	if _, err := geo.NewGeoPoint(maxLat, maxLon); err != nil {
		return fmt.Errorf("%w: bounding box: %w", ErrInvalidHeader, err)
	}
	if minLat > maxLat || minLon > maxLon {
		return invalid("bounding box %v,%v,%v,%v", minLat, minLon, maxLat, maxLon)
	}
	h.BoundingBox = geo.NewBound(minLat, minLon, maxLat, maxLon)

	tileSize, err := buf.ReadInt16()
	if err != nil {
		return wrapRead(err)
	}
	if tileSize != TilePixelSize {
		return invalid("unsupported tile pixel size %d", tileSize)
	}
	h.TilePixelSize = int(tileSize)

	if h.ProjectionName, err = buf.ReadUTF8(); err != nil {
		return wrapRead(err)
	}
	return nil
}

func (h *Header) readOptional(buf *Buffer) error {
	flags, err := buf.ReadByte()
	if err != nil {
		return wrapRead(err)
	}
	h.Debug = flags&flagDebug != 0

	if flags&flagStartPosition != 0 {
		lat, err := buf.ReadInt32()
		if err != nil {
			return wrapRead(err)
		}
		lon, err := buf.ReadInt32()
		if err != nil {
			return wrapRead(err)
		}
		p, err := geo.NewGeoPoint(geo.MicrodegreesToDegrees(lat), geo.MicrodegreesToDegrees(lon))
		if err != nil {
			return fmt.Errorf("%w: start position: %w", ErrInvalidHeader, err)
		}
		h.StartPosition = &p
	}

	if flags&flagStartZoom != 0 {
		zoom, err := buf.ReadByte()
		if err != nil {
			return wrapRead(err)
		}
		if zoom > ZoomLevelMax {
			return invalid("start zoom level %d", zoom)
		}
		h.StartZoom = &zoom
	}

	if flags&flagLanguagePreference != 0 {
		if h.LanguagePreference, err = buf.ReadUTF8(); err != nil {
			return wrapRead(err)
		}
		if len(h.LanguagePreference) != languagePreferenceLength {
			return invalid("language preference %q", h.LanguagePreference)
		}
		if _, err := language.ParseBase(h.LanguagePreference); err != nil {
			return fmt.Errorf("%w: language preference %q: %w", ErrInvalidHeader, h.LanguagePreference, err)
		}
	}

	if flags&flagComment != 0 {
		if h.Comment, err = buf.ReadUTF8(); err != nil {
			return wrapRead(err)
		}
	}

	if flags&flagCreatedBy != 0 {
		if h.CreatedBy, err = buf.ReadUTF8(); err != nil {
			return wrapRead(err)
		}
	}
	return nil
}

func readTags(buf *Buffer) ([]model.Tag, error) {
	n, err := buf.ReadInt16()
	if err != nil {
		return nil, wrapRead(err)
	}
	if n < 0 {
		return nil, invalid("number of tags %d", n)
	}
	tags := make([]model.Tag, n)
	for i := range tags {
		s, err := buf.ReadUTF8()
		if err != nil {
			return nil, wrapRead(err)
		}
		tags[i] = model.ParseTag(s)
	}
	return tags, nil
}

func (h *Header) readSubFiles(buf *Buffer) error {
	n, err := buf.ReadByte()
	if err != nil {
		return wrapRead(err)
	}
	if n < 1 {
		return invalid("number of sub-files %d", n)
	}

	h.SubFiles = make([]SubFile, 0, n)
	for i := range int(n) {
		var zooms [3]byte
		for j := range zooms {
			if zooms[j], err = buf.ReadByte(); err != nil {
				return wrapRead(err)
			}
		}
		baseZoom, zoomMin, zoomMax := zooms[0], zooms[1], zooms[2]
		if baseZoom > BaseZoomMax {
			return invalid("sub-file %d: base zoom level %d", i, baseZoom)
		}
		if zoomMin > ZoomLevelMax || zoomMax > ZoomLevelMax || zoomMin > zoomMax {
			return invalid("sub-file %d: zoom range %d..%d", i, zoomMin, zoomMax)
		}

		start, err := buf.ReadInt64()
		if err != nil {
			return wrapRead(err)
		}
		if start < RemainingHeaderSizeMin || start >= h.FileSize {
			return invalid("sub-file %d: start address %d", i, start)
		}

		size, err := buf.ReadInt64()
		if err != nil {
			return wrapRead(err)
		}
		if size < 1 {
			return invalid("sub-file %d: size %d", i, size)
		}

		h.SubFiles = append(h.SubFiles, NewSubFile(baseZoom, zoomMin, zoomMax, start, size, h.Debug, h.BoundingBox))
	}
	return nil
}
