// Package spec implements the binary layout of PMTiles v3 archives.
package spec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

type Compression uint8

const (
	CompressionUnknown Compression = iota
	CompressionNone
	CompressionGzip
	CompressionBrotli
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBrotli:
		return "brotli"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

type TileType uint8

const (
	TileTypeUnknown TileType = iota
	TileTypeMvt
	TileTypePng
	TileTypeJpeg
	TileTypeWebp
	TileTypeAvif
)

// Header is the fixed-size archive header. Field order and sizes follow
// the on-disk layout, all values little endian.
type Header struct {
	HeaderMagic         uint64
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirectoryOffset uint64
	LeafDirectoryLength uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	AddressedTilesCount uint64
	TileEntriesCount    uint64
	TileContentsCount   uint64
	Clustered           bool
	InternalCompression Compression
	TileCompression     Compression
	TileType            TileType
	MinZoom             uint8
	MaxZoom             uint8
	MinLonE7            int32
	MinLatE7            int32
	MaxLonE7            int32
	MaxLatE7            int32
	CenterZoom          uint8
	CenterLonE7         int32
	CenterLatE7         int32
}

const (
	headerMagic     uint64 = 0x73656C69544D50 // "PMTiles"
	headerMagicMask uint64 = 1<<56 - 1
	HeaderMagicV3   uint64 = headerMagic | 0x03<<56

	HeaderLength = 127

	// The root directory must end within the first 16 KiB of the archive.
	HeaderRootDirMaxLength = 16 << 10
	RootDirOffset          = HeaderLength
	RootDirMaxLength       = HeaderRootDirMaxLength - HeaderLength
)

var (
	ErrInvalidHeader  = errors.New("invalid pmtiles header")
	ErrInvalidVersion = errors.New("unsupported pmtiles version")
)

func SerializeHeader(h *Header) []byte {
	data, err := binary.Append(make([]byte, 0, HeaderLength), binary.LittleEndian, h)
	if err != nil {
		panic(err)
	}
	return data
}

func DeserializeHeader(data []byte) (*Header, error) {
	if len(data) < HeaderLength {
		return nil, fmt.Errorf("%w: %d bytes: %w", ErrInvalidHeader, len(data), io.ErrUnexpectedEOF)
	}
	var h Header
	if _, err := binary.Decode(data[:HeaderLength], binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if h.HeaderMagic&headerMagicMask != headerMagic {
		return nil, ErrInvalidHeader
	}
	if h.HeaderMagic != HeaderMagicV3 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, h.HeaderMagic>>56)
	}
	return &h, nil
}
