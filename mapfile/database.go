// Package mapfile reads map data of mapsforge binary map files.
package mapfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/eak1mov/go-mapsforge/cache"
	"github.com/eak1mov/go-mapsforge/geo"
	"github.com/eak1mov/go-mapsforge/mapfile/spec"
	"github.com/eak1mov/go-mapsforge/model"
	"github.com/eak1mov/go-mapsforge/projection"
	"github.com/eak1mov/go-mapsforge/tile"
)

var ErrNoSubFile = errors.New("no sub-file for zoom level")

// FileAccessFunc reads length bytes at offset of the map file.
type FileAccessFunc = func(offset, length uint64) ([]byte, error)

// Database reads tiles of one map file.
//
// A Database is not safe for concurrent use; use one instance per goroutine.
type Database interface {
	io.Closer

	// Info returns the parsed file header.
	Info() *spec.Header

	// ReadMapData returns all nodes and ways of the tile. On any error the
	// result is nil; the Database stays usable for further queries.
	// After Close it fails with os.ErrClosed.
	ReadMapData(t tile.Tile) (*ReadResult, error)
}

// ReadResult is the map data of one tile query.
type ReadResult struct {
	Nodes []model.Node
	Ways  []model.Way

	// IsWater is set when every block read for the query is a water block.
	IsWater bool
}

type config struct {
	Logger             *slog.Logger
	IndexCacheCapacity int
}

type Option func(*config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

func WithIndexCacheCapacity(capacity int) Option {
	return func(c *config) { c.IndexCacheCapacity = capacity }
}

type database struct {
	fileAccess FileAccessFunc
	fileCloser func() error
	header     *spec.Header
	logger     *slog.Logger
	projection projection.Mercator

	indexCacheCapacity int
	indexCache         *IndexCache
	closed             bool
}

// NewFileDatabase opens the map file at filePath.
//
// The returned Database must be closed after use.
func NewFileDatabase(filePath string, opts ...Option) (Database, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	fileAccess := func(offset uint64, length uint64) ([]byte, error) {
		buffer := make([]byte, length)
		if _, err := file.ReadAt(buffer, int64(offset)); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return buffer, nil
	}
	db, err := newDatabase(fileAccess, info.Size(), opts)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	db.fileCloser = file.Close
	return db, nil
}

// NewDatabase reads a map file of fileSize bytes through fileAccess.
func NewDatabase(fileAccess FileAccessFunc, fileSize int64, opts ...Option) (Database, error) {
	return newDatabase(fileAccess, fileSize, opts)
}

func newDatabase(fileAccess FileAccessFunc, fileSize int64, opts []Option) (*database, error) {
	config := config{
		Logger:             slog.New(slog.DiscardHandler),
		IndexCacheCapacity: DefaultIndexCacheCapacity,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.IndexCacheCapacity < 1 {
		return nil, fmt.Errorf("index cache: %w: %d", cache.ErrInvalidCapacity, config.IndexCacheCapacity)
	}

	header, err := readHeader(fileAccess, fileSize)
	if err != nil {
		return nil, err
	}
	config.Logger.Debug("mapsforge: opened",
		"size", fileSize,
		"subfiles", len(header.SubFiles),
		"zoom", fmt.Sprintf("%d-%d", header.ZoomLevelMin, header.ZoomLevelMax),
		"debug", header.Debug)

	return &database{
		fileAccess:         fileAccess,
		fileCloser:         func() error { return nil },
		header:             header,
		logger:             config.Logger,
		projection:         projection.NewMercator(header.TilePixelSize),
		indexCacheCapacity: config.IndexCacheCapacity,
	}, nil
}

func readHeader(fileAccess FileAccessFunc, fileSize int64) (*spec.Header, error) {
	if fileSize < int64(spec.HeaderPrefixLength) {
		return nil, fmt.Errorf("%w: %w", spec.ErrInvalidHeader, io.ErrUnexpectedEOF)
	}
	prefix, err := fileAccess(0, uint64(spec.HeaderPrefixLength))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", spec.ErrInvalidHeader, err)
	}
	remaining, err := spec.DeserializeHeaderPrefix(prefix)
	if err != nil {
		return nil, err
	}
	length := int64(spec.HeaderPrefixLength + remaining)
	if length > fileSize {
		return nil, fmt.Errorf("%w: header of %d bytes in file of %d: %w", spec.ErrInvalidHeader, length, fileSize, io.ErrUnexpectedEOF)
	}
	data, err := fileAccess(0, uint64(length))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", spec.ErrInvalidHeader, err)
	}
	return spec.DeserializeHeader(data, fileSize)
}

func (d *database) Close() error {
	if d.closed {
		return os.ErrClosed
	}
	d.closed = true
	d.indexCache = nil
	return d.fileCloser()
}

func (d *database) Info() *spec.Header {
	return d.header
}

func (d *database) ReadMapData(t tile.Tile) (*ReadResult, error) {
	if d.closed {
		return nil, fmt.Errorf("read %v: %w", t, os.ErrClosed)
	}
	queryZoom := d.header.ClampZoom(t.Zoom)
	subFile := d.header.SubFileForZoom(queryZoom)
	if subFile == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoSubFile, t.Zoom)
	}

	if d.indexCache == nil {
		d.indexCache = NewIndexCache(d.fileAccess, d.indexCacheCapacity)
	}

	query := spec.CalculateQuery(t, subFile, queryZoom)
	d.logger.Debug("mapsforge: query",
		"tile", t.String(),
		"base_zoom", subFile.BaseZoom,
		"blocks", fmt.Sprintf("%d..%d x %d..%d", query.FromBlockX, query.ToBlockX, query.FromBlockY, query.ToBlockY),
		"bitmask", query.UseTileBitmask)

	result, err := d.processBlocks(&query, subFile)
	if err != nil {
		d.logger.Debug("mapsforge: query failed", "tile", t.String(), "error", err)
		return nil, err
	}
	return result, nil
}

func (d *database) processBlocks(query *spec.QueryParameters, subFile *spec.SubFile) (*ReadResult, error) {
	decoder := spec.BlockDecoder{Header: d.header, SubFile: subFile, Query: query}
	result := &ReadResult{}
	isWater := true
	readWater := false

	for row := query.FromBlockY; row <= query.ToBlockY; row++ {
		for col := query.FromBlockX; col <= query.ToBlockX; col++ {
			blockNumber := row*subFile.BlocksWidth + col

			entry, err := d.indexCache.IndexEntry(subFile, blockNumber)
			if err != nil {
				return nil, err
			}
			isWater = isWater && entry&spec.IndexWaterBit != 0
			readWater = true

			pointer := int64(entry & spec.IndexOffsetMask)
			if pointer < 1 || pointer > subFile.SubFileSize {
				return nil, fmt.Errorf("%w: block %d pointer %d", spec.ErrInvalidBlock, blockNumber, pointer)
			}

			next := subFile.SubFileSize
			if blockNumber+1 < subFile.NumberOfBlocks {
				nextEntry, err := d.indexCache.IndexEntry(subFile, blockNumber+1)
				if err != nil {
					return nil, err
				}
				next = int64(nextEntry & spec.IndexOffsetMask)
				if next > subFile.SubFileSize {
					return nil, fmt.Errorf("%w: block %d next pointer %d", spec.ErrInvalidBlock, blockNumber, next)
				}
			}

			size := next - pointer
			switch {
			case size < 0:
				return nil, fmt.Errorf("%w: block %d size %d", spec.ErrInvalidBlock, blockNumber, size)
			case size == 0:
				continue
			case size > spec.MaxBlockSize:
				return nil, fmt.Errorf("%w: block %d size %d too large", spec.ErrInvalidBlock, blockNumber, size)
			case subFile.StartAddress+pointer+size > d.header.FileSize:
				return nil, fmt.Errorf("%w: block %d ends past file end", spec.ErrInvalidBlock, blockNumber)
			}

			data, err := d.fileAccess(uint64(subFile.StartAddress+pointer), uint64(size))
			if err != nil {
				return nil, fmt.Errorf("%w: reading block %d: %w", spec.ErrInvalidBlock, blockNumber, err)
			}

			blockTile := subFile.BlockTile(col, row)
			nodes, ways, err := decoder.Decode(data, d.tilePosition(blockTile))
			if err != nil {
				return nil, fmt.Errorf("block %d: %w", blockNumber, err)
			}
			result.Nodes = append(result.Nodes, nodes...)
			result.Ways = append(result.Ways, ways...)
		}
	}

	result.IsWater = isWater && readWater
	return result, nil
}

// tilePosition returns the north-west corner of the block tile.
func (d *database) tilePosition(t tile.Tile) geo.GeoPoint {
	return d.projection.MapPointToGeoPoint(t.MapPoint1())
}
