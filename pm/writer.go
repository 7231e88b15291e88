package pm

import (
	"bufio"
	"cmp"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/eak1mov/go-mapsforge/pm/spec"
	"github.com/eak1mov/go-mapsforge/tile"
)

var ErrFinalized = errors.New("pmtiles archive already finalized")

type config struct {
	Metadata       []byte
	HeaderMetadata HeaderMetadata
	Logger         *slog.Logger
}

type Option func(*config)

// WithMetadata sets the JSON metadata stored in the archive.
func WithMetadata(metadata []byte) Option {
	return func(c *config) { c.Metadata = metadata }
}

func WithHeaderMetadata(m HeaderMetadata) Option {
	return func(c *config) { c.HeaderMetadata = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

type location struct {
	offset uint64
	length uint32
}

// Writer builds an archive. Tile data is appended to the file as it
// arrives; directories and header are written by Finalize. Tiles written
// so far can be read back until then.
//
// Writer is not safe for concurrent use.
type Writer struct {
	logger *slog.Logger
	file   *os.File
	header spec.Header

	tiles      *bufio.Writer
	tileOffset uint64

	entries  []spec.Entry
	byTile   map[tile.ID]int
	contents map[[md5.Size]byte]location
}

// NewWriter creates the archive at filePath, replacing any existing file.
func NewWriter(filePath string, opts ...Option) (w *Writer, err error) {
	config := config{Logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&config)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			file.Close()
		}
	}()

	header := spec.Header{
		HeaderMagic:         spec.HeaderMagicV3,
		Clustered:           true,
		InternalCompression: spec.CompressionGzip,
	}
	config.HeaderMetadata.apply(&header)

	offset := uint64(spec.HeaderRootDirMaxLength)
	if _, err := file.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}
	if len(config.Metadata) > 0 {
		if _, err := file.Write(config.Metadata); err != nil {
			return nil, err
		}
		header.MetadataOffset = offset
		header.MetadataLength = uint64(len(config.Metadata))
		offset += header.MetadataLength
	}
	header.TileDataOffset = offset

	return &Writer{
		logger:   config.Logger,
		file:     file,
		header:   header,
		tiles:    bufio.NewWriter(file),
		byTile:   make(map[tile.ID]int),
		contents: make(map[[md5.Size]byte]location),
	}, nil
}

// WriteTile appends the tile. Identical contents are stored once; writing
// a tile again replaces it. Empty tiles are skipped.
func (w *Writer) WriteTile(tileID tile.ID, tileData []byte) error {
	if w.tiles == nil {
		return ErrFinalized
	}
	if !tileID.Valid() {
		return fmt.Errorf("mapsforge: invalid tile %v", tileID)
	}
	if len(tileData) == 0 {
		return nil
	}

	digest := md5.Sum(tileData)
	loc, ok := w.contents[digest]
	if !ok {
		if _, err := w.tiles.Write(tileData); err != nil {
			return err
		}
		loc = location{offset: w.tileOffset, length: uint32(len(tileData))}
		w.tileOffset += uint64(len(tileData))
		w.contents[digest] = loc
	}

	entry := spec.Entry{
		TileCode:  spec.EncodeTileID(tileID),
		Offset:    loc.offset,
		Length:    loc.length,
		RunLength: 1,
	}
	if i, ok := w.byTile[tileID]; ok {
		w.entries[i] = entry
		return nil
	}
	w.byTile[tileID] = len(w.entries)
	w.entries = append(w.entries, entry)
	return nil
}

// ReadTile returns a tile written earlier, or an empty slice.
func (w *Writer) ReadTile(tileID tile.ID) ([]byte, error) {
	if w.tiles == nil {
		return nil, ErrFinalized
	}
	i, ok := w.byTile[tileID]
	if !ok {
		return make([]byte, 0), nil
	}
	if err := w.tiles.Flush(); err != nil {
		return nil, err
	}
	e := w.entries[i]
	tileData := make([]byte, e.Length)
	if _, err := w.file.ReadAt(tileData, int64(w.header.TileDataOffset+e.Offset)); err != nil {
		return nil, err
	}
	return tileData, nil
}

// Finalize writes the directories and the header and closes the file.
func (w *Writer) Finalize() error {
	if w.tiles == nil {
		return ErrFinalized
	}
	if err := w.tiles.Flush(); err != nil {
		return err
	}
	w.tiles = nil
	w.header.TileDataLength = w.tileOffset
	w.header.AddressedTilesCount = uint64(len(w.entries))
	w.header.TileContentsCount = uint64(len(w.contents))

	slices.SortFunc(w.entries, func(a, b spec.Entry) int {
		return cmp.Compare(a.TileCode, b.TileCode)
	})
	w.entries = spec.CompactEntries(w.entries)
	w.header.TileEntriesCount = uint64(len(w.entries))

	root, leaves, err := spec.BuildDirectories(w.entries, w.header.InternalCompression)
	if err != nil {
		return err
	}
	w.logger.Debug("mapsforge: pmtiles directories",
		"tiles", w.header.AddressedTilesCount,
		"entries", w.header.TileEntriesCount,
		"root", len(root),
		"leaves", len(leaves))

	leavesOffset := w.header.TileDataOffset + w.header.TileDataLength
	if _, err := w.file.WriteAt(leaves, int64(leavesOffset)); err != nil {
		return err
	}
	w.header.LeafDirectoryOffset = leavesOffset
	w.header.LeafDirectoryLength = uint64(len(leaves))

	if _, err := w.file.WriteAt(root, spec.RootDirOffset); err != nil {
		return err
	}
	w.header.RootOffset = spec.RootDirOffset
	w.header.RootLength = uint64(len(root))

	if _, err := w.file.WriteAt(spec.SerializeHeader(&w.header), 0); err != nil {
		return err
	}

	err = w.file.Close()
	w.file = nil
	return err
}

// Close releases the file. An archive closed before Finalize is incomplete.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.tiles = nil
	return err
}
