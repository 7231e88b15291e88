package pm

import (
	"errors"
	"io"
	"os"

	"github.com/eak1mov/go-mapsforge/pm/spec"
	"github.com/eak1mov/go-mapsforge/tile"
)

type FileAccessFunc = func(offset, length uint64) ([]byte, error)

// Reader reads tiles of a finalized archive.
type Reader struct {
	fileAccess FileAccessFunc
	fileCloser func() error
	header     *spec.Header
}

// NewFileReader opens the archive at filePath. The Reader must be closed
// after use.
func NewFileReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(func(offset, length uint64) ([]byte, error) {
		buffer := make([]byte, length)
		if _, err := file.ReadAt(buffer, int64(offset)); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return buffer, nil
	})
	if err != nil {
		file.Close()
		return nil, err
	}
	r.fileCloser = file.Close
	return r, nil
}

func NewReader(fileAccess FileAccessFunc) (*Reader, error) {
	data, err := fileAccess(0, spec.HeaderLength)
	if err != nil {
		return nil, errors.Join(spec.ErrInvalidHeader, err)
	}
	header, err := spec.DeserializeHeader(data)
	if err != nil {
		return nil, err
	}
	return &Reader{
		fileAccess: fileAccess,
		fileCloser: func() error { return nil },
		header:     header,
	}, nil
}

func (r *Reader) Close() error {
	return r.fileCloser()
}

func (r *Reader) HeaderMetadata() HeaderMetadata {
	return headerMetadata(r.header)
}

// ReadMetadata returns the JSON metadata of the archive.
func (r *Reader) ReadMetadata() ([]byte, error) {
	if r.header.MetadataLength == 0 {
		return nil, nil
	}
	return r.fileAccess(r.header.MetadataOffset, r.header.MetadataLength)
}

func (r *Reader) readDirectory(offset, length uint64) ([]spec.Entry, error) {
	data, err := r.fileAccess(offset, length)
	if err != nil {
		return nil, err
	}
	data, err = spec.Decompress(data, r.header.InternalCompression)
	if err != nil {
		return nil, err
	}
	return spec.DeserializeDirectory(data)
}

// ReadTile returns the tile data, or an empty slice if the archive does not
// hold the tile.
func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	code := spec.EncodeTileID(tileID)
	offset, length := r.header.RootOffset, r.header.RootLength
	// leaf directories nest at most a few levels
	for range 4 {
		entries, err := r.readDirectory(offset, length)
		if err != nil {
			return nil, err
		}
		e, ok := spec.FindEntry(entries, code)
		if !ok {
			return make([]byte, 0), nil
		}
		if e.RunLength > 0 {
			return r.fileAccess(r.header.TileDataOffset+e.Offset, uint64(e.Length))
		}
		offset, length = r.header.LeafDirectoryOffset+e.Offset, uint64(e.Length)
	}
	return nil, spec.ErrInvalidDirectory
}

// VisitTiles calls visitor for every tile in tile code order.
func (r *Reader) VisitTiles(visitor func(tile.ID, []byte) error) error {
	var visit func(offset, length uint64) error
	visit = func(offset, length uint64) error {
		entries, err := r.readDirectory(offset, length)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.RunLength == 0 {
				if err := visit(r.header.LeafDirectoryOffset+e.Offset, uint64(e.Length)); err != nil {
					return err
				}
				continue
			}
			tileData, err := r.fileAccess(r.header.TileDataOffset+e.Offset, uint64(e.Length))
			if err != nil {
				return err
			}
			for i := range uint64(e.RunLength) {
				if err := visitor(spec.DecodeTileID(e.TileCode+i), tileData); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return visit(r.header.RootOffset, r.header.RootLength)
}
