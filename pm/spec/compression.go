package spec

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
)

var ErrUnsupportedCompression = errors.New("unsupported compression")

// Compress encodes data for storage in an archive. Only none and gzip are
// supported.
func Compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCompression, c)
	}

	var buffer bytes.Buffer
	w, _ := gzip.NewWriterLevel(&buffer, gzip.BestCompression)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return buffer.Bytes(), nil
}

func Decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCompression, c)
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	return out, nil
}
