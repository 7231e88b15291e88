package spec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
)

var ErrInvalidDirectory = errors.New("invalid pmtiles directory")

// Entry addresses a run of tiles sharing one content, or a leaf directory
// when RunLength is zero.
type Entry struct {
	TileCode  uint64
	Offset    uint64
	Length    uint32
	RunLength uint32
}

// SerializeDirectory writes entries column by column: tile code deltas,
// run lengths, lengths and offsets. An offset equal to the end of the
// previous entry is stored as 0, any other as offset+1.
func SerializeDirectory(entries []Entry) []byte {
	buffer := binary.AppendUvarint(nil, uint64(len(entries)))

	var lastCode uint64
	for _, e := range entries {
		buffer = binary.AppendUvarint(buffer, e.TileCode-lastCode)
		lastCode = e.TileCode
	}
	for _, e := range entries {
		buffer = binary.AppendUvarint(buffer, uint64(e.RunLength))
	}
	for _, e := range entries {
		buffer = binary.AppendUvarint(buffer, uint64(e.Length))
	}
	for i, e := range entries {
		if i > 0 && e.Offset == entries[i-1].Offset+uint64(entries[i-1].Length) {
			buffer = binary.AppendUvarint(buffer, 0)
		} else {
			buffer = binary.AppendUvarint(buffer, e.Offset+1)
		}
	}
	return buffer
}

type uvarintReader struct {
	data []byte
	err  error
}

func (r *uvarintReader) next() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data)
	if n <= 0 {
		r.err = fmt.Errorf("%w: truncated varint", ErrInvalidDirectory)
		return 0
	}
	r.data = r.data[n:]
	return v
}

func DeserializeDirectory(data []byte) ([]Entry, error) {
	r := uvarintReader{data: data}
	n := r.next()
	// every entry takes at least four bytes
	if r.err == nil && n > uint64(len(r.data))/4 {
		return nil, fmt.Errorf("%w: %d entries in %d bytes", ErrInvalidDirectory, n, len(data))
	}
	entries := make([]Entry, n)

	var code uint64
	for i := range entries {
		code += r.next()
		entries[i].TileCode = code
	}
	for i := range entries {
		entries[i].RunLength = uint32(r.next())
	}
	for i := range entries {
		entries[i].Length = uint32(r.next())
	}
	for i := range entries {
		v := r.next()
		switch {
		case v == 0 && i > 0:
			entries[i].Offset = entries[i-1].Offset + uint64(entries[i-1].Length)
		case v == 0:
			r.err = firstErr(r.err, fmt.Errorf("%w: first offset is relative", ErrInvalidDirectory))
		default:
			entries[i].Offset = v - 1
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return entries, nil
}

func firstErr(err, other error) error {
	if err != nil {
		return err
	}
	return other
}

// CompactEntries merges consecutive tiles that share their content into
// runs. entries must be sorted by tile code; the slice is reused.
func CompactEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return entries
	}
	last := 0
	for _, e := range entries[1:] {
		run := &entries[last]
		if e.Offset == run.Offset && e.TileCode == run.TileCode+uint64(run.RunLength) {
			run.RunLength++
			continue
		}
		last++
		entries[last] = e
	}
	return entries[:last+1]
}

// FindEntry returns the entry covering code: a run containing it or the
// leaf directory that may hold it.
func FindEntry(entries []Entry, code uint64) (Entry, bool) {
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].TileCode > code
	})
	if i == 0 {
		return Entry{}, false
	}
	e := entries[i-1]
	if e.RunLength == 0 || code < e.TileCode+uint64(e.RunLength) {
		return e, true
	}
	return Entry{}, false
}

// BuildDirectories serializes sorted entries into a compressed root
// directory and, when the root would not fit its reserved space, into
// leaf directories addressed by the root.
func BuildDirectories(entries []Entry, c Compression) (root, leaves []byte, err error) {
	root, err = Compress(SerializeDirectory(entries), c)
	if err != nil || len(root) <= RootDirMaxLength {
		return root, nil, err
	}

	perEntry := float64(len(root)) / float64(len(entries))
	leafSize := max(float64(len(entries))*perEntry/(RootDirMaxLength*0.9), 4096, math.Sqrt(float64(len(entries))))
	for len(root) > RootDirMaxLength {
		var rootEntries []Entry
		leaves = leaves[:0]
		for chunk := range slices.Chunk(entries, int(leafSize)) {
			leaf, err := Compress(SerializeDirectory(chunk), c)
			if err != nil {
				return nil, nil, err
			}
			rootEntries = append(rootEntries, Entry{
				TileCode: chunk[0].TileCode,
				Offset:   uint64(len(leaves)),
				Length:   uint32(len(leaf)),
			})
			leaves = append(leaves, leaf...)
		}
		if root, err = Compress(SerializeDirectory(rootEntries), c); err != nil {
			return nil, nil, err
		}
		leafSize *= 1.1
	}
	return root, leaves, nil
}
