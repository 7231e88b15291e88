// Package mapfiletest builds synthetic map files for tests.
package mapfiletest

import (
	"fmt"
	"time"

	"github.com/eak1mov/go-mapsforge/geo"
	"github.com/eak1mov/go-mapsforge/mapfile/spec"
	"github.com/eak1mov/go-mapsforge/model"
	"github.com/paulmach/orb"
)

// Node is a node record with raw offsets in microdegrees relative to the
// block position.
type Node struct {
	LatE6, LonE6 int64
	Layer        byte
	TagIDs       []uint64
	Name         string
	HouseNumber  string
	Elevation    *int64
}

// Way is a way record. DataBlocks holds, per data block, the coordinate
// blocks as raw (lat, lon) microdegree values exactly as stored: the first
// pair is relative to the block position, the following pairs are deltas
// or double deltas.
type Way struct {
	Bitmask       uint16
	Layer         byte
	TagIDs        []uint64
	Name          string
	HouseNumber   string
	Ref           string
	LabelPosition *[2]int64
	DoubleDelta   bool
	DataBlocks    [][][][2]int64
}

// Block is the content of one grid block. ZoomRows holds per zoom row the
// number of nodes and ways added at that row (the counts are stored
// cumulatively by the format, so each row holds the increment).
type Block struct {
	Water    bool
	ZoomRows [][2]uint64
	Nodes    []Node
	Ways     []Way

	// Raw replaces the encoded body when set.
	Raw []byte
	// Empty writes a zero-length block.
	Empty bool
}

// SubFile lists the blocks of a sub-file in row-major order.
type SubFile struct {
	BaseZoom, ZoomMin, ZoomMax uint8
	Blocks                     []Block
}

// Header returns a valid header for the bounding box.
func Header(bbox orb.Bound, nodeTags, wayTags []string) *spec.Header {
	h := &spec.Header{
		Version:        spec.SupportedVersion,
		MapDate:        time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		BoundingBox:    bbox,
		TilePixelSize:  spec.TilePixelSize,
		ProjectionName: "Mercator",
	}
	for _, t := range nodeTags {
		h.NodeTags = append(h.NodeTags, model.ParseTag(t))
	}
	for _, t := range wayTags {
		h.WayTags = append(h.WayTags, model.ParseTag(t))
	}
	return h
}

// Build encodes a complete map file. It panics if the number of blocks of a
// sub-file does not match its grid.
func Build(h *spec.Header, subFiles []SubFile) []byte {
	h.SubFiles = make([]spec.SubFile, len(subFiles))
	for i, s := range subFiles {
		h.SubFiles[i] = spec.SubFile{BaseZoom: s.BaseZoom, ZoomMin: s.ZoomMin, ZoomMax: s.ZoomMax}
	}
	headerLength := int64(spec.SerializedHeaderLength(h))

	var body []byte
	offset := headerLength
	for i, s := range subFiles {
		grid := spec.NewSubFile(s.BaseZoom, s.ZoomMin, s.ZoomMax, offset, 1, h.Debug, h.BoundingBox)
		if int64(len(s.Blocks)) != grid.NumberOfBlocks {
			panic(fmt.Sprintf("mapfiletest: sub-file %d has %d blocks, grid needs %d", i, len(s.Blocks), grid.NumberOfBlocks))
		}
		data := encodeSubFile(h.Debug, s)
		h.SubFiles[i].StartAddress = offset
		h.SubFiles[i].SubFileSize = int64(len(data))
		body = append(body, data...)
		offset += int64(len(data))
	}

	h.FileSize = offset
	file := spec.SerializeHeader(h)
	return append(file, body...)
}

func encodeSubFile(debug bool, s SubFile) []byte {
	var index []byte
	if debug {
		index = append(index, signature("+++IndexStart+++", spec.DebugIndexSignatureLength)...)
	}
	indexLength := len(index) + len(s.Blocks)*spec.IndexEntryLength

	var blocks []byte
	for _, b := range s.Blocks {
		pointer := uint64(indexLength + len(blocks))
		if b.Water {
			pointer |= spec.IndexWaterBit
		}
		index = spec.AppendUint40(index, pointer)
		if !b.Empty {
			blocks = append(blocks, EncodeBlock(debug, b)...)
		}
	}
	return append(index, blocks...)
}

func signature(prefix string, length int) []byte {
	s := []byte(prefix)
	for len(s) < length {
		s = append(s, ' ')
	}
	return s[:length]
}

// EncodeBlock encodes the body of one block.
func EncodeBlock(debug bool, b Block) []byte {
	if b.Raw != nil {
		return b.Raw
	}

	var data []byte
	if debug {
		data = append(data, signature(spec.BlockSignaturePrefix+"1,1", spec.SignatureLength)...)
	}
	for _, row := range b.ZoomRows {
		data = spec.AppendUnsignedVarint(data, row[0])
		data = spec.AppendUnsignedVarint(data, row[1])
	}

	var nodes []byte
	for _, n := range b.Nodes {
		nodes = append(nodes, encodeNode(debug, n)...)
	}
	data = spec.AppendUnsignedVarint(data, uint64(len(nodes)))
	data = append(data, nodes...)

	for _, w := range b.Ways {
		data = append(data, encodeWay(debug, w)...)
	}
	return data
}

func encodeNode(debug bool, n Node) []byte {
	var data []byte
	if debug {
		data = append(data, signature(spec.NodeSignaturePrefix, spec.SignatureLength)...)
	}
	data = spec.AppendSignedVarint(data, n.LatE6)
	data = spec.AppendSignedVarint(data, n.LonE6)
	data = append(data, n.Layer<<4|byte(len(n.TagIDs)))
	for _, id := range n.TagIDs {
		data = spec.AppendUnsignedVarint(data, id)
	}

	var feature byte
	if n.Name != "" {
		feature |= spec.NodeFeatureName
	}
	if n.HouseNumber != "" {
		feature |= spec.NodeFeatureHouseNumber
	}
	if n.Elevation != nil {
		feature |= spec.NodeFeatureElevation
	}
	data = append(data, feature)
	if n.Name != "" {
		data = spec.AppendUTF8(data, n.Name)
	}
	if n.HouseNumber != "" {
		data = spec.AppendUTF8(data, n.HouseNumber)
	}
	if n.Elevation != nil {
		data = spec.AppendSignedVarint(data, *n.Elevation)
	}
	return data
}

func encodeWay(debug bool, w Way) []byte {
	var body []byte
	body = append(body, byte(w.Bitmask>>8), byte(w.Bitmask))
	body = append(body, w.Layer<<4|byte(len(w.TagIDs)))
	for _, id := range w.TagIDs {
		body = spec.AppendUnsignedVarint(body, id)
	}

	var feature byte
	if w.Name != "" {
		feature |= spec.WayFeatureName
	}
	if w.HouseNumber != "" {
		feature |= spec.WayFeatureHouseNumber
	}
	if w.Ref != "" {
		feature |= spec.WayFeatureRef
	}
	if w.LabelPosition != nil {
		feature |= spec.WayFeatureLabelPosition
	}
	if len(w.DataBlocks) != 1 {
		feature |= spec.WayFeatureDataBlocks
	}
	if w.DoubleDelta {
		feature |= spec.WayFeatureDoubleDelta
	}
	body = append(body, feature)
	if w.Name != "" {
		body = spec.AppendUTF8(body, w.Name)
	}
	if w.HouseNumber != "" {
		body = spec.AppendUTF8(body, w.HouseNumber)
	}
	if w.Ref != "" {
		body = spec.AppendUTF8(body, w.Ref)
	}
	if w.LabelPosition != nil {
		body = spec.AppendSignedVarint(body, w.LabelPosition[0])
		body = spec.AppendSignedVarint(body, w.LabelPosition[1])
	}
	if len(w.DataBlocks) != 1 {
		body = spec.AppendUnsignedVarint(body, uint64(len(w.DataBlocks)))
	}
	for _, coordinateBlocks := range w.DataBlocks {
		body = spec.AppendUnsignedVarint(body, uint64(len(coordinateBlocks)))
		for _, points := range coordinateBlocks {
			body = spec.AppendUnsignedVarint(body, uint64(len(points)))
			for _, p := range points {
				body = spec.AppendSignedVarint(body, p[0])
				body = spec.AppendSignedVarint(body, p[1])
			}
		}
	}

	var data []byte
	if debug {
		data = append(data, signature(spec.WaySignaturePrefix, spec.SignatureLength)...)
	}
	data = spec.AppendUnsignedVarint(data, uint64(len(body)))
	return append(data, body...)
}

// Point returns the position of a raw offset from base.
func Point(base geo.GeoPoint, latE6, lonE6 int64) geo.GeoPoint {
	return geo.GeoPoint{
		Latitude:  base.Latitude + float64(latE6)/1e6,
		Longitude: base.Longitude + float64(lonE6)/1e6,
	}
}

// MemoryFile serves data through a counting file access function.
type MemoryFile struct {
	Data  []byte
	Reads int
}

func (f *MemoryFile) Access(offset, length uint64) ([]byte, error) {
	f.Reads++
	if offset+length > uint64(len(f.Data)) {
		return nil, fmt.Errorf("mapfiletest: read %d bytes at %d beyond %d", length, offset, len(f.Data))
	}
	return f.Data[offset : offset+length], nil
}

func (f *MemoryFile) Size() int64 {
	return int64(len(f.Data))
}
