package spec

import (
	"encoding/binary"

	"github.com/eak1mov/go-mapsforge/geo"
)

// SerializeHeader encodes h. Derived fields (zoom range, index addresses,
// boundary tiles) are ignored; sub-files are written in table order.
func SerializeHeader(h *Header) []byte {
	var body []byte
	body = binary.BigEndian.AppendUint32(body, uint32(h.Version))
	body = binary.BigEndian.AppendUint64(body, uint64(h.FileSize))
	body = binary.BigEndian.AppendUint64(body, uint64(h.MapDate.UnixMilli()))
	for _, v := range []float64{
		h.BoundingBox.Min.Lat(), h.BoundingBox.Min.Lon(),
		h.BoundingBox.Max.Lat(), h.BoundingBox.Max.Lon(),
	} {
		body = binary.BigEndian.AppendUint32(body, uint32(geo.DegreesToMicrodegrees(v)))
	}
	body = binary.BigEndian.AppendUint16(body, uint16(h.TilePixelSize))
	body = AppendUTF8(body, h.ProjectionName)

	var flags byte
	if h.Debug {
		flags |= flagDebug
	}
	if h.StartPosition != nil {
		flags |= flagStartPosition
	}
	if h.StartZoom != nil {
		flags |= flagStartZoom
	}
	if h.LanguagePreference != "" {
		flags |= flagLanguagePreference
	}
	if h.Comment != "" {
		flags |= flagComment
	}
	if h.CreatedBy != "" {
		flags |= flagCreatedBy
	}
	body = append(body, flags)
	if h.StartPosition != nil {
		body = binary.BigEndian.AppendUint32(body, uint32(geo.DegreesToMicrodegrees(h.StartPosition.Latitude)))
		body = binary.BigEndian.AppendUint32(body, uint32(geo.DegreesToMicrodegrees(h.StartPosition.Longitude)))
	}
	if h.StartZoom != nil {
		body = append(body, *h.StartZoom)
	}
	if h.LanguagePreference != "" {
		body = AppendUTF8(body, h.LanguagePreference)
	}
	if h.Comment != "" {
		body = AppendUTF8(body, h.Comment)
	}
	if h.CreatedBy != "" {
		body = AppendUTF8(body, h.CreatedBy)
	}

	for _, tags := range [][]string{tagStrings(h.NodeTags), tagStrings(h.WayTags)} {
		body = binary.BigEndian.AppendUint16(body, uint16(len(tags)))
		for _, tag := range tags {
			body = AppendUTF8(body, tag)
		}
	}

	body = append(body, byte(len(h.SubFiles)))
	for _, s := range h.SubFiles {
		body = append(body, s.BaseZoom, s.ZoomMin, s.ZoomMax)
		body = binary.BigEndian.AppendUint64(body, uint64(s.StartAddress))
		body = binary.BigEndian.AppendUint64(body, uint64(s.SubFileSize))
	}

	for len(body) < RemainingHeaderSizeMin {
		body = append(body, 0)
	}

	data := make([]byte, 0, HeaderPrefixLength+len(body))
	data = append(data, Magic...)
	data = binary.BigEndian.AppendUint32(data, uint32(len(body)))
	return append(data, body...)
}

// SerializedHeaderLength returns the encoded length of h.
func SerializedHeaderLength(h *Header) int {
	return len(SerializeHeader(h))
}

func tagStrings[T interface{ String() string }](tags []T) []string {
	s := make([]string, len(tags))
	for i, t := range tags {
		s[i] = t.String()
	}
	return s
}
