package model

import "github.com/eak1mov/go-mapsforge/geo"

// Well-known keys of tags synthesized from feature bytes.
const (
	KeyName        = "name"
	KeyHouseNumber = "addr:housenumber"
	KeyElevation   = "ele"
	KeyRef         = "ref"
)

// Node is a point of interest.
type Node struct {
	Layer    int8
	Tags     TagList
	Position geo.GeoPoint
}

// Way is a line or an area. Rings[0] is the outer ring, further rings are
// inner rings or additional segments.
type Way struct {
	Layer         int8
	Tags          TagList
	Rings         [][]geo.GeoPoint
	LabelPosition *geo.GeoPoint
}

// Closed reports whether the first ring ends where it starts.
func (w Way) Closed() bool {
	if len(w.Rings) == 0 || len(w.Rings[0]) < 2 {
		return false
	}
	ring := w.Rings[0]
	return ring[0] == ring[len(ring)-1]
}
