// Package geo provides geographic coordinates and bounding boxes.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	LatitudeMax  = 90.0
	LatitudeMin  = -90.0
	LongitudeMax = 180.0
	LongitudeMin = -180.0

	// conversion factor between degrees and microdegrees
	microdegrees = 1000000.0
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// GeoPoint is a WGS84 position in degrees.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// NewGeoPoint returns a GeoPoint or ErrInvalidCoordinate if either value is
// out of range.
func NewGeoPoint(latitude, longitude float64) (GeoPoint, error) {
	if math.IsNaN(latitude) || latitude < LatitudeMin || latitude > LatitudeMax {
		return GeoPoint{}, fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, latitude)
	}
	if math.IsNaN(longitude) || longitude < LongitudeMin || longitude > LongitudeMax {
		return GeoPoint{}, fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, longitude)
	}
	return GeoPoint{Latitude: latitude, Longitude: longitude}, nil
}

// FromMicrodegrees builds a point from integer microdegrees without validation.
func FromMicrodegrees(latitudeE6, longitudeE6 int32) GeoPoint {
	return GeoPoint{
		Latitude:  MicrodegreesToDegrees(latitudeE6),
		Longitude: MicrodegreesToDegrees(longitudeE6),
	}
}

func MicrodegreesToDegrees(value int32) float64 {
	return float64(value) / microdegrees
}

func DegreesToMicrodegrees(value float64) int32 {
	return int32(math.Round(value * microdegrees))
}

// Point returns the orb representation (longitude first).
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}

// ClampLatitude limits a decoded latitude to the valid range.
func ClampLatitude(latitude float64) float64 {
	return math.Max(LatitudeMin, math.Min(LatitudeMax, latitude))
}

// ClampLongitude limits a decoded longitude to the valid range.
func ClampLongitude(longitude float64) float64 {
	return math.Max(LongitudeMin, math.Min(LongitudeMax, longitude))
}

// NewBound builds a bounding box from its corner coordinates.
func NewBound(minLat, minLon, maxLat, maxLon float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{maxLon, maxLat},
	}
}

// BoundContains reports whether the point lies inside or on the edge of b.
func BoundContains(b orb.Bound, p GeoPoint) bool {
	return b.Contains(p.Point())
}

// BoundCenter returns the centre of b as a GeoPoint.
func BoundCenter(b orb.Bound) GeoPoint {
	c := b.Center()
	return GeoPoint{Latitude: c.Lat(), Longitude: c.Lon()}
}
