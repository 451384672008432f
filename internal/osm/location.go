// Package osm defines the fixed-point location model, bounding boxes and the
// entity types delivered by an ingestion stream.
package osm

import (
	"errors"
	"fmt"
	"math"
)

const (
	// CoordinatePrecision is the number of fixed-point units per degree.
	CoordinatePrecision = 10000000

	// InvalidCoordinate marks an undefined x or y.
	InvalidCoordinate int32 = math.MaxInt32
)

var ErrEncoding = errors.New("coordinate not representable")

// EncodingError reports a degree value that does not fit the 32 bit grid.
type EncodingError struct {
	Axis  string
	Value float64
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s %v: %v", e.Axis, e.Value, ErrEncoding)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// Location is a longitude/latitude pair stored in 1e-7 degree units.
// Ranges are never checked on construction; use Valid before geospatial use.
// The zero value is the defined point (0,0); UndefinedLocation is the empty
// location.
type Location struct {
	x int32
	y int32
}

func UndefinedLocation() Location {
	return Location{x: InvalidCoordinate, y: InvalidCoordinate}
}

func NewLocation(x, y int32) Location {
	return Location{x: x, y: y}
}

// LocationFromDegrees rounds both values to the nearest grid point.
func LocationFromDegrees(lon, lat float64) (Location, error) {
	x, err := DegreesToFixed("lon", lon)
	if err != nil {
		return UndefinedLocation(), err
	}
	y, err := DegreesToFixed("lat", lat)
	if err != nil {
		return UndefinedLocation(), err
	}
	return Location{x: x, y: y}, nil
}

func MustLocation(lon, lat float64) Location {
	l, err := LocationFromDegrees(lon, lat)
	if err != nil {
		panic(err)
	}
	return l
}

// DegreesToFixed encodes one axis. Values whose rounded result falls outside
// the int32 range, or would collide with InvalidCoordinate, are rejected.
func DegreesToFixed(axis string, deg float64) (int32, error) {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return InvalidCoordinate, &EncodingError{Axis: axis, Value: deg}
	}
	v := math.Round(deg * CoordinatePrecision)
	if v < math.MinInt32 || v >= math.MaxInt32 {
		return InvalidCoordinate, &EncodingError{Axis: axis, Value: deg}
	}
	return int32(v), nil
}

func FixedToDegrees(c int32) float64 {
	return float64(c) / CoordinatePrecision
}

func (l Location) X() int32 { return l.x }

func (l Location) Y() int32 { return l.y }

func (l Location) Lon() float64 { return FixedToDegrees(l.x) }

func (l Location) Lat() float64 { return FixedToDegrees(l.y) }

func (l Location) WithX(x int32) Location {
	l.x = x
	return l
}

func (l Location) WithY(y int32) Location {
	l.y = y
	return l
}

func (l Location) WithLon(lon float64) (Location, error) {
	x, err := DegreesToFixed("lon", lon)
	if err != nil {
		return l, err
	}
	l.x = x
	return l, nil
}

func (l Location) WithLat(lat float64) (Location, error) {
	y, err := DegreesToFixed("lat", lat)
	if err != nil {
		return l, err
	}
	l.y = y
	return l, nil
}

func (l Location) Defined() bool {
	return l.x != InvalidCoordinate && l.y != InvalidCoordinate
}

func (l Location) Valid() bool {
	return l.Defined() &&
		l.x >= -180*CoordinatePrecision && l.x <= 180*CoordinatePrecision &&
		l.y >= -90*CoordinatePrecision && l.y <= 90*CoordinatePrecision
}

// Less orders by x, then y. Undefined locations compare by their raw
// sentinel values, which carries no geographic meaning.
func (l Location) Less(o Location) bool {
	return l.x < o.x || (l.x == o.x && l.y < o.y)
}

func (l Location) Compare(o Location) int {
	switch {
	case l.Less(o):
		return -1
	case o.Less(l):
		return 1
	}
	return 0
}

func (l Location) String() string {
	if !l.Defined() {
		return "undefined"
	}
	return fmt.Sprintf("(%.7f,%.7f)", l.Lon(), l.Lat())
}
