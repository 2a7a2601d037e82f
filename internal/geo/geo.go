// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

// Package geo provides coordinate validation and geometry helpers shared by
// the fusion pipeline. Validation is a pure predicate: callers discard
// invalid coordinates silently rather than propagating errors.
package geo

import "math"

// CoordinateEpsilon is the threshold for considering coordinates as effectively zero.
// DETERMINISM: A coordinate pair is treated as the "no fix" sentinel (0,0) if both
// latitude and longitude are within this epsilon of zero. 1e-7 degrees is roughly
// 1.1cm at the equator, well below the accuracy of any upstream source, but gives
// a reliable float comparison instead of direct equality.
const CoordinateEpsilon = 1e-7

// earthRadiusKm is the mean Earth radius used by Haversine.
const earthRadiusKm = 6371.0

// IsZeroLocation returns true if the coordinates represent the (0,0) "no fix"
// sentinel. Upstream daemons report (0,0) when they have no position lock;
// it is never a valid report.
func IsZeroLocation(lat, lng float64) bool {
	return math.Abs(lat) < CoordinateEpsilon && math.Abs(lng) < CoordinateEpsilon
}

// IsValid reports whether a coordinate pair may enter the fusion pipeline.
// It returns false when either value is non-finite, outside WGS84 bounds,
// or when the pair is the (0,0) sentinel. Total: never panics, no error path.
func IsValid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	return !IsZeroLocation(lat, lng)
}

// IsValidPtr is the pointer form of IsValid for raw feed records where
// coordinates are optional fields. Absent coordinates are invalid.
func IsValidPtr(lat, lng *float64) bool {
	if lat == nil || lng == nil {
		return false
	}
	return IsValid(*lat, *lng)
}

// Haversine returns the great-circle distance in kilometers between two
// WGS84 coordinate pairs.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Point is a bare coordinate pair used for bounding-box computation.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is the minimal axis-aligned box containing a set of points.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// ComputeBoundingBox returns the bounding box of the given points.
// The second return value is false when the point set is empty.
func ComputeBoundingBox(points []Point) (BoundingBox, bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}

	box := BoundingBox{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLng: points[0].Lng, MaxLng: points[0].Lng,
	}
	for _, p := range points[1:] {
		box.MinLat = math.Min(box.MinLat, p.Lat)
		box.MaxLat = math.Max(box.MaxLat, p.Lat)
		box.MinLng = math.Min(box.MinLng, p.Lng)
		box.MaxLng = math.Max(box.MaxLng, p.Lng)
	}
	return box, true
}
