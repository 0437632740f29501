// Package geo implements great-circle distance matching over a
// spherical Earth approximation. Matching is a full scan over the
// candidate set; at the scale this system targets a spatial index
// would be overhead with no payoff.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius of the spherical model.
const earthRadiusMeters = 6371000.0

// DefaultRadiusMeters is the system-wide geofence radius. It is used
// uniformly for request fanout, the alerts view and nearby views.
const DefaultRadiusMeters = 35000.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Located is anything that may carry a coordinate. A nil result means
// the location is unknown.
type Located interface {
	Coordinates() *Point
}

// Distance returns the haversine great-circle distance between a and b
// in meters. It is symmetric and zero for coincident points.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// WithinRadius filters candidates to those within radiusMeters of
// origin. Candidates without a location are dropped.
func WithinRadius[T Located](origin Point, candidates []T, radiusMeters float64) []T {
	matched := make([]T, 0, len(candidates))
	for _, c := range candidates {
		loc := c.Coordinates()
		if loc == nil {
			continue
		}
		if Distance(origin, *loc) <= radiusMeters {
			matched = append(matched, c)
		}
	}
	return matched
}
