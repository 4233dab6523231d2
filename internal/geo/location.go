// Package geo holds coordinate types and great-circle distance.
package geo

import "math"

const earthRadiusMeters = 6371000

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Location) float64 {
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)
	deltaLat := toRad(b.Latitude - a.Latitude)
	deltaLng := toRad(b.Longitude - a.Longitude)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
