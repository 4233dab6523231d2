package airquality

import (
	"github.com/monorkin/soleklart/internal/geo"
)

// NEAREST_MAX_METERS bounds the station search done by Source.
const NEAREST_MAX_METERS = 100_000

// Closest returns a copy of the reading nearest to origin with its Distance
// set. Readings without coordinates are skipped and the first of several
// equally distant readings wins. It returns nil when nothing qualifies.
func Closest(readings []Reading, origin geo.Location) *Reading {
	return ClosestWithin(readings, origin, 0)
}

// ClosestWithin is Closest limited to readings strictly closer than
// maxMeters. A maxMeters of zero or less disables the limit.
func ClosestWithin(readings []Reading, origin geo.Location, maxMeters float64) *Reading {
	index, distance := closestIndex(readings, origin, maxMeters)
	if index < 0 {
		return nil
	}

	closest := readings[index]
	closest.Distance = distance
	return &closest
}

func closestIndex(readings []Reading, origin geo.Location, maxMeters float64) (int, float64) {
	index := -1
	smallest := 0.0

	for i, r := range readings {
		location, ok := r.Location()
		if !ok {
			continue
		}

		distance := geo.Distance(origin, location)
		if maxMeters > 0 && distance >= maxMeters {
			continue
		}
		if index < 0 || distance < smallest {
			index = i
			smallest = distance
		}
	}

	return index, smallest
}
