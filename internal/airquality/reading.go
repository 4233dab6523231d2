// Package airquality turns NILU responses into readings and picks the one
// closest to a location.
package airquality

import (
	"time"

	"github.com/monorkin/soleklart/internal/geo"
	"github.com/monorkin/soleklart/nilu/api"
)

const DEFAULT_COMPONENT = "pm10"

// Reading is a single measurement tied to a station. It is not modified
// after it has been built from a response, except for Distance which the
// nearest lookup fills in on its own copy.
type Reading struct {
	StationID    string    `json:"station_id"`
	Station      string    `json:"station"`
	Area         string    `json:"area,omitempty"`
	Municipality string    `json:"municipality,omitempty"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Component    string    `json:"component"`
	Unit         string    `json:"unit,omitempty"`
	Value        float64   `json:"value"`
	Timestamp    time.Time `json:"timestamp"`
	Distance     float64   `json:"distance_m,omitempty"`
}

// Location reports the reading's coordinates, or false when either one is
// missing.
func (r Reading) Location() (geo.Location, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return geo.Location{}, false
	}
	return geo.Location{Latitude: *r.Latitude, Longitude: *r.Longitude}, true
}

func FromObservation(o api.Observation) Reading {
	return Reading{
		StationID:    o.EOI,
		Station:      o.Station,
		Area:         o.Area,
		Municipality: o.Municipality,
		Latitude:     o.Latitude,
		Longitude:    o.Longitude,
		Component:    o.Component,
		Unit:         o.Unit,
		Value:        o.Value,
		Timestamp:    o.ToTime,
	}
}

func FromObservations(observations []api.Observation) []Reading {
	readings := make([]Reading, 0, len(observations))
	for _, o := range observations {
		readings = append(readings, FromObservation(o))
	}
	return readings
}

// FromSeries builds a reading from the first value of a station series.
// It returns false when the series holds no values.
func FromSeries(s api.StationSeries) (Reading, bool) {
	r := Reading{
		StationID:    s.EOI,
		Station:      s.Station,
		Area:         s.Area,
		Municipality: s.Municipality,
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		Component:    s.Component,
		Unit:         s.Unit,
	}
	if len(s.Values) == 0 {
		return r, false
	}
	r.Value = s.Values[0].Value
	r.Timestamp = s.Values[0].ToTime
	return r, true
}
