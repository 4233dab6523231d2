package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	TIME_PARAM_FORMAT = "2006-01-02T15:04"
	METHOD_WITHIN     = "within"
)

// Area is a circle around a coordinate. NILU expects the radius in kilometres.
type Area struct {
	Latitude  float64
	Longitude float64
	RadiusKm  int
}

func (area Area) validate() error {
	if area.Latitude < -90 || area.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", area.Latitude)
	}
	if area.Longitude < -180 || area.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", area.Longitude)
	}
	if area.RadiusKm <= 0 {
		return fmt.Errorf("radius must be positive, got %d", area.RadiusKm)
	}
	return nil
}

func (area Area) pathSegments() string {
	return fmt.Sprintf("%s/%s/%d",
		formatCoordinate(area.Latitude),
		formatCoordinate(area.Longitude),
		area.RadiusKm,
	)
}

// LatestQuery selects readings from /aq/utd. A nil Within returns every
// station in the country.
type LatestQuery struct {
	Components []string
	Within     *Area
}

func (query LatestQuery) Path() string {
	if query.Within == nil {
		return "/aq/utd"
	}
	return "/aq/utd/" + query.Within.pathSegments()
}

func (query LatestQuery) Values() url.Values {
	values := url.Values{}
	if query.Within != nil {
		values.Set("method", METHOD_WITHIN)
	}
	if len(query.Components) > 0 {
		values.Set("components", strings.Join(query.Components, ";"))
	}
	return values
}

// HistoricalQuery selects a 24 hour window ending at At, from the same clock
// time on the previous day.
type HistoricalQuery struct {
	At         time.Time
	Area       Area
	Components []string
}

func (query HistoricalQuery) From() time.Time {
	return query.At.AddDate(0, 0, -1)
}

func (query HistoricalQuery) Path() string {
	return fmt.Sprintf("/aq/historical/%s/%s/%s",
		query.From().Format(TIME_PARAM_FORMAT),
		query.At.Format(TIME_PARAM_FORMAT),
		query.Area.pathSegments(),
	)
}

func (query HistoricalQuery) Values() url.Values {
	values := url.Values{}
	values.Set("method", METHOD_WITHIN)
	if len(query.Components) > 0 {
		values.Set("components", strings.Join(query.Components, ";"))
	}
	return values
}

func (query HistoricalQuery) Validate() error {
	if query.At.IsZero() {
		return fmt.Errorf("reference time is required")
	}
	return query.Area.validate()
}

func formatCoordinate(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
