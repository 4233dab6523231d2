package api

import (
	"testing"
	"time"
)

func TestLatestQueryPath(t *testing.T) {
	tests := []struct {
		name  string
		query LatestQuery
		path  string
		raw   string
	}{
		{
			name:  "whole country",
			query: LatestQuery{},
			path:  "/aq/utd",
			raw:   "",
		},
		{
			name: "within area",
			query: LatestQuery{
				Components: []string{"pm10"},
				Within:     &Area{Latitude: 63.4305, Longitude: 10.3951, RadiusKm: 5},
			},
			path: "/aq/utd/63.4305/10.3951/5",
			raw:  "components=pm10&method=within",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Path(); got != tt.path {
				t.Errorf("Path() = %q, want %q", got, tt.path)
			}
			if got := tt.query.Values().Encode(); got != tt.raw {
				t.Errorf("Values() = %q, want %q", got, tt.raw)
			}
		})
	}
}

func TestHistoricalQueryWindowCrossesMonth(t *testing.T) {
	query := HistoricalQuery{
		At:   time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		Area: Area{Latitude: 60.39, Longitude: 5.32, RadiusKm: 10},
	}

	want := "/aq/historical/2024-02-29T08:00/2024-03-01T08:00/60.39/5.32/10"
	if got := query.Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestHistoricalQueryValidate(t *testing.T) {
	valid := Area{Latitude: 60, Longitude: 10, RadiusKm: 1}

	if err := (HistoricalQuery{Area: valid}).Validate(); err == nil {
		t.Error("expected error for zero reference time")
	}
	if err := (HistoricalQuery{At: time.Now(), Area: Area{Latitude: 60, Longitude: 10}}).Validate(); err == nil {
		t.Error("expected error for zero radius")
	}
	if err := (HistoricalQuery{At: time.Now(), Area: valid}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
