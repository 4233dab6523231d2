package history

import (
	"time"

	"github.com/monorkin/soleklart/internal/models"
)

// StationInfo represents station information for JSON output
type StationInfo struct {
	ID           uint     `json:"id"`
	EOI          string   `json:"eoi"`
	Name         string   `json:"name"`
	Area         string   `json:"area,omitempty"`
	Municipality string   `json:"municipality,omitempty"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	LastSeen     string   `json:"last_seen"`
}

// MeasurementInfo represents measurement information for JSON output
type MeasurementInfo struct {
	Timestamp string  `json:"timestamp"`
	Component string  `json:"component"`
	Unit      string  `json:"unit,omitempty"`
	Value     float64 `json:"value"`
}

func NewStationInfo(station models.Station) StationInfo {
	return StationInfo{
		ID:           station.ID,
		EOI:          station.EOI,
		Name:         station.Name,
		Area:         station.Area,
		Municipality: station.Municipality,
		Latitude:     station.Latitude,
		Longitude:    station.Longitude,
		LastSeen:     station.LastSeen.Format(time.RFC3339),
	}
}

func NewMeasurementInfo(measurement models.Measurement) MeasurementInfo {
	return MeasurementInfo{
		Timestamp: measurement.Timestamp.Format(time.RFC3339),
		Component: measurement.Component,
		Unit:      measurement.Unit,
		Value:     measurement.Value,
	}
}
