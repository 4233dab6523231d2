package api

import (
	"time"
)

// Observation is one entry of the /aq/utd response: the latest value of a
// single component at a single station.
type Observation struct {
	ID           int       `json:"id,omitempty"`
	Zone         string    `json:"zone,omitempty"`
	Municipality string    `json:"municipality,omitempty"`
	Area         string    `json:"area,omitempty"`
	Station      string    `json:"station,omitempty"`
	EOI          string    `json:"eoi,omitempty"`
	Type         string    `json:"type,omitempty"`
	Component    string    `json:"component,omitempty"`
	FromTime     time.Time `json:"fromTime,omitempty"`
	ToTime       time.Time `json:"toTime,omitempty"`
	Value        float64   `json:"value"`
	Unit         string    `json:"unit,omitempty"`
	Timestep     int       `json:"timestep,omitempty"`
	Index        int       `json:"index,omitempty"`
	Color        string    `json:"color,omitempty"`
	IsValid      bool      `json:"isValid,omitempty"`
	IsVisible    bool      `json:"isVisible,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
}

// StationSeries is one entry of the /aq/historical response.
type StationSeries struct {
	Zone         string   `json:"zone,omitempty"`
	Municipality string   `json:"municipality,omitempty"`
	Area         string   `json:"area,omitempty"`
	Station      string   `json:"station,omitempty"`
	EOI          string   `json:"eoi,omitempty"`
	Component    string   `json:"component,omitempty"`
	Unit         string   `json:"unit,omitempty"`
	Timestep     int      `json:"timestep,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Values       []Value  `json:"values,omitempty"`
}

type Value struct {
	FromTime          time.Time `json:"fromTime,omitempty"`
	ToTime            time.Time `json:"toTime,omitempty"`
	Value             float64   `json:"value"`
	QualityControlled bool      `json:"qualityControlled,omitempty"`
	Index             int       `json:"index,omitempty"`
	Color             string    `json:"color,omitempty"`
}

// Station is one entry of the /lookup/stations response.
type Station struct {
	ID           int      `json:"id,omitempty"`
	Zone         string   `json:"zone,omitempty"`
	Municipality string   `json:"municipality,omitempty"`
	Area         string   `json:"area,omitempty"`
	Station      string   `json:"station,omitempty"`
	EOI          string   `json:"eoi,omitempty"`
	Type         string   `json:"type,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Owner        string   `json:"owner,omitempty"`
	Status       string   `json:"status,omitempty"`
	Components   string   `json:"components,omitempty"`
}
