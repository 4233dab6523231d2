package models

import (
	"time"

	"gorm.io/gorm"
)

// Station is a NILU monitoring station seen by the history recorder.
type Station struct {
	gorm.Model
	EOI          string `gorm:"column:eoi;uniqueIndex"`
	Name         string
	Area         string
	Municipality string
	Latitude     *float64
	Longitude    *float64
	LastSeen     time.Time
	Measurements []Measurement
}
