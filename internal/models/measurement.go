package models

import (
	"time"

	"gorm.io/gorm"
)

type Measurement struct {
	gorm.Model
	StationID uint
	Component string
	Unit      string
	Value     float64
	Timestamp time.Time `gorm:"index"`
}
