// Package publish delivers finished readings to message brokers.
package publish

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/monorkin/soleklart/internal/airquality"
)

// Message is the JSON document published for a reading.
type Message struct {
	StationID   string    `json:"station_id"`
	Station     string    `json:"station"`
	Component   string    `json:"component"`
	Unit        string    `json:"unit,omitempty"`
	Value       float64   `json:"value"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	DistanceM   float64   `json:"distance_m,omitempty"`
	MeasuredAt  time.Time `json:"measured_at"`
	PublishedAt time.Time `json:"published_at"`
}

func NewMessage(reading airquality.Reading, publishedAt time.Time) Message {
	return Message{
		StationID:   reading.StationID,
		Station:     reading.Station,
		Component:   reading.Component,
		Unit:        reading.Unit,
		Value:       reading.Value,
		Latitude:    reading.Latitude,
		Longitude:   reading.Longitude,
		DistanceM:   reading.Distance,
		MeasuredAt:  reading.Timestamp,
		PublishedAt: publishedAt,
	}
}

func encode(reading airquality.Reading, now time.Time) ([]byte, error) {
	data, err := json.Marshal(NewMessage(reading, now))
	if err != nil {
		return nil, fmt.Errorf("marshal reading: %w", err)
	}
	return data, nil
}

var (
	subjectReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")
	topicReplacer   = strings.NewReplacer("/", "_", "+", "_", "#", "_")
)

// Subject is the NATS subject a station's readings are published on.
func Subject(stationID string) string {
	return "airquality.readings." + subjectReplacer.Replace(stationID)
}

// Topic is the retained MQTT topic holding a station's latest reading.
func Topic(prefix, stationID string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DEFAULT_TOPIC_PREFIX
	}
	return fmt.Sprintf("%s/stations/%s/reading", prefix, topicReplacer.Replace(stationID))
}
