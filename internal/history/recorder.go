// Package history keeps the readings seen by soleklart in the local
// database.
package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/monorkin/soleklart/internal/airquality"
	"github.com/monorkin/soleklart/internal/models"
)

var ErrNotFound = errors.New("not found")

type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// Record upserts the station of every reading and stores its measurement.
// Readings without a station id or timestamp are ignored, as are
// measurements already stored for the same station, component and time.
// It returns the number of new measurements.
func (r *Recorder) Record(ctx context.Context, readings []airquality.Reading) (int, error) {
	inserted := 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stationIDs := map[string]uint{}

		for _, reading := range readings {
			if reading.StationID == "" || reading.Timestamp.IsZero() {
				continue
			}

			stationID, ok := stationIDs[reading.StationID]
			if !ok {
				id, err := r.upsertStation(tx, reading)
				if err != nil {
					return err
				}
				stationID = id
				stationIDs[reading.StationID] = id
			}

			measurement := models.Measurement{
				StationID: stationID,
				Component: reading.Component,
				Unit:      reading.Unit,
				Value:     reading.Value,
				Timestamp: reading.Timestamp.UTC(),
			}

			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&measurement)
			if result.Error != nil {
				return fmt.Errorf("failed to store measurement for %s: %w", reading.StationID, result.Error)
			}
			inserted += int(result.RowsAffected)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

func (r *Recorder) upsertStation(tx *gorm.DB, reading airquality.Reading) (uint, error) {
	station := models.Station{
		EOI:          reading.StationID,
		Name:         reading.Station,
		Area:         reading.Area,
		Municipality: reading.Municipality,
		Latitude:     reading.Latitude,
		Longitude:    reading.Longitude,
		LastSeen:     r.now().UTC(),
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "eoi"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "area", "municipality", "latitude", "longitude", "last_seen", "updated_at"}),
	}).Create(&station).Error
	if err != nil {
		return 0, fmt.Errorf("failed to store station %s: %w", reading.StationID, err)
	}

	// SQLite does not report the id of a row updated by ON CONFLICT.
	var stored models.Station
	if err := tx.Select("id").Where("eoi = ?", reading.StationID).First(&stored).Error; err != nil {
		return 0, fmt.Errorf("failed to load station %s: %w", reading.StationID, err)
	}

	return stored.ID, nil
}

// Stations returns every recorded station, most recently seen first.
func (r *Recorder) Stations(ctx context.Context) ([]models.Station, error) {
	var stations []models.Station
	if err := r.db.WithContext(ctx).Order("last_seen desc").Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return stations, nil
}

// FindStation looks a station up by database id or by EOI code.
func (r *Recorder) FindStation(ctx context.Context, idOrEOI string) (*models.Station, error) {
	var station models.Station

	query := r.db.WithContext(ctx)
	if id, err := strconv.ParseUint(idOrEOI, 10, 64); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("eoi = ?", idOrEOI)
	}

	if err := query.First(&station).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("station %s: %w", idOrEOI, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find station %s: %w", idOrEOI, err)
	}

	return &station, nil
}

func (r *Recorder) LatestMeasurement(ctx context.Context, stationID uint) (*models.Measurement, error) {
	var measurement models.Measurement

	err := r.db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("timestamp desc").
		First(&measurement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("measurement for station %d: %w", stationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load measurement: %w", err)
	}

	return &measurement, nil
}

// Ping reports whether the database is reachable.
func (r *Recorder) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Recorder) Name() string {
	return "history"
}

// Publish records a single reading, letting the recorder act as a watch sink.
func (r *Recorder) Publish(ctx context.Context, reading airquality.Reading) error {
	_, err := r.Record(ctx, []airquality.Reading{reading})
	return err
}
