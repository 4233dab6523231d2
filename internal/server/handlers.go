package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/monorkin/soleklart/internal/airquality"
	"github.com/monorkin/soleklart/internal/geo"
	"github.com/monorkin/soleklart/internal/history"
)

const (
	MIN_RADIUS_KM     = 1
	MAX_RADIUS_KM     = 100
	DEFAULT_RADIUS_KM = 20
)

func LatestReadingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		component := c.Query("component", deps.Component)

		readings := deps.Source.Latest(c.UserContext(), component)
		if readings == nil {
			if err := c.UserContext().Err(); err != nil {
				return err
			}
			return errNotFound(c, "no readings available")
		}

		return c.JSON(fiber.Map{
			"component": component,
			"count":     len(readings),
			"readings":  readings,
		})
	}
}

// NearestReadingHandler answers the reading of the station closest to
// lat/lon. An unavailable reading is reported as not_found.
func NearestReadingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query, err := parseNearestQuery(c, time.Now())
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if query.Component == "" {
			query.Component = deps.Component
		}

		reading := deps.Source.Nearest(c.UserContext(), query)
		if reading == nil {
			if err := c.UserContext().Err(); err != nil {
				return err
			}
			return errNotFound(c, "no reading available near this location")
		}

		return c.JSON(reading)
	}
}

func parseNearestQuery(c *fiber.Ctx, now time.Time) (airquality.NearestQuery, error) {
	var query airquality.NearestQuery

	lat, err := requiredFloat(c, "lat")
	if err != nil {
		return query, err
	}
	lon, err := requiredFloat(c, "lon")
	if err != nil {
		return query, err
	}

	query.Origin = geo.Location{Latitude: lat, Longitude: lon}
	if !query.Origin.Valid() {
		return query, fmt.Errorf("lat/lon out of range")
	}

	query.RadiusKm = DEFAULT_RADIUS_KM
	if raw := c.Query("radius"); raw != "" {
		radius, err := strconv.Atoi(raw)
		if err != nil {
			return query, fmt.Errorf("radius must be an integer")
		}
		query.RadiusKm = radius
	}
	if query.RadiusKm < MIN_RADIUS_KM || query.RadiusKm > MAX_RADIUS_KM {
		return query, fmt.Errorf("radius must be between %d and %d km", MIN_RADIUS_KM, MAX_RADIUS_KM)
	}

	query.At = now
	if raw := c.Query("at"); raw != "" {
		at, err := ParseClock(raw, now)
		if err != nil {
			return query, err
		}
		query.At = at
	}

	query.Component = c.Query("component")

	return query, nil
}

func requiredFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return value, nil
}

// ParseClock resolves an HH:MM clock time to that time on the day of now.
func ParseClock(clock string, now time.Time) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("at must be HH:MM, got %q", clock)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location()), nil
}

func StationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stations := deps.Source.Stations(c.UserContext())
		if stations == nil {
			if err := c.UserContext().Err(); err != nil {
				return err
			}
			return errNotFound(c, "station list unavailable")
		}

		return c.JSON(fiber.Map{
			"count":    len(stations),
			"stations": stations,
		})
	}
}

func HistoryStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.History == nil {
			return errUnavailable(c, "history is not enabled")
		}

		stations, err := deps.History.Stations(c.UserContext())
		if err != nil {
			deps.Logger.Error("Failed to list stations", "error", err)
			return errInternal(c, "failed to list stations")
		}

		infos := make([]history.StationInfo, 0, len(stations))
		for _, station := range stations {
			infos = append(infos, history.NewStationInfo(station))
		}

		return c.JSON(fiber.Map{
			"count":    len(infos),
			"stations": infos,
		})
	}
}

func HistoryLatestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.History == nil {
			return errUnavailable(c, "history is not enabled")
		}

		identifier := c.Params("id")

		station, err := deps.History.FindStation(c.UserContext(), identifier)
		if errors.Is(err, history.ErrNotFound) {
			return errNotFound(c, fmt.Sprintf("station %s not found", identifier))
		}
		if err != nil {
			deps.Logger.Error("Failed to find station", "identifier", identifier, "error", err)
			return errInternal(c, "failed to find station")
		}

		measurement, err := deps.History.LatestMeasurement(c.UserContext(), station.ID)
		if errors.Is(err, history.ErrNotFound) {
			return errNotFound(c, fmt.Sprintf("no measurements for station %s", identifier))
		}
		if err != nil {
			deps.Logger.Error("Failed to load measurement", "station_id", station.ID, "error", err)
			return errInternal(c, "failed to load measurement")
		}

		return c.JSON(fiber.Map{
			"station":     history.NewStationInfo(*station),
			"measurement": history.NewMeasurementInfo(*measurement),
		})
	}
}
