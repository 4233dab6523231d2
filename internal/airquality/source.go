package airquality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/monorkin/soleklart/internal/cache"
	"github.com/monorkin/soleklart/internal/geo"
	"github.com/monorkin/soleklart/internal/metrics"
	"github.com/monorkin/soleklart/nilu/api"
)

const DEFAULT_CACHE_TTL = 5 * time.Minute

// Fetcher is the part of the NILU client the source depends on.
type Fetcher interface {
	FetchLatest(ctx context.Context, query api.LatestQuery) ([]api.Observation, error)
	FetchHistorical(ctx context.Context, query api.HistoricalQuery) ([]api.StationSeries, error)
	FetchStations(ctx context.Context) ([]api.Station, error)
}

type NearestQuery struct {
	Origin    geo.Location
	RadiusKm  int
	At        time.Time
	Component string
}

// Source answers air-quality questions from the NILU API. Any failure is
// logged and reported as a nil result.
type Source struct {
	fetcher  Fetcher
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type SourceOptions struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *slog.Logger
}

func NewSource(fetcher Fetcher, options SourceOptions) *Source {
	ttl := options.CacheTTL
	if ttl <= 0 {
		ttl = DEFAULT_CACHE_TTL
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Source{
		fetcher:  fetcher,
		cache:    options.Cache,
		cacheTTL: ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Latest returns the current reading of every station for component.
func (s *Source) Latest(ctx context.Context, component string) []Reading {
	if component == "" {
		component = DEFAULT_COMPONENT
	}

	query := api.LatestQuery{Components: []string{component}}
	key := "aq:latest:" + component

	observations, err := cached(ctx, s, "latest", key, func(ctx context.Context) ([]api.Observation, error) {
		return s.fetcher.FetchLatest(ctx, query)
	})
	if err != nil {
		s.logger.Warn("A network request exception was thrown", "endpoint", "latest", "error", err)
		return nil
	}

	return FromObservations(observations)
}

// Nearest returns the reading of the station closest to the query origin,
// taken from the first value of that station's 24 hour series.
func (s *Source) Nearest(ctx context.Context, q NearestQuery) *Reading {
	q = s.normalize(q)

	query := api.HistoricalQuery{
		At: q.At,
		Area: api.Area{
			Latitude:  q.Origin.Latitude,
			Longitude: q.Origin.Longitude,
			RadiusKm:  q.RadiusKm,
		},
		Components: []string{q.Component},
	}

	key := fmt.Sprintf("aq:historical:%.4f:%.4f:%d:%s:%s",
		q.Origin.Latitude, q.Origin.Longitude, q.RadiusKm,
		q.At.Format(api.TIME_PARAM_FORMAT), q.Component,
	)

	series, err := cached(ctx, s, "historical", key, func(ctx context.Context) ([]api.StationSeries, error) {
		return s.fetcher.FetchHistorical(ctx, query)
	})
	if err != nil {
		s.logger.Warn("A network request exception was thrown", "endpoint", "historical", "error", err)
		return nil
	}

	readings := make([]Reading, len(series))
	hasValue := make([]bool, len(series))
	for i, station := range series {
		readings[i], hasValue[i] = FromSeries(station)
	}

	index, distance := closestIndex(readings, q.Origin, NEAREST_MAX_METERS)
	if index < 0 {
		s.logger.Debug("No station near location", "latitude", q.Origin.Latitude, "longitude", q.Origin.Longitude)
		return nil
	}
	if !hasValue[index] {
		s.logger.Warn("Closest station has no values", "station", readings[index].StationID)
		return nil
	}

	reading := readings[index]
	reading.Distance = distance
	return &reading
}

// NearestValue is Nearest reduced to the measured value.
func (s *Source) NearestValue(ctx context.Context, q NearestQuery) (float64, bool) {
	reading := s.Nearest(ctx, q)
	if reading == nil {
		return 0, false
	}
	return reading.Value, true
}

// Stations returns NILU's station register.
func (s *Source) Stations(ctx context.Context) []api.Station {
	stations, err := cached(ctx, s, "stations", "aq:stations", s.fetcher.FetchStations)
	if err != nil {
		s.logger.Warn("A network request exception was thrown", "endpoint", "stations", "error", err)
		return nil
	}
	return stations
}

func (s *Source) normalize(q NearestQuery) NearestQuery {
	if q.At.IsZero() {
		q.At = s.now()
	}
	if q.RadiusKm <= 0 {
		q.RadiusKm = NEAREST_MAX_METERS / 1000
	}
	if q.Component == "" {
		q.Component = DEFAULT_COMPONENT
	}
	return q
}

// cached reads key from the cache, falling back to fetch on a miss and
// storing the result. Cache failures are treated as misses.
func cached[T any](ctx context.Context, s *Source, operation, key string, fetch func(context.Context) (T, error)) (T, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var value T
			if err := json.Unmarshal(data, &value); err == nil {
				metrics.CacheHits.WithLabelValues(operation).Inc()
				return value, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Debug("Cache read failed", "key", key, "error", err)
		}
		metrics.CacheMisses.WithLabelValues(operation).Inc()
	}

	started := time.Now()
	value, err := fetch(ctx)
	metrics.ObserveUpstream(operation, started, err)
	if err != nil {
		return value, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(value); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				s.logger.Debug("Cache write failed", "key", key, "error", err)
			}
		}
	}

	return value, nil
}
