// Package watch periodically refreshes the nearest reading and fans the
// result out to subscribers and sinks.
package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/monorkin/soleklart/internal/airquality"
	"github.com/monorkin/soleklart/internal/metrics"
)

const DEFAULT_INTERVAL = 15 * time.Minute

type Provider interface {
	Nearest(ctx context.Context, q airquality.NearestQuery) *airquality.Reading
	Latest(ctx context.Context, component string) []airquality.Reading
}

// Sink receives every reading the watcher finishes with.
type Sink interface {
	Name() string
	Publish(ctx context.Context, reading airquality.Reading) error
}

type Options struct {
	Query         airquality.NearestQuery
	PinnedStation string
	Interval      time.Duration
	Sinks         []Sink
	Logger        *slog.Logger
}

type Watcher struct {
	provider Provider
	options  Options
	logger   *slog.Logger
	now      func() time.Time

	refreshMu sync.Mutex

	mu          sync.RWMutex
	snapshot    Snapshot
	subscribers map[int]chan Snapshot
	nextID      int
}

func New(provider Provider, options Options) *Watcher {
	if options.Interval <= 0 {
		options.Interval = DEFAULT_INTERVAL
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Watcher{
		provider:    provider,
		options:     options,
		logger:      options.Logger,
		now:         time.Now,
		snapshot:    Snapshot{State: StateIdle, Rows: []Row{}},
		subscribers: map[int]chan Snapshot{},
	}
}

func (w *Watcher) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

// Subscribe returns a channel of snapshots and a func that stops the
// subscription. The channel keeps only the newest undelivered snapshot.
func (w *Watcher) Subscribe() (<-chan Snapshot, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++

	ch := make(chan Snapshot, 1)
	w.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.subscribers, id)
			close(ch)
		})
	}

	return ch, cancel
}

func (w *Watcher) publish(snapshot Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.snapshot = snapshot

	for _, ch := range w.subscribers {
		select {
		case ch <- snapshot:
			continue
		default:
		}

		// Replace the stale snapshot the subscriber has not read yet.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// Refresh fetches a new reading, moving the state through loading to
// finished, and hands the reading to every sink. It returns nil when no
// reading is available.
func (w *Watcher) Refresh(ctx context.Context) *airquality.Reading {
	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()

	return w.refresh(ctx)
}

// TryRefresh starts a refresh in the background unless one is already
// running, and reports whether it started one.
func (w *Watcher) TryRefresh(ctx context.Context) bool {
	if !w.refreshMu.TryLock() {
		return false
	}

	go func() {
		defer w.refreshMu.Unlock()
		w.refresh(ctx)
	}()

	return true
}

func (w *Watcher) refresh(ctx context.Context) *airquality.Reading {
	previous := w.Snapshot()
	w.publish(Snapshot{
		State:     StateLoading,
		Rows:      previous.Rows,
		Reading:   previous.Reading,
		UpdatedAt: previous.UpdatedAt,
	})

	reading := w.fetch(ctx)

	w.publish(Snapshot{
		State:     StateFinished,
		Rows:      Rows(reading),
		Reading:   reading,
		UpdatedAt: w.now(),
	})

	if reading == nil {
		metrics.WatchRefreshes.WithLabelValues("empty").Inc()
		w.logger.Info("No data available")
		return nil
	}

	metrics.WatchRefreshes.WithLabelValues("reading").Inc()
	w.logger.Debug("Reading refreshed", "station", reading.StationID, "value", reading.Value)

	for _, sink := range w.options.Sinks {
		if err := sink.Publish(ctx, *reading); err != nil {
			metrics.PublishErrors.WithLabelValues(sink.Name()).Inc()
			w.logger.Error("Failed to publish reading", "sink", sink.Name(), "error", err)
		}
	}

	return reading
}

func (w *Watcher) fetch(ctx context.Context) *airquality.Reading {
	if w.options.PinnedStation != "" {
		for _, reading := range w.provider.Latest(ctx, w.options.Query.Component) {
			if reading.StationID == w.options.PinnedStation {
				return &reading
			}
		}
		w.logger.Warn("Pinned station has no current reading", "station", w.options.PinnedStation)
		return nil
	}

	query := w.options.Query
	query.At = w.now()
	return w.provider.Nearest(ctx, query)
}

// Run refreshes immediately and then on every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.options.Interval)
	defer ticker.Stop()

	w.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Refresh(ctx)
		}
	}
}
