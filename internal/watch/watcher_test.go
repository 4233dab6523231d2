package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/monorkin/soleklart/internal/airquality"
)

func ptr(f float64) *float64 { return &f }

type fakeProvider struct {
	nearestFn func(ctx context.Context, q airquality.NearestQuery) *airquality.Reading
	latestFn  func(ctx context.Context, component string) []airquality.Reading
}

func (f *fakeProvider) Nearest(ctx context.Context, q airquality.NearestQuery) *airquality.Reading {
	return f.nearestFn(ctx, q)
}

func (f *fakeProvider) Latest(ctx context.Context, component string) []airquality.Reading {
	return f.latestFn(ctx, component)
}

type recordingSink struct {
	mu       sync.Mutex
	name     string
	err      error
	readings []airquality.Reading
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, reading airquality.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, reading)
	return s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func kirkeveien() *airquality.Reading {
	return &airquality.Reading{
		StationID: "NO0057A",
		Station:   "Kirkeveien",
		Area:      "Oslo",
		Latitude:  ptr(59.9323),
		Longitude: ptr(10.7245),
		Component: "PM10",
		Unit:      "µg/m³",
		Value:     17.4,
		Timestamp: time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
		Distance:  2564,
	}
}

func TestRefreshMovesThroughLoadingToFinished(t *testing.T) {
	var states []State
	var w *Watcher

	provider := &fakeProvider{
		nearestFn: func(context.Context, airquality.NearestQuery) *airquality.Reading {
			states = append(states, w.Snapshot().State)
			return kirkeveien()
		},
	}
	w = New(provider, Options{Logger: quietLogger()})

	if got := w.Snapshot().State; got != StateIdle {
		t.Fatalf("initial state = %s, want idle", got)
	}

	reading := w.Refresh(context.Background())
	if reading == nil || reading.StationID != "NO0057A" {
		t.Fatalf("unexpected reading %+v", reading)
	}

	if len(states) != 1 || states[0] != StateLoading {
		t.Errorf("state during fetch = %v, want [loading]", states)
	}

	snapshot := w.Snapshot()
	if snapshot.State != StateFinished {
		t.Errorf("state = %s, want finished", snapshot.State)
	}
	if !snapshot.HasData() {
		t.Error("expected data rows")
	}
	if snapshot.Rows[0].Label != "Station" || snapshot.Rows[0].Value != "Kirkeveien" {
		t.Errorf("first row = %+v", snapshot.Rows[0])
	}
}

func TestRefreshWithoutReadingHasEmptyRows(t *testing.T) {
	sink := &recordingSink{name: "test"}
	provider := &fakeProvider{
		nearestFn: func(context.Context, airquality.NearestQuery) *airquality.Reading { return nil },
	}
	w := New(provider, Options{Logger: quietLogger(), Sinks: []Sink{sink}})

	if reading := w.Refresh(context.Background()); reading != nil {
		t.Fatalf("expected nil, got %+v", reading)
	}

	snapshot := w.Snapshot()
	if snapshot.State != StateFinished {
		t.Errorf("state = %s, want finished", snapshot.State)
	}
	if snapshot.Rows == nil || len(snapshot.Rows) != 0 {
		t.Errorf("rows = %#v, want empty", snapshot.Rows)
	}
	if snapshot.HasData() {
		t.Error("HasData should be false")
	}
	if len(sink.readings) != 0 {
		t.Error("sink should not receive a nil reading")
	}
}

func TestRefreshUsesQueryAndCurrentTime(t *testing.T) {
	now := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	var got airquality.NearestQuery

	provider := &fakeProvider{
		nearestFn: func(_ context.Context, q airquality.NearestQuery) *airquality.Reading {
			got = q
			return nil
		},
	}
	w := New(provider, Options{
		Logger: quietLogger(),
		Query:  airquality.NearestQuery{RadiusKm: 20, Component: "pm10"},
	})
	w.now = func() time.Time { return now }

	w.Refresh(context.Background())

	if !got.At.Equal(now) || got.RadiusKm != 20 || got.Component != "pm10" {
		t.Errorf("unexpected query %+v", got)
	}
}

func TestRefreshPinnedStation(t *testing.T) {
	var component string
	provider := &fakeProvider{
		nearestFn: func(context.Context, airquality.NearestQuery) *airquality.Reading {
			t.Error("nearest should not be used for a pinned station")
			return nil
		},
		latestFn: func(_ context.Context, c string) []airquality.Reading {
			component = c
			return []airquality.Reading{
				{StationID: "NO0083A", Value: 1},
				{StationID: "NO0057A", Value: 2},
			}
		},
	}
	w := New(provider, Options{
		Logger:        quietLogger(),
		PinnedStation: "NO0057A",
		Query:         airquality.NearestQuery{Component: "no2"},
	})

	reading := w.Refresh(context.Background())
	if reading == nil || reading.Value != 2 {
		t.Fatalf("unexpected reading %+v", reading)
	}
	if component != "no2" {
		t.Errorf("component = %q, want no2", component)
	}
}

func TestSinkErrorsDoNotStopOtherSinks(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("broker down")}
	ok := &recordingSink{name: "ok"}

	provider := &fakeProvider{
		nearestFn: func(context.Context, airquality.NearestQuery) *airquality.Reading { return kirkeveien() },
	}
	w := New(provider, Options{Logger: quietLogger(), Sinks: []Sink{failing, ok}})

	if reading := w.Refresh(context.Background()); reading == nil {
		t.Fatal("expected a reading")
	}
	if len(failing.readings) != 1 || len(ok.readings) != 1 {
		t.Errorf("sink deliveries = %d/%d, want 1/1", len(failing.readings), len(ok.readings))
	}
}

func TestSubscribeKeepsNewestSnapshot(t *testing.T) {
	provider := &fakeProvider{
		nearestFn: func(context.Context, airquality.NearestQuery) *airquality.Reading { return kirkeveien() },
	}
	w := New(provider, Options{Logger: quietLogger()})

	ch, cancel := w.Subscribe()
	defer cancel()

	// Nobody reads while two refreshes publish four snapshots.
	w.Refresh(context.Background())
	w.Refresh(context.Background())

	select {
	case snapshot := <-ch:
		if snapshot.State != StateFinished {
			t.Errorf("state = %s, want finished", snapshot.State)
		}
	default:
		t.Fatal("expected a pending snapshot")
	}

	select {
	case snapshot := <-ch:
		t.Errorf("unexpected extra snapshot %+v", snapshot)
	default:
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	w := New(&fakeProvider{}, Options{Logger: quietLogger()})

	ch, cancel := w.Subscribe()
	cancel()
	cancel()

	if _, open := <-ch; open {
		t.Error("channel should be closed")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	provider := &fakeProvider{
		nearestFn: func(context.Context, airquality.NearestQuery) *airquality.Reading {
			mu.Lock()
			calls++
			mu.Unlock()
			return nil
		},
	}
	w := New(provider, Options{Logger: quietLogger(), Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls < 2 {
		t.Errorf("refreshes = %d, want at least 2", calls)
	}
}

func TestRows(t *testing.T) {
	rows := Rows(kirkeveien())

	want := map[string]string{
		"Station":   "Kirkeveien",
		"Area":      "Oslo",
		"Component": "PM10",
		"Value":     "17.4 µg/m³",
		"Distance":  "2.6 km",
	}
	for _, row := range rows {
		if expected, ok := want[row.Label]; ok && row.Value != expected {
			t.Errorf("%s = %q, want %q", row.Label, row.Value, expected)
		}
	}

	if got := Rows(nil); len(got) != 0 {
		t.Errorf("Rows(nil) = %v, want empty", got)
	}
}

func TestTryRefreshSkipsWhileRunning(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	provider := &fakeProvider{
		nearestFn: func(ctx context.Context, q airquality.NearestQuery) *airquality.Reading {
			mu.Lock()
			calls++
			mu.Unlock()
			<-release
			return kirkeveien()
		},
	}
	w := New(provider, Options{Logger: quietLogger()})

	snapshots, cancel := w.Subscribe()
	defer cancel()

	if !w.TryRefresh(context.Background()) {
		t.Fatal("first TryRefresh should start a refresh")
	}
	for i := 0; i < 5; i++ {
		if w.TryRefresh(context.Background()) {
			t.Error("TryRefresh started a second refresh while one was running")
		}
	}

	close(release)

	deadline := time.After(time.Second)
	for {
		select {
		case snapshot := <-snapshots:
			if snapshot.State != StateFinished {
				continue
			}
			mu.Lock()
			defer mu.Unlock()
			if calls != 1 {
				t.Errorf("provider called %d times, want 1", calls)
			}
			return
		case <-deadline:
			t.Fatal("refresh did not finish")
		}
	}
}
