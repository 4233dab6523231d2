package dbusservice

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/monorkin/soleklart/internal/airquality"
	"github.com/monorkin/soleklart/internal/watch"
)

func ptr(f float64) *float64 { return &f }

type fakeWatcher struct {
	snapshot  watch.Snapshot
	refreshed chan struct{}
	busy      bool
	attempts  int
}

func (f *fakeWatcher) Snapshot() watch.Snapshot { return f.snapshot }

func (f *fakeWatcher) TryRefresh(context.Context) bool {
	f.attempts++
	if f.busy {
		return false
	}
	close(f.refreshed)
	return true
}

func (f *fakeWatcher) Subscribe() (<-chan watch.Snapshot, func()) {
	ch := make(chan watch.Snapshot)
	return ch, func() {}
}

func finishedSnapshot() watch.Snapshot {
	reading := &airquality.Reading{
		StationID: "NO0057A",
		Station:   "Kirkeveien",
		Component: "PM10",
		Unit:      "µg/m³",
		Value:     17.4,
		Latitude:  ptr(59.9323),
		Longitude: ptr(10.7245),
		Timestamp: time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
		Distance:  2564,
	}
	return watch.Snapshot{
		State:     watch.StateFinished,
		Rows:      watch.Rows(reading),
		Reading:   reading,
		UpdatedAt: time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC),
	}
}

func TestPayloadWithReading(t *testing.T) {
	payload := Payload(finishedSnapshot())

	if got := payload["state"].Value(); got != "finished" {
		t.Errorf("state = %v", got)
	}
	if got := payload["has_data"].Value(); got != true {
		t.Errorf("has_data = %v", got)
	}
	if got := payload["station_id"].Value(); got != "NO0057A" {
		t.Errorf("station_id = %v", got)
	}
	if got := payload["value"].Value(); got != 17.4 {
		t.Errorf("value = %v", got)
	}
	if got := payload["timestamp"].Value(); got != int64(1709301600) {
		t.Errorf("timestamp = %v", got)
	}
	if got := payload["latitude"].Value(); got != 59.9323 {
		t.Errorf("latitude = %v", got)
	}

	rows, ok := payload["rows"].Value().([]string)
	if !ok || len(rows) == 0 || rows[0] != "Station: Kirkeveien" {
		t.Errorf("rows = %v", payload["rows"].Value())
	}
}

func TestPayloadWithoutReading(t *testing.T) {
	payload := Payload(watch.Snapshot{State: watch.StateLoading, Rows: []watch.Row{}})

	if got := payload["state"].Value(); got != "loading" {
		t.Errorf("state = %v", got)
	}
	if got := payload["has_data"].Value(); got != false {
		t.Errorf("has_data = %v", got)
	}
	for _, key := range []string{"station_id", "value", "updated_at"} {
		if _, ok := payload[key]; ok {
			t.Errorf("unexpected key %s", key)
		}
	}
}

func TestServiceMethods(t *testing.T) {
	watcher := &fakeWatcher{snapshot: finishedSnapshot(), refreshed: make(chan struct{})}
	service := &Service{ctx: context.Background(), watcher: watcher, logger: quietLogger()}

	state, dbusErr := service.GetState()
	if dbusErr != nil || state != "finished" {
		t.Errorf("GetState = (%q, %v)", state, dbusErr)
	}

	reading, dbusErr := service.GetReading()
	if dbusErr != nil || reading["station"].Value() != "Kirkeveien" {
		t.Errorf("GetReading = (%v, %v)", reading, dbusErr)
	}

	if dbusErr := service.Refresh(); dbusErr != nil {
		t.Fatalf("Refresh: %v", dbusErr)
	}

	select {
	case <-watcher.refreshed:
	case <-time.After(time.Second):
		t.Error("refresh was not triggered")
	}
}

func TestRefreshWhileBusyIsDropped(t *testing.T) {
	watcher := &fakeWatcher{snapshot: finishedSnapshot(), refreshed: make(chan struct{}), busy: true}
	service := &Service{ctx: context.Background(), watcher: watcher, logger: quietLogger()}

	for i := 0; i < 3; i++ {
		if dbusErr := service.Refresh(); dbusErr != nil {
			t.Fatalf("Refresh: %v", dbusErr)
		}
	}

	if watcher.attempts != 3 {
		t.Errorf("attempts = %d, want 3", watcher.attempts)
	}
	select {
	case <-watcher.refreshed:
		t.Error("refresh started while another was running")
	default:
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
