package cli

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/monorkin/soleklart/internal/config"
	"github.com/monorkin/soleklart/internal/globals"
)

// useSettings installs settings pointing at an upstream that always fails.
func useSettings(t *testing.T) *config.Settings {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	settings := config.DefaultSettings()
	settings.API.BaseURL = upstream.URL
	settings.Cache.Backend = "none"

	previousSettings, previousLogger := globals.Settings, globals.Logger
	globals.Settings = settings
	globals.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Cleanup(func() {
		globals.Settings, globals.Logger = previousSettings, previousLogger
	})

	return settings
}

func TestWatchOnceWithoutDataReturnsError(t *testing.T) {
	useSettings(t)

	previousOnce, previousRecord := watchOnce, watchRecord
	watchOnce, watchRecord = true, false
	t.Cleanup(func() { watchOnce, watchRecord = previousOnce, previousRecord })

	if err := runWatch(watchCmd, nil); !errors.Is(err, errNoData) {
		t.Errorf("err = %v, want errNoData", err)
	}
}

func TestNearestWithoutDataReturnsError(t *testing.T) {
	useSettings(t)

	if err := runNearest(nearestCmd, nil); !errors.Is(err, errNoData) {
		t.Errorf("err = %v, want errNoData", err)
	}
}

func TestLatestWithoutDataReturnsError(t *testing.T) {
	useSettings(t)

	if err := runLatest(latestCmd, nil); !errors.Is(err, errNoData) {
		t.Errorf("err = %v, want errNoData", err)
	}
}

func TestStationLookupWithoutDataReturnsError(t *testing.T) {
	useSettings(t)

	if err := runStationLookup(stationLookupCmd, nil); !errors.Is(err, errNoData) {
		t.Errorf("err = %v, want errNoData", err)
	}
}

func TestServeReturnsListenError(t *testing.T) {
	settings := useSettings(t)
	t.Setenv("SOLEKLART_DB_PATH", filepath.Join(t.TempDir(), "soleklart.db"))

	occupied, err := net.Listen("tcp4", "0.0.0.0:0")
	if err != nil {
		t.Fatal(err)
	}
	defer occupied.Close()
	settings.Server.Port = occupied.Addr().(*net.TCPAddr).Port

	if err := runServe(serveCmd, nil); err == nil {
		t.Error("expected an error when the port is taken")
	}
}
