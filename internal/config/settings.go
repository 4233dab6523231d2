package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/monorkin/soleklart/internal/geo"
)

const ENV_PREFIX = "SOLEKLART"

type Settings struct {
	Location  LocationSettings  `mapstructure:"location" json:"location"`
	API       APISettings       `mapstructure:"api" json:"api"`
	Server    ServerSettings    `mapstructure:"server" json:"server"`
	Cache     CacheSettings     `mapstructure:"cache" json:"cache"`
	Publish   PublishSettings   `mapstructure:"publish" json:"publish"`
	Telemetry TelemetrySettings `mapstructure:"telemetry" json:"telemetry"`
	Watch     WatchSettings     `mapstructure:"watch" json:"watch"`
	Log       LogSettings       `mapstructure:"log" json:"log"`
}

type LocationSettings struct {
	Latitude  float64 `mapstructure:"latitude" json:"latitude"`
	Longitude float64 `mapstructure:"longitude" json:"longitude"`
	RadiusKm  int     `mapstructure:"radius_km" json:"radius_km"`
}

func (l LocationSettings) Location() geo.Location {
	return geo.Location{Latitude: l.Latitude, Longitude: l.Longitude}
}

type APISettings struct {
	BaseURL        string `mapstructure:"base_url" json:"base_url"`
	Component      string `mapstructure:"component" json:"component"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

func (a APISettings) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type ServerSettings struct {
	Port      int  `mapstructure:"port" json:"port"`
	Advertise bool `mapstructure:"advertise" json:"advertise"`
}

type CacheSettings struct {
	Backend    string `mapstructure:"backend" json:"backend"`
	ValkeyAddr string `mapstructure:"valkey_addr" json:"valkey_addr"`
	TTLSeconds int    `mapstructure:"ttl_seconds" json:"ttl_seconds"`
}

func (c CacheSettings) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type PublishSettings struct {
	NATSURL         string `mapstructure:"nats_url" json:"nats_url"`
	MQTTBroker      string `mapstructure:"mqtt_broker" json:"mqtt_broker"`
	MQTTTopicPrefix string `mapstructure:"mqtt_topic_prefix" json:"mqtt_topic_prefix"`
}

type TelemetrySettings struct {
	Enabled  bool   `mapstructure:"enabled" json:"enabled"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
}

type WatchSettings struct {
	IntervalSeconds int    `mapstructure:"interval_seconds" json:"interval_seconds"`
	PinnedStation   string `mapstructure:"pinned_station" json:"pinned_station,omitempty"`
	DBus            bool   `mapstructure:"dbus" json:"dbus"`
}

func (w WatchSettings) Interval() time.Duration {
	return time.Duration(w.IntervalSeconds) * time.Second
}

type LogSettings struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

func DefaultSettingsPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

// LoadOrInitializeSettings reads the settings at path. A missing file
// returns true and the defaults with environment overrides applied. Any
// other failure returns the same fallback together with the error.
func LoadOrInitializeSettings(path string) (bool, *Settings, error) {
	settings, err := LoadSettings(path)
	if err == nil {
		return false, settings, nil
	}

	fallback, fallbackErr := unmarshal(newViper())
	if fallbackErr != nil {
		fallback = DefaultSettings()
	}

	if errors.Is(err, fs.ErrNotExist) {
		return true, fallback, nil
	}

	return false, fallback, err
}

// EnsureSettings loads the settings at path and writes the built-in
// defaults there when no file exists yet. An existing file is never
// rewritten, and environment overrides never reach the disk.
func EnsureSettings(path string) (settings *Settings, created bool, err error) {
	isNew, settings, err := LoadOrInitializeSettings(path)
	if err != nil {
		return settings, false, err
	}

	if isNew {
		if err := DefaultSettings().SaveTo(path); err != nil {
			return settings, false, fmt.Errorf("failed to save new settings: %w", err)
		}
	}

	return settings, isNew, nil
}

// LoadSettings reads the JSON settings at path. Values missing from the file
// fall back to the defaults and SOLEKLART_* variables override both.
func LoadSettings(path string) (*Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	return unmarshal(v)
}

// DefaultSettings returns the built-in defaults without consulting the
// environment.
func DefaultSettings() *Settings {
	return &Settings{
		Location: LocationSettings{
			Latitude:  59.9139,
			Longitude: 10.7522,
			RadiusKm:  20,
		},
		API: APISettings{
			BaseURL:        "https://api.nilu.no",
			Component:      "pm10",
			TimeoutSeconds: 10,
		},
		Server: ServerSettings{
			Port: 8080,
		},
		Cache: CacheSettings{
			Backend:    "memory",
			ValkeyAddr: "localhost:6379",
			TTLSeconds: 300,
		},
		Publish: PublishSettings{
			MQTTTopicPrefix: "soleklart",
		},
		Telemetry: TelemetrySettings{
			Endpoint: "localhost:4317",
		},
		Watch: WatchSettings{
			IntervalSeconds: 900,
			DBus:            true,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("location.latitude", defaults.Location.Latitude)
	v.SetDefault("location.longitude", defaults.Location.Longitude)
	v.SetDefault("location.radius_km", defaults.Location.RadiusKm)
	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("api.component", defaults.API.Component)
	v.SetDefault("api.timeout_seconds", defaults.API.TimeoutSeconds)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.advertise", defaults.Server.Advertise)
	v.SetDefault("cache.backend", defaults.Cache.Backend)
	v.SetDefault("cache.valkey_addr", defaults.Cache.ValkeyAddr)
	v.SetDefault("cache.ttl_seconds", defaults.Cache.TTLSeconds)
	v.SetDefault("publish.nats_url", defaults.Publish.NATSURL)
	v.SetDefault("publish.mqtt_broker", defaults.Publish.MQTTBroker)
	v.SetDefault("publish.mqtt_topic_prefix", defaults.Publish.MQTTTopicPrefix)
	v.SetDefault("telemetry.enabled", defaults.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", defaults.Telemetry.Endpoint)
	v.SetDefault("watch.interval_seconds", defaults.Watch.IntervalSeconds)
	v.SetDefault("watch.pinned_station", defaults.Watch.PinnedStation)
	v.SetDefault("watch.dbus", defaults.Watch.DBus)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	// SOLEKLART_LOCATION_LATITUDE → location.latitude
	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func unmarshal(v *viper.Viper) (*Settings, error) {
	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &settings, nil
}

// Validate checks every section and reports all problems at once.
func (s *Settings) Validate() error {
	var errs []string

	if !s.Location.Location().Valid() {
		errs = append(errs, fmt.Sprintf("location (%v, %v) is not a valid coordinate", s.Location.Latitude, s.Location.Longitude))
	}
	if s.Location.RadiusKm < 1 || s.Location.RadiusKm > 100 {
		errs = append(errs, fmt.Sprintf("location.radius_km must be 1-100, got %d", s.Location.RadiusKm))
	}
	if s.API.BaseURL == "" {
		errs = append(errs, "api.base_url is required")
	}
	if s.API.Component == "" {
		errs = append(errs, "api.component is required")
	}
	if s.API.TimeoutSeconds <= 0 {
		errs = append(errs, "api.timeout_seconds must be positive")
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Server.Port))
	}
	switch s.Cache.Backend {
	case "memory", "none":
	case "valkey":
		if s.Cache.ValkeyAddr == "" {
			errs = append(errs, "cache.valkey_addr is required for the valkey backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.backend must be memory, valkey or none, got %q", s.Cache.Backend))
	}
	if s.Cache.TTLSeconds <= 0 {
		errs = append(errs, "cache.ttl_seconds must be positive")
	}
	if s.Telemetry.Enabled && s.Telemetry.Endpoint == "" {
		errs = append(errs, "telemetry.endpoint is required when telemetry is enabled")
	}
	if s.Watch.IntervalSeconds <= 0 {
		errs = append(errs, "watch.interval_seconds must be positive")
	}
	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not recognised", s.Log.Level))
	}
	if s.Log.Format != "text" && s.Log.Format != "json" {
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", s.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("settings validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
