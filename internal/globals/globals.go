package globals

import (
	"log/slog"
	"os"
	"sync"

	"github.com/monorkin/soleklart/internal/config"
	"github.com/monorkin/soleklart/internal/logging"
)

var (
	// Global instances
	Settings *config.Settings
	Logger   *slog.Logger

	// Ensure initialization happens only once
	initOnce sync.Once
)

// Initialize loads .env files and settings, then sets up the logger,
// exactly once. An empty configPath uses the default settings location.
func Initialize(verbose bool, configPath string) {
	initOnce.Do(func() {
		dotEnvErr := config.LoadDotEnv()

		if configPath == "" {
			configPath = config.DefaultSettingsPath()
		}

		settings, created, settingsErr := config.EnsureSettings(configPath)
		Settings = settings

		setupLogger(verbose)

		Logger.Debug("Initializing global instances", "settings", configPath)

		if dotEnvErr != nil {
			Logger.Warn("Failed to load .env file", "error", dotEnvErr)
		}

		switch {
		case settingsErr != nil:
			Logger.Warn("Using default settings", "path", configPath, "error", settingsErr)
		case created:
			Logger.Debug("Created new settings file")
		default:
			Logger.Debug("Loaded existing settings")
		}

		if err := Settings.Validate(); err != nil {
			Logger.Warn("Settings are invalid", "error", err)
		}

		Logger.Debug("Global initialization completed", "verbose", verbose)
	})
}

// setupLogger configures the global logger from the log settings
func setupLogger(verbose bool) {
	level, err := logging.ParseLevel(Settings.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}

	Logger = logging.New(level, Settings.Log.Format, os.Stderr)
	if err != nil && !verbose {
		Logger.Warn("Falling back to info level", "error", err)
	}

	// Set as default logger
	slog.SetDefault(Logger)
}

// MustBeInitialized panics if globals haven't been initialized
func MustBeInitialized() {
	if Settings == nil || Logger == nil {
		panic("globals not initialized - call globals.Initialize() first")
	}
}
