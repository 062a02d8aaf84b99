package internal

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/sipeed/alfred/pkg/config"
	"github.com/sipeed/alfred/pkg/logger"
)

const Logo = "🎩"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// configOverride is set by the root --config flag.
var configOverride string

func SetConfigPath(path string) {
	configOverride = path
}

func GetConfigPath() string {
	if configOverride != "" {
		return configOverride
	}
	return config.ResolveRuntimePaths().ConfigPath
}

// LoadConfig reads the config file. An unreadable or invalid file is
// reported and the defaults are used instead.
func LoadConfig() *config.Config {
	path := GetConfigPath()
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.WarnCF("config", "Invalid config, using defaults", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		cfg = config.DefaultConfigAt(filepath.Dir(path))
	}
	return cfg
}

// SetupLogging applies the configured level and file sink. debug forces the
// debug level.
func SetupLogging(cfg *config.Config, debug bool) error {
	if level, ok := logger.ParseLevel(cfg.Log.Level); ok {
		logger.SetLevel(level)
	}
	if debug {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Log.File != "" {
		if err := logger.EnableFileLogging(cfg.Log.File); err != nil {
			return fmt.Errorf("enable file logging: %w", err)
		}
	}
	return nil
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

func GetVersion() string {
	return version
}
