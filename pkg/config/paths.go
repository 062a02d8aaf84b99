package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvAlfredConfig = "ALFRED_CONFIG"
	EnvAlfredHome   = "ALFRED_HOME"
)

type RuntimePaths struct {
	HomeDir    string
	ConfigPath string
}

// ResolveRuntimePaths honours ALFRED_CONFIG first, then ALFRED_HOME, then
// ~/.alfred.
func ResolveRuntimePaths() RuntimePaths {
	if configPath := expandHome(strings.TrimSpace(os.Getenv(EnvAlfredConfig))); configPath != "" {
		return RuntimePaths{HomeDir: filepath.Dir(configPath), ConfigPath: configPath}
	}

	homeDir := expandHome(strings.TrimSpace(os.Getenv(EnvAlfredHome)))
	if homeDir == "" {
		homeDir = defaultAlfredHome()
	}
	return RuntimePaths{HomeDir: homeDir, ConfigPath: filepath.Join(homeDir, "config.json")}
}

func defaultAlfredHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".alfred"
	}
	return filepath.Join(home, ".alfred")
}
