package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "pagenav"

// Config holds pagenav user configuration.
type Config struct {
	Theme        string `json:"theme"`
	Root         string `json:"root"`          // page directory; flag -root overrides
	Home         string `json:"home"`          // page opened when none is given
	CacheSize    int    `json:"cache_size"`    // rendered pages kept in memory
	LogLevel     string `json:"log_level"`     // debug, info, warn, error, off
	LogFile      string `json:"log_file"`      // defaults to pagenav.log in the data dir
	RecordVisits bool   `json:"record_visits"` // keep the visit log in the database
	path         string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Theme:        "default",
		Root:         ".",
		Home:         "",
		CacheSize:    50,
		LogLevel:     "info",
		RecordVisits: true,
	}
}

// LoadConfig loads configuration from path, or from the standard config
// directory when path is empty. A missing file is created with defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.Save(); err != nil {
				return nil, fmt.Errorf("writing default config: %w", err)
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.path = path
	return &cfg, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	if c.path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		c.path = p
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(c.path, data, 0o644)
}

// ConfigPath returns the default config file location.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DataDir returns the data directory for persistent storage.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			dir = filepath.Join(appData, appName)
		} else {
			dir = filepath.Join(home, "."+appName)
		}
	default: // Linux, BSD, etc.
		xdgData := os.Getenv("XDG_DATA_HOME")
		if xdgData != "" {
			dir = filepath.Join(xdgData, appName)
		} else {
			dir = filepath.Join(home, ".local", "share", appName)
		}
	}

	return dir, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			dir = filepath.Join(appData, appName)
		} else {
			dir = filepath.Join(home, "."+appName)
		}
	default:
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig != "" {
			dir = filepath.Join(xdgConfig, appName)
		} else {
			dir = filepath.Join(home, ".config", appName)
		}
	}

	return dir, nil
}
