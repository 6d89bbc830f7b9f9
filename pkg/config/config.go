// Package config loads the GraphNIST configuration file.
//
// Configuration lives at $XDG_CONFIG_HOME/graphnist/config.toml (or
// ~/.config/graphnist/config.toml). Every field has a working default, so a
// missing file is not an error - Load returns the defaults. CLI flags
// override whatever the file says; the file only moves the baseline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const appName = "graphnist"

// Config is the root of the configuration file.
type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	Connect ConnectConfig `toml:"connect"`
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
}

// LayoutConfig sets the default layout strategy and tuning knobs.
type LayoutConfig struct {
	Strategy    string  `toml:"strategy"`
	Iterations  int     `toml:"iterations"`
	Spacing     float64 `toml:"spacing"`
	RowHeight   float64 `toml:"row_height"`
	RingSpacing float64 `toml:"ring_spacing"`
	Margin      float64 `toml:"margin"`
	Seed        uint64  `toml:"seed"`
}

// ConnectConfig sets the default connection-proposal strategy.
type ConnectConfig struct {
	Strategy string `toml:"strategy"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"` // file backend; empty means the XDG cache dir
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	TTLMinutes    int    `toml:"ttl_minutes"` // 0 means no expiry
}

// StoreConfig selects and configures the topology store backend.
type StoreConfig struct {
	// Backend is "sqlite" or "mongo".
	Backend    string `toml:"backend"`
	SQLitePath string `toml:"sqlite_path"` // empty means the XDG data dir
	MongoURI   string `toml:"mongo_uri"`
	MongoDB    string `toml:"mongo_db"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Layout: LayoutConfig{
			Strategy: "force",
		},
		Connect: ConnectConfig{
			Strategy: "mesh",
		},
		Cache: CacheConfig{
			Backend:    "file",
			TTLMinutes: 0,
		},
		Store: StoreConfig{
			Backend: "sqlite",
			MongoDB: appName,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the configuration at path, layered over the defaults. A
// missing file returns the defaults with no error; a malformed file is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the standard location of the configuration file,
// honoring XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
