// Package config loads the engine configuration from a YAML file over
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration.
type Config struct {
	// DataDir holds the database and downloaded assets. Empty means
	// ~/.natya.
	DataDir string `yaml:"data_dir"`
	// TracksDir holds the reference track JSON files. Empty means
	// <data_dir>/tracks.
	TracksDir string `yaml:"tracks_dir"`
	LogLevel  string `yaml:"log_level"`

	Camera      CameraConfig      `yaml:"camera"`
	Server      ServerConfig      `yaml:"server"`
	Detection   DetectionConfig   `yaml:"detection"`
	Performance PerformanceConfig `yaml:"performance"`
	Game        GameConfig        `yaml:"game"`
}

// CameraConfig selects and shapes the capture device.
type CameraConfig struct {
	Device int `yaml:"device"`
	// Mirror flips frames horizontally so the player sees a mirror image.
	Mirror bool `yaml:"mirror"`
}

// ServerConfig shapes the HTTP surface.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// DetectionConfig shapes the pose pipeline.
type DetectionConfig struct {
	// Mode overrides the persisted detection mode for this run. Empty
	// keeps the stored preference.
	Mode           string `yaml:"mode"`
	ModelPath      string `yaml:"model_path"`
	Acceleration   string `yaml:"acceleration"`
	InferTimeoutMs int    `yaml:"infer_timeout_ms"`
}

// PerformanceConfig bounds the adaptive frame sampler.
type PerformanceConfig struct {
	MinFPS      float64 `yaml:"min_fps"`
	MaxFPS      float64 `yaml:"max_fps"`
	HeapLimitMB uint64  `yaml:"heap_limit_mb"`
}

// GameConfig shapes scoring.
type GameConfig struct {
	// ScoreThreshold is the per-joint angle tolerance in degrees.
	ScoreThreshold float64 `yaml:"score_threshold"`
	// MotionThreshold is the percent of changed pixels counted as
	// movement.
	MotionThreshold float64 `yaml:"motion_threshold"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Camera: CameraConfig{
			Device: 0,
			Mirror: true,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Detection: DetectionConfig{
			ModelPath:      "pose.task",
			Acceleration:   "cpu",
			InferTimeoutMs: 200,
		},
		Performance: PerformanceConfig{
			MinFPS:      10,
			MaxFPS:      30,
			HeapLimitMB: 512,
		},
		Game: GameConfig{
			ScoreThreshold:  20,
			MotionThreshold: 1.0,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ResolveDataDir returns the effective data directory, creating it if
// needed.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".natya")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// ResolveTracksDir returns the effective tracks directory given the
// resolved data directory.
func (c *Config) ResolveTracksDir(dataDir string) string {
	if c.TracksDir != "" {
		return c.TracksDir
	}
	return filepath.Join(dataDir, "tracks")
}
