package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if !cfg.Camera.Mirror {
		t.Error("mirroring should default on")
	}
	if cfg.Game.ScoreThreshold != 20 {
		t.Errorf("score threshold = %f, want 20", cfg.Game.ScoreThreshold)
	}
	if cfg.Detection.InferTimeoutMs != 200 {
		t.Errorf("infer timeout = %d, want 200", cfg.Detection.InferTimeoutMs)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Error("empty path should return the defaults")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "natya.yaml")
	content := `
server:
  addr: ":9090"
game:
  score_threshold: 15
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Game.ScoreThreshold != 15 {
		t.Errorf("score threshold = %f, want 15", cfg.Game.ScoreThreshold)
	}
	// Untouched sections keep their defaults.
	if cfg.Detection.ModelPath != "pose.task" {
		t.Errorf("model path = %q, want default", cfg.Detection.ModelPath)
	}
	if cfg.Performance.MinFPS != 10 {
		t.Errorf("min fps = %f, want default", cfg.Performance.MinFPS)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestResolveDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	cfg := Config{DataDir: dir}

	got, err := cfg.ResolveDataDir()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != dir {
		t.Errorf("data dir = %q, want %q", got, dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Error("data dir should be created")
	}
}

func TestResolveTracksDir(t *testing.T) {
	cfg := Config{}
	if got := cfg.ResolveTracksDir("/data"); got != filepath.Join("/data", "tracks") {
		t.Errorf("tracks dir = %q", got)
	}

	cfg.TracksDir = "/elsewhere"
	if got := cfg.ResolveTracksDir("/data"); got != "/elsewhere" {
		t.Errorf("tracks dir = %q, want /elsewhere", got)
	}
}
