package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
catalog:
  path: "./products.json"
embedding:
  provider: mock
  dimensions: 16
search:
  wait_ready_timeout: 2s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if want := filepath.Join(dir, "products.json"); cfg.Catalog.Path != want {
		t.Errorf("catalog path = %s, want %s", cfg.Catalog.Path, want)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimensions != 16 {
		t.Errorf("unexpected embedding config: %+v", cfg.Embedding)
	}
	if cfg.Search.WaitReadyTimeout != 2*time.Second {
		t.Errorf("wait_ready_timeout = %v", cfg.Search.WaitReadyTimeout)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultTopK != 5 {
		t.Errorf("default top k: got %d", cfg.Search.DefaultTopK)
	}
	if cfg.Search.MaxTopK != 100 {
		t.Errorf("max top k: got %d", cfg.Search.MaxTopK)
	}
	if cfg.Embedding.Provider != "onnx" || cfg.Embedding.Dimensions != 384 {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Embedding.OutputName != "last_hidden_state" || cfg.Embedding.Pooling != "mean" {
		t.Errorf("embedding output defaults: %+v", cfg.Embedding)
	}
	if cfg.Search.WaitReadyTimeout != 0 {
		t.Errorf("wait_ready_timeout should default to 0, got %v", cfg.Search.WaitReadyTimeout)
	}
}

func TestCatalogConfig_WatchOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		c := &CatalogConfig{}
		if got := c.WatchOrDefault(); !got {
			t.Errorf("WatchOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		c := &CatalogConfig{Watch: &f}
		if got := c.WatchOrDefault(); got {
			t.Errorf("WatchOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Catalog: CatalogConfig{Path: "/tmp/products.json"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Catalog.Path != "/tmp/products.json" {
		t.Errorf("loaded catalog path: got %s", loaded.Catalog.Path)
	}
}
