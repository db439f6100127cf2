package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
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
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/susume.db"
  catalog_index_path: "./data/catalog"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(cfg.Storage.DatabasePath, dir) {
		t.Errorf("database_path should be under config dir, got %s", cfg.Storage.DatabasePath)
	}
	if !strings.HasPrefix(cfg.Storage.CatalogIndexPath, dir) {
		t.Errorf("catalog_index_path should be under config dir, got %s", cfg.Storage.CatalogIndexPath)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("expected default dimensions 384, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.Backend != "mock" {
		t.Errorf("expected default embedding backend mock, got %s", cfg.Embedding.Backend)
	}
	if cfg.Recommend.Limit != 5 || cfg.Recommend.PropagationCap != 5 {
		t.Errorf("unexpected recommend defaults: %+v", cfg.Recommend)
	}
	if cfg.Reward.WatchWindow != 5 {
		t.Errorf("expected default watch window 5, got %d", cfg.Reward.WatchWindow)
	}
	if cfg.Notify.Backend != "none" {
		t.Errorf("expected default notify backend none, got %s", cfg.Notify.Backend)
	}
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.Recommend.PropagationCap = 2
	cfg.Reward.WatchWindow = 10
	ApplyDefaults(&cfg)
	if cfg.Recommend.PropagationCap != 2 {
		t.Errorf("explicit propagation_cap overwritten: %d", cfg.Recommend.PropagationCap)
	}
	if cfg.Reward.WatchWindow != 10 {
		t.Errorf("explicit watch_window overwritten: %d", cfg.Reward.WatchWindow)
	}
}
