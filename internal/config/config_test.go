package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: 0.0.0.0
  port: 9090
storage:
  database_path: ./data/annai.db
embedding:
  dimensions: 128
generation:
  endpoint: http://localhost:11434
  model: mistral
retrieval:
  top_k: 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server config = %s:%d, want 0.0.0.0:9090", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 128 {
		t.Errorf("Dimensions = %d, want 128", cfg.Embedding.Dimensions)
	}
	if cfg.Generation.Model != "mistral" {
		t.Errorf("Model = %q, want mistral", cfg.Generation.Model)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.Retrieval.TopK)
	}
	// "./" paths are relative to the config directory.
	want := filepath.Join(dir, "data/annai.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.Storage.DatabasePath, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("default dimensions = %d, want 384", cfg.Embedding.Dimensions)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("default top_k = %d, want 3", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.HistoryTurns != 3 {
		t.Errorf("default history_turns = %d, want 3", cfg.Retrieval.HistoryTurns)
	}
	if cfg.Generation.TimeoutSeconds != 30 {
		t.Errorf("default timeout = %d, want 30", cfg.Generation.TimeoutSeconds)
	}
}

func TestApplyDefaultsKeepsExisting(t *testing.T) {
	cfg := Config{Retrieval: RetrievalConfig{TopK: 7}}
	ApplyDefaults(&cfg)
	if cfg.Retrieval.TopK != 7 {
		t.Errorf("TopK = %d, want 7 (should not override)", cfg.Retrieval.TopK)
	}
}
