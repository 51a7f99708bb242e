package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine.K1 != 1.5 || cfg.Engine.B != 0.75 {
		t.Errorf("bm25 params = %v, %v", cfg.Engine.K1, cfg.Engine.B)
	}
	if sum := cfg.Engine.SemanticWeight + cfg.Engine.BM25Weight + cfg.Engine.ContextualWeight; sum != 1.0 {
		t.Errorf("default fusion weights sum to %v, want 1.0", sum)
	}
	if cfg.Engine.ContextTopK != 5 || cfg.Engine.CitationTopK != 3 {
		t.Errorf("topK defaults = %d, %d", cfg.Engine.ContextTopK, cfg.Engine.CitationTopK)
	}
	if cfg.Embedding.BatchSize != 16 {
		t.Errorf("batch size = %d, want 16", cfg.Embedding.BatchSize)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Ingest.ChunkTokens != 1000 || cfg.Ingest.ChunkOverlap != 200 {
		t.Errorf("chunking = %d/%d", cfg.Ingest.ChunkTokens, cfg.Ingest.ChunkOverlap)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.K1 != DefaultConfig().Engine.K1 {
		t.Error("missing file did not fall back to defaults")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.yaml")
	content := `
engine:
  k1: 1.2
  context_top_k: 7
embedding:
  provider: mock
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.K1 != 1.2 {
		t.Errorf("k1 = %v, want 1.2", cfg.Engine.K1)
	}
	if cfg.Engine.ContextTopK != 7 {
		t.Errorf("context_top_k = %d, want 7", cfg.Engine.ContextTopK)
	}
	if cfg.Embedding.Provider != "mock" {
		t.Errorf("provider = %q, want mock", cfg.Embedding.Provider)
	}
	// Untouched keys keep their defaults.
	if cfg.Engine.B != 0.75 {
		t.Errorf("b = %v, want default 0.75", cfg.Engine.B)
	}
	if cfg.Generation.Model != "gpt-4o-mini" {
		t.Errorf("generation model = %q, want default", cfg.Generation.Model)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.yaml")
	if err := os.WriteFile(path, []byte("engine: [not a map"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml did not error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docqa.yaml")

	cfg := DefaultConfig()
	cfg.Engine.K1 = 2.0
	cfg.Logging.Level = "debug"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Engine.K1 != 2.0 || loaded.Logging.Level != "debug" {
		t.Errorf("round trip lost values: k1=%v level=%q", loaded.Engine.K1, loaded.Logging.Level)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir empty dir: %v", err)
	}
	if cfg.Engine.K1 != 1.5 {
		t.Error("empty dir did not yield defaults")
	}

	if err := os.WriteFile(filepath.Join(dir, "docqa.yaml"), []byte("engine:\n  k1: 1.9\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if cfg.Engine.K1 != 1.9 {
		t.Errorf("k1 = %v, want 1.9 from docqa.yaml", cfg.Engine.K1)
	}
}

func TestLoadFromDirStateDirFallback(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureStateDir(dir); err != nil {
		t.Fatalf("EnsureStateDir: %v", err)
	}
	path := filepath.Join(dir, ".docqa", "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, want warn from state dir config", cfg.Logging.Level)
	}
}

func TestSnapshotPath(t *testing.T) {
	if got := SnapshotPath("/work"); got != filepath.Join("/work", ".docqa", "snapshot.db") {
		t.Errorf("SnapshotPath = %q", got)
	}
}
