package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
database:
  dsn: "postgres://u:p@localhost:5432/nominatim"
  max_conns: 10
  min_conns: 2

store:
  backend: "postgres"

tokenizer:
  normalization: ":: Lower (); :: NFC ()"
  country_languages: "de, en"
  analyzers:
    - id: ""
      variants:
        - "strasse, str => strasse"
    - id: "de"
      analyzer: "generic"
      mutations:
        - pattern: "ä"
          replacements: ["ä", "ae"]

import:
  workers: 8
  report_interval: "30s"

log:
  level: "debug"
  format: "text"
`

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:      "postgres://u:p@localhost:5432/nominatim",
			MaxConns: 25,
			MinConns: 2,
		},
		Store:  StoreConfig{Backend: BackendPostgres, PogrebPath: "./data/words.pogreb"},
		Import: ImportConfig{Workers: 4, ReportInterval: 10 * time.Second},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Database
	if cfg.Database.DSN != "postgres://u:p@localhost:5432/nominatim" {
		t.Errorf("database.dsn = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("database.max_conns = %d, want 10", cfg.Database.MaxConns)
	}
	if cfg.Database.MaxConnLifetime != time.Hour {
		t.Errorf("database.max_conn_lifetime = %v, want 1h (default)", cfg.Database.MaxConnLifetime)
	}

	// Tokenizer
	if cfg.Tokenizer.Normalization != ":: Lower (); :: NFC ()" {
		t.Errorf("tokenizer.normalization = %q", cfg.Tokenizer.Normalization)
	}
	if len(cfg.Tokenizer.Analyzers) != 2 {
		t.Fatalf("tokenizer.analyzers len = %d, want 2", len(cfg.Tokenizer.Analyzers))
	}
	if cfg.Tokenizer.Analyzers[0].Variants[0] != "strasse, str => strasse" {
		t.Errorf("tokenizer.analyzers[0].variants[0] = %q", cfg.Tokenizer.Analyzers[0].Variants[0])
	}
	de := cfg.Tokenizer.Analyzers[1]
	if de.ID != "de" || de.Analyzer != "generic" {
		t.Errorf("tokenizer.analyzers[1] = %+v", de)
	}
	if len(de.Mutations) != 1 || len(de.Mutations[0].Replacements) != 2 {
		t.Errorf("tokenizer.analyzers[1].mutations = %+v", de.Mutations)
	}
	langs := cfg.Tokenizer.Languages()
	if len(langs) != 2 || langs[0] != "de" || langs[1] != "en" {
		t.Errorf("tokenizer.Languages() = %v, want [de en]", langs)
	}

	// Import
	if cfg.Import.Workers != 8 {
		t.Errorf("import.workers = %d, want 8", cfg.Import.Workers)
	}
	if cfg.Import.ReportInterval != 30*time.Second {
		t.Errorf("import.report_interval = %v, want 30s", cfg.Import.ReportInterval)
	}

	// Log
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("log.format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("IMPORT_WORKERS", "2")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Import.Workers != 2 {
		t.Errorf("import.workers = %d, want 2 (ENV override)", cfg.Import.Workers)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("STORE_BACKEND", "pogreb")
	t.Setenv("STORE_POGREB_PATH", "/tmp/words.pogreb")

	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Backend != BackendPogreb {
		t.Errorf("store.backend = %q, want %q", cfg.Store.Backend, BackendPogreb)
	}
	if cfg.Import.Workers != 4 {
		t.Errorf("import.workers = %d, want 4 (default)", cfg.Import.Workers)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log.format = %q, want json (default)", cfg.Log.Format)
	}
}

func TestLoad_NoFile_PostgresWithoutDSN(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_DSN", "")

	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	if _, err := Load(); err == nil {
		t.Fatal("expected error for postgres backend without dsn")
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoadFile_ExplicitPathWins(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Import.Workers != 8 {
		t.Errorf("import.workers = %d, want 8", cfg.Import.Workers)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `{{{invalid yaml`)
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "zero max conns", mutate: func(c *Config) { c.Database.MaxConns = 0 }, wantErr: true},
		{name: "min conns above max", mutate: func(c *Config) { c.Database.MinConns = 30 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "redis" }, wantErr: true},
		{
			name: "pogreb without dsn",
			mutate: func(c *Config) {
				c.Store.Backend = BackendPogreb
				c.Database.DSN = ""
			},
		},
		{
			name: "pogreb without path",
			mutate: func(c *Config) {
				c.Store.Backend = BackendPogreb
				c.Store.PogrebPath = ""
			},
			wantErr: true,
		},
		{name: "zero workers", mutate: func(c *Config) { c.Import.Workers = 0 }, wantErr: true},
		{
			name: "analyzers with default",
			mutate: func(c *Config) {
				c.Tokenizer.Analyzers = []AnalyzerConfig{{ID: ""}, {ID: "de"}}
			},
		},
		{
			name: "analyzers without default",
			mutate: func(c *Config) {
				c.Tokenizer.Analyzers = []AnalyzerConfig{{ID: "de"}}
			},
			wantErr: true,
		},
		{
			name: "two default analyzers",
			mutate: func(c *Config) {
				c.Tokenizer.Analyzers = []AnalyzerConfig{{ID: ""}, {ID: ""}}
			},
			wantErr: true,
		},
		{
			name: "duplicate analyzer id",
			mutate: func(c *Config) {
				c.Tokenizer.Analyzers = []AnalyzerConfig{{ID: ""}, {ID: "de"}, {ID: "de"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTokenizerConfig_Languages_Empty(t *testing.T) {
	t.Parallel()

	if langs := (TokenizerConfig{CountryLanguages: " , "}).Languages(); len(langs) != 0 {
		t.Errorf("Languages() = %v, want empty", langs)
	}
}
