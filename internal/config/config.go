package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Store     StoreConfig     `yaml:"store"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Import    ImportConfig    `yaml:"import"`
	Log       LogConfig       `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendPogreb   = "pogreb"
)

// StoreConfig selects the token store implementation.
type StoreConfig struct {
	Backend    string `yaml:"backend"     env:"STORE_BACKEND"     env-default:"postgres"`
	PogrebPath string `yaml:"pogreb_path" env:"STORE_POGREB_PATH" env-default:"./data/words.pogreb"`
}

// TokenizerConfig holds the rule texts and analyzer definitions.
// Empty rule texts select the built-in defaults.
type TokenizerConfig struct {
	Normalization   string           `yaml:"normalization"    env:"TOKENIZER_NORMALIZATION"`
	Transliteration string           `yaml:"transliteration"  env:"TOKENIZER_TRANSLITERATION"`
	Analyzers       []AnalyzerConfig `yaml:"analyzers"`
	CountrySettings string           `yaml:"country_settings" env:"TOKENIZER_COUNTRY_SETTINGS" env-default:"./country_settings.yaml"`
	// CountryLanguages is a comma-separated list of languages whose
	// country names are registered. Empty means all languages.
	CountryLanguages string `yaml:"country_languages" env:"TOKENIZER_COUNTRY_LANGUAGES"`
}

// AnalyzerConfig defines one variant analyzer. An empty ID is the default
// analyzer.
type AnalyzerConfig struct {
	ID        string           `yaml:"id"`
	Analyzer  string           `yaml:"analyzer"`
	Variants  []string         `yaml:"variants"`
	Mutations []MutationConfig `yaml:"mutations"`
}

// MutationConfig replaces every occurrence of Pattern with each of the
// replacements in turn.
type MutationConfig struct {
	Pattern      string   `yaml:"pattern"`
	Replacements []string `yaml:"replacements"`
}

// ImportConfig holds settings for the bulk tokenize command.
type ImportConfig struct {
	Workers        int           `yaml:"workers"         env:"IMPORT_WORKERS"         env-default:"4"`
	ReportInterval time.Duration `yaml:"report_interval" env:"IMPORT_REPORT_INTERVAL" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
