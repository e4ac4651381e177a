package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the %s backend", BackendPostgres)
		}
		if c.Database.MaxConns <= 0 {
			return fmt.Errorf("database.max_conns must be > 0 (got %d)", c.Database.MaxConns)
		}
		if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("database.min_conns must be between 0 and max_conns (got %d)", c.Database.MinConns)
		}
	case BackendPogreb:
		if c.Store.PogrebPath == "" {
			return fmt.Errorf("store.pogreb_path is required for the %s backend", BackendPogreb)
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q (got %q)", BackendPostgres, BackendPogreb, c.Store.Backend)
	}

	if c.Import.Workers < 1 {
		return fmt.Errorf("import.workers must be >= 1 (got %d)", c.Import.Workers)
	}

	if err := c.Tokenizer.validate(); err != nil {
		return fmt.Errorf("tokenizer: %w", err)
	}

	return nil
}

func (t *TokenizerConfig) validate() error {
	seen := make(map[string]bool, len(t.Analyzers))
	for _, a := range t.Analyzers {
		if seen[a.ID] {
			if a.ID == "" {
				return fmt.Errorf("more than one default analyzer")
			}
			return fmt.Errorf("duplicate analyzer id %q", a.ID)
		}
		seen[a.ID] = true
	}
	if len(t.Analyzers) > 0 && !seen[""] {
		return fmt.Errorf("analyzers must include a default analyzer with an empty id")
	}
	return nil
}

// Languages returns the parsed CountryLanguages list.
func (t TokenizerConfig) Languages() []string {
	var langs []string
	for _, l := range strings.Split(t.CountryLanguages, ",") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}
