// Package analysis holds the transliterators and the per-language variant
// analyzers used to turn names into search tokens.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/heartmarshall/geotokenizer/internal/config"
	"github.com/heartmarshall/geotokenizer/internal/domain"
	"github.com/heartmarshall/geotokenizer/internal/translit"
)

// DefaultKey selects the default analyzer.
const DefaultKey = ""

// Analyzer produces the ASCII search variants of a normalized name.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	VariantsASCII(normalized string) []string
}

// Factory creates an analyzer from its configuration. It receives the
// shared normalizer and ASCII transliterator.
type Factory func(cfg config.AnalyzerConfig, normalizer, toASCII *translit.Transliterator) (Analyzer, error)

// Registry maps analyzer module names onto factories.
type Registry map[string]Factory

// DefaultRegistry returns the built-in analyzer modules.
func DefaultRegistry() Registry {
	return Registry{
		GenericModule: NewGeneric,
	}
}

// Set bundles the transliterators with the configured analyzers. It is
// immutable after construction and may be shared by all sessions.
type Set struct {
	normalizer *translit.Transliterator
	toASCII    *translit.Transliterator
	search     *translit.Transliterator
	analyzers  map[string]Analyzer
}

// NewSet compiles the rules of cfg and instantiates one analyzer per
// configured id. Empty rule texts fall back to the built-in defaults and an
// empty analyzer list to a single default generic analyzer.
func NewSet(cfg config.TokenizerConfig, reg Registry) (*Set, error) {
	normRules := cfg.Normalization
	if strings.TrimSpace(normRules) == "" {
		normRules = DefaultNormalizationRules
	}
	transRules := cfg.Transliteration
	if strings.TrimSpace(transRules) == "" {
		transRules = DefaultTransliterationRules
	}
	transRules += collapseSpaceRule

	s := &Set{analyzers: make(map[string]Analyzer)}

	var err error
	if s.normalizer, err = translit.Compile("normalization", normRules); err != nil {
		return nil, err
	}
	if s.toASCII, err = translit.Compile("transliteration", transRules); err != nil {
		return nil, err
	}
	if s.search, err = translit.Compile("search", normRules+"\n"+transRules); err != nil {
		return nil, err
	}

	analyzers := cfg.Analyzers
	if len(analyzers) == 0 {
		analyzers = []config.AnalyzerConfig{{ID: DefaultKey, Analyzer: GenericModule}}
	}

	for _, acfg := range analyzers {
		if _, dup := s.analyzers[acfg.ID]; dup {
			return nil, domain.NewConfigError("analyzers", fmt.Errorf("duplicate analyzer id %q", acfg.ID))
		}
		module := acfg.Analyzer
		if module == "" {
			module = GenericModule
		}
		factory, ok := reg[module]
		if !ok {
			return nil, domain.NewConfigError("analyzers", fmt.Errorf("unknown analyzer module %q", module))
		}
		a, err := factory(acfg, s.normalizer, s.toASCII)
		if err != nil {
			return nil, domain.NewConfigError("analyzer "+acfg.ID, err)
		}
		s.analyzers[acfg.ID] = a
	}

	if _, ok := s.analyzers[DefaultKey]; !ok {
		return nil, domain.NewConfigError("analyzers", fmt.Errorf("no default analyzer configured"))
	}

	return s, nil
}

// Normalize returns the normalized form of name, used for grouping.
func (s *Set) Normalize(name string) string {
	return strings.TrimSpace(s.normalizer.Transliterate(name))
}

// ToASCII folds an already normalized name to ASCII.
func (s *Set) ToASCII(name string) string {
	return strings.TrimSpace(s.toASCII.Transliterate(name))
}

// SearchFold normalizes and transliterates name in one pass. The result is
// the lookup key for every token store query.
func (s *Set) SearchFold(name string) string {
	return strings.TrimSpace(s.search.Transliterate(name))
}

// Get returns the analyzer registered for key or the default analyzer.
func (s *Set) Get(key string) Analyzer {
	if a, ok := s.analyzers[key]; ok {
		return a
	}
	return s.analyzers[DefaultKey]
}

// Keys returns the configured analyzer ids in sorted order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.analyzers))
	for k := range s.analyzers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
