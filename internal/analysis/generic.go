package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/heartmarshall/geotokenizer/internal/config"
	"github.com/heartmarshall/geotokenizer/internal/translit"
)

// GenericModule is the registry name of the generic analyzer.
const GenericModule = "generic"

// maxVariants caps the number of variants produced for a single name.
const maxVariants = 128

var (
	errEmptyVariantSide = errors.New("variant rule has an empty side")
	errEquivalence      = errors.New("equivalence rule needs at least two terms")
	errEmptyMutation    = errors.New("mutation without pattern or replacements")
)

// variantRule is stored in the trie under " source ".
type variantRule struct {
	replacements []string
	// keepSource is false when the source must always be replaced.
	keepSource bool
}

type mutation struct {
	pattern      string
	replacements []string
}

// Generic produces spelling variants from word-bounded replacement rules
// and character mutations, then folds them to ASCII.
type Generic struct {
	toASCII   *translit.Transliterator
	rules     *patricia.Trie
	mutations []mutation
}

// NewGeneric builds a generic analyzer. Rule terms are normalized with the
// shared normalizer so they match normalized names.
func NewGeneric(cfg config.AnalyzerConfig, normalizer, toASCII *translit.Transliterator) (Analyzer, error) {
	g := &Generic{
		toASCII: toASCII,
		rules:   patricia.NewTrie(),
	}

	normTerms := func(list string) []string {
		var terms []string
		for _, raw := range strings.Split(list, ",") {
			term := strings.Join(strings.Fields(normalizer.Transliterate(raw)), " ")
			if term != "" {
				terms = append(terms, term)
			}
		}
		return terms
	}

	for i, line := range cfg.Variants {
		switch {
		case strings.Contains(line, "=>"), strings.Contains(line, "->"):
			sep, keep := "=>", false
			if !strings.Contains(line, "=>") {
				sep, keep = "->", true
			}
			lhs, rhs, _ := strings.Cut(line, sep)
			sources, targets := normTerms(lhs), normTerms(rhs)
			if len(sources) == 0 || len(targets) == 0 {
				return nil, fmt.Errorf("variant %d %q: %w", i+1, line, errEmptyVariantSide)
			}
			for _, src := range sources {
				g.addRule(src, targets, keep)
			}
		default:
			terms := normTerms(line)
			if len(terms) < 2 {
				return nil, fmt.Errorf("variant %d %q: %w", i+1, line, errEquivalence)
			}
			for j, src := range terms {
				others := make([]string, 0, len(terms)-1)
				others = append(others, terms[:j]...)
				others = append(others, terms[j+1:]...)
				g.addRule(src, others, true)
			}
		}
	}

	for i, m := range cfg.Mutations {
		pattern := normalizer.Transliterate(m.Pattern)
		if pattern == "" || len(m.Replacements) == 0 {
			return nil, fmt.Errorf("mutation %d: %w", i+1, errEmptyMutation)
		}
		repl := make([]string, 0, len(m.Replacements))
		for _, r := range m.Replacements {
			repl = append(repl, normalizer.Transliterate(r))
		}
		g.mutations = append(g.mutations, mutation{pattern: pattern, replacements: repl})
	}

	return g, nil
}

// addRule merges rules with the same source. The source is kept when any
// of the merged rules keeps it.
func (g *Generic) addRule(src string, targets []string, keep bool) {
	key := patricia.Prefix(" " + src + " ")
	if item := g.rules.Get(key); item != nil {
		rule := item.(*variantRule)
		rule.replacements = appendUnique(rule.replacements, targets...)
		rule.keepSource = rule.keepSource || keep
		return
	}
	g.rules.Insert(key, &variantRule{
		replacements: appendUnique(nil, targets...),
		keepSource:   keep,
	})
}

// VariantsASCII returns the sorted, deduplicated ASCII variants of an
// already normalized name. The result is empty when nothing survives the
// transliteration.
func (g *Generic) VariantsASCII(normalized string) []string {
	seen := make(map[string]struct{})
	var out []string

	for _, base := range g.mutate(normalized) {
		for _, variant := range g.expand(base) {
			ascii := strings.TrimSpace(g.toASCII.Transliterate(variant))
			if ascii == "" {
				continue
			}
			if _, ok := seen[ascii]; ok {
				continue
			}
			seen[ascii] = struct{}{}
			out = append(out, ascii)
			if len(out) == maxVariants {
				sort.Strings(out)
				return out
			}
		}
	}

	sort.Strings(out)
	return out
}

// mutate applies every mutation to every intermediate result.
func (g *Generic) mutate(name string) []string {
	results := []string{name}
	for _, m := range g.mutations {
		next := make([]string, 0, len(results))
		for _, r := range results {
			if !strings.Contains(r, m.pattern) {
				next = append(next, r)
				continue
			}
			for _, repl := range m.replacements {
				next = appendUnique(next, strings.ReplaceAll(r, m.pattern, repl))
			}
		}
		if len(next) > maxVariants {
			next = next[:maxVariants]
		}
		results = next
	}
	return results
}

type ruleMatch struct {
	words int
	rule  *variantRule
}

// expand applies the variant rules at every word position.
func (g *Generic) expand(name string) []string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return nil
	}

	text := " " + strings.Join(words, " ") + " "
	matches := make([][]ruleMatch, len(words))
	offset := 0
	for i, w := range words {
		suffix := text[offset:]
		_ = g.rules.VisitPrefixes(patricia.Prefix(suffix), func(prefix patricia.Prefix, item patricia.Item) error {
			matches[i] = append(matches[i], ruleMatch{
				words: strings.Count(string(prefix), " ") - 1,
				rule:  item.(*variantRule),
			})
			return nil
		})
		offset += len(w) + 1
	}

	var out []string
	acc := make([]string, 0, len(words))

	var walk func(pos int)
	walk = func(pos int) {
		if len(out) >= maxVariants {
			return
		}
		if pos == len(words) {
			out = append(out, strings.Join(acc, " "))
			return
		}

		keep := true
		for _, m := range matches[pos] {
			if !m.rule.keepSource {
				keep = false
			}
		}
		if keep {
			acc = append(acc, words[pos])
			walk(pos + 1)
			acc = acc[:len(acc)-1]
		}

		for _, m := range matches[pos] {
			for _, repl := range m.rule.replacements {
				acc = append(acc, repl)
				walk(pos + m.words)
				acc = acc[:len(acc)-1]
			}
		}
	}
	walk(0)

	return out
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, l := range list {
			if l == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
