package tokenizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/heartmarshall/geotokenizer/internal/domain"
)

var housenumberSeparators = regexp.MustCompile(`[;,]`)

// ProcessPlace computes the token info of a place, creating missing tokens
// in the store. On error no token info is returned.
func (a *NameAnalyzer) ProcessPlace(ctx context.Context, place *domain.Place) (*domain.TokenInfo, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}

	info := &domain.TokenInfo{}

	if len(place.Names) > 0 {
		fulls, partials, err := a.computeNameTokens(ctx, place.Names)
		if err != nil {
			return nil, fmt.Errorf("place %d: names: %w", place.ID, err)
		}
		info.SetNames(fulls, partials)

		if place.IsCountry() {
			if err := a.addCountryFullNames(ctx, place.CountryCode, place.Names); err != nil {
				return nil, fmt.Errorf("place %d: country names: %w", place.ID, err)
			}
		}
	}

	if len(place.Address) > 0 {
		if err := a.processAddress(ctx, info, place.Address); err != nil {
			return nil, fmt.Errorf("place %d: address: %w", place.ID, err)
		}
	}

	return info, nil
}

// dispatchKey combines the normalized name with the analyzer key.
func dispatchKey(normalized, analyzer string) string {
	if analyzer == "" {
		return normalized
	}
	return normalized + "@" + analyzer
}

// computeNameTokens returns the full and partial tokens of all names.
// Names without variants contribute nothing.
func (a *NameAnalyzer) computeNameTokens(ctx context.Context, names []domain.NameItem) ([]int64, []int64, error) {
	keys := make([]string, 0, len(names))
	var reqs []FullWordRequest
	requested := make(map[string]struct{})

	for _, item := range names {
		norm := a.normalized(item.Name)
		key := dispatchKey(norm, item.Analyzer)
		if _, ok := a.cache.names[key]; ok {
			keys = append(keys, key)
			continue
		}
		if _, ok := requested[key]; ok {
			keys = append(keys, key)
			continue
		}

		variants := a.analysis.Get(item.Analyzer).VariantsASCII(norm)
		if len(variants) == 0 {
			continue
		}
		requested[key] = struct{}{}
		reqs = append(reqs, FullWordRequest{Key: key, Variants: variants})
		keys = append(keys, key)
	}

	if len(reqs) > 0 {
		words, err := a.store.GetOrCreateFullWords(ctx, reqs)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range reqs {
			w, ok := words[r.Key]
			if !ok {
				return nil, nil, fmt.Errorf("store returned no %s token for %q", domain.TokenTypeFull, r.Key)
			}
			a.cache.names[r.Key] = nameTokens{full: w.ID, partials: w.Partials}
		}
	}

	var fulls, partials idSet
	for _, key := range keys {
		t := a.cache.names[key]
		fulls.add(t.full)
		partials.add(t.partials...)
	}
	return fulls.ids, partials.ids, nil
}

// processAddress fills the address related fields of info.
func (a *NameAnalyzer) processAddress(ctx context.Context, info *domain.TokenInfo, address []domain.AddressItem) error {
	var (
		hnrs       []string
		streets    []string
		placeTerms []string
		addrTerms  []domain.AddressItem
	)

	for _, item := range address {
		switch {
		case item.Kind == domain.KindPostcode:
			if err := a.addPostcode(ctx, item.Name); err != nil {
				return fmt.Errorf("postcode: %w", err)
			}
		case item.IsHousenumber():
			hnrs = append(hnrs, item.Name)
		case item.Kind == domain.KindStreet:
			streets = append(streets, a.searchNormalized(item.Name))
		case item.Kind == domain.KindPlace:
			if item.Suffix == "" {
				placeTerms = append(placeTerms, a.searchNormalized(item.Name))
			}
		case item.IsAddressTerm():
			addrTerms = append(addrTerms, domain.AddressItem{Kind: item.Kind, Name: a.searchNormalized(item.Name)})
		}
	}

	var words []string
	for _, t := range placeTerms {
		words = append(words, strings.Fields(t)...)
	}
	for _, t := range addrTerms {
		words = append(words, strings.Fields(t.Name)...)
	}
	if err := resolveIDs(ctx, a.cache.partials, words, domain.TokenTypePartial, a.store.GetOrCreatePartialWords); err != nil {
		return fmt.Errorf("partial words: %w", err)
	}

	if len(hnrs) > 0 {
		normalized := make([]string, 0, len(hnrs))
		for _, h := range splitHousenumbers(hnrs) {
			if n := a.searchNormalized(h); n != "" {
				normalized = append(normalized, n)
			}
		}
		if len(normalized) > 0 {
			if err := resolveIDs(ctx, a.cache.housenumbers, normalized, domain.TokenTypeHousenumber, a.store.GetOrCreateHousenumbers); err != nil {
				return fmt.Errorf("housenumbers: %w", err)
			}
			ids := make([]int64, 0, len(normalized))
			for _, n := range normalized {
				ids = append(ids, a.cache.housenumbers[n])
			}
			info.SetHousenumbers(ids, normalized)
		}
	}

	for _, t := range placeTerms {
		info.SetPlace(a.partialTokens(t))
	}
	for _, t := range addrTerms {
		info.AddAddressTerm(t.Kind, a.partialTokens(t.Name))
	}

	if len(streets) > 0 {
		ids, err := a.retrieveFullTokens(ctx, streets)
		if err != nil {
			return fmt.Errorf("street: %w", err)
		}
		if len(ids) > 0 {
			info.SetStreet(ids)
		}
	}

	return nil
}

// partialTokens maps the words of a search-folded term onto cached
// partial tokens.
func (a *NameAnalyzer) partialTokens(term string) []int64 {
	words := strings.Fields(term)
	ids := make([]int64, 0, len(words))
	for _, w := range words {
		ids = append(ids, a.cache.partials[w])
	}
	return ids
}

// retrieveFullTokens looks up existing full tokens without creating any.
func (a *NameAnalyzer) retrieveFullTokens(ctx context.Context, names []string) ([]int64, error) {
	misses := missingKeys(a.cache.fulls, names)
	if len(misses) > 0 {
		found, err := a.store.LookupFullTokens(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, n := range misses {
			a.cache.fulls[n] = found[n]
		}
	}

	var ids []int64
	for _, n := range names {
		ids = append(ids, a.cache.fulls[n]...)
	}
	return ids, nil
}

// splitHousenumbers splits lists of housenumbers. Values are only split
// when there is more than one or a separator is present, and duplicates
// are only removed after a split.
func splitHousenumbers(hnrs []string) []string {
	if len(hnrs) == 1 && !housenumberSeparators.MatchString(hnrs[0]) {
		return hnrs
	}

	var simple []string
	for _, h := range hnrs {
		for _, part := range housenumberSeparators.Split(h, -1) {
			simple = append(simple, strings.TrimSpace(part))
		}
	}
	if len(simple) <= 1 {
		return simple
	}

	seen := make(map[string]struct{}, len(simple))
	unique := simple[:0]
	for _, h := range simple {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		unique = append(unique, h)
	}
	return unique
}
