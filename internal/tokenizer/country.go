package tokenizer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/heartmarshall/geotokenizer/internal/country"
	"github.com/heartmarshall/geotokenizer/internal/domain"
)

// AddCountryNames registers names as country tokens for countryCode.
// Existing tokens are never removed.
func (a *NameAnalyzer) AddCountryNames(ctx context.Context, countryCode string, names []string) error {
	if err := a.checkOpen(); err != nil {
		return err
	}

	items := make([]domain.NameItem, 0, len(names))
	for _, n := range names {
		items = append(items, domain.NameItem{Name: n, Country: countryCode})
	}
	return a.addCountryFullNames(ctx, countryCode, items)
}

// countryShortNames are added to the settings names of their country.
var countryShortNames = map[string]string{
	"gb": "UK",
	"us": "United States",
}

// CreateCountryNames registers the names of every country in info: the
// default name, the names in the given languages (all when empty), the
// fixed short name if there is one and the country code itself.
func (a *NameAnalyzer) CreateCountryNames(ctx context.Context, info *country.Info, languages []string) error {
	if err := a.checkOpen(); err != nil {
		return err
	}

	for _, cc := range info.Codes() {
		settings, _ := info.Get(cc)
		names := append([]string{cc}, settings.LocalizedNames(languages)...)
		if short, ok := countryShortNames[cc]; ok {
			names = append(names, short)
		}
		if err := a.AddCountryNames(ctx, cc, names); err != nil {
			return fmt.Errorf("country %s: %w", cc, err)
		}
	}
	return nil
}

func (a *NameAnalyzer) addCountryFullNames(ctx context.Context, countryCode string, names []domain.NameItem) error {
	tokens := make(map[string]struct{}, len(names))
	for _, n := range names {
		if term := a.searchNormalized(n.Name); term != "" {
			tokens[term] = struct{}{}
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	existing, err := a.store.CountryTokens(ctx, countryCode)
	if err != nil {
		return fmt.Errorf("read country tokens: %w", err)
	}
	for _, t := range existing {
		delete(tokens, t)
	}
	if len(tokens) == 0 {
		return nil
	}

	add := make([]string, 0, len(tokens))
	for t := range tokens {
		add = append(add, t)
	}
	sort.Strings(add)

	if err := a.store.AddCountryTokens(ctx, countryCode, add); err != nil {
		return fmt.Errorf("add country tokens: %w", err)
	}
	a.log.DebugContext(ctx, "country tokens added", slog.String("country", countryCode), slog.Int("count", len(add)))
	return nil
}
