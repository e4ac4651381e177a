package tokenizer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/heartmarshall/geotokenizer/internal/domain"
)

// PhraseStats reports the outcome of UpdateSpecialPhrases.
type PhraseStats struct {
	Total   int
	Added   int
	Deleted int
}

// UpdateSpecialPhrases adds the phrases missing from the store. With
// replace set, stored phrases not in the list are removed as well.
func (a *NameAnalyzer) UpdateSpecialPhrases(ctx context.Context, phrases []domain.SpecialPhrase, replace bool) (PhraseStats, error) {
	if err := a.checkOpen(); err != nil {
		return PhraseStats{}, err
	}

	newPhrases := make(map[domain.SpecialPhrase]struct{}, len(phrases))
	for _, p := range phrases {
		newPhrases[domain.SpecialPhrase{
			Phrase:   a.normalized(p.Phrase),
			Class:    p.Class,
			Type:     p.Type,
			Operator: domain.NormalizeOperator(p.Operator),
		}] = struct{}{}
	}

	stats := PhraseStats{Total: len(newPhrases)}
	err := a.store.RunInTx(ctx, func(ctx context.Context) error {
		stored, err := a.store.SpecialPhrases(ctx)
		if err != nil {
			return fmt.Errorf("read special phrases: %w", err)
		}
		existing := make(map[domain.SpecialPhrase]struct{}, len(stored))
		for _, p := range stored {
			p.Operator = domain.NormalizeOperator(p.Operator)
			existing[p] = struct{}{}
		}

		var toAdd []domain.SpecialPhraseToken
		for _, p := range sortedPhrases(newPhrases) {
			if _, ok := existing[p]; ok {
				continue
			}
			term := a.searchNormalized(p.Phrase)
			if term == "" {
				continue
			}
			toAdd = append(toAdd, domain.SpecialPhraseToken{SpecialPhrase: p, Token: term})
		}
		if len(toAdd) > 0 {
			if err := a.store.AddSpecialPhrases(ctx, toAdd); err != nil {
				return fmt.Errorf("add special phrases: %w", err)
			}
		}
		stats.Added = len(toAdd)

		if replace {
			var toDelete []domain.SpecialPhrase
			for _, p := range sortedPhrases(existing) {
				if _, ok := newPhrases[p]; !ok {
					toDelete = append(toDelete, p)
				}
			}
			if len(toDelete) > 0 {
				if err := a.store.DeleteSpecialPhrases(ctx, toDelete); err != nil {
					return fmt.Errorf("delete special phrases: %w", err)
				}
			}
			stats.Deleted = len(toDelete)
		}
		return nil
	})
	if err != nil {
		return PhraseStats{}, err
	}

	a.log.InfoContext(ctx, "special phrases updated",
		slog.Int("total", stats.Total),
		slog.Int("added", stats.Added),
		slog.Int("deleted", stats.Deleted),
	)
	return stats, nil
}

func sortedPhrases(set map[domain.SpecialPhrase]struct{}) []domain.SpecialPhrase {
	list := make([]domain.SpecialPhrase, 0, len(set))
	for p := range set {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Phrase != b.Phrase {
			return a.Phrase < b.Phrase
		}
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Operator < b.Operator
	})
	return list
}
