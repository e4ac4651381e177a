package tokenizer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/geotokenizer/internal/domain"
)

// PostcodeStats reports the outcome of UpdatePostcodesFromDB.
type PostcodeStats struct {
	Added   int
	Deleted int
}

// addPostcode makes sure the postcode has a token. Values that look like
// postcode lists are tokenized without normalization.
func (a *NameAnalyzer) addPostcode(ctx context.Context, raw string) error {
	postcode := raw
	if !domain.IsAmbiguousPostcode(raw) {
		postcode = domain.NormalizePostcode(raw)
	}

	if _, ok := a.cache.postcodes[postcode]; ok {
		return nil
	}

	term := a.searchNormalized(postcode)
	if term == "" {
		return nil
	}

	exists, err := a.store.PostcodeExists(ctx, postcode)
	if err != nil {
		return err
	}
	if !exists {
		if err := a.store.AddPostcode(ctx, term, postcode); err != nil {
			return err
		}
	}
	a.cache.postcodes[postcode] = struct{}{}
	return nil
}

// UpdatePostcodesFromDB adds tokens for postcodes of the place data that
// have none yet and removes tokens of postcodes that no longer exist.
func (a *NameAnalyzer) UpdatePostcodesFromDB(ctx context.Context) (PostcodeStats, error) {
	if err := a.checkOpen(); err != nil {
		return PostcodeStats{}, err
	}

	var stats PostcodeStats
	err := a.store.RunInTx(ctx, func(ctx context.Context) error {
		missing, obsolete, err := a.store.PostcodeDiff(ctx)
		if err != nil {
			return fmt.Errorf("postcode diff: %w", err)
		}

		if len(obsolete) > 0 {
			if err := a.store.DeletePostcodes(ctx, obsolete); err != nil {
				return fmt.Errorf("delete postcodes: %w", err)
			}
			stats.Deleted = len(obsolete)
		}

		for _, pc := range missing {
			term := a.searchNormalized(pc)
			if term == "" {
				continue
			}
			if err := a.store.AddPostcode(ctx, term, pc); err != nil {
				return fmt.Errorf("add postcode %q: %w", pc, err)
			}
			stats.Added++
		}
		return nil
	})
	if err != nil {
		return PostcodeStats{}, err
	}

	// Deleted postcodes must be looked up again.
	a.cache.postcodes = make(map[string]struct{})

	a.log.InfoContext(ctx, "postcodes updated", slog.Int("added", stats.Added), slog.Int("deleted", stats.Deleted))
	return stats, nil
}
