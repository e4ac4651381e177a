package tokenizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/heartmarshall/geotokenizer/internal/domain"
)

type nameTokens struct {
	full     int64
	partials []int64
}

// Cache memoizes token lookups for one analyzer session. Store rows for a
// given text are never changed while a session runs, so entries are never
// invalidated. A Cache is not safe for concurrent use.
type Cache struct {
	// names is keyed by dispatch key.
	names map[string]nameTokens
	// partials is keyed by search-folded word.
	partials map[string]int64
	// fulls is keyed by search-folded name and may hold empty lists.
	fulls map[string][]int64
	// housenumbers is keyed by search-folded housenumber.
	housenumbers map[string]int64
	postcodes    map[string]struct{}
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		names:        make(map[string]nameTokens),
		partials:     make(map[string]int64),
		fulls:        make(map[string][]int64),
		housenumbers: make(map[string]int64),
		postcodes:    make(map[string]struct{}),
	}
}

// resolveIDs makes sure every key is in cache, fetching the missing ones
// in a single call.
func resolveIDs(
	ctx context.Context,
	cache map[string]int64,
	keys []string,
	typ domain.TokenType,
	fetch func(ctx context.Context, keys []string) (map[string]int64, error),
) error {
	misses := missingKeys(cache, keys)
	if len(misses) == 0 {
		return nil
	}

	ids, err := fetch(ctx, misses)
	if err != nil {
		return err
	}
	for _, k := range misses {
		id, ok := ids[k]
		if !ok {
			return fmt.Errorf("store returned no %s token for %q", typ, k)
		}
		cache[k] = id
	}
	return nil
}

// missingKeys returns the sorted distinct keys not present in cache.
func missingKeys[V any](cache map[string]V, keys []string) []string {
	seen := make(map[string]struct{})
	var misses []string
	for _, k := range keys {
		if _, ok := cache[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		misses = append(misses, k)
	}
	sort.Strings(misses)
	return misses
}

// idSet collects ids in first-seen order without duplicates.
type idSet struct {
	ids  []int64
	seen map[int64]struct{}
}

func (s *idSet) add(ids ...int64) {
	if s.seen == nil {
		s.seen = make(map[int64]struct{})
	}
	for _, id := range ids {
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}
