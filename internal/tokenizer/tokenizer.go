// Package tokenizer turns sanitized place records into search tokens and
// keeps the token store in sync with special phrases, country names and
// postcodes.
package tokenizer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/geotokenizer/internal/analysis"
	"github.com/heartmarshall/geotokenizer/internal/domain"
	"github.com/heartmarshall/geotokenizer/pkg/ctxutil"
)

// Tokenizer hands out analyzer sessions that share one analyzer set.
type Tokenizer struct {
	log      *slog.Logger
	analysis *analysis.Set
	open     StoreOpener
}

// New creates a Tokenizer. open is called once per analyzer session.
func New(logger *slog.Logger, set *analysis.Set, open StoreOpener) *Tokenizer {
	return &Tokenizer{
		log:      logger.With("component", "tokenizer"),
		analysis: set,
		open:     open,
	}
}

// NameAnalyzer opens a new session with its own store session and cache.
// The caller must close it. A session id already in ctx is logged through
// the context instead of being attached to the session logger.
func (t *Tokenizer) NameAnalyzer(ctx context.Context) (*NameAnalyzer, error) {
	store, err := t.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if ctxutil.SessionIDFromCtx(ctx) != "" {
		return newNameAnalyzer(t.log, store, t.analysis), nil
	}
	return NewNameAnalyzer(t.log, store, t.analysis), nil
}

// Analysis returns the shared analyzer set.
func (t *Tokenizer) Analysis() *analysis.Set { return t.analysis }

// NameAnalyzer is one analyzer session. It owns a store session and a
// cache and must not be used by more than one goroutine at a time.
type NameAnalyzer struct {
	log      *slog.Logger
	store    Store
	analysis *analysis.Set
	cache    *Cache
}

// NewNameAnalyzer creates a session on top of an already opened store.
func NewNameAnalyzer(logger *slog.Logger, store Store, set *analysis.Set) *NameAnalyzer {
	return newNameAnalyzer(logger.With("session_id", uuid.NewString()), store, set)
}

func newNameAnalyzer(logger *slog.Logger, store Store, set *analysis.Set) *NameAnalyzer {
	return &NameAnalyzer{
		log:      logger,
		store:    store,
		analysis: set,
		cache:    NewCache(),
	}
}

// Close releases the store session. Further calls fail with
// domain.ErrClosed.
func (a *NameAnalyzer) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	a.cache = nil
	return err
}

func (a *NameAnalyzer) checkOpen() error {
	if a.store == nil {
		return domain.ErrClosed
	}
	return nil
}

func (a *NameAnalyzer) normalized(name string) string {
	return a.analysis.Normalize(name)
}

func (a *NameAnalyzer) searchNormalized(name string) string {
	return a.analysis.SearchFold(name)
}
