// Package storetest holds the behaviour every tokenizer.Store backend must
// show. Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/geotokenizer/internal/domain"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

// Harness connects the suite to a backend. Sessions returned by Open share
// one underlying database. AddPlacePostcode records a postcode as present
// in the place data.
type Harness struct {
	Open             func(t *testing.T) tokenizer.Store
	AddPlacePostcode func(t *testing.T, postcode string)
}

// Run executes the store contract. The database may be shared with other
// tests, so every case works on its own unique words.
func Run(t *testing.T, h Harness) {
	t.Run("FullWords", func(t *testing.T) { testFullWords(t, h) })
	t.Run("FullWordsConcurrent", func(t *testing.T) { testFullWordsConcurrent(t, h) })
	t.Run("FullWordsCrossedPartials", func(t *testing.T) { testFullWordsCrossedPartials(t, h) })
	t.Run("PartialWords", func(t *testing.T) { testPartialWords(t, h) })
	t.Run("Housenumbers", func(t *testing.T) { testHousenumbers(t, h) })
	t.Run("Postcodes", func(t *testing.T) { testPostcodes(t, h) })
	t.Run("PostcodeDiff", func(t *testing.T) { testPostcodeDiff(t, h) })
	t.Run("CountryTokens", func(t *testing.T) { testCountryTokens(t, h) })
	t.Run("SpecialPhrases", func(t *testing.T) { testSpecialPhrases(t, h) })
	t.Run("WordIDs", func(t *testing.T) { testWordIDs(t, h) })
	t.Run("RollBack", func(t *testing.T) { testRollBack(t, h) })
}

func suffix() string {
	return strings.ReplaceAll(uuid.New().String()[:8], "-", "")
}

func testFullWords(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.Open(t)
	sfx := suffix()

	key := "hauptstrasse" + sfx
	req := tokenizer.FullWordRequest{
		Key:      key,
		Variants: []string{"hauptstrasse" + sfx, "haupt strasse" + sfx},
	}

	first, err := s.GetOrCreateFullWords(ctx, []tokenizer.FullWordRequest{req})
	require.NoError(t, err)
	require.Contains(t, first, key)
	require.Len(t, first[key].Partials, 3)

	partials, err := s.GetOrCreatePartialWords(ctx, []string{"hauptstrasse" + sfx, "haupt", "strasse" + sfx})
	require.NoError(t, err)
	assert.Equal(t, []int64{
		partials["hauptstrasse"+sfx], partials["haupt"], partials["strasse"+sfx],
	}, first[key].Partials)

	second, err := s.GetOrCreateFullWords(ctx, []tokenizer.FullWordRequest{req})
	require.NoError(t, err)
	assert.Equal(t, first[key], second[key])

	found, err := s.LookupFullTokens(ctx, []string{"hauptstrasse" + sfx, "haupt strasse" + sfx, "nothing" + sfx})
	require.NoError(t, err)
	assert.Equal(t, map[string][]int64{
		"hauptstrasse" + sfx:  {first[key].ID},
		"haupt strasse" + sfx: {first[key].ID},
	}, found)
}

func testFullWordsConcurrent(t *testing.T, h Harness) {
	ctx := context.Background()
	key := "concurrent" + suffix()
	req := []tokenizer.FullWordRequest{{Key: key, Variants: []string{key}}}

	const sessions = 4
	stores := make([]tokenizer.Store, sessions)
	for i := range stores {
		stores[i] = h.Open(t)
	}

	ids := make([]int64, sessions)
	errs := make([]error, sessions)
	var wg sync.WaitGroup
	for i, s := range stores {
		wg.Add(1)
		go func(i int, s tokenizer.Store) {
			defer wg.Done()
			got, err := s.GetOrCreateFullWords(ctx, req)
			errs[i] = err
			ids[i] = got[key].ID
		}(i, s)
	}
	wg.Wait()

	for i := range stores {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

// Two sessions whose batches share partial words in opposite order.
func testFullWordsCrossedPartials(t *testing.T, h Harness) {
	ctx := context.Background()
	a, b := h.Open(t), h.Open(t)

	for range 20 {
		sfx := suffix()
		y, z := "y"+sfx, "z"+sfx
		reqA := []tokenizer.FullWordRequest{
			{Key: "b" + sfx, Variants: []string{z}},
			{Key: "c" + sfx, Variants: []string{y}},
		}
		reqB := []tokenizer.FullWordRequest{
			{Key: "a" + sfx, Variants: []string{y + " " + z}},
		}

		var (
			gotA, gotB map[string]tokenizer.FullWord
			errA, errB error
			wg         sync.WaitGroup
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			gotA, errA = a.GetOrCreateFullWords(ctx, reqA)
		}()
		go func() {
			defer wg.Done()
			gotB, errB = b.GetOrCreateFullWords(ctx, reqB)
		}()
		wg.Wait()

		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, []int64{gotA["c"+sfx].Partials[0], gotA["b"+sfx].Partials[0]}, gotB["a"+sfx].Partials)
	}
}

func testPartialWords(t *testing.T, h Harness) {
	ctx := context.Background()
	a, b := h.Open(t), h.Open(t)
	word := "partial" + suffix()

	fromA, err := a.GetOrCreatePartialWords(ctx, []string{word, word})
	require.NoError(t, err)
	fromB, err := b.GetOrCreatePartialWords(ctx, []string{word})
	require.NoError(t, err)

	require.Len(t, fromA, 1)
	assert.Equal(t, fromA[word], fromB[word])

	empty, err := a.GetOrCreatePartialWords(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testHousenumbers(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.Open(t)
	nr := "12 " + suffix()

	first, err := s.GetOrCreateHousenumbers(ctx, []string{nr})
	require.NoError(t, err)
	again, err := s.GetOrCreateHousenumbers(ctx, []string{nr})
	require.NoError(t, err)
	assert.Equal(t, first[nr], again[nr])

	partial, err := s.GetOrCreatePartialWords(ctx, []string{nr})
	require.NoError(t, err)
	assert.NotEqual(t, first[nr], partial[nr])
}

func testPostcodes(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.Open(t)
	pc := "PC" + strings.ToUpper(suffix())

	ok, err := s.PostcodeExists(ctx, pc)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AddPostcode(ctx, strings.ToLower(pc), pc))
	require.NoError(t, s.AddPostcode(ctx, strings.ToLower(pc), pc))

	ok, err = s.PostcodeExists(ctx, pc)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeletePostcodes(ctx, []string{pc}))
	ok, err = s.PostcodeExists(ctx, pc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testPostcodeDiff(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.Open(t)
	sfx := strings.ToUpper(suffix())
	known, fresh, stale := "KNOWN"+sfx, "FRESH"+sfx, "STALE"+sfx

	h.AddPlacePostcode(t, known)
	h.AddPlacePostcode(t, fresh)
	require.NoError(t, s.AddPostcode(ctx, strings.ToLower(known), known))
	require.NoError(t, s.AddPostcode(ctx, strings.ToLower(stale), stale))

	missing, obsolete, err := s.PostcodeDiff(ctx)
	require.NoError(t, err)
	assert.Contains(t, missing, fresh)
	assert.NotContains(t, missing, known)
	assert.Contains(t, obsolete, stale)
	assert.NotContains(t, obsolete, known)
}

func testCountryTokens(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.Open(t)
	cc := "x" + suffix()

	got, err := s.CountryTokens(ctx, cc)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.AddCountryTokens(ctx, cc, []string{"utopia", "nowhereland"}))
	got, err = s.CountryTokens(ctx, cc)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"utopia", "nowhereland"}, got)
}

func testSpecialPhrases(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.Open(t)
	sfx := suffix()

	plain := domain.SpecialPhrase{Phrase: "bar" + sfx, Class: "amenity", Type: "bar", Operator: domain.NoOperator}
	near := domain.SpecialPhrase{Phrase: "bar" + sfx, Class: "amenity", Type: "bar", Operator: "near"}
	require.NoError(t, s.AddSpecialPhrases(ctx, []domain.SpecialPhraseToken{
		{SpecialPhrase: plain, Token: "bar" + sfx},
		{SpecialPhrase: near, Token: "bar" + sfx},
	}))

	mine := func() []domain.SpecialPhrase {
		all, err := s.SpecialPhrases(ctx)
		require.NoError(t, err)
		var out []domain.SpecialPhrase
		for _, p := range all {
			if p.Phrase == "bar"+sfx {
				out = append(out, p)
			}
		}
		return out
	}
	assert.ElementsMatch(t, []domain.SpecialPhrase{plain, near}, mine())

	require.NoError(t, s.DeleteSpecialPhrases(ctx, []domain.SpecialPhrase{plain}))
	assert.Equal(t, []domain.SpecialPhrase{near}, mine())
}

func testWordIDs(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.Open(t)
	key := "wordid" + suffix()

	full, err := s.GetOrCreateFullWords(ctx, []tokenizer.FullWordRequest{{Key: key, Variants: []string{key}}})
	require.NoError(t, err)

	ids, err := s.WordIDs(ctx, domain.TokenTypeFull, []string{key, "missing" + key})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{key: full[key].ID}, ids)

	ids, err = s.WordIDs(ctx, domain.TokenTypePartial, []string{key})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{key: full[key].Partials[0]}, ids)
}

func testRollBack(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.Open(t)
	pc := "RB" + strings.ToUpper(suffix())
	errAbort := errors.New("abort")

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.AddPostcode(ctx, strings.ToLower(pc), pc); err != nil {
			return err
		}
		ok, err := s.PostcodeExists(ctx, pc)
		if err != nil {
			return err
		}
		assert.True(t, ok, "postcode visible inside the transaction")
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	ok, err := s.PostcodeExists(ctx, pc)
	require.NoError(t, err)
	assert.False(t, ok)
}
