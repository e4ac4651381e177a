package word_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/geotokenizer/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/geotokenizer/internal/adapter/postgres/word"
	"github.com/heartmarshall/geotokenizer/internal/analysis"
	"github.com/heartmarshall/geotokenizer/internal/config"
	"github.com/heartmarshall/geotokenizer/internal/domain"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

func newTokenizer(t *testing.T) *tokenizer.Tokenizer {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	set, err := analysis.NewSet(config.TokenizerConfig{}, analysis.DefaultRegistry())
	require.NoError(t, err)
	return tokenizer.New(slog.New(slog.NewTextHandler(io.Discard, nil)), set, word.Opener(pool))
}

func TestTokenizer_ProcessPlace(t *testing.T) {
	ctx := context.Background()
	tok := newTokenizer(t)
	sfx := testhelper.UniqueSuffix()

	a, err := tok.NameAnalyzer(ctx)
	require.NoError(t, err)
	defer a.Close()

	street := "Rue " + sfx
	_, err = a.ProcessPlace(ctx, &domain.Place{Names: []domain.NameItem{{Kind: "name", Name: street}}})
	require.NoError(t, err)

	info, err := a.ProcessPlace(ctx, &domain.Place{
		Names: []domain.NameItem{{Kind: "name", Name: "Café " + sfx}},
		Address: []domain.AddressItem{
			{Kind: domain.KindHousenumber, Name: "3a"},
			{Kind: domain.KindStreet, Name: street},
			{Kind: domain.KindPostcode, Name: "75 " + sfx},
			{Kind: "city", Name: "Paris"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, info.Names)
	assert.Len(t, *info.Names, 3, "one full token and two partials")
	assert.Equal(t, "3a", info.Hnr)
	require.NotNil(t, info.Street)
	assert.Len(t, *info.Street, 1)
	assert.Contains(t, info.Addr, "city")

	b, err := tok.NameAnalyzer(ctx)
	require.NoError(t, err)
	defer b.Close()

	words, err := b.WordTokenInfo(ctx, []string{"#Café " + sfx, "paris"})
	require.NoError(t, err)
	require.Len(t, words, 2)
	require.NotNil(t, words[0].ID)
	assert.Equal(t, (*info.Names)[0], *words[0].ID)
	assert.NotNil(t, words[1].ID)
}

func TestTokenizer_UpdatePostcodesFromDB(t *testing.T) {
	ctx := context.Background()
	pool := testhelper.SetupTestDB(t)
	tok := newTokenizer(t)
	pc := "PC " + strings.ToUpper(testhelper.UniqueSuffix())

	testhelper.SeedLocationPostcode(t, pool, "fr", pc)

	a, err := tok.NameAnalyzer(ctx)
	require.NoError(t, err)
	defer a.Close()

	stats, err := a.UpdatePostcodesFromDB(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Added, 1)
	assert.Equal(t, 1, testhelper.CountWords(t, pool, "P", pc))
}

func TestTokenizer_SpecialPhrases(t *testing.T) {
	ctx := context.Background()
	pool := testhelper.SetupTestDB(t)
	tok := newTokenizer(t)
	sfx := testhelper.UniqueSuffix()

	a, err := tok.NameAnalyzer(ctx)
	require.NoError(t, err)
	defer a.Close()

	phrase := domain.SpecialPhrase{Phrase: "Brasserie " + sfx, Class: "amenity", Type: "restaurant", Operator: "in"}
	stats, err := a.UpdateSpecialPhrases(ctx, []domain.SpecialPhrase{phrase}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)

	stats, err = a.UpdateSpecialPhrases(ctx, []domain.SpecialPhrase{phrase}, false)
	require.NoError(t, err)
	assert.Zero(t, stats.Added)
	assert.Equal(t, 1, testhelper.CountWords(t, pool, "S", "brasserie "+sfx))
}
