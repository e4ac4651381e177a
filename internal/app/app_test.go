package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/geotokenizer/internal/config"
	"github.com/heartmarshall/geotokenizer/internal/domain"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

func pogrebConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store:  config.StoreConfig{Backend: config.BackendPogreb, PogrebPath: filepath.Join(t.TempDir(), "words.pogreb")},
		Import: config.ImportConfig{Workers: 2},
		Log:    config.LogConfig{Level: "error", Format: "json"},
	}
}

func TestSetupWithConfig_Pogreb(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env, err := SetupWithConfig(ctx, pogrebConfig(t), logger)
	require.NoError(t, err)
	defer func() { assert.NoError(t, env.Close()) }()

	assert.Nil(t, env.Pool)
	require.NotNil(t, env.Pogreb)

	var info *domain.TokenInfo
	err = env.WithAnalyzer(ctx, func(a *tokenizer.NameAnalyzer) error {
		var err error
		info, err = a.ProcessPlace(ctx, &domain.Place{
			Names: []domain.NameItem{{Kind: "name", Name: "Main Street"}},
		})
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, info.Names)
}

func TestSetupWithConfig_BadAnalyzer(t *testing.T) {
	cfg := pogrebConfig(t)
	cfg.Tokenizer.Analyzers = []config.AnalyzerConfig{{Analyzer: "unknown"}}

	_, err := SetupWithConfig(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.ErrorIs(t, err, domain.ErrConfig)
}
