// Package app wires configuration, logging, the analyzer set and the
// configured token store for the commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/geotokenizer/internal/adapter/pogreb"
	"github.com/heartmarshall/geotokenizer/internal/adapter/postgres"
	"github.com/heartmarshall/geotokenizer/internal/adapter/postgres/word"
	"github.com/heartmarshall/geotokenizer/internal/analysis"
	"github.com/heartmarshall/geotokenizer/internal/config"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

// Env is the runtime every command starts from. Exactly one of Pool and
// Pogreb is set, depending on the configured store backend.
type Env struct {
	Config    *config.Config
	Logger    *slog.Logger
	Tokenizer *tokenizer.Tokenizer
	Pool      *pgxpool.Pool
	Pogreb    *pogreb.DB
}

// Setup loads the configuration, initializes the logger, compiles the
// analyzer set and opens the token store. The caller must Close the Env.
func Setup(ctx context.Context) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return SetupWithConfig(ctx, cfg, NewLogger(cfg.Log))
}

// SetupWithConfig is Setup for an already loaded configuration.
func SetupWithConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Env, error) {
	logger.Info("starting",
		slog.String("version", BuildVersion()),
		slog.String("store", cfg.Store.Backend),
	)

	set, err := analysis.NewSet(cfg.Tokenizer, analysis.DefaultRegistry())
	if err != nil {
		return nil, fmt.Errorf("analyzer set: %w", err)
	}

	env := &Env{Config: cfg, Logger: logger}

	var open tokenizer.StoreOpener
	switch cfg.Store.Backend {
	case config.BackendPogreb:
		env.Pogreb, err = pogreb.Open(cfg.Store.PogrebPath, logger)
		if err != nil {
			return nil, err
		}
		open = env.Pogreb.Opener()
	default:
		env.Pool, err = postgres.NewPool(ctx, cfg.Database, cfg.Import.Workers)
		if err != nil {
			return nil, err
		}
		open = word.Opener(env.Pool)
	}

	env.Tokenizer = tokenizer.New(logger, set, open)
	return env, nil
}

// Close releases the token store.
func (e *Env) Close() error {
	var errs []error
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.Pogreb != nil {
		if err := e.Pogreb.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAnalyzer opens an analyzer session, runs fn and closes the session.
func (e *Env) WithAnalyzer(ctx context.Context, fn func(a *tokenizer.NameAnalyzer) error) error {
	a, err := e.Tokenizer.NameAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			e.Logger.Warn("close analyzer", slog.String("error", cerr.Error()))
		}
	}()
	return fn(a)
}
