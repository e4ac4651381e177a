// Command country-names registers the names of all countries from the
// country settings file as country tokens. Names in the languages of
// tokenizer.country_languages are used, or all names when it is empty.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/geotokenizer/internal/app"
	"github.com/heartmarshall/geotokenizer/internal/country"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

func main() {
	settingsPath := flag.String("settings", "", "country settings file (default tokenizer.country_settings)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	env, err := app.Setup(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer env.Close()
	logger := env.Logger

	path := env.Config.Tokenizer.CountrySettings
	if *settingsPath != "" {
		path = *settingsPath
	}

	info, err := country.Load(path)
	if err != nil {
		logger.Error("load country settings", slog.String("error", err.Error()))
		os.Exit(1)
	}

	languages := env.Config.Tokenizer.Languages()
	err = env.WithAnalyzer(ctx, func(a *tokenizer.NameAnalyzer) error {
		return a.CreateCountryNames(ctx, info, languages)
	})
	if err != nil {
		logger.Error("create country names", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("country names registered",
		slog.Int("countries", len(info.Codes())),
		slog.Any("languages", languages),
	)
}
