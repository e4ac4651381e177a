// Command special-phrases synchronises the special phrases of the token
// store with a tab-separated phrase file (phrase, class, type, operator).
// With -replace, stored phrases missing from the file are removed.
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
	"github.com/heartmarshall/geotokenizer/internal/app/phrases"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

func main() {
	path := flag.String("file", "", "tab-separated phrase file (required)")
	replace := flag.Bool("replace", false, "remove stored phrases that are not in the file")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	env, err := app.Setup(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer env.Close()
	logger := env.Logger

	list, parsed, err := phrases.Load(*path)
	if err != nil {
		logger.Error("load phrases", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("phrases loaded",
		slog.String("file", *path),
		slog.Int("rows", parsed.Rows),
		slog.Int("skipped", parsed.Skipped),
	)

	var stats tokenizer.PhraseStats
	err = env.WithAnalyzer(ctx, func(a *tokenizer.NameAnalyzer) error {
		stats, err = a.UpdateSpecialPhrases(ctx, list, *replace)
		return err
	})
	if err != nil {
		logger.Error("update special phrases", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("special phrases synchronised",
		slog.Int("total", stats.Total),
		slog.Int("added", stats.Added),
		slog.Int("deleted", stats.Deleted),
		slog.Bool("replace", *replace),
	)
}
