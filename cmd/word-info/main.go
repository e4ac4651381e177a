// Command word-info prints how words map onto the token store. Words
// starting with '#' are looked up as full names, all others as partial words.
//
// Usage:
//
//	word-info '#Main Street' main street
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/geotokenizer/internal/app"
	"github.com/heartmarshall/geotokenizer/internal/domain"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	env, err := app.Setup(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer env.Close()

	var infos []domain.WordTokenInfo
	err = env.WithAnalyzer(ctx, func(a *tokenizer.NameAnalyzer) error {
		infos, err = a.WordTokenInfo(ctx, flag.Args())
		return err
	})
	if err != nil {
		env.Logger.Error("word token info", slog.String("error", err.Error()))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(infos); err != nil {
		env.Logger.Error("write output", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
