// Command tokenize reads sanitized places as JSON lines and writes their
// token info as JSON lines, one output line per input line and in input
// order. Places are processed by import.workers parallel analyzer sessions.
//
// Usage:
//
//	tokenize [-in places.jsonl] [-out tokens.jsonl]
//
// Without -in and -out stdin and stdout are used.
//
// Exit codes: 0 = success, 1 = error, 2 = some input lines were malformed.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/geotokenizer/internal/app"
	"github.com/heartmarshall/geotokenizer/internal/app/importer"
	"github.com/heartmarshall/geotokenizer/internal/config"
)

func main() {
	inPath := flag.String("in", "", "input file with one place per line (default stdin)")
	outPath := flag.String("out", "", "output file (default stdout)")
	workers := flag.Int("workers", 0, "number of analyzer sessions (default import.workers)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *workers > 0 {
		cfg.Import.Workers = *workers
	}

	env, err := app.SetupWithConfig(ctx, cfg, app.NewLogger(cfg.Log))
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer env.Close()
	logger := env.Logger

	var in io.Reader = os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			logger.Error("open input", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Error("create output", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	res, err := importer.NewPipeline(logger, env.Tokenizer, env.Config.Import).Run(ctx, in, out)
	if err != nil {
		logger.Error("tokenize failed",
			slog.String("error", err.Error()),
			slog.Int("processed", res.Processed),
		)
		os.Exit(1)
	}
	if res.Malformed > 0 {
		os.Exit(2)
	}
}
