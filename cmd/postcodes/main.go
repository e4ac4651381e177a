// Command postcodes brings the postcode tokens in line with the postcodes
// of the place data. For the pogreb store the postcodes of the place data
// are first read from -load, one postcode per line.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/heartmarshall/geotokenizer/internal/app"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

func main() {
	loadPath := flag.String("load", "", "file with place postcodes, pogreb store only")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	env, err := app.Setup(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer env.Close()
	logger := env.Logger

	if *loadPath != "" {
		if env.Pogreb == nil {
			logger.Error("-load is only supported by the pogreb store")
			os.Exit(1)
		}
		n, err := loadPostcodes(ctx, env, *loadPath)
		if err != nil {
			logger.Error("load postcodes", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("place postcodes loaded", slog.Int("count", n))
	}

	var stats tokenizer.PostcodeStats
	err = env.WithAnalyzer(ctx, func(a *tokenizer.NameAnalyzer) error {
		stats, err = a.UpdatePostcodesFromDB(ctx)
		return err
	})
	if err != nil {
		logger.Error("update postcodes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("postcodes updated", slog.Int("added", stats.Added), slog.Int("deleted", stats.Deleted))
}

func loadPostcodes(ctx context.Context, env *app.Env, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var postcodes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if pc := strings.TrimSpace(scanner.Text()); pc != "" {
			postcodes = append(postcodes, pc)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	return len(postcodes), env.Pogreb.AddLocationPostcodes(ctx, postcodes)
}
