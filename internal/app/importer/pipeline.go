// Package importer streams place records through analyzer sessions running
// in parallel and writes their token info in input order.
package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/geotokenizer/internal/config"
	"github.com/heartmarshall/geotokenizer/internal/domain"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
	"github.com/heartmarshall/geotokenizer/pkg/ctxutil"
)

// maxLineSize is the buffer size for bufio.Scanner (16 MB).
const maxLineSize = 16 << 20

// Analyzers opens analyzer sessions. *tokenizer.Tokenizer implements it.
type Analyzers interface {
	NameAnalyzer(ctx context.Context) (*tokenizer.NameAnalyzer, error)
}

// Output is one line written per processed place.
type Output struct {
	Line      int               `json:"line"`
	PlaceID   int64             `json:"place_id,omitempty"`
	TokenInfo *domain.TokenInfo `json:"token_info,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Result holds the outcome of a run.
type Result struct {
	Lines     int
	Processed int
	Malformed int
	Duration  time.Duration
}

// Pipeline runs places through cfg.Workers analyzer sessions.
type Pipeline struct {
	log       *slog.Logger
	analyzers Analyzers
	cfg       config.ImportConfig
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, analyzers Analyzers, cfg config.ImportConfig) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Pipeline{log: log.With("component", "importer"), analyzers: analyzers, cfg: cfg}
}

type job struct {
	line  int
	place *domain.Place
	err   error
}

type done struct {
	line int
	out  Output
}

// Run reads JSON-lines places from r and writes one JSON line per input
// line to w. Malformed lines are reported in their output line and counted;
// store failures abort the run.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, w io.Writer) (Result, error) {
	start := time.Now()
	var processed, malformed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job, p.cfg.Workers*2)
	results := make(chan done, p.cfg.Workers*2)

	var lines int
	g.Go(func() error {
		defer close(jobs)
		var err error
		lines, err = readPlaces(gctx, r, jobs)
		return err
	})

	workers, wctx := errgroup.WithContext(gctx)
	for i := 0; i < p.cfg.Workers; i++ {
		workers.Go(func() error {
			return p.work(wctx, jobs, results, &processed, &malformed)
		})
	}
	g.Go(func() error {
		defer close(results)
		return workers.Wait()
	})

	g.Go(func() error {
		return writeOrdered(results, w)
	})

	stopReport := p.report(gctx, &processed)
	err := g.Wait()
	stopReport()

	res := Result{
		Lines:     lines,
		Processed: int(processed.Load()),
		Malformed: int(malformed.Load()),
		Duration:  time.Since(start),
	}
	if err != nil {
		return res, err
	}

	p.log.InfoContext(ctx, "import completed",
		slog.Int("lines", res.Lines),
		slog.Int("processed", res.Processed),
		slog.Int("malformed", res.Malformed),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

func (p *Pipeline) work(ctx context.Context, jobs <-chan job, results chan<- done, processed, malformed *atomic.Int64) error {
	ctx = ctxutil.WithSessionID(ctx, uuid.NewString())
	a, err := p.analyzers.NameAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for j := range jobs {
		lctx := ctxutil.WithLine(ctx, j.line)
		out := Output{Line: j.line}
		if j.err != nil {
			malformed.Add(1)
			out.Error = j.err.Error()
			p.log.WarnContext(lctx, "skipping place", slog.String("error", j.err.Error()))
		} else {
			out.PlaceID = j.place.ID
			info, err := a.ProcessPlace(lctx, j.place)
			if err != nil {
				return fmt.Errorf("line %d: %w", j.line, err)
			}
			out.TokenInfo = info
			processed.Add(1)
		}

		select {
		case results <- done{line: j.line, out: out}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func readPlaces(ctx context.Context, r io.Reader, jobs chan<- job) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		j := job{line: line}
		var place domain.Place
		if err := json.Unmarshal(scanner.Bytes(), &place); err != nil {
			j.err = fmt.Errorf("malformed place: %w", err)
		} else {
			j.place = &place
		}

		select {
		case jobs <- j:
		case <-ctx.Done():
			return line, ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return line, fmt.Errorf("read places: %w", err)
	}
	return line, nil
}

// writeOrdered buffers out-of-order results until their predecessors arrive.
func writeOrdered(results <-chan done, w io.Writer) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	pending := make(map[int]Output)
	next := 1

	var writeErr error
	for d := range results {
		if writeErr != nil {
			continue
		}
		pending[d.line] = d.out
		for {
			out, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := enc.Encode(out); err != nil {
				writeErr = fmt.Errorf("write output: %w", err)
				break
			}
		}
	}
	if writeErr != nil {
		return writeErr
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// report logs progress every ReportInterval until the returned stop func is called.
func (p *Pipeline) report(ctx context.Context, processed *atomic.Int64) func() {
	if p.cfg.ReportInterval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(p.cfg.ReportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.log.InfoContext(ctx, "import progress", slog.Int64("processed", processed.Load()))
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() {
		cancel()
		<-stopped
	}
}
