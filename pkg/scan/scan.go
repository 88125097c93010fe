// Package scan runs extraction and resolution over a file list with a
// bounded worker pool and folds the results into one aggregate.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/pyscry/pkg/aggregate"
	"github.com/Sumatoshi-tech/pyscry/pkg/importmodel"
	"github.com/Sumatoshi-tech/pyscry/pkg/observability"
	"github.com/Sumatoshi-tech/pyscry/pkg/resolve"
)

// ErrAllFilesFailed is returned when not a single file could be parsed.
var ErrAllFilesFailed = errors.New("no file could be parsed")

// Extractor turns one path into its imported modules.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) importmodel.File
}

// Deps carries everything a scan needs. Extractor and Index are required.
type Deps struct {
	Extractor Extractor
	Index     resolve.Lookuper

	// Jobs is the worker count. Values below 1 mean 1.
	Jobs int

	// CacheSize bounds each worker's resolver memo.
	CacheSize int

	// Exclude lists distribution names dropped from the output.
	Exclude []string

	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.ScanMetrics
}

// Result is the folded outcome of a scan.
type Result struct {
	Entries     []aggregate.Entry
	Diagnostics aggregate.Diagnostics

	// Files is the number of files processed, Failed how many of them failed.
	Files  int
	Failed int

	// Bytes is the total size of the processed files.
	Bytes int64
}

type fileResult struct {
	file     importmodel.File
	outcomes []resolve.Outcome
}

// Run scans files and returns the aggregated dependency list. Per-file
// failures are recorded in the diagnostics; Run itself only fails on
// cancellation or when every file failed.
func Run(ctx context.Context, files []string, deps Deps) (Result, error) {
	deps = withDefaults(deps)
	start := time.Now()

	ctx, span := deps.Tracer.Start(ctx, "pyscry.scan",
		trace.WithAttributes(
			attribute.Int("pyscry.files", len(files)),
			attribute.Int("pyscry.jobs", deps.Jobs),
		))
	defer span.End()

	agg := aggregate.New()
	agg.Exclude(deps.Exclude...)

	var res Result

	err := process(ctx, files, deps, func(fr fileResult) {
		res.Files++
		res.Bytes += fr.file.Size

		if fr.file.Failed() {
			res.Failed++

			deps.Metrics.RecordFailure(ctx)
			deps.Logger.DebugContext(ctx, "skipping file", "path", fr.file.Path, "error", fr.file.Error)
			agg.AddFailure(fr.file.Path, fr.file.Error)

			return
		}

		deps.Metrics.RecordFile(ctx, fr.file.Size)

		for _, o := range fr.outcomes {
			deps.Metrics.RecordOutcome(ctx, resolve.Kind(o))
			agg.Add(o)
		}
	})

	deps.Metrics.RecordDuration(ctx, time.Since(start))

	if err != nil {
		span.RecordError(err)

		return Result{}, fmt.Errorf("scan: %w", err)
	}

	if res.Files > 0 && res.Failed == res.Files {
		return Result{}, fmt.Errorf("%w: %d of %d files failed", ErrAllFilesFailed, res.Failed, res.Files)
	}

	res.Entries = agg.Entries()
	res.Diagnostics = agg.Diagnostics()

	span.SetAttributes(
		attribute.Int("pyscry.entries", len(res.Entries)),
		attribute.Int("pyscry.failed", res.Failed),
	)

	deps.Logger.DebugContext(ctx, "scan finished",
		"files", res.Files,
		"failed", res.Failed,
		"entries", len(res.Entries),
		"elapsed", time.Since(start))

	return res, nil
}

// process fans files out to deps.Jobs workers and hands every result to
// consume on the calling goroutine.
func process(ctx context.Context, files []string, deps Deps, consume func(fileResult)) error {
	g, gctx := errgroup.WithContext(ctx)

	jobs := make(chan string)
	results := make(chan fileResult, deps.Jobs)

	g.Go(func() error {
		defer close(jobs)

		for _, path := range files {
			select {
			case jobs <- path:
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		return nil
	})

	var workers sync.WaitGroup

	for range deps.Jobs {
		workers.Add(1)

		g.Go(func() error {
			defer workers.Done()

			return work(gctx, deps, jobs, results)
		})
	}

	go func() {
		workers.Wait()
		close(results)
	}()

	for fr := range results {
		consume(fr)
	}

	return g.Wait()
}

func work(ctx context.Context, deps Deps, jobs <-chan string, results chan<- fileResult) error {
	resolver := resolve.New(deps.Index, resolve.Options{CacheSize: deps.CacheSize})

	for path := range jobs {
		file := deps.Extractor.ExtractFile(ctx, path)

		fr := fileResult{file: file}

		if !file.Failed() {
			fr.outcomes = make([]resolve.Outcome, 0, len(file.Modules))

			for _, m := range file.Modules {
				fr.outcomes = append(fr.outcomes, resolver.Resolve(m))
			}
		}

		select {
		case results <- fr:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func withDefaults(deps Deps) Deps {
	if deps.Jobs < 1 {
		deps.Jobs = 1
	}

	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	if deps.Tracer == nil {
		deps.Tracer = nooptrace.NewTracerProvider().Tracer("pyscry")
	}

	return deps
}
