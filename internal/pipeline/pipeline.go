// Package pipeline executes one configured feature run end-to-end: fetch the
// input bytes, parse them into a frame, fit and apply the math-features
// transformer, and load the result into the configured sink.
//
// The CLI layer stays thin: it decodes and validates the config, then hands
// the pipeline spec to Run. This package depends only on storage-agnostic
// interfaces and never imports database drivers directly.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"feateng/internal/config"
	"feateng/internal/create"
	"feateng/internal/datasource"
	"feateng/internal/datasource/file"
	"feateng/internal/datasource/httpds"
	"feateng/internal/metrics"
	csvparser "feateng/internal/parser/csv"
	"feateng/internal/storage"
	"feateng/pkg/frame"
)

// defaultBatchSize is used when the config leaves runtime.batch_size unset.
const defaultBatchSize = 1000

// Summary reports what one run did. It feeds the end-of-run log line and the
// metrics backend.
type Summary struct {
	Job         string
	RunID       string
	RowsParsed  int
	RowsSkipped int
	RowsWritten int64
	Features    []string
	Elapsed     time.Duration
}

// Function variables used to introduce test seams. In production these point
// to real implementations; tests can override them.
var (
	openRepositoryFn = storage.Open
	openSourceFn     = openSource
)

// Run executes the spec and returns a Summary. The runID tags log lines so
// concurrent runs in one process stay distinguishable.
func Run(ctx context.Context, spec config.Pipeline, runID string) (Summary, error) {
	start := time.Now()
	sum := Summary{Job: spec.Job, RunID: runID}

	step := func(name string, fn func() error) error {
		t0 := time.Now()
		err := fn()
		metrics.RecordStep(spec.Job, name, err, time.Since(t0))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	var f *frame.Frame
	if err := step("parse", func() error {
		src, err := openSourceFn(spec.Source)
		if err != nil {
			return err
		}
		rc, err := src.Open(ctx)
		if err != nil {
			return err
		}
		defer rc.Close()

		p, err := parserFor(spec.Parser)
		if err != nil {
			return err
		}
		parsed, skipped, err := p.Parse(rc)
		if err != nil {
			return err
		}
		f, sum.RowsParsed, sum.RowsSkipped = parsed, parsed.Len(), skipped
		return nil
	}); err != nil {
		return sum, err
	}
	metrics.RecordRows(spec.Job, "parsed", int64(sum.RowsParsed))
	metrics.RecordRows(spec.Job, "skipped", int64(sum.RowsSkipped))
	log.Printf("[%s] %s: parsed rows=%d skipped=%d columns=%d",
		runID, spec.Job, sum.RowsParsed, sum.RowsSkipped, len(f.Names()))

	var out *frame.Frame
	if err := step("transform", func() error {
		mf, err := create.New(featureConfig(spec.Features))
		if err != nil {
			return err
		}
		if err := mf.Fit(f); err != nil {
			return err
		}
		out, err = mf.Transform(f)
		if err != nil {
			return err
		}
		sum.Features = mf.OutputNames()
		return nil
	}); err != nil {
		return sum, err
	}
	metrics.RecordFeatures(spec.Job, int64(len(sum.Features)))
	log.Printf("[%s] %s: derived features=%v", runID, spec.Job, sum.Features)

	if err := step("load", func() error {
		scfg, err := sinkConfig(spec.Sink)
		if err != nil {
			return err
		}
		repo, err := openRepositoryFn(ctx, scfg)
		if err != nil {
			return err
		}
		defer repo.Close()

		batch := spec.Runtime.BatchSize
		if batch <= 0 {
			batch = defaultBatchSize
		}
		n, err := storage.LoadFrame(ctx, repo, out, batch)
		sum.RowsWritten = n
		return err
	}); err != nil {
		return sum, err
	}
	metrics.RecordRows(spec.Job, "written", sum.RowsWritten)

	sum.Elapsed = time.Since(start)
	log.Printf("[%s] %s: done written=%d elapsed=%s",
		runID, spec.Job, sum.RowsWritten, sum.Elapsed.Truncate(time.Millisecond))
	return sum, nil
}

// openSource maps the config source onto a datasource implementation.
func openSource(src config.Source) (datasource.Source, error) {
	switch src.Kind {
	case "file":
		return file.NewLocal(src.File.Path), nil
	case "http":
		return httpds.NewRemote(nil, src.HTTP.URL), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// parserFor maps the config parser onto an implementation. Only CSV exists
// today; the switch keeps the seam explicit for future formats.
func parserFor(p config.Parser) (*csvparser.Parser, error) {
	if p.Kind != "csv" {
		return nil, fmt.Errorf("unknown parser kind %q", p.Kind)
	}
	return csvparser.NewParser(csvOptions(p.Options)), nil
}

// csvOptions translates the free-form parser options map into typed CSV
// parser options.
func csvOptions(o config.Options) csvparser.Options {
	opt := csvparser.Options{
		HasHeader:        o.Bool("has_header", true),
		Comma:            o.Rune("comma", ','),
		TrimSpace:        o.Bool("trim_space", false),
		CanonicalHeaders: o.Bool("canonical_headers", false),
	}
	if hm := o.StringMap("header_map"); len(hm) > 0 {
		opt.HeaderMap = hm
	}
	if _, ok := o["missing_tokens"]; ok {
		opt.MissingTokens = o.StringSlice("missing_tokens")
	}
	return opt
}

// featureConfig translates the JSON feature block into a transformer Config.
// Funcs in JSON are always builtin tokens; custom Go functions are a
// code-level facility. Unknown tokens are rejected by create.New.
func featureConfig(fc config.Features) create.Config {
	funcs := make([]create.Func, 0, len(fc.Funcs))
	for _, tok := range fc.Funcs {
		funcs = append(funcs, create.Named(tok))
	}
	return create.Config{
		Variables:        fc.Variables,
		Funcs:            funcs,
		NewVariableNames: fc.NewVariableNames,
		MissingValues:    create.MissingPolicy(fc.MissingValues),
		DropOriginal:     fc.DropOriginal,
	}
}

// sinkConfig maps the config sink onto a storage.Config for the factory.
func sinkConfig(s config.Sink) (storage.Config, error) {
	switch s.Kind {
	case "csv":
		return storage.Config{Kind: "csv", DSN: s.CSV.Path}, nil
	case "sqlite", "postgres":
		return storage.Config{Kind: s.Kind, DSN: s.DB.DSN, Table: s.DB.Table}, nil
	default:
		return storage.Config{}, fmt.Errorf("unknown sink kind %q", s.Kind)
	}
}
