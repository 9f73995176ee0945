// Command feateng runs math-feature pipelines. It loads one or more pipeline
// config files, optionally validates and exits, initializes a metrics
// backend, and executes the runs concurrently.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"feateng/internal/config"
	"feateng/internal/metrics"
	"feateng/internal/metrics/prompush"
	"feateng/internal/pipeline"

	// register all sink backends with the storage factory. The config picks
	// which one to use, but the binary carries support for all of them.
	_ "feateng/internal/storage/all"
)

func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
		concurrency       int
	)

	flag.StringVar(&cfgPath, "config", "configs/pipelines/sample.json", "pipeline config JSON path (ignored when paths are given as arguments)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration(s) and exit")
	flag.IntVar(&concurrency, "concurrency", 2, "maximum number of pipelines run at once")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{cfgPath}
	}

	specs := make([]config.Pipeline, 0, len(paths))
	invalid := false
	for _, path := range paths {
		p, err := loadPipeline(path)
		if err != nil {
			fatalf("%s: %v", path, err)
		}
		issues := config.ValidatePipeline(p)
		hasError := false
		for _, iss := range issues {
			fmt.Fprintf(os.Stderr, "%s: %s: %s: %s\n", path, iss.Severity, iss.Path, iss.Message)
			if iss.Severity == config.SeverityError {
				hasError = true
			}
		}
		if hasError {
			invalid = true
			continue
		}
		specs = append(specs, p)
	}
	if invalid {
		fatalf("configuration is invalid")
	}
	if validate {
		log.Printf("configuration is valid: %v", paths)
		return
	}

	initMetrics(metricsBackendFlg, pushGatewayURLFlg, specs, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	if concurrency < 1 {
		concurrency = 1
	}
	start := time.Now()
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(concurrency)
	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			runID := uuid.NewString()[:8]
			if *verbose {
				log.Printf("[%s] %s: source=%s parser=%s sink=%s",
					runID, spec.Job, spec.Source.Kind, spec.Parser.Kind, spec.Sink.Kind)
			}
			_, err := pipeline.Run(ctx, spec, runID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("%v", err)
	}
	if *verbose {
		log.Printf("completed %d pipeline(s) in %s", len(specs), time.Since(start).Truncate(time.Millisecond))
	}
}

func loadPipeline(path string) (config.Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return config.Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p config.Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return config.Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	return p, nil
}

// initMetrics wires the chosen backend: flag → env → none.
func initMetrics(backendName, gatewayURL string, specs []config.Pipeline, verbose bool) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		if gatewayURL == "" {
			gatewayURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:9091"
		}
		jobName := "feateng"
		if len(specs) == 1 && specs[0].Job != "" {
			jobName = specs[0].Job
		}
		b, err := prompush.NewBackend(jobName, gatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%s job=%s", gatewayURL, jobName)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
