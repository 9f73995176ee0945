// Command csvprobe inspects a CSV input and reports, per column, the
// inferred kind (numeric or text) and how many cells are missing. With -json
// it instead emits a starter pipeline config whose variables are the numeric
// columns, ready to edit and feed to the feateng command.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"feateng/internal/config"
	"feateng/internal/datasource"
	"feateng/internal/datasource/file"
	"feateng/internal/datasource/httpds"
	csvparser "feateng/internal/parser/csv"
	"feateng/pkg/frame"
)

var (
	flagPath      = flag.String("path", "", "local CSV file to probe")
	flagURL       = flag.String("url", "", "URL of a CSV file to probe (used when -path is empty)")
	flagDelimiter = flag.String("delimiter", ",", "CSV field delimiter (single character)")
	flagCanonical = flag.Bool("canonical", true, "canonicalize headers (diacritics stripped, snake_case)")
	flagJSON      = flag.Bool("json", false, "emit a starter pipeline config instead of the column report")
)

func main() {
	flag.Parse()

	var src datasource.Source
	switch {
	case *flagPath != "":
		src = file.NewLocal(*flagPath)
	case *flagURL != "":
		src = httpds.NewRemote(nil, *flagURL)
	default:
		fatalf("one of -path or -url is required")
	}

	delim := ','
	if r := []rune(*flagDelimiter); len(r) > 0 {
		delim = r[0]
	}

	if err := run(context.Background(), os.Stdout, src, delim, *flagCanonical, *flagJSON); err != nil {
		fatalf("%v", err)
	}
}

func run(ctx context.Context, w io.Writer, src datasource.Source, delim rune, canonical, asJSON bool) error {
	rc, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	p := csvparser.NewParser(csvparser.Options{
		HasHeader:        true,
		Comma:            delim,
		CanonicalHeaders: canonical,
	})
	f, skipped, err := p.Parse(rc)
	if err != nil {
		return err
	}

	if asJSON {
		return writeStarterConfig(w, f)
	}
	return writeReport(w, f, skipped)
}

// writeReport prints one line per column: name, kind, missing count.
func writeReport(w io.Writer, f *frame.Frame, skipped int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "column\tkind\tmissing\n")
	for _, name := range f.Names() {
		kind, err := f.Kind(name)
		if err != nil {
			return err
		}
		missing := 0
		col, _ := f.Column(name)
		for _, v := range col {
			if frame.IsMissing(v) {
				missing++
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", name, kind, missing)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nrows=%d skipped=%d\n", f.Len(), skipped)
	return nil
}

// writeStarterConfig emits a pipeline config skeleton whose variables are the
// numeric columns of the probed table.
func writeStarterConfig(w io.Writer, f *frame.Frame) error {
	var numeric []string
	for _, name := range f.Names() {
		kind, err := f.Kind(name)
		if err != nil {
			return err
		}
		if kind == frame.KindNumeric {
			numeric = append(numeric, name)
		}
	}

	p := config.Pipeline{
		Job:    "probed_features",
		Source: config.Source{Kind: "file", File: config.SourceFile{Path: "input.csv"}},
		Parser: config.Parser{Kind: "csv", Options: config.Options{
			"has_header":        true,
			"canonical_headers": true,
		}},
		Features: config.Features{
			Variables:     numeric,
			Funcs:         []string{"sum", "mean"},
			MissingValues: "ignore",
		},
		Sink:    config.Sink{Kind: "csv", CSV: config.SinkCSV{Path: "features.csv"}},
		Runtime: config.RuntimeConfig{BatchSize: 1000},
	}
	b, err := config.MarshalPipeline(p)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
