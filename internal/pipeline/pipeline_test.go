package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"feateng/internal/config"
	"feateng/internal/storage"
)

// fakeRepo captures everything the loader hands to the sink.
type fakeRepo struct {
	schema  storage.TableSchema
	columns []string
	rows    [][]any
}

func (f *fakeRepo) EnsureTable(_ context.Context, s storage.TableSchema) error {
	f.schema = s
	return nil
}

func (f *fakeRepo) CopyFrom(_ context.Context, columns []string, rows [][]any) (int64, error) {
	f.columns = columns
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Close() {}

func swapRepo(t *testing.T, repo storage.Repository) {
	t.Helper()
	orig := openRepositoryFn
	openRepositoryFn = func(context.Context, storage.Config) (storage.Repository, error) {
		return repo, nil
	}
	t.Cleanup(func() { openRepositoryFn = orig })
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func demoSpec(path string) config.Pipeline {
	return config.Pipeline{
		Job:    "demo",
		Source: config.Source{Kind: "file", File: config.SourceFile{Path: path}},
		Parser: config.Parser{Kind: "csv", Options: config.Options{"has_header": true}},
		Features: config.Features{
			Variables:     []string{"x1", "x2"},
			Funcs:         []string{"sum", "mean"},
			MissingValues: "ignore",
		},
		Sink:    config.Sink{Kind: "sqlite", DB: config.DBConfig{DSN: ":memory:", Table: "t"}},
		Runtime: config.RuntimeConfig{BatchSize: 2},
	}
}

// TestRun_EndToEnd drives a full run against a captured sink: input columns
// survive, derived columns are appended in func order, and missing cells flow
// through the ignore policy.
func TestRun_EndToEnd(t *testing.T) {
	repo := &fakeRepo{}
	swapRepo(t, repo)

	path := writeInput(t, "x1,x2,label\n1,4,a\n2,NA,b\n3,6,c\n")
	sum, err := Run(context.Background(), demoSpec(path), "run-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.RowsParsed != 3 || sum.RowsSkipped != 0 || sum.RowsWritten != 3 {
		t.Fatalf("summary = %+v", sum)
	}
	if want := []string{"sum_x1_x2", "mean_x1_x2"}; !reflect.DeepEqual(sum.Features, want) {
		t.Fatalf("features = %v, want %v", sum.Features, want)
	}
	if want := []string{"x1", "x2", "label", "sum_x1_x2", "mean_x1_x2"}; !reflect.DeepEqual(repo.columns, want) {
		t.Fatalf("columns = %v, want %v", repo.columns, want)
	}
	if len(repo.rows) != 3 {
		t.Fatalf("rows = %d", len(repo.rows))
	}
	// Row 2 has x2 missing: sum falls back to the present subset.
	if got := repo.rows[1][3]; got != 2.0 {
		t.Fatalf("sum for row 2 = %v, want 2", got)
	}
	if got := repo.rows[0][4]; got != 2.5 {
		t.Fatalf("mean for row 1 = %v, want 2.5", got)
	}
}

// TestRun_DropOriginal removes the input columns from the sink payload.
func TestRun_DropOriginal(t *testing.T) {
	repo := &fakeRepo{}
	swapRepo(t, repo)

	path := writeInput(t, "x1,x2\n1,2\n")
	spec := demoSpec(path)
	spec.Features.DropOriginal = true
	if _, err := Run(context.Background(), spec, "run-2"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := []string{"sum_x1_x2", "mean_x1_x2"}; !reflect.DeepEqual(repo.columns, want) {
		t.Fatalf("columns = %v, want %v", repo.columns, want)
	}
}

// TestRun_MissingRaisePolicy fails the transform step when cells are missing.
func TestRun_MissingRaisePolicy(t *testing.T) {
	swapRepo(t, &fakeRepo{})

	path := writeInput(t, "x1,x2\n1,NA\n")
	spec := demoSpec(path)
	spec.Features.MissingValues = "raise"
	if _, err := Run(context.Background(), spec, "run-3"); err == nil {
		t.Fatal("expected error under raise policy")
	}
}

// TestRun_BadSourceKind surfaces config mistakes as errors, not panics.
func TestRun_BadSourceKind(t *testing.T) {
	swapRepo(t, &fakeRepo{})

	spec := demoSpec("unused")
	spec.Source.Kind = "carrier-pigeon"
	if _, err := Run(context.Background(), spec, "run-4"); err == nil {
		t.Fatal("expected error for unknown source kind")
	}
}

// TestCSVOptions translates the free-form map, including an explicit empty
// missing_tokens list which disables missing detection.
func TestCSVOptions(t *testing.T) {
	t.Parallel()

	opt := csvOptions(config.Options{
		"has_header":        false,
		"comma":             ";",
		"canonical_headers": true,
		"header_map":        map[string]any{"A": "a"},
		"missing_tokens":    []any{},
	})
	if opt.HasHeader || opt.Comma != ';' || !opt.CanonicalHeaders {
		t.Fatalf("opt = %+v", opt)
	}
	if opt.HeaderMap["A"] != "a" {
		t.Fatalf("header map = %v", opt.HeaderMap)
	}
	if opt.MissingTokens == nil || len(opt.MissingTokens) != 0 {
		t.Fatalf("missing tokens = %#v, want empty non-nil", opt.MissingTokens)
	}
}
