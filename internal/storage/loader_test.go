package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"feateng/pkg/frame"
)

// fakeRepo records EnsureTable and CopyFrom calls for inspection.
type fakeRepo struct {
	schema  TableSchema
	batches [][][]any
	columns []string
	failAt  int // 1-based batch index to fail on; 0 disables
}

func (f *fakeRepo) EnsureTable(_ context.Context, s TableSchema) error {
	f.schema = s
	return nil
}

func (f *fakeRepo) CopyFrom(_ context.Context, columns []string, rows [][]any) (int64, error) {
	f.columns = columns
	f.batches = append(f.batches, rows)
	if f.failAt != 0 && len(f.batches) == f.failAt {
		return 0, errors.New("boom")
	}
	return int64(len(rows)), nil
}

func (f *fakeRepo) Close() {}

func testFrame(t *testing.T, n int) *frame.Frame {
	t.Helper()
	f := frame.New()
	a := make([]any, n)
	b := make([]any, n)
	for i := 0; i < n; i++ {
		a[i] = float64(i)
		b[i] = "r"
	}
	if err := f.Set("a", a); err != nil {
		t.Fatal(err)
	}
	if err := f.Set("b", b); err != nil {
		t.Fatal(err)
	}
	return f
}

// TestLoadFrame_Batching: 5 rows at batchSize 2 make batches of 2,2,1 and the
// schema handed to the sink follows frame column order and kinds.
func TestLoadFrame_Batching(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	total, err := LoadFrame(context.Background(), repo, testFrame(t, 5), 2)
	if err != nil {
		t.Fatalf("LoadFrame: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	sizes := []int{}
	for _, b := range repo.batches {
		sizes = append(sizes, len(b))
	}
	if !reflect.DeepEqual(sizes, []int{2, 2, 1}) {
		t.Fatalf("batch sizes = %v, want [2 2 1]", sizes)
	}
	if !reflect.DeepEqual(repo.columns, []string{"a", "b"}) {
		t.Fatalf("columns = %v", repo.columns)
	}
	want := TableSchema{Columns: []ColumnDef{
		{Name: "a", Kind: frame.KindNumeric},
		{Name: "b", Kind: frame.KindText},
	}}
	if !reflect.DeepEqual(repo.schema, want) {
		t.Fatalf("schema = %+v, want %+v", repo.schema, want)
	}
	// First row of first batch is row-major.
	if !reflect.DeepEqual(repo.batches[0][0], []any{float64(0), "r"}) {
		t.Fatalf("row 0 = %#v", repo.batches[0][0])
	}
}

// TestLoadFrame_StopsOnCopyError: the first failing batch ends the load and
// the partial total is reported.
func TestLoadFrame_StopsOnCopyError(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{failAt: 2}
	total, err := LoadFrame(context.Background(), repo, testFrame(t, 5), 2)
	if err == nil {
		t.Fatal("expected error")
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if len(repo.batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(repo.batches))
	}
}

// TestLoadFrame_BadBatchSize rejects non-positive batch sizes.
func TestLoadFrame_BadBatchSize(t *testing.T) {
	t.Parallel()

	if _, err := LoadFrame(context.Background(), &fakeRepo{}, testFrame(t, 1), 0); err == nil {
		t.Fatal("expected error for batchSize 0")
	}
}

// TestOpen_UnknownKind: the registry names the unknown kind in its error.
func TestOpen_UnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{Kind: "voicemail"}); err == nil {
		t.Fatal("expected error for unregistered kind")
	}
}
