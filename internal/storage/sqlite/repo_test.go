package sqlite

import (
	"context"
	"math"
	"reflect"
	"testing"

	"feateng/internal/storage"
	"feateng/pkg/frame"
)

func memRepo(t *testing.T) *Repository {
	t.Helper()
	r, err := NewRepository(context.Background(), Config{DSN: ":memory:", Table: "features"})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

// TestEnsureTableAndCopyFrom runs the full write path against an in-memory
// database and reads the rows back, including NULL for NaN.
func TestEnsureTableAndCopyFrom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := memRepo(t)

	schema := storage.TableSchema{Columns: []storage.ColumnDef{
		{Name: "sum_x1_x2", Kind: frame.KindNumeric},
		{Name: "label", Kind: frame.KindText},
	}}
	if err := r.EnsureTable(ctx, schema); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	// Idempotent.
	if err := r.EnsureTable(ctx, schema); err != nil {
		t.Fatalf("EnsureTable (second): %v", err)
	}

	rows := [][]any{
		{5.0, "a"},
		{math.NaN(), "b"},
	}
	n, err := r.CopyFrom(ctx, schema.Names(), rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}

	var count, nulls int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) - COUNT(sum_x1_x2) FROM features`).Scan(&count, &nulls); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 2 || nulls != 1 {
		t.Fatalf("count = %d nulls = %d, want 2 and 1", count, nulls)
	}
}

// TestReadFrameRoundTrip writes rows and reads them back in column order.
func TestReadFrameRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := memRepo(t)
	schema := storage.TableSchema{Columns: []storage.ColumnDef{
		{Name: "v", Kind: frame.KindNumeric},
		{Name: "label", Kind: frame.KindText},
	}}
	if err := r.EnsureTable(ctx, schema); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if _, err := r.CopyFrom(ctx, schema.Names(), [][]any{{1.5, "a"}, {math.NaN(), "b"}}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}

	f, err := r.ReadFrame(ctx)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got, want := f.Names(), []string{"v", "label"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	if f.Len() != 2 {
		t.Fatalf("rows = %d, want 2", f.Len())
	}
	v, _ := f.Column("v")
	if v[0] != 1.5 || !frame.IsMissing(v[1]) {
		t.Fatalf("v = %#v", v)
	}
}

// TestCopyFromWidthMismatch rolls back and reports the bad row.
func TestCopyFromWidthMismatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := memRepo(t)
	schema := storage.TableSchema{Columns: []storage.ColumnDef{{Name: "v", Kind: frame.KindNumeric}}}
	if err := r.EnsureTable(ctx, schema); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if _, err := r.CopyFrom(ctx, []string{"v"}, [][]any{{1.0, 2.0}}); err == nil {
		t.Fatal("expected width mismatch error")
	}
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM features`).Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0 after rollback", count)
	}
}

// TestConfigValidation rejects blank DSN and table.
func TestConfigValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(context.Background(), Config{Table: "t"}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
	if _, err := NewRepository(context.Background(), Config{DSN: ":memory:"}); err == nil {
		t.Fatal("expected error for empty table")
	}
}
