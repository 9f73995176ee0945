package csvfile

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"feateng/internal/storage"
	"feateng/pkg/frame"
)

// TestWriteRoundTrip writes header plus rows and checks the file contents,
// including empty cells for missing values.
func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	r, err := NewRepository(Config{Path: path})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	schema := storage.TableSchema{Columns: []storage.ColumnDef{
		{Name: "mean_x1_x2", Kind: frame.KindNumeric},
		{Name: "label", Kind: frame.KindText},
	}}
	ctx := context.Background()
	if err := r.EnsureTable(ctx, schema); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	n, err := r.CopyFrom(ctx, schema.Names(), [][]any{
		{2.5, "a"},
		{math.NaN(), "b"},
		{int64(7), nil},
	})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 3 {
		t.Fatalf("written = %d, want 3", n)
	}
	r.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "mean_x1_x2,label\n2.5,a\n,b\n7,\n"
	if string(b) != want {
		t.Fatalf("file = %q, want %q", string(b), want)
	}
}

// TestPathRequired rejects an empty path.
func TestPathRequired(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
