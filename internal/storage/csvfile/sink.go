// Package csvfile implements a CSV file sink behind the storage.Repository
// contract, so pipelines write files and databases through the same code
// path.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"feateng/internal/storage"
)

// Config holds CSV sink configuration.
type Config struct {
	// Path is the output file path. The file is truncated on open.
	Path string
}

// Repository writes frames to a CSV file. The header row is emitted by
// EnsureTable; CopyFrom appends data rows.
type Repository struct {
	f *os.File
	w *csv.Writer
}

// NewRepository creates (or truncates) the output file.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("csvfile: path must not be empty")
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("csvfile: create: %w", err)
	}
	return &Repository{f: f, w: csv.NewWriter(f)}, nil
}

// Close flushes buffered rows and closes the file.
func (r *Repository) Close() {
	r.w.Flush()
	r.f.Close()
}

// EnsureTable writes the header row.
func (r *Repository) EnsureTable(_ context.Context, schema storage.TableSchema) error {
	if len(schema.Columns) == 0 {
		return fmt.Errorf("csvfile: schema has no columns")
	}
	if err := r.w.Write(schema.Names()); err != nil {
		return fmt.Errorf("csvfile: write header: %w", err)
	}
	return nil
}

// CopyFrom appends one CSV line per row. Missing values are written as empty
// cells.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	var written int64
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if len(row) != len(columns) {
			return written, fmt.Errorf("csvfile: row length %d != columns length %d", len(row), len(columns))
		}
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = formatCell(v)
		}
		if err := r.w.Write(rec); err != nil {
			return written, fmt.Errorf("csvfile: write row: %w", err)
		}
		written++
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return written, fmt.Errorf("csvfile: flush: %w", err)
	}
	return written, nil
}

// formatCell renders one cell. Integers keep their integral form; NaN and nil
// render empty.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func init() {
	storage.Register("csv", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(Config{Path: cfg.DSN})
	})
}
