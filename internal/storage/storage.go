// Package storage defines the sink contract the pipeline writes frames
// through, plus a registry that lets backends (csv, sqlite, postgres)
// self-register at init time so callers only deal in kinds.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"feateng/pkg/frame"
)

// Config selects and parameterizes a sink backend.
type Config struct {
	// Kind names the registered backend: "csv", "sqlite", "postgres".
	Kind string

	// DSN is a backend connection string, or a file path for file-based
	// sinks.
	DSN string

	// Table is the destination table for SQL backends. File sinks ignore it.
	Table string
}

// ColumnDef describes one destination column.
type ColumnDef struct {
	Name string
	Kind frame.Kind
}

// TableSchema is the ordered column layout a sink should provision before
// rows arrive.
type TableSchema struct {
	Columns []ColumnDef
}

// Names returns the column names in schema order.
func (s TableSchema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// SchemaFromFrame derives a TableSchema from a frame: one column per frame
// column, in frame order, typed by the frame's inferred kind.
func SchemaFromFrame(f *frame.Frame) (TableSchema, error) {
	names := f.Names()
	cols := make([]ColumnDef, 0, len(names))
	for _, name := range names {
		k, err := f.Kind(name)
		if err != nil {
			return TableSchema{}, fmt.Errorf("column %q: %w", name, err)
		}
		cols = append(cols, ColumnDef{Name: name, Kind: k})
	}
	return TableSchema{Columns: cols}, nil
}

// Repository is a destination for frames. Implementations provision the
// destination once via EnsureTable, then accept row batches through CopyFrom.
type Repository interface {
	// EnsureTable provisions the destination for the given schema. It must
	// be idempotent; pipelines call it once per run before loading.
	EnsureTable(ctx context.Context, schema TableSchema) error

	// CopyFrom inserts rows aligned to the columns order and returns the
	// number of rows written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Close releases the backend's resources.
	Close()
}

// Factory opens a Repository for a Config. Backends register one per kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the Factory for a sink kind. It is called
// from backend packages' init functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// Open constructs the Repository for cfg.Kind, or an error naming the known
// kinds when the kind is unregistered.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown sink kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return fn(ctx, cfg)
}

// Kinds lists the registered sink kinds, sorted.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
