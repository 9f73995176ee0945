// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. Batches go in as prepared INSERTs inside a transaction;
// SQLite has no dedicated bulk-load API like Postgres COPY, but transactions
// keep throughput acceptable for the table sizes a feature pipeline emits.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"feateng/internal/storage"
	"feateng/pkg/frame"
)

// Config holds SQLite sink configuration.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:features.db?cache=shared"
	//   "features.db"
	DSN string

	// Table is the destination table name.
	Table string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection for the given Config. The caller
// owns the Repository and must Close it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("sqlite: table must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Repository{db: db, cfg: cfg}, nil
}

// Close implements storage.Repository.
func (r *Repository) Close() { r.db.Close() }

// EnsureTable creates the destination table if it does not exist. Numeric
// frame columns map to REAL, everything else to TEXT.
func (r *Repository) EnsureTable(ctx context.Context, schema storage.TableSchema) error {
	if len(schema.Columns) == 0 {
		return fmt.Errorf("sqlite: schema has no columns")
	}
	defs := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		defs[i] = quoteIdent(c.Name) + " " + sqlType(c.Kind)
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(r.cfg.Table), strings.Join(defs, ", "))
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlite: create table: %w", err)
	}
	return nil
}

// CopyFrom inserts the given rows into the configured table using a single
// transaction and a prepared INSERT statement. It returns the number of rows
// inserted before any error.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(r.cfg.Table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, normalizeRow(row)...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: insert: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// ReadFrame reads the whole configured table back into a frame, preserving
// column order. NULL cells come back as missing. Intended for verification
// and for chaining a stored table into another run.
func (r *Repository) ReadFrame(ctx context.Context) (*frame.Frame, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(r.cfg.Table))
	if err != nil {
		return nil, fmt.Errorf("sqlite: select: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns: %w", err)
	}

	cols := make([][]any, len(names))
	scan := make([]any, len(names))
	for rows.Next() {
		raw := make([]any, len(names))
		for i := range raw {
			scan[i] = &raw[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		for i, v := range raw {
			cols[i] = append(cols[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}

	f := frame.New()
	for i, name := range names {
		if err := f.Set(name, cols[i]); err != nil {
			return nil, fmt.Errorf("sqlite: column %q: %w", name, err)
		}
	}
	return f, nil
}

// normalizeRow converts frame cell values into driver-friendly ones. NaN has
// no SQLite representation, so missing numerics are stored as NULL.
func normalizeRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if frame.IsMissing(v) {
			out[i] = nil
			continue
		}
		out[i] = v
	}
	return out
}

func sqlType(k frame.Kind) string {
	if k == frame.KindNumeric {
		return "REAL"
	}
	return "TEXT"
}

// quoteIdent wraps an identifier in double quotes, doubling any embedded
// quote per the SQL standard.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
	})
}
