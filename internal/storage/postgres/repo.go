// Package postgres implements a Postgres-backed storage.Repository using pgx
// v5. Rows are bulk-loaded with the COPY protocol straight into the target
// table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"feateng/internal/storage"
	"feateng/pkg/frame"
)

// Config holds Postgres sink configuration.
type Config struct {
	// DSN is a pgxpool connection string.
	DSN string

	// Table is the target table name, optionally schema-qualified, e.g.
	// "public.features".
	Table string
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository opens a connection pool for the given Config. The caller owns
// the Repository and must Close it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("postgres: table must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, nil
}

// Close implements storage.Repository.
func (r *Repository) Close() { r.pool.Close() }

// EnsureTable creates the destination table if it does not exist. Numeric
// frame columns map to double precision, everything else to text.
func (r *Repository) EnsureTable(ctx context.Context, schema storage.TableSchema) error {
	if len(schema.Columns) == 0 {
		return fmt.Errorf("postgres: schema has no columns")
	}
	defs := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		defs[i] = pgIdent(c.Name) + " " + pgType(c.Kind)
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pgFQN(r.cfg.Table), strings.Join(defs, ", "))
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}
	return nil
}

// CopyFrom streams the rows into the target table with the COPY protocol and
// returns the count Postgres reported.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	src := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("postgres: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		src[i] = normalizeRow(row)
	}

	ident := copyIdentifier(r.cfg.Table)
	n, err := r.pool.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(src))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres: copy: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("postgres: copy: %w", err)
	}
	return n, nil
}

// normalizeRow converts frame cell values for the wire: missing numerics
// become NULL rather than NaN, which double precision would otherwise accept
// and most downstream SQL would mishandle.
func normalizeRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			out[i] = nil
			continue
		}
		out[i] = v
	}
	return out
}

func pgType(k frame.Kind) string {
	if k == frame.KindNumeric {
		return "double precision"
	}
	return "text"
}

// pgIdent double-quotes a single identifier.
func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// pgFQN quotes a possibly schema-qualified name part by part, so
// "public.features" becomes "public"."features".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// copyIdentifier builds the pgx.Identifier for a possibly schema-qualified
// table name.
func copyIdentifier(name string) pgx.Identifier {
	return pgx.Identifier(strings.Split(name, "."))
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
	})
}
