// Batched frame loading. The loader slices a frame into row batches, hands
// each batch to the sink's CopyFrom, and logs a concise progress line per
// flush with running totals and instantaneous rows/sec.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"feateng/pkg/frame"
)

// LoadFrame provisions the destination from the frame's schema and writes all
// rows in batches of batchSize. It returns the total number of rows the sink
// reported as written and the first error encountered.
//
// Cancellation is checked between batches; a canceled load returns the rows
// written so far alongside ctx.Err().
func LoadFrame(ctx context.Context, repo Repository, f *frame.Frame, batchSize int) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}

	schema, err := SchemaFromFrame(f)
	if err != nil {
		return 0, fmt.Errorf("derive schema: %w", err)
	}
	if err := repo.EnsureTable(ctx, schema); err != nil {
		return 0, fmt.Errorf("ensure table: %w", err)
	}

	columns := schema.Names()
	cols := make([][]any, len(columns))
	for i, name := range columns {
		c, _ := f.Column(name)
		cols[i] = c
	}

	var (
		total   int64
		batches int64
		start   = time.Now()
		lastTS  = start
	)
	for lo := 0; lo < f.Len(); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := lo + batchSize
		if hi > f.Len() {
			hi = f.Len()
		}
		rows := make([][]any, 0, hi-lo)
		for i := lo; i < hi; i++ {
			row := make([]any, len(cols))
			for j := range cols {
				row[j] = cols[j][i]
			}
			rows = append(rows, row)
		}

		n, err := repo.CopyFrom(ctx, columns, rows)
		total += n
		if err != nil {
			log.Printf("loader: copy failed batch=%d total=%s err=%v",
				batches+1, humanize.Comma(total), err)
			return total, err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		log.Printf("batch #%d: rows=%s total=%s rps=%.0f elapsed=%s",
			batches,
			humanize.Comma(n),
			humanize.Comma(total),
			rps,
			now.Sub(start).Truncate(time.Millisecond),
		)
		lastTS = now
	}
	return total, nil
}
