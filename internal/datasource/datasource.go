// Package datasource abstracts where the pipeline's input bytes come from.
// A Source yields a readable stream; concrete implementations live in the
// file and httpds subpackages.
package datasource

import (
	"context"
	"io"
)

// Source opens a stream of input bytes. Implementations must honor context
// cancellation and wrap errors with enough detail to identify the origin.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
