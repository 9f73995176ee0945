package parser

import (
	"io"

	"feateng/pkg/frame"
)

// Parser turns raw bytes into a frame. Implementations report the number of
// input rows they skipped (malformed lines, width mismatches) alongside the
// parsed table.
type Parser interface {
	Parse(r io.Reader) (*frame.Frame, int, error)
}
