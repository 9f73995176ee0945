// Package frame implements the in-memory table passed between pipeline
// stages: an ordered set of named columns with row-aligned cells.
//
// Design goals:
//
//  1. Column order and row order are stable. Every operation that returns or
//     rebuilds a frame preserves both.
//  2. Cells are loosely typed ([]any, matching records.Record values); nil and
//     NaN both mean "missing". Numeric access goes through Numeric, which
//     coerces per cell and never fails a whole column because of one bad cell.
//  3. Clone is cheap: it copies the column index, not the cells. Mutating
//     operations (Set, Drop) on a clone never touch the original, because
//     cell slices are replaced, never written in place.
package frame

import (
	"fmt"
	"math"
	"strings"

	"github.com/zeebo/xxh3"

	"feateng/pkg/records"
)

// Kind classifies the inferred content of a column.
type Kind int

const (
	// KindEmpty means the column has no non-missing cells.
	KindEmpty Kind = iota
	// KindNumeric means every non-missing cell coerces to float64.
	KindNumeric
	// KindText means at least one non-missing cell is a non-numeric value.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// Frame is an ordered collection of named, row-aligned columns.
// The zero value is not usable; use New or FromRecords.
type Frame struct {
	names []string
	cols  map[string][]any
	rows  int
}

// New returns an empty frame with no columns and no rows.
func New() *Frame {
	return &Frame{cols: map[string][]any{}}
}

// FromRecords builds a frame from rows, with columns laid out in the given
// order. Cells absent from a record become nil (missing). Column names in
// order must be unique.
func FromRecords(recs []records.Record, order []string) (*Frame, error) {
	f := New()
	for _, name := range order {
		vals := make([]any, len(recs))
		for i, r := range recs {
			vals[i] = r[name]
		}
		if err := f.Set(name, vals); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Names returns the column names in order. The slice is a copy.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether a column with the given name exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns the cells of the named column. The returned slice is shared
// with the frame and must not be mutated by the caller.
func (f *Frame) Column(name string) ([]any, bool) {
	c, ok := f.cols[name]
	return c, ok
}

// Set stores vals under name. An existing column is replaced in place
// (keeping its position); a new column is appended after the current last
// column. On a frame that already has columns, len(vals) must equal Len.
func (f *Frame) Set(name string, vals []any) error {
	if name == "" {
		return fmt.Errorf("frame: column name must not be empty")
	}
	if len(f.names) > 0 && len(vals) != f.rows {
		return fmt.Errorf("frame: column %q has %d cells, frame has %d rows", name, len(vals), f.rows)
	}
	if _, exists := f.cols[name]; !exists {
		f.names = append(f.names, name)
	}
	f.cols[name] = vals
	f.rows = len(vals)
	return nil
}

// SetFloats stores a numeric column, boxing each value into a cell.
func (f *Frame) SetFloats(name string, vals []float64) error {
	cells := make([]any, len(vals))
	for i, v := range vals {
		cells[i] = v
	}
	return f.Set(name, cells)
}

// Drop removes the named columns. Unknown names are an error; the frame is
// not modified when any name is unknown. Remaining columns keep their order.
func (f *Frame) Drop(names ...string) error {
	for _, n := range names {
		if _, ok := f.cols[n]; !ok {
			return fmt.Errorf("frame: cannot drop unknown column %q", n)
		}
	}
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := f.names[:0]
	for _, n := range f.names {
		if _, gone := drop[n]; gone {
			delete(f.cols, n)
			continue
		}
		kept = append(kept, n)
	}
	f.names = kept
	if len(f.names) == 0 {
		f.rows = 0
	}
	return nil
}

// Clone returns a structural copy: new name slice, new column index, shared
// cell slices. Set and Drop on the clone leave the original untouched.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		names: make([]string, len(f.names)),
		cols:  make(map[string][]any, len(f.cols)),
		rows:  f.rows,
	}
	copy(out.names, f.names)
	for k, v := range f.cols {
		out.cols[k] = v
	}
	return out
}

// Records converts the frame back to row form, in row order. Missing cells
// are carried as nil values under their column key.
func (f *Frame) Records() []records.Record {
	out := make([]records.Record, f.rows)
	for i := range out {
		r := make(records.Record, len(f.names))
		for _, n := range f.names {
			r[n] = f.cols[n][i]
		}
		out[i] = r
	}
	return out
}

// Numeric returns the named column as float64 cells. Missing cells (nil or
// NaN) and cells that do not coerce to a number become NaN; the call only
// fails when the column does not exist.
func (f *Frame) Numeric(name string) ([]float64, error) {
	cells, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("frame: no column %q", name)
	}
	out := make([]float64, len(cells))
	for i, c := range cells {
		v, ok := coerce(c)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, nil
}

// Kind infers the content kind of the named column.
func (f *Frame) Kind(name string) (Kind, error) {
	cells, ok := f.cols[name]
	if !ok {
		return KindEmpty, fmt.Errorf("frame: no column %q", name)
	}
	kind := KindEmpty
	for _, c := range cells {
		if IsMissing(c) {
			continue
		}
		if _, ok := coerce(c); ok {
			if kind == KindEmpty {
				kind = KindNumeric
			}
			continue
		}
		return KindText, nil
	}
	return kind, nil
}

// HasMissing reports whether the named column contains any missing cell.
func (f *Frame) HasMissing(name string) (bool, error) {
	cells, ok := f.cols[name]
	if !ok {
		return false, fmt.Errorf("frame: no column %q", name)
	}
	for _, c := range cells {
		if IsMissing(c) {
			return true, nil
		}
	}
	return false, nil
}

// Fingerprint returns a stable hash of the ordered column schema (names
// only, not cells). Two frames with the same columns in the same order have
// the same fingerprint.
func (f *Frame) Fingerprint() uint64 {
	var b strings.Builder
	for _, n := range f.names {
		b.WriteString(n)
		b.WriteByte(0x1f)
	}
	return xxh3.HashString(b.String())
}

// IsMissing reports whether a cell counts as missing: nil, or a NaN float.
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	}
	return false
}

// coerce converts a cell to float64. Strings are not parsed here; parsing
// happens once, in the CSV layer.
func coerce(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case nil:
		return math.NaN(), true
	}
	return 0, false
}
