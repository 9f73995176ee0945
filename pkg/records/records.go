// Package records defines the row representation shared by parsers, frames,
// and storage backends. A Record is one logical row keyed by column name.
// Values are kept loosely typed (string, int64, float64, bool, time.Time, nil)
// so that parsing, coercion, and loading stages can hand rows to each other
// without conversion layers in between.
package records

// Record is a single row: column name -> value. nil means missing.
type Record map[string]any

// Clone returns a shallow copy of r. The values themselves are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
