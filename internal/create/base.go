// Shared input checks used by every creation transformer at fit and
// transform time. Kept separate from the engine so future transformers
// (cyclical features, relative features) can reuse the same contract.
package create

import (
	"fmt"

	"feateng/pkg/frame"
)

// MissingPolicy declares what to do when input cells are missing.
type MissingPolicy string

const (
	// MissingRaise fails the whole call when any input cell is missing.
	MissingRaise MissingPolicy = "raise"
	// MissingIgnore computes reductions over the present subset of each row.
	MissingIgnore MissingPolicy = "ignore"
)

func (p MissingPolicy) valid() bool {
	return p == MissingRaise || p == MissingIgnore
}

// checkInputColumns asserts that every variable exists in x, is numeric, and
// satisfies the missing-value policy. It is called before any numeric work,
// at both fit and transform time.
func checkInputColumns(x *frame.Frame, variables []string, policy MissingPolicy) error {
	for _, v := range variables {
		if !x.Has(v) {
			return fmt.Errorf("%w: column %q not in table", ErrSchema, v)
		}
		kind, err := x.Kind(v)
		if err != nil {
			return err
		}
		if kind == frame.KindText {
			return fmt.Errorf("%w: column %q is not numeric", ErrSchema, v)
		}
		if policy == MissingRaise {
			missing, err := x.HasMissing(v)
			if err != nil {
				return err
			}
			if missing {
				return fmt.Errorf("%w: column %q", ErrMissingValues, v)
			}
		}
	}
	return nil
}
