package create

import "errors"

// Sentinel errors for the feature-creation engine. Callers are expected to
// classify failures with errors.Is; messages wrapped around these carry the
// offending field or column.
var (
	// ErrConfig marks malformed construction parameters: bad variable lists,
	// unknown function names, mismatched or colliding output names.
	ErrConfig = errors.New("create: invalid configuration")

	// ErrUnsupportedSpec marks function specifications this engine rejects by
	// design, such as map-shaped name->function specs; output naming is
	// controlled solely via NewVariableNames.
	ErrUnsupportedSpec = errors.New("create: unsupported function specification")

	// ErrNotFitted marks a Transform call on an instance that was never fitted.
	ErrNotFitted = errors.New("create: transformer is not fitted")

	// ErrSchema marks a table that does not match the configured or fitted
	// schema: missing columns, non-numeric columns, changed column count.
	ErrSchema = errors.New("create: schema mismatch")

	// ErrMissingValues marks missing data found under the "raise" policy.
	ErrMissingValues = errors.New("create: missing values present")
)
