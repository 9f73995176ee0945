// Package create implements feature creation over frames: transformers that
// derive new columns from a fixed set of existing numeric columns.
//
// MathFeatures reduces the configured input columns row-wise through one or
// more reduction functions and appends one output column per function. It
// follows the fit/transform contract used across the pipeline: Fit validates
// a table and captures the schema snapshot, Transform applies the reductions
// against a working copy and never mutates its input.
package create

import (
	"fmt"
	"strings"

	"feateng/pkg/frame"
)

// Config are the construction parameters for MathFeatures. All fields are
// read once by New; later mutation of the caller's Config has no effect.
type Config struct {
	// Variables is the ordered list of input columns to reduce. At least two
	// distinct names are required.
	Variables []string

	// Funcs are the reductions to apply, in output-column order.
	Funcs []Func

	// NewVariableNames optionally names the output columns. When set, it
	// must contain exactly one unique name per entry in Funcs. When empty,
	// names are derived as "{func}_{var1}_..._{varN}".
	NewVariableNames []string

	// MissingValues is the missing-data policy: MissingRaise (default) fails
	// when input cells are missing, MissingIgnore reduces over the present
	// subset of each row.
	MissingValues MissingPolicy

	// DropOriginal removes the input columns from the result table.
	DropOriginal bool
}

// fitted is the immutable snapshot captured by Fit. Transform reads it
// through a single pointer, so a finished Fit is safe to share across
// concurrent Transform calls; Fit itself must not run concurrently.
type fitted struct {
	variables   []string
	nFeatures   int
	fingerprint uint64
}

// MathFeatures derives new columns by reducing input columns row-wise.
type MathFeatures struct {
	cfg      Config
	outNames []string
	state    *fitted
}

// New validates cfg and returns an unfitted transformer.
func New(cfg Config) (*MathFeatures, error) {
	if cfg.MissingValues == "" {
		cfg.MissingValues = MissingRaise
	}
	if !cfg.MissingValues.valid() {
		return nil, fmt.Errorf("%w: missing_values must be %q or %q, got %q",
			ErrConfig, MissingRaise, MissingIgnore, cfg.MissingValues)
	}

	if len(cfg.Variables) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 input variables, got %d", ErrConfig, len(cfg.Variables))
	}
	seen := make(map[string]struct{}, len(cfg.Variables))
	for _, v := range cfg.Variables {
		if v == "" {
			return nil, fmt.Errorf("%w: empty variable name", ErrConfig)
		}
		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("%w: duplicate variable %q", ErrConfig, v)
		}
		seen[v] = struct{}{}
	}

	if len(cfg.Funcs) == 0 {
		return nil, fmt.Errorf("%w: at least one function is required", ErrConfig)
	}
	for _, fn := range cfg.Funcs {
		if err := fn.validate(); err != nil {
			return nil, err
		}
	}

	outNames, err := outputNames(cfg)
	if err != nil {
		return nil, err
	}

	// Config is copied defensively so the transformer owns its slices.
	cfg.Variables = append([]string(nil), cfg.Variables...)
	cfg.Funcs = append([]Func(nil), cfg.Funcs...)
	cfg.NewVariableNames = append([]string(nil), cfg.NewVariableNames...)

	return &MathFeatures{cfg: cfg, outNames: outNames}, nil
}

// outputNames resolves the output column names in function order: explicit
// names verbatim when supplied, derived names otherwise. Both paths reject
// duplicates, so two functions can never silently write to the same column.
func outputNames(cfg Config) ([]string, error) {
	if len(cfg.NewVariableNames) > 0 {
		if len(cfg.NewVariableNames) != len(cfg.Funcs) {
			return nil, fmt.Errorf("%w: %d output names for %d functions",
				ErrConfig, len(cfg.NewVariableNames), len(cfg.Funcs))
		}
		seen := make(map[string]struct{}, len(cfg.NewVariableNames))
		for _, n := range cfg.NewVariableNames {
			if n == "" {
				return nil, fmt.Errorf("%w: empty output name", ErrConfig)
			}
			if _, dup := seen[n]; dup {
				return nil, fmt.Errorf("%w: duplicate output name %q", ErrConfig, n)
			}
			seen[n] = struct{}{}
		}
		return append([]string(nil), cfg.NewVariableNames...), nil
	}

	suffix := "_" + strings.Join(cfg.Variables, "_")
	out := make([]string, len(cfg.Funcs))
	seen := make(map[string]struct{}, len(cfg.Funcs))
	for i, fn := range cfg.Funcs {
		name := fn.Name() + suffix
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: derived output name %q is not unique; set NewVariableNames", ErrConfig, name)
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out, nil
}

// OutputNames returns the output column names that Transform will produce,
// in function order.
func (m *MathFeatures) OutputNames() []string {
	return append([]string(nil), m.outNames...)
}

// Fit validates x against the configuration and captures the fitted
// snapshot. No parameters are learned. Re-fitting replaces the snapshot.
func (m *MathFeatures) Fit(x *frame.Frame) error {
	if err := checkInputColumns(x, m.cfg.Variables, m.cfg.MissingValues); err != nil {
		return err
	}
	m.state = &fitted{
		variables:   append([]string(nil), m.cfg.Variables...),
		nFeatures:   len(x.Names()),
		fingerprint: x.Fingerprint(),
	}
	return nil
}

// Transform applies the configured reductions to x and returns a new frame:
// the input columns unchanged (unless DropOriginal), plus one output column
// per function, appended in function order. x itself is never mutated.
func (m *MathFeatures) Transform(x *frame.Frame) (*frame.Frame, error) {
	st := m.state
	if st == nil {
		return nil, ErrNotFitted
	}

	// Fast path: identical schema to the fitted table. Otherwise fall back
	// to per-column checks so renamed or re-typed columns fail loudly.
	if x.Fingerprint() != st.fingerprint {
		if len(x.Names()) != st.nFeatures {
			return nil, fmt.Errorf("%w: table has %d columns, fitted on %d",
				ErrSchema, len(x.Names()), st.nFeatures)
		}
		if err := checkInputColumns(x, st.variables, m.cfg.MissingValues); err != nil {
			return nil, err
		}
	} else if m.cfg.MissingValues == MissingRaise {
		if err := checkInputColumns(x, st.variables, m.cfg.MissingValues); err != nil {
			return nil, err
		}
	}

	block, err := inputBlock(x, st.variables)
	if err != nil {
		return nil, err
	}

	out := x.Clone()
	for i, fn := range m.cfg.Funcs {
		col, err := fn.apply(block)
		if err != nil {
			return nil, err
		}
		if err := out.SetFloats(m.outNames[i], col); err != nil {
			return nil, err
		}
	}

	if m.cfg.DropOriginal {
		if err := out.Drop(st.variables...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// inputBlock materializes the selected columns as one rows-by-variables
// block, preserving row order. Cells that are missing or non-numeric are NaN.
func inputBlock(x *frame.Frame, variables []string) ([][]float64, error) {
	cols := make([][]float64, len(variables))
	for j, v := range variables {
		c, err := x.Numeric(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchema, err)
		}
		cols[j] = c
	}
	block := make([][]float64, x.Len())
	for i := range block {
		row := make([]float64, len(variables))
		for j := range variables {
			row[j] = cols[j][i]
		}
		block[i] = row
	}
	return block, nil
}
