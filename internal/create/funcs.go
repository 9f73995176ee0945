// Reduction specifications and the NaN-aware kernels behind them.
//
// A Func is a closed variant: either one of the eight builtin reductions
// (referenced by exact name or its "np."-prefixed alias) or a user-supplied
// function with a declared execution scope. The scope is an explicit
// capability: it comes from the constructor used (Custom vs CustomBlock) or
// from a Provider, never from reflection on the function value.
package create

import (
	"fmt"
	"math"
	"sort"
)

// Scope selects how a custom reduction is invoked.
type Scope string

const (
	// ScopeTabular invokes the function once per row, with that row's input
	// cells. This is the default scope for plain functions.
	ScopeTabular Scope = "tabular"

	// ScopeArray invokes the function once with the whole input block; it
	// must return one value per row.
	ScopeArray Scope = "array"
)

// RowFunc reduces one row's input cells to a scalar. Cells may contain NaN;
// the function decides how to treat them.
type RowFunc func(row []float64) float64

// BlockFunc reduces a rows-by-columns block to one value per row.
type BlockFunc func(block [][]float64) []float64

// Provider declares the execution scope for the reductions it supplies.
// Objects that hand out reduction functions implement this so the engine
// knows how to call them.
type Provider interface {
	ScopeTarget() Scope
}

// builtinID enumerates the builtin reductions. zero means "not a builtin".
type builtinID int

const (
	builtinNone builtinID = iota
	builtinSum
	builtinMean
	builtinMin
	builtinMax
	builtinProd
	builtinMedian
	builtinStd
	builtinVar
)

// builtinByToken maps the accepted name tokens to builtin identities.
// Matching is exact; "sum" and "np.sum" are interchangeable aliases.
var builtinByToken = map[string]builtinID{
	"sum": builtinSum, "np.sum": builtinSum,
	"mean": builtinMean, "np.mean": builtinMean,
	"min": builtinMin, "np.min": builtinMin,
	"max": builtinMax, "np.max": builtinMax,
	"prod": builtinProd, "np.prod": builtinProd,
	"median": builtinMedian, "np.median": builtinMedian,
	"std": builtinStd, "np.std": builtinStd,
	"var": builtinVar, "np.var": builtinVar,
}

// Func is a single reduction specification. The zero value is invalid;
// construct with Named, Custom, CustomBlock, or FromProvider.
type Func struct {
	name    string
	builtin builtinID
	row     RowFunc
	block   BlockFunc
}

// Named references a builtin reduction by token: one of
// sum, mean, min, max, prod, median, std, var, or its "np."-prefixed alias.
// Unknown tokens are rejected when the Func is validated at construction of
// the transformer; a non-builtin string is not treated as a function lookup.
func Named(token string) Func {
	return Func{name: token, builtin: builtinByToken[token]}
}

// Custom wraps a plain per-row function under the given name. Plain
// functions default to the tabular scope.
func Custom(name string, fn RowFunc) Func {
	return Func{name: name, row: fn}
}

// CustomBlock wraps a whole-block function under the given name (the array
// scope).
func CustomBlock(name string, fn BlockFunc) Func {
	return Func{name: name, block: fn}
}

// FromProvider builds a Func from p's declared scope: the tabular scope uses
// row, the array scope uses block. The function for the declared scope must
// be non-nil. A nil provider defaults to the tabular scope.
func FromProvider(p Provider, name string, row RowFunc, block BlockFunc) (Func, error) {
	scope := ScopeTabular
	if p != nil {
		scope = p.ScopeTarget()
	}
	switch scope {
	case ScopeTabular:
		if row == nil {
			return Func{}, fmt.Errorf("%w: provider scope %q needs a row function for %q", ErrConfig, scope, name)
		}
		return Custom(name, row), nil
	case ScopeArray:
		if block == nil {
			return Func{}, fmt.Errorf("%w: provider scope %q needs a block function for %q", ErrConfig, scope, name)
		}
		return CustomBlock(name, block), nil
	default:
		return Func{}, fmt.Errorf("%w: unknown scope %q for %q", ErrConfig, scope, name)
	}
}

// IsBuiltinToken reports whether token names a builtin reduction (with or
// without the "np." prefix). Used by config linting before a transformer is
// ever constructed.
func IsBuiltinToken(token string) bool {
	_, ok := builtinByToken[token]
	return ok
}

// Name returns the identity used for derived output names: the literal token
// for a builtin (aliases keep their prefix), the declared name otherwise.
func (f Func) Name() string { return f.name }

// validate checks that the specification is complete: a builtin token that
// resolved, or a custom function with a callable for its scope.
func (f Func) validate() error {
	if f.builtin != builtinNone {
		return nil
	}
	if f.row == nil && f.block == nil {
		if f.name != "" {
			return fmt.Errorf("%w: %q is not a builtin reduction", ErrConfig, f.name)
		}
		return fmt.Errorf("%w: empty function specification", ErrConfig)
	}
	return nil
}

// apply computes one output column from the input block (rows x variables).
// Row order and length are preserved: len(result) == len(block) always.
func (f Func) apply(block [][]float64) ([]float64, error) {
	switch {
	case f.builtin != builtinNone:
		out := make([]float64, len(block))
		kernel := kernels[f.builtin]
		for i, row := range block {
			out[i] = kernel(row)
		}
		return out, nil
	case f.row != nil:
		out := make([]float64, len(block))
		for i, row := range block {
			out[i] = f.row(row)
		}
		return out, nil
	case f.block != nil:
		out := f.block(block)
		if len(out) != len(block) {
			return nil, fmt.Errorf("create: function %q returned %d values for %d rows", f.name, len(out), len(block))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: empty function specification", ErrConfig)
	}
}

// kernels are the NaN-aware builtin reductions. Missing cells (NaN) are
// skipped; the all-missing row behavior follows the nansum/nanprod
// convention: sum of nothing is 0, product of nothing is 1, everything else
// is NaN. std and var use the sample (ddof=1) divisor and are NaN for rows
// with fewer than two present cells.
var kernels = map[builtinID]RowFunc{
	builtinSum:    nanSum,
	builtinMean:   nanMean,
	builtinMin:    nanMin,
	builtinMax:    nanMax,
	builtinProd:   nanProd,
	builtinMedian: nanMedian,
	builtinStd:    nanStd,
	builtinVar:    nanVar,
}

func nanSum(row []float64) float64 {
	s := 0.0
	for _, v := range row {
		if !math.IsNaN(v) {
			s += v
		}
	}
	return s
}

func nanProd(row []float64) float64 {
	p := 1.0
	for _, v := range row {
		if !math.IsNaN(v) {
			p *= v
		}
	}
	return p
}

func nanMean(row []float64) float64 {
	s, n := 0.0, 0
	for _, v := range row {
		if !math.IsNaN(v) {
			s += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return s / float64(n)
}

func nanMin(row []float64) float64 {
	m, seen := math.NaN(), false
	for _, v := range row {
		if math.IsNaN(v) {
			continue
		}
		if !seen || v < m {
			m, seen = v, true
		}
	}
	return m
}

func nanMax(row []float64) float64 {
	m, seen := math.NaN(), false
	for _, v := range row {
		if math.IsNaN(v) {
			continue
		}
		if !seen || v > m {
			m, seen = v, true
		}
	}
	return m
}

func nanMedian(row []float64) float64 {
	present := make([]float64, 0, len(row))
	for _, v := range row {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN()
	}
	sort.Float64s(present)
	mid := len(present) / 2
	if len(present)%2 == 1 {
		return present[mid]
	}
	return (present[mid-1] + present[mid]) / 2
}

// nanVar is the sample variance: divisor is (present - 1). Rows with fewer
// than two present cells are undefined.
func nanVar(row []float64) float64 {
	s, n := 0.0, 0
	for _, v := range row {
		if !math.IsNaN(v) {
			s += v
			n++
		}
	}
	if n < 2 {
		return math.NaN()
	}
	mean := s / float64(n)
	ss := 0.0
	for _, v := range row {
		if !math.IsNaN(v) {
			d := v - mean
			ss += d * d
		}
	}
	return ss / float64(n-1)
}

func nanStd(row []float64) float64 {
	return math.Sqrt(nanVar(row))
}
