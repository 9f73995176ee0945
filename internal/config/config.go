// Package config defines the canonical, JSON-serializable configuration model
// for the feature-creation pipeline. It is intentionally small, explicit, and
// dependency-free so that pipelines can be loaded from disk (or other
// sources) and passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files under configs/pipelines/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by
//     the standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":      "loans_math_features",
//	  "source":   { "kind": "file", "file": { "path": "loans.csv" } },
//	  "parser":   { "kind": "csv", "options": { "has_header": true } },
//	  "features": {
//	    "variables": ["credit_card_debt", "car_loan_debt", "mortgage_debt"],
//	    "funcs": ["sum", "mean"],
//	    "missing_values": "ignore"
//	  },
//	  "sink":     { "kind": "sqlite", "db": { "dsn": "out.db", "table": "loans" } }
//	}
package config

import "encoding/json"

// Pipeline describes one full run in JSON: where the table comes from, how
// it is parsed, which features to create, and where the result goes.
type Pipeline struct {
	// Job names the run; it is used for metrics labeling and log lines.
	Job string `json:"job"`

	// Source describes where input data comes from (local file or HTTP).
	Source Source `json:"source"`

	// Parser configures how raw bytes become a frame (currently CSV only).
	Parser Parser `json:"parser"`

	// Features configures the math-features transformer applied to the frame.
	Features Features `json:"features"`

	// Sink describes where the transformed frame is written.
	Sink Sink `json:"sink"`

	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls batching when writing to SQL sinks.
type RuntimeConfig struct {
	BatchSize int `json:"batch_size"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	// URL is the location of the input file.
	URL string `json:"url"`
}

// Parser selects how to parse the raw source into a frame.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys include:
	//   has_header (bool), comma (string), trim_space (bool),
	//   canonical_headers (bool), header_map (object), missing_tokens (array)
	Options Options `json:"options"`
}

// Features configures the math-features transformer. Funcs reference builtin
// reductions by name ("sum", "np.mean", ...); custom functions are a
// code-level facility and are not expressible in JSON.
type Features struct {
	// Variables is the ordered list of input columns (at least 2, distinct).
	Variables []string `json:"variables"`

	// Funcs lists the reductions to apply, one output column each.
	Funcs []string `json:"funcs"`

	// NewVariableNames optionally names the output columns; when set it must
	// contain one unique name per entry in Funcs.
	NewVariableNames []string `json:"new_variable_names"`

	// MissingValues is "raise" (default) or "ignore".
	MissingValues string `json:"missing_values"`

	// DropOriginal removes the input columns from the result.
	DropOriginal bool `json:"drop_original"`
}

// Sink selects where the transformed frame is persisted.
type Sink struct {
	// Kind selects the sink implementation: "csv", "sqlite", or "postgres".
	Kind string `json:"kind"`

	// CSV carries options for the "csv" sink kind.
	CSV SinkCSV `json:"csv"`

	// DB carries options for the SQL sink kinds.
	DB DBConfig `json:"db"`
}

// SinkCSV holds configuration for the "csv" sink kind.
type SinkCSV struct {
	// Path is the output file path.
	Path string `json:"path"`
}

// DBConfig configures a SQL sink.
type DBConfig struct {
	// DSN is the connection string: a file path for SQLite, a pgx URL for
	// Postgres (e.g., postgresql://...).
	DSN string `json:"dsn"`

	// Table is the target table name. For Postgres it may be fully qualified
	// (e.g., "public.my_table").
	Table string `json:"table"`
}

// MarshalPipeline renders p as indented JSON, for saving probed or generated
// pipeline files.
func MarshalPipeline(p Pipeline) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a
// key is absent or of an unexpected type.
//
// Options is used for parser-specific configuration where the shape varies by
// implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such
// as a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty
// map when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object in JSON decodes to a non-nil, empty Options map. This
// simplifies call sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
