// Package config provides configuration models and helpers for pipelines.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"feateng/internal/create"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "sink.kind",
// "features.funcs[1]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not. The checks
// here are the ones that can fail before any data is read; the feature engine
// re-validates its own parameters when constructed.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateFeatures(p.Features)...)
	issues = append(issues, validateSink(p.Sink)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{SeverityError, "source.file.path", "path must not be empty for the file source"})
		}
	case "http":
		if strings.TrimSpace(s.HTTP.URL) == "" {
			issues = append(issues, Issue{SeverityError, "source.http.url", "url must not be empty for the http source"})
		}
	case "":
		issues = append(issues, Issue{SeverityError, "source.kind", "kind is required (file or http)"})
	default:
		issues = append(issues, Issue{SeverityError, "source.kind", fmt.Sprintf("unknown source kind %q", s.Kind)})
	}
	return issues
}

// validateParser validates Parser configuration.
func validateParser(p Parser) []Issue {
	var issues []Issue

	switch p.Kind {
	case "csv":
		if !p.Options.Bool("has_header", true) && len(p.Options.StringMap("header_map")) > 0 {
			issues = append(issues, Issue{SeverityWarning, "parser.options.header_map", "header_map has no effect without has_header"})
		}
	case "":
		issues = append(issues, Issue{SeverityError, "parser.kind", "kind is required (csv)"})
	default:
		issues = append(issues, Issue{SeverityError, "parser.kind", fmt.Sprintf("unknown parser kind %q", p.Kind)})
	}
	return issues
}

// validateFeatures statically lints the feature block. The same conditions
// fail again (as errors) in create.New; catching them here lets -validate
// report all problems in one pass.
func validateFeatures(f Features) []Issue {
	var issues []Issue

	if len(f.Variables) < 2 {
		issues = append(issues, Issue{SeverityError, "features.variables",
			fmt.Sprintf("need at least 2 input variables, got %d", len(f.Variables))})
	}
	seen := map[string]struct{}{}
	for i, v := range f.Variables {
		if strings.TrimSpace(v) == "" {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("features.variables[%d]", i), "variable name must not be empty"})
			continue
		}
		if _, dup := seen[v]; dup {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("features.variables[%d]", i),
				fmt.Sprintf("duplicate variable %q", v)})
		}
		seen[v] = struct{}{}
	}

	if len(f.Funcs) == 0 {
		issues = append(issues, Issue{SeverityError, "features.funcs", "at least one function is required"})
	}
	for i, tok := range f.Funcs {
		if !create.IsBuiltinToken(tok) {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("features.funcs[%d]", i),
				fmt.Sprintf("%q is not a builtin reduction (sum, mean, min, max, prod, median, std, var, or np.-prefixed)", tok)})
		}
	}

	if len(f.NewVariableNames) > 0 && len(f.NewVariableNames) != len(f.Funcs) {
		issues = append(issues, Issue{SeverityError, "features.new_variable_names",
			fmt.Sprintf("%d names for %d funcs", len(f.NewVariableNames), len(f.Funcs))})
	}
	seenNames := map[string]struct{}{}
	for i, n := range f.NewVariableNames {
		if _, dup := seenNames[n]; dup {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("features.new_variable_names[%d]", i),
				fmt.Sprintf("duplicate output name %q", n)})
		}
		seenNames[n] = struct{}{}
	}

	switch f.MissingValues {
	case "", "raise", "ignore":
	default:
		issues = append(issues, Issue{SeverityError, "features.missing_values",
			fmt.Sprintf("must be raise or ignore, got %q", f.MissingValues)})
	}
	return issues
}

// validateSink validates Sink configuration.
func validateSink(s Sink) []Issue {
	var issues []Issue

	switch s.Kind {
	case "csv":
		if strings.TrimSpace(s.CSV.Path) == "" {
			issues = append(issues, Issue{SeverityError, "sink.csv.path", "path must not be empty for the csv sink (use - for stdout)"})
		}
	case "sqlite", "postgres":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{SeverityError, "sink.db.dsn", "dsn must not be empty for SQL sinks"})
		}
		if strings.TrimSpace(s.DB.Table) == "" {
			issues = append(issues, Issue{SeverityError, "sink.db.table", "table must not be empty for SQL sinks"})
		}
	case "":
		issues = append(issues, Issue{SeverityError, "sink.kind", "kind is required (csv, sqlite, or postgres)"})
	default:
		issues = append(issues, Issue{SeverityError, "sink.kind", fmt.Sprintf("unknown sink kind %q", s.Kind)})
	}
	return issues
}

// validateRuntime validates RuntimeConfig.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.BatchSize < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.batch_size", "batch_size must be >= 0 (0 selects the default)"})
	}
	return issues
}
