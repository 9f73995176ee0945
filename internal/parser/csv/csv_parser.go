// Package csv parses CSV input into frames. Cells are typed on the way in:
// integers and reals become numbers, configured missing tokens become nil,
// everything else stays text. Headers can be remapped and canonicalized so
// that column names coming from messy real-world exports match the names a
// pipeline config refers to.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"feateng/pkg/frame"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// defaultMissingTokens are the cell values treated as missing when the
// Options do not override them. Comparison is case-sensitive except for the
// NA/NaN family, which is matched lowercased.
var defaultMissingTokens = []string{"", "NA", "NaN", "nan", "null", "NULL"}

// Options configures the CSV parser behavior. All fields are optional;
// sensible defaults are applied when a field is zero.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	// Without a header, columns are named col_0..col_N-1.
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing ASCII spaces from each field value
	// before typing.
	TrimSpace bool

	// HeaderMap maps source header names to canonical keys (e.g.,
	// localization to snake_case). Applied before CanonicalHeaders. Only
	// applies when HasHeader is true.
	HeaderMap map[string]string

	// CanonicalHeaders lowercases headers, strips diacritics, and replaces
	// non-alphanumeric runs with underscores, so "Krátký Text" becomes
	// "kratky_text".
	CanonicalHeaders bool

	// MissingTokens lists cell values parsed as missing (nil). When nil,
	// defaultMissingTokens is used. An explicitly empty slice disables
	// missing detection entirely.
	MissingTokens []string
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse consumes all CSV records from r and returns the resulting frame
// along with the number of rows skipped for width mismatches. Rows are kept
// in input order. The whole table is materialized; the reductions downstream
// need random access to rows, so there is no streaming mode here.
func (p *Parser) Parse(r io.Reader) (*frame.Frame, int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1

	missing := p.opt.MissingTokens
	if missing == nil {
		missing = defaultMissingTokens
	}
	missingSet := make(map[string]struct{}, len(missing))
	for _, tok := range missing {
		missingSet[tok] = struct{}{}
	}

	var headers []string
	if p.opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, 0, fmt.Errorf("read csv header: %w", err)
		}
		headers = p.headers(h)
	}

	var (
		rows    [][]any
		skipped int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv row: %w", err)
		}
		if headers == nil {
			headers = make([]string, len(rec))
			for i := range headers {
				headers[i] = fmt.Sprintf("col_%d", i)
			}
		}
		if len(rec) != len(headers) {
			skipped++
			continue
		}
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = p.typeCell(cell, missingSet)
		}
		rows = append(rows, row)
	}

	f := frame.New()
	for j, name := range headers {
		col := make([]any, len(rows))
		for i := range rows {
			col[i] = rows[i][j]
		}
		if err := f.Set(name, col); err != nil {
			return nil, 0, fmt.Errorf("column %q: %w", name, err)
		}
	}
	return f, skipped, nil
}

// headers normalizes the raw header row: BOM strip, whitespace trim, the
// configured header map, then optional canonicalization.
func (p *Parser) headers(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if p.opt.HeaderMap != nil {
			if mapped, ok := p.opt.HeaderMap[h]; ok && mapped != "" {
				h = mapped
			}
		}
		if p.opt.CanonicalHeaders {
			h = Canonical(h)
		}
		out[i] = h
	}
	return out
}

// typeCell converts one raw cell into its typed value: nil for missing
// tokens, int64 or float64 for numbers, the string itself otherwise.
func (p *Parser) typeCell(cell string, missingSet map[string]struct{}) any {
	if p.opt.TrimSpace {
		cell = strings.TrimSpace(cell)
	}
	if _, ok := missingSet[cell]; ok {
		return nil
	}
	if _, ok := missingSet[strings.ToLower(cell)]; ok {
		return nil
	}
	if i, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return i
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}
