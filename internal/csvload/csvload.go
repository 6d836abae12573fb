// Package csvload reads the CSV exports the importer consumes. Headers are
// matched loosely because exports from different systems name the same
// column differently.
package csvload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMissingColumns is returned when a required column is absent.
var ErrMissingColumns = errors.New("missing required CSV columns")

// CleanText removes BOMs and other format characters, normalizes to NFKC
// and collapses runs of whitespace.
func CleanText(s string) string {
	t := transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Cf)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.ReplaceAll(s, "\ufeff", "")
	}
	return strings.Join(strings.Fields(out), " ")
}

// NormHeader is the form headers are compared in.
func NormHeader(s string) string {
	return cases.Fold().String(CleanText(s))
}

// PickKey finds the header matching target: an exact match of the
// normalized header first, then the first header containing every word of
// target.
func PickKey(headers []string, target string) (string, bool) {
	target = NormHeader(target)
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormHeader(h)
		if normalized[i] == target {
			return headers[i], true
		}
	}

	words := strings.Fields(target)
	for i, n := range normalized {
		all := len(words) > 0
		for _, w := range words {
			if !strings.Contains(n, w) {
				all = false
				break
			}
		}
		if all {
			return headers[i], true
		}
	}
	return "", false
}

// PickFirst returns the header matching the first target that matches.
func PickFirst(headers []string, targets ...string) (string, bool) {
	for _, t := range targets {
		if h, ok := PickKey(headers, t); ok {
			return h, true
		}
	}
	return "", false
}

// Row is one data row with cleaned values keyed by header.
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the value under header; an empty header yields "".
func (r Row) Get(header string) string {
	if header == "" {
		return ""
	}
	return r.Values[header]
}

// Table is a loaded CSV file.
type Table struct {
	Path    string
	Headers []string
	Rows    []Row
}

// Column resolves the first matching header among targets, or "".
func (t *Table) Column(targets ...string) string {
	h, _ := PickFirst(t.Headers, targets...)
	return h
}

// Options configures Load.
type Options struct {
	// Defaults fill blank cells, keyed by header name (compared normalized).
	Defaults map[string]string
	Logger   *zerolog.Logger
}

// Load reads the CSV at path.
func Load(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	t, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

// Read parses CSV data from r.
func Read(r io.Reader, opts Options) (*Table, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "csvload").Logger()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	t := &Table{Headers: make([]string, len(header))}
	for i, h := range header {
		t.Headers[i] = CleanText(h)
	}

	defaults := make(map[string]string, len(opts.Defaults))
	for k, v := range opts.Defaults {
		defaults[NormHeader(k)] = v
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}

		row := Row{Line: line, Values: make(map[string]string, len(t.Headers))}
		for i, h := range t.Headers {
			v := ""
			if i < len(rec) {
				v = CleanText(rec[i])
			}
			if v == "" {
				if d, ok := defaults[NormHeader(h)]; ok && d != "" {
					log.Debug().Int("line", line).Str("column", h).Str("default", d).Msg("blank cell, applying default")
					v = d
				}
			}
			row.Values[h] = v
		}
		t.Rows = append(t.Rows, row)
	}

	log.Debug().Int("rows", len(t.Rows)).Int("columns", len(t.Headers)).Msg("loaded CSV")
	return t, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// require resolves a column that must be present.
func (t *Table) require(name string, targets ...string) (string, error) {
	if h := t.Column(targets...); h != "" {
		return h, nil
	}
	return "", fmt.Errorf("%w: %s (looked for %s)", ErrMissingColumns, name, strings.Join(quote(targets), ", "))
}

func quote(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
