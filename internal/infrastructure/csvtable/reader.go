// Package csvtable reads header-addressed CSV tables such as the published
// country metadata files.
package csvtable

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// utf8BOM is stripped from the start of the input when present
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader reads a CSV table whose first row is a header
type Reader struct {
	delimiter  rune
	lazyQuotes bool
	trimSpace  bool
	headers    []string
	headerMap  map[string]int
	line       int
	rows       int
	csv        *csv.Reader
}

// Option is a functional option for Reader configuration
type Option func(*Reader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) Option {
	return func(r *Reader) {
		r.delimiter = d
	}
}

// WithLazyQuotes toggles lenient quote handling (default on)
func WithLazyQuotes(lazy bool) Option {
	return func(r *Reader) {
		r.lazyQuotes = lazy
	}
}

// WithTrimSpace toggles trimming of surrounding whitespace (default on)
func WithTrimSpace(trim bool) Option {
	return func(r *Reader) {
		r.trimSpace = trim
	}
}

// NewReader wraps r, strips a UTF-8 BOM and validates the encoding of the
// first block of input
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	t := &Reader{
		delimiter:  ',',
		lazyQuotes: true,
		trimSpace:  true,
		headerMap:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(t)
	}

	buf := bufio.NewReader(r)
	head, err := buf.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("csvtable: failed to read input: %w", err)
	}
	if len(head) == len(utf8BOM) && string(head) == string(utf8BOM) {
		_, _ = buf.Discard(len(utf8BOM))
	}

	const checkSize = 4096
	block, err := buf.Peek(checkSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("csvtable: failed to read input: %w", err)
	}
	if len(block) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(trimPartialRune(block)) {
		return nil, ErrInvalidEncoding
	}

	t.csv = csv.NewReader(buf)
	t.csv.Comma = t.delimiter
	t.csv.LazyQuotes = t.lazyQuotes
	t.csv.TrimLeadingSpace = t.trimSpace
	t.csv.FieldsPerRecord = -1

	if err := t.readHeader(); err != nil {
		return nil, err
	}
	return t, nil
}

// trimPartialRune drops a multi-byte rune cut off at the end of a peeked block
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			return b
		}
	}
	return b
}

func (t *Reader) readHeader() error {
	record, err := t.csv.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("csvtable: failed to read header: %w", err)
	}

	t.headers = make([]string, len(record))
	for i, h := range record {
		if t.trimSpace {
			h = strings.TrimSpace(h)
		}
		t.headers[i] = h
		t.headerMap[h] = i
	}
	t.line = 1
	return nil
}

// Headers returns the header names in column order
func (t *Reader) Headers() []string {
	return t.headers
}

// HasColumn reports whether the header contains name
func (t *Reader) HasColumn(name string) bool {
	_, ok := t.headerMap[name]
	return ok
}

// Require returns ErrMissingColumns naming every absent column
func (t *Reader) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// Row is one data row addressed by header name
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the value of a column, or "" when absent
func (r *Row) Get(column string) string {
	return r.Values[column]
}

// IsEmpty reports whether every value of the row is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Values {
		if v != "" {
			return false
		}
	}
	return true
}

// Next reads the next row; it returns io.EOF at the end of input
func (t *Reader) Next() (*Row, error) {
	record, err := t.csv.Read()
	t.line++
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("csvtable: error reading line %d: %w", t.line, err)
	}
	t.rows++

	row := &Row{Line: t.line, Values: make(map[string]string, len(t.headers))}
	for i, h := range t.headers {
		var v string
		if i < len(record) {
			v = record[i]
			if t.trimSpace {
				v = strings.TrimSpace(v)
			}
		}
		row.Values[h] = v
	}
	return row, nil
}

// All reads every remaining non-empty row
func (t *Reader) All() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := t.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}

// Rows returns the number of data rows read so far
func (t *Reader) Rows() int {
	return t.rows
}
