package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ReadOptions controls how a file is parsed.
type ReadOptions struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune

	// NullValues are the cell values read as null. Nil means DefaultNullValues;
	// an empty non-nil slice turns null detection off.
	NullValues []string
}

// Read opens path and parses it with Parse.
// Open and read failures match ErrFileAccess; malformed content matches ErrParse.
func Read(path string, opts ReadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil && fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileAccess, path)
	}

	ds, err := parse(f, path, opts)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading %s: %w", ErrFileAccess, path, err)
	}
	return ds, nil
}

// Parse reads a header line followed by data rows from r.
// Every row must have as many fields as the header.
func Parse(r io.Reader, opts ReadOptions) (*Dataset, error) {
	return parse(r, "", opts)
}

func parse(r io.Reader, path string, opts ReadOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = 0 // header width is enforced on every row

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: path, Err: errors.New("no columns to parse from file")}
		}
		return nil, readErr(path, err)
	}
	if err := checkUTF8(header); err != nil {
		return nil, &ParseError{Path: path, Line: 1, Err: err}
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readErr(path, err)
		}
		if err := checkUTF8(rec); err != nil {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
		records = append(records, rec)
	}

	isNull := nullMatcher(opts.NullValues)
	names := headerNames(header)

	ds := &Dataset{
		Columns: make([]Column, len(names)),
		Rows:    make([][]any, len(records)),
	}
	for i, name := range names {
		ds.Columns[i] = Column{Name: name, Kind: inferKind(records, i, isNull)}
	}
	for r, rec := range records {
		row := make([]any, len(rec))
		for c, v := range rec {
			if isNull(v) {
				continue
			}
			row[c] = convert(v, ds.Columns[c].Kind)
		}
		ds.Rows[r] = row
	}
	return ds, nil
}

// readErr classifies an error from csv.Reader. Syntax errors are parse
// errors; anything else came from the underlying reader.
func readErr(path string, err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Path: path, Line: csvErr.Line, Err: csvErr.Err}
	}
	return err
}

func checkUTF8(rec []string) error {
	for i, v := range rec {
		if !utf8.ValidString(v) {
			return fmt.Errorf("field %d is not valid UTF-8", i+1)
		}
	}
	return nil
}

// headerNames strips a leading BOM, names blank columns "Unnamed: <i>" and
// de-duplicates repeated names as name, name.1, name.2, ...
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name, n := h, counts[h]
		for used[name] {
			n++
			name = h + "." + strconv.Itoa(n)
		}
		counts[h] = n
		used[name] = true
		names[i] = name
	}
	return names
}

func nullMatcher(values []string) func(string) bool {
	if values == nil {
		values = DefaultNullValues
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(v string) bool {
		_, ok := set[v]
		return ok
	}
}
