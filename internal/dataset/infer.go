package dataset

import (
	"errors"
	"strconv"
	"strings"
)

// Kind is the inferred scalar type of a column.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// DefaultNullValues are the cell values read as null unless overridden.
var DefaultNullValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// inferKind picks the narrowest kind that accepts every non-null cell in the
// column. Int widens to Float; Bool and String never narrow. A column with
// no non-null cells is String.
func inferKind(records [][]string, col int, isNull func(string) bool) Kind {
	kind := KindInt
	seen := false
	for _, rec := range records {
		v := rec[col]
		if isNull(v) {
			continue
		}
		seen = true
		switch kind {
		case KindInt:
			if _, ok := parseInt(v); ok {
				continue
			}
			if _, ok := parseFloat(v); ok {
				kind = KindFloat
				continue
			}
			if !seenNonBool(records, col, isNull) {
				return KindBool
			}
			return KindString
		case KindFloat:
			if _, ok := parseFloat(v); ok {
				continue
			}
			return KindString
		}
	}
	if !seen {
		return KindString
	}
	return kind
}

// seenNonBool reports whether any non-null cell in the column is not a boolean literal.
func seenNonBool(records [][]string, col int, isNull func(string) bool) bool {
	for _, rec := range records {
		v := rec[col]
		if isNull(v) {
			continue
		}
		if _, ok := parseBool(v); !ok {
			return true
		}
	}
	return false
}

func convert(v string, kind Kind) any {
	switch kind {
	case KindInt:
		n, _ := parseInt(v)
		return n
	case KindFloat:
		f, _ := parseFloat(v)
		return f
	case KindBool:
		b, _ := parseBool(v)
		return b
	}
	return v
}

func parseInt(v string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	return n, err == nil
}

func parseFloat(v string) (float64, bool) {
	s := strings.TrimSpace(v)
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out-of-range literals such as 1e400 still read as +/-Inf.
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

func parseBool(v string) (bool, bool) {
	switch strings.TrimSpace(v) {
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	}
	return false, false
}
