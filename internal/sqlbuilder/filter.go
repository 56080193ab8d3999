package sqlbuilder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bq-demo/internal/domain"
)

// Filter compilation is lenient by default: a filter naming an unknown
// column is skipped, and an in/not-in value that fails numeric coercion is
// dropped on its own, without failing the query. Strict mode turns both
// into validation errors. Unsupported operators are always fatal.

// compileFilters turns the request's filters into a conjunction of SQL
// predicates.
func compileFilters(d Dialect, snap *domain.Snapshot, filters []domain.Filter, strict bool) ([]string, error) {
	preds := make([]string, 0, len(filters))
	for _, f := range filters {
		col, ok := snap.Column(f.Column)
		if !ok {
			if strict {
				return nil, domain.ErrUnknownField("filter column %q not found", f.Column)
			}
			continue
		}
		pred, err := compileFilter(d, col, f, strict)
		if err != nil {
			return nil, err
		}
		if pred != "" {
			preds = append(preds, pred)
		}
	}
	return preds, nil
}

func compileFilter(d Dialect, col domain.Column, f domain.Filter, strict bool) (string, error) {
	ref := columnRef(d, col)

	switch f.Op {
	case domain.OpIn, domain.OpNotIn:
		values, err := membershipValues(d, col, f.Values, strict)
		if err != nil {
			return "", err
		}
		if len(values) == 0 {
			// Every operand was dropped; there is nothing left to test.
			return "", nil
		}
		op := "IN"
		if f.Op == domain.OpNotIn {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", ref, op, strings.Join(values, ", ")), nil

	case domain.OpEq:
		return fmt.Sprintf("%s = %s", ref, scalarLiteral(d, col, f.Value)), nil
	case domain.OpNeq:
		return fmt.Sprintf("%s != %s", ref, scalarLiteral(d, col, f.Value)), nil
	case domain.OpGt:
		return fmt.Sprintf("%s > %s", ref, scalarLiteral(d, col, f.Value)), nil
	case domain.OpLt:
		return fmt.Sprintf("%s < %s", ref, scalarLiteral(d, col, f.Value)), nil
	case domain.OpGte:
		return fmt.Sprintf("%s >= %s", ref, scalarLiteral(d, col, f.Value)), nil
	case domain.OpLte:
		return fmt.Sprintf("%s <= %s", ref, scalarLiteral(d, col, f.Value)), nil
	case domain.OpLike:
		return fmt.Sprintf("%s LIKE %s", ref, d.StringLiteral(f.Value)), nil

	default:
		return "", domain.ErrUnsupportedOperator("filter operator %q is not supported", f.Op)
	}
}

// membershipValues renders the operand set of an in/not-in filter.
// Operands arrive as strings, possibly carrying their own quotes; numeric
// columns coerce each operand, dropping the ones that fail.
func membershipValues(d Dialect, col domain.Column, raw []string, strict bool) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.Trim(v, `'"`)
		if col.IsNumeric {
			n, err := coerceNumber(v)
			if err != nil {
				if strict {
					return nil, domain.ErrValidation("value %q is not numeric for column %q", v, col.Name)
				}
				continue
			}
			out = append(out, n)
			continue
		}
		out = append(out, d.StringLiteral(v))
	}
	return out, nil
}

// scalarLiteral renders a single comparison operand using the column's
// semantic type. Values that fail typed coercion fall back to a string
// literal rather than failing the query.
func scalarLiteral(d Dialect, col domain.Column, v string) string {
	if col.IsNumeric {
		if n, err := coerceNumber(v); err == nil {
			return n
		}
	}
	if col.IsTemporal {
		if t, err := parseTimestamp(v); err == nil {
			return d.TimestampLiteral(t)
		}
	}
	return d.StringLiteral(v)
}

// coerceNumber accepts integer and float spellings, preserving integer
// formatting where possible.
func coerceNumber(v string) (string, error) {
	v = strings.TrimSpace(v)
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}
