// Package filter evaluates typed column filter predicates against row
// values for report and table filtering. Predicates are pure and total:
// malformed text or number input passes through, malformed dates reject.
package filter

import (
	"strconv"
	"strings"
	"time"
)

const (
	ColumnText   ColumnType = "text"
	ColumnNumber ColumnType = "number"
	ColumnDate   ColumnType = "date"
)

const (
	OpContains    Operator = "contains"
	OpNotContains Operator = "notContains"
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "neq"
	OpStartsWith  Operator = "startsWith"
	OpEndsWith    Operator = "endsWith"
	OpGreater     Operator = "gt"
	OpLess        Operator = "lt"
	OpGreaterEq   Operator = "gte"
	OpLessEq      Operator = "lte"
	OpRange       Operator = "range"
	OpOneOf       Operator = "oneOf"
	OpBefore      Operator = "before"
	OpAfter       Operator = "after"
	OpEmpty       Operator = "empty"
	OpNotEmpty    Operator = "notEmpty"
)

type (
	// ColumnType declares how a column's cell values are compared.
	ColumnType string

	// Operator selects the comparison a descriptor performs.
	Operator string

	// Descriptor is one filter predicate: an operator plus candidate
	// values. For text columns multiple values combine with OR on positive
	// operators and AND on negative ones. From/To bound the date range
	// operator; either side may be empty for an open range.
	Descriptor struct {
		Operator Operator `json:"operator"`
		Values   []string `json:"values,omitempty"`
		From     string   `json:"from,omitempty"`
		To       string   `json:"to,omitempty"`
	}

	// ColumnFilter binds a descriptor to a named, typed column.
	ColumnFilter struct {
		Column     string     `json:"column"`
		Type       ColumnType `json:"type"`
		Descriptor Descriptor `json:"descriptor"`
	}
)

// Apply evaluates a single descriptor against a cell value. It never panics:
// empty filter values make the predicate a no-op pass (except for the
// explicit empty/notEmpty operators), and unknown operators pass through.
// Dates are the exception to permissiveness: an unparseable date, on either
// side of the comparison, fails the predicate.
func Apply(cell string, d Descriptor, col ColumnType) bool {
	switch d.Operator {
	case OpEmpty:
		return strings.TrimSpace(cell) == ""
	case OpNotEmpty:
		return strings.TrimSpace(cell) != ""
	}

	if !d.hasValue() {
		return true
	}

	switch col {
	case ColumnNumber:
		return applyNumber(cell, d)
	case ColumnDate:
		return applyDate(cell, d)
	default:
		return applyText(cell, d)
	}
}

// Match composes several column filters with AND: a row passes only when
// every descriptor passes for its column's value.
func Match(get func(column string) string, filters []ColumnFilter) bool {
	for _, f := range filters {
		if !Apply(get(f.Column), f.Descriptor, f.Type) {
			return false
		}
	}
	return true
}

func (d Descriptor) hasValue() bool {
	if d.Operator == OpRange {
		return strings.TrimSpace(d.From) != "" || strings.TrimSpace(d.To) != ""
	}
	for _, v := range d.Values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func applyText(cell string, d Descriptor) bool {
	folded := strings.ToLower(cell)

	match := func(candidate string) bool {
		c := strings.ToLower(strings.TrimSpace(candidate))
		switch d.Operator {
		case OpContains, OpNotContains:
			return strings.Contains(folded, c)
		case OpEquals, OpNotEquals:
			return folded == c
		case OpStartsWith:
			return strings.HasPrefix(folded, c)
		case OpEndsWith:
			return strings.HasSuffix(folded, c)
		}
		return false
	}

	switch d.Operator {
	case OpContains, OpEquals, OpStartsWith, OpEndsWith:
		// Positive operators: the cell passes if any candidate matches.
		for _, v := range d.Values {
			if strings.TrimSpace(v) == "" {
				continue
			}
			if match(v) {
				return true
			}
		}
		return false
	case OpNotContains, OpNotEquals:
		// Negative operators: the cell passes only if every candidate fails.
		for _, v := range d.Values {
			if strings.TrimSpace(v) == "" {
				continue
			}
			if match(v) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func applyNumber(cell string, d Descriptor) bool {
	cellNum := toFloat(cell)
	want := 0.0
	if len(d.Values) > 0 {
		want = toFloat(d.Values[0])
	}

	switch d.Operator {
	case OpEquals:
		return cellNum == want
	case OpNotEquals:
		return cellNum != want
	case OpGreater:
		return cellNum > want
	case OpLess:
		return cellNum < want
	case OpGreaterEq:
		return cellNum >= want
	case OpLessEq:
		return cellNum <= want
	default:
		return true
	}
}

func applyDate(cell string, d Descriptor) bool {
	day, ok := parseDay(cell)
	if !ok {
		return false
	}

	switch d.Operator {
	case OpRange:
		if from, ok := parseDay(d.From); ok {
			if day.Before(from) {
				return false
			}
		} else if strings.TrimSpace(d.From) != "" {
			return false
		}
		if to, ok := parseDay(d.To); ok {
			if day.After(to) {
				return false
			}
		} else if strings.TrimSpace(d.To) != "" {
			return false
		}
		return true
	case OpOneOf:
		for _, v := range d.Values {
			if target, ok := parseDay(v); ok && day.Equal(target) {
				return true
			}
		}
		return false
	case OpEquals, OpNotEquals, OpBefore, OpAfter:
		target, ok := parseDay(firstValue(d.Values))
		if !ok {
			return false
		}
		switch d.Operator {
		case OpEquals:
			return day.Equal(target)
		case OpNotEquals:
			return !day.Equal(target)
		case OpBefore:
			return day.Before(target)
		default:
			return day.After(target)
		}
	default:
		return true
	}
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func toFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

var dayLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// parseDay parses a calendar date and truncates it to day precision.
func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
