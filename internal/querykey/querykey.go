// Package querykey normalizes heterogeneous report query parameters into a
// canonical descriptor whose serialized key is stable across incidental
// representation differences. Two logically equivalent queries must produce
// byte-identical keys, or the response cache fragments.
package querykey

import (
	"net/url"
	"strconv"
	"strings"
)

// flowAll is the sentinel meaning "no flow filter"; it normalizes to the
// same canonical absence as a missing value.
const flowAll = "all"

type (
	// Params is the loose ingress shape. Offset, TargetID and OwnerID accept
	// any of string, int, int64 or float64 so that a numeric 5 and a string
	// "5" normalize identically. Fields outside this shape never reach the
	// key: the descriptor is a closed projection.
	Params struct {
		Range     string
		Offset    any
		FlowType  string
		Category  string
		Type      string
		StartDate string
		EndDate   string
		GroupBy   string
		TargetID  any
		OwnerID   any
		Search    string
	}

	// Descriptor is the canonical normalized form. The zero value of every
	// field is its null marker: absent, nil, empty-string and sentinel
	// inputs all collapse to it.
	Descriptor struct {
		Range     string
		Offset    int
		FlowType  string
		Category  string
		Type      string
		StartDate string
		EndDate   string
		GroupBy   string
		TargetID  string
		OwnerID   string
		Search    string
	}
)

// Describe projects loose parameters onto the canonical descriptor.
func Describe(p Params) Descriptor {
	return Descriptor{
		Range:     strings.TrimSpace(p.Range),
		Offset:    normalizeOffset(p.Offset),
		FlowType:  normalizeFlow(p.FlowType),
		Category:  strings.TrimSpace(p.Category),
		Type:      strings.TrimSpace(p.Type),
		StartDate: strings.TrimSpace(p.StartDate),
		EndDate:   strings.TrimSpace(p.EndDate),
		GroupBy:   strings.TrimSpace(p.GroupBy),
		TargetID:  normalizeID(p.TargetID),
		OwnerID:   normalizeID(p.OwnerID),
		Search:    strings.TrimSpace(p.Search),
	}
}

// Key serializes the descriptor with a fixed field order. Values are
// query-escaped so no input can collide with the field separators.
func (d Descriptor) Key() string {
	var b strings.Builder
	fields := []struct {
		name  string
		value string
	}{
		{"range", d.Range},
		{"offset", strconv.Itoa(d.Offset)},
		{"flowType", d.FlowType},
		{"category", d.Category},
		{"type", d.Type},
		{"startDate", d.StartDate},
		{"endDate", d.EndDate},
		{"groupBy", d.GroupBy},
		{"targetId", d.TargetID},
		{"ownerId", d.OwnerID},
		{"search", d.Search},
	}
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f.name)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.value))
	}
	return b.String()
}

func normalizeFlow(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == flowAll {
		return ""
	}
	return s
}

// normalizeOffset coerces to a non-negative int, never NaN. Transient
// garbage must map to zero rather than minting a fresh cache entry.
func normalizeOffset(v any) int {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return clampOffset(n)
	case int64:
		return clampOffset(int(n))
	case float64:
		return clampOffset(int(n))
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return clampOffset(i)
	default:
		return 0
	}
}

func clampOffset(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// normalizeID stringifies an identifier; nil, empty and whitespace-only all
// collapse to the empty marker so 5 and "5" key identically.
func normalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}
