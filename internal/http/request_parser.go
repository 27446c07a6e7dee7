// Package http provides the JSON API server and handler implementations.
//
// This file implements utilities for parsing and validating request data:
// viewer identification, report query parameters, the compact column filter
// syntax, and JSON body decoding.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"spendshare/internal/filter"
	"spendshare/internal/services"
)

const maxBodyBytes = 1 << 20

// ViewerID extracts the authenticated caller from the X-User-ID header.
// Authentication itself happens upstream; this service trusts the header.
func ViewerID(r *http.Request) string {
	return sanitizeInput(r.Header.Get("X-User-ID"))
}

// ParseReportQuery builds a report query from URL parameters. Parameter
// names mirror the cache key's canonical field set, so equivalent requests
// normalize to the same cache entry.
func ParseReportQuery(r *http.Request) (services.ReportQuery, error) {
	query := r.URL.Query()

	q := services.ReportQuery{
		OwnerID:   sanitizeInput(query.Get("ownerId")),
		Range:     sanitizeInput(query.Get("range")),
		FlowType:  sanitizeInput(query.Get("flowType")),
		Category:  sanitizeInput(query.Get("category")),
		Type:      sanitizeInput(query.Get("type")),
		StartDate: sanitizeInput(query.Get("startDate")),
		EndDate:   sanitizeInput(query.Get("endDate")),
		GroupBy:   sanitizeInput(query.Get("groupBy")),
		Search:    sanitizeInput(query.Get("search")),
	}

	// Closed vocabularies: an unrecognized value would silently key a cache
	// entry for a dimension the query engine cannot apply.
	if err := validateChoice("type", q.Type, "expenses", "incomes"); err != nil {
		return services.ReportQuery{}, err
	}
	if err := validateChoice("range", q.Range, "week", "month", "year"); err != nil {
		return services.ReportQuery{}, err
	}
	if err := validateChoice("groupBy", q.GroupBy, "category", "subcategory", "flow"); err != nil {
		return services.ReportQuery{}, err
	}

	if v := strings.TrimSpace(query.Get("offset")); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return services.ReportQuery{}, fmt.Errorf("invalid offset: %q", v)
		}
		q.Offset = offset
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return services.ReportQuery{}, fmt.Errorf("invalid limit: %q", v)
		}
		q.Limit = limit
	}

	for _, raw := range query["filter"] {
		f, err := ParseColumnFilter(raw)
		if err != nil {
			return services.ReportQuery{}, err
		}
		q.Filters = append(q.Filters, f)
	}

	return q, nil
}

// validateChoice accepts the empty value or one of the allowed ones.
func validateChoice(name, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %q (want one of %s)", name, value, strings.Join(allowed, ", "))
}

// ParseColumnFilter decodes the compact filter syntax
// "column:type:operator:value". Multiple values separate with "|"; the date
// range operator takes "from..to" with either side optional.
func ParseColumnFilter(raw string) (filter.ColumnFilter, error) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 3 {
		return filter.ColumnFilter{}, fmt.Errorf("invalid filter %q: want column:type:operator[:value]", raw)
	}

	column := sanitizeInput(parts[0])
	if column == "" {
		return filter.ColumnFilter{}, fmt.Errorf("invalid filter %q: empty column", raw)
	}

	colType := filter.ColumnType(strings.TrimSpace(parts[1]))
	switch colType {
	case filter.ColumnText, filter.ColumnNumber, filter.ColumnDate:
	default:
		return filter.ColumnFilter{}, fmt.Errorf("invalid filter %q: unknown column type %q", raw, parts[1])
	}

	op := filter.Operator(strings.TrimSpace(parts[2]))

	desc := filter.Descriptor{Operator: op}
	if len(parts) == 4 {
		value := parts[3]
		if op == filter.OpRange {
			from, to, ok := strings.Cut(value, "..")
			if !ok {
				return filter.ColumnFilter{}, fmt.Errorf("invalid filter %q: range wants from..to", raw)
			}
			desc.From = strings.TrimSpace(from)
			desc.To = strings.TrimSpace(to)
		} else {
			for _, v := range strings.Split(value, "|") {
				if v = strings.TrimSpace(v); v != "" {
					desc.Values = append(desc.Values, v)
				}
			}
		}
	}

	return filter.ColumnFilter{
		Column:     column,
		Type:       colType,
		Descriptor: desc,
	}, nil
}

// DecodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	// A second document after the first is a malformed request.
	if dec.More() {
		return errors.New("request body must contain a single JSON document")
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1 // remove character
		}
		return r
	}, s)
}
