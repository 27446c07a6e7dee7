package filter

import "testing"

func TestApplyTextPositiveOr(t *testing.T) {
	d := Descriptor{Operator: OpContains, Values: []string{"shop", "bagel"}}
	if !Apply("Coffee Shop", d, ColumnText) {
		t.Fatal("contains with multiple values should OR-match")
	}
	if Apply("Tea House", d, ColumnText) {
		t.Fatal("no candidate matches, should fail")
	}
}

func TestApplyTextNegativeAnd(t *testing.T) {
	d := Descriptor{Operator: OpNotContains, Values: []string{"shop", "bagel"}}
	if Apply("Coffee Shop", d, ColumnText) {
		t.Fatal("notContains must fail when any candidate matches")
	}
	if !Apply("Tea House", d, ColumnText) {
		t.Fatal("notContains must pass when every candidate fails")
	}
}

func TestApplyTextOperators(t *testing.T) {
	cases := []struct {
		cell string
		d    Descriptor
		want bool
	}{
		{"Coffee", Descriptor{Operator: OpEquals, Values: []string{"coffee"}}, true},
		{"Coffee", Descriptor{Operator: OpEquals, Values: []string{"tea", "COFFEE"}}, true},
		{"Coffee", Descriptor{Operator: OpNotEquals, Values: []string{"coffee"}}, false},
		{"Coffee Shop", Descriptor{Operator: OpStartsWith, Values: []string{"cof"}}, true},
		{"Coffee Shop", Descriptor{Operator: OpEndsWith, Values: []string{"shop"}}, true},
		{"Coffee", Descriptor{Operator: "fuzzy", Values: []string{"x"}}, true}, // unknown op passes
	}
	for i, tc := range cases {
		if got := Apply(tc.cell, tc.d, ColumnText); got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestApplyEmptyValueShortCircuit(t *testing.T) {
	// An empty filter value is a no-op, not a rejection.
	if !Apply("anything", Descriptor{Operator: OpContains}, ColumnText) {
		t.Fatal("empty value must pass for text")
	}
	if !Apply("42", Descriptor{Operator: OpGreater}, ColumnNumber) {
		t.Fatal("empty value must pass for number")
	}
	if !Apply("not-a-date", Descriptor{Operator: OpRange}, ColumnDate) {
		t.Fatal("empty range must pass even for unparseable cells")
	}
}

func TestApplyEmptyOperators(t *testing.T) {
	if !Apply("", Descriptor{Operator: OpEmpty}, ColumnText) {
		t.Fatal("empty operator on empty cell")
	}
	if Apply("x", Descriptor{Operator: OpEmpty}, ColumnText) {
		t.Fatal("empty operator on non-empty cell")
	}
	if !Apply("x", Descriptor{Operator: OpNotEmpty}, ColumnText) {
		t.Fatal("notEmpty operator on non-empty cell")
	}
}

func TestApplyNumber(t *testing.T) {
	cases := []struct {
		cell string
		d    Descriptor
		want bool
	}{
		{"10", Descriptor{Operator: OpEquals, Values: []string{"10"}}, true},
		{"10.5", Descriptor{Operator: OpGreater, Values: []string{"10"}}, true},
		{"10", Descriptor{Operator: OpLess, Values: []string{"10"}}, false},
		{"10", Descriptor{Operator: OpGreaterEq, Values: []string{"10"}}, true},
		{"10", Descriptor{Operator: OpLessEq, Values: []string{"10"}}, true},
		{"10", Descriptor{Operator: OpNotEquals, Values: []string{"11"}}, true},
		// Non-numeric coerces to zero on both sides.
		{"abc", Descriptor{Operator: OpEquals, Values: []string{"xyz"}}, true},
		{"abc", Descriptor{Operator: OpLess, Values: []string{"1"}}, true},
		{"5", Descriptor{Operator: "between", Values: []string{"1"}}, true}, // unknown op
	}
	for i, tc := range cases {
		if got := Apply(tc.cell, tc.d, ColumnNumber); got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestApplyDateFailClosed(t *testing.T) {
	d := Descriptor{Operator: OpEquals, Values: []string{"2024-01-01"}}
	if Apply("not-a-date", d, ColumnDate) {
		t.Fatal("unparseable cell date must fail closed")
	}
	// Unparseable filter date also rejects rather than passing rows through.
	if Apply("2024-01-01", Descriptor{Operator: OpEquals, Values: []string{"garbage"}}, ColumnDate) {
		t.Fatal("unparseable filter date must fail closed")
	}
}

func TestApplyDateRangeInclusive(t *testing.T) {
	d := Descriptor{Operator: OpRange, From: "2024-03-01", To: "2024-03-31"}
	cases := []struct {
		cell string
		want bool
	}{
		{"2024-03-15", true},
		{"2024-03-01", true}, // lower bound inclusive
		{"2024-03-31", true}, // upper bound inclusive
		{"2024-02-29", false},
		{"2024-04-01", false},
	}
	for _, tc := range cases {
		if got := Apply(tc.cell, d, ColumnDate); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.cell, tc.want, got)
		}
	}
}

func TestApplyDateOpenRange(t *testing.T) {
	onlyFrom := Descriptor{Operator: OpRange, From: "2024-03-01"}
	if !Apply("2030-01-01", onlyFrom, ColumnDate) {
		t.Fatal("open upper bound should pass any later date")
	}
	if Apply("2020-01-01", onlyFrom, ColumnDate) {
		t.Fatal("date before lower bound must fail")
	}
	onlyTo := Descriptor{Operator: OpRange, To: "2024-03-01"}
	if !Apply("2020-01-01", onlyTo, ColumnDate) {
		t.Fatal("open lower bound should pass any earlier date")
	}
}

func TestApplyDateOneOf(t *testing.T) {
	d := Descriptor{Operator: OpOneOf, Values: []string{"2024-01-01", "2024-06-15"}}
	if !Apply("2024-06-15", d, ColumnDate) {
		t.Fatal("exact day should match")
	}
	if !Apply("2024-06-15T18:30:00Z", d, ColumnDate) {
		t.Fatal("time of day must not affect day-level equality")
	}
	if Apply("2024-06-16", d, ColumnDate) {
		t.Fatal("different day must not match")
	}
}

func TestApplyDateComparisons(t *testing.T) {
	cases := []struct {
		cell string
		d    Descriptor
		want bool
	}{
		{"2024-01-02", Descriptor{Operator: OpAfter, Values: []string{"2024-01-01"}}, true},
		{"2024-01-01", Descriptor{Operator: OpBefore, Values: []string{"2024-01-02"}}, true},
		{"2024-01-01", Descriptor{Operator: OpNotEquals, Values: []string{"2024-01-02"}}, true},
		{"2024-01-01", Descriptor{Operator: OpNotEquals, Values: []string{"2024-01-01"}}, false},
	}
	for i, tc := range cases {
		if got := Apply(tc.cell, tc.d, ColumnDate); got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestMatchComposesWithAnd(t *testing.T) {
	row := map[string]string{
		"description": "Coffee Shop",
		"amount":      "450",
		"date":        "2024-03-15",
	}
	get := func(col string) string { return row[col] }

	filters := []ColumnFilter{
		{Column: "description", Type: ColumnText, Descriptor: Descriptor{Operator: OpContains, Values: []string{"coffee"}}},
		{Column: "amount", Type: ColumnNumber, Descriptor: Descriptor{Operator: OpGreaterEq, Values: []string{"100"}}},
		{Column: "date", Type: ColumnDate, Descriptor: Descriptor{Operator: OpRange, From: "2024-03-01", To: "2024-03-31"}},
	}
	if !Match(get, filters) {
		t.Fatal("row should pass all filters")
	}

	filters[1].Descriptor = Descriptor{Operator: OpGreater, Values: []string{"1000"}}
	if Match(get, filters) {
		t.Fatal("one failing filter must reject the row")
	}
}
