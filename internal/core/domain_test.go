package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		OwnerID:     "alice",
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
		Category:    "Cat",
		Subcategory: "Sub",
		Flow:        FlowExpense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{OwnerID: "", Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: "c", Flow: FlowExpense},
		{OwnerID: "u", Date: Date{Time: time.Time{}}, Description: "a", Amount: Money{Cents: 1}, Category: "c", Flow: FlowExpense},
		{OwnerID: "u", Date: NewDate(2025, 1, 1), Description: "", Amount: Money{Cents: 1}, Category: "c", Flow: FlowExpense},
		{OwnerID: "u", Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}, Category: "c", Flow: FlowExpense},
		{OwnerID: "u", Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: "", Flow: FlowExpense},
		{OwnerID: "u", Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: "c", Flow: "transfer"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
