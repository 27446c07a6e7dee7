package storage

import (
	"context"
	"path/filepath"
	"testing"

	"spendshare/internal/core"
	"spendshare/internal/layout"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_ExpenseLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	e := core.Expense{
		OwnerID:     "alice",
		Date:        core.NewDate(2025, 3, 14),
		Description: "Groceries",
		Amount:      core.Money{Cents: 4250},
		Category:    "Food",
		Subcategory: "Supermarket",
		Flow:        core.FlowExpense,
	}

	saved, err := repo.CreateExpense(ctx, e)
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if saved.ID == 0 {
		t.Error("CreateExpense() did not assign an id")
	}

	got, err := repo.GetExpense(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetExpense() error = %v", err)
	}
	if got.Description != "Groceries" || got.Amount.Cents != 4250 {
		t.Errorf("GetExpense() = %+v, want description Groceries amount 4250", got)
	}
	if got.Date.Year() != 2025 || got.Date.Month() != 3 || got.Date.Day() != 14 {
		t.Errorf("GetExpense() date = %v, want 2025-03-14", got.Date)
	}

	if _, err := repo.GetExpense(ctx, 99999); err == nil {
		t.Error("GetExpense() with unknown id should fail")
	}
}

func TestSQLiteRepository_ListExpensesScopedByOwner(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, e := range []core.Expense{
		{OwnerID: "alice", Date: core.NewDate(2025, 1, 5), Description: "Coffee", Amount: core.Money{Cents: 350}, Category: "Food", Flow: core.FlowExpense},
		{OwnerID: "alice", Date: core.NewDate(2025, 1, 10), Description: "Rent", Amount: core.Money{Cents: 90000}, Category: "Home", Flow: core.FlowExpense},
		{OwnerID: "bob", Date: core.NewDate(2025, 1, 7), Description: "Books", Amount: core.Money{Cents: 2100}, Category: "Fun", Flow: core.FlowExpense},
	} {
		if _, err := repo.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}

	expenses, err := repo.ListExpenses(ctx, "alice")
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("ListExpenses() = %d expenses, want 2", len(expenses))
	}
	// Newest first.
	if expenses[0].Description != "Rent" {
		t.Errorf("ListExpenses()[0] = %s, want Rent", expenses[0].Description)
	}
}

func TestSQLiteRepository_MonthOverview(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, e := range []core.Expense{
		{OwnerID: "alice", Date: core.NewDate(2025, 2, 1), Description: "Groceries", Amount: core.Money{Cents: 3000}, Category: "Food", Flow: core.FlowExpense},
		{OwnerID: "alice", Date: core.NewDate(2025, 2, 15), Description: "Dinner", Amount: core.Money{Cents: 5000}, Category: "Food", Flow: core.FlowExpense},
		{OwnerID: "alice", Date: core.NewDate(2025, 2, 20), Description: "Bus", Amount: core.Money{Cents: 200}, Category: "Transport", Flow: core.FlowExpense},
		{OwnerID: "alice", Date: core.NewDate(2025, 2, 28), Description: "Salary", Amount: core.Money{Cents: 250000}, Category: "Work", Flow: core.FlowIncome},
		{OwnerID: "alice", Date: core.NewDate(2025, 3, 1), Description: "Other month", Amount: core.Money{Cents: 999}, Category: "Food", Flow: core.FlowExpense},
	} {
		if _, err := repo.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}

	overview, err := repo.ReadMonthOverview(ctx, "alice", 2025, 2)
	if err != nil {
		t.Fatalf("ReadMonthOverview() error = %v", err)
	}
	// Income and other months excluded.
	if overview.Total.Cents != 8200 {
		t.Errorf("ReadMonthOverview() total = %d, want 8200", overview.Total.Cents)
	}
	if len(overview.ByCategory) != 2 {
		t.Fatalf("ReadMonthOverview() categories = %d, want 2", len(overview.ByCategory))
	}
	if overview.ByCategory[0].Name != "Food" || overview.ByCategory[0].Amount.Cents != 8000 {
		t.Errorf("ReadMonthOverview() top category = %+v, want Food 8000", overview.ByCategory[0])
	}
}

func TestSQLiteRepository_Relationships(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rel := core.Relationship{
		ID:              "rel-1",
		Requester:       core.Party{ID: "alice"},
		Recipient:       core.Party{ID: "bob"},
		RequesterAccess: core.AccessRead,
		RecipientAccess: core.AccessFull,
	}
	if err := repo.SaveRelationship(ctx, rel); err != nil {
		t.Fatalf("SaveRelationship() error = %v", err)
	}

	// Lookup works from either direction.
	got, err := repo.GetRelationshipBetween(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("GetRelationshipBetween() error = %v", err)
	}
	if got == nil || got.RequesterAccess != core.AccessRead {
		t.Fatalf("GetRelationshipBetween(alice, bob) = %+v, want requester access read", got)
	}

	got, err = repo.GetRelationshipBetween(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("GetRelationshipBetween() error = %v", err)
	}
	if got == nil || got.RecipientAccess != core.AccessFull {
		t.Fatalf("GetRelationshipBetween(bob, alice) = %+v, want recipient access full", got)
	}

	// Missing relationship is nil, nil.
	got, err = repo.GetRelationshipBetween(ctx, "alice", "carol")
	if err != nil {
		t.Fatalf("GetRelationshipBetween() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetRelationshipBetween(alice, carol) = %+v, want nil", got)
	}

	// Upsert on the same pair updates grants in place.
	rel.RequesterAccess = core.AccessWrite
	if err := repo.SaveRelationship(ctx, rel); err != nil {
		t.Fatalf("SaveRelationship() upsert error = %v", err)
	}
	rels, err := repo.ListRelationships(ctx, "alice")
	if err != nil {
		t.Fatalf("ListRelationships() error = %v", err)
	}
	if len(rels) != 1 || rels[0].RequesterAccess != core.AccessWrite {
		t.Errorf("ListRelationships() = %+v, want one relationship with requester access write", rels)
	}
}

func TestSQLiteRepository_LayoutStore(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	// Nothing persisted yet.
	sections, err := repo.LoadLayout(ctx, "alice", "expenses")
	if err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}
	if sections != nil {
		t.Errorf("LoadLayout() = %+v, want nil for missing layout", sections)
	}

	saved := []layout.Section{
		{ID: "summary", Name: "Summary", Visible: true, Type: layout.SectionFull},
		{ID: "chart", Name: "Chart", Visible: false, Type: layout.SectionHalf},
	}
	if err := repo.SaveLayout(ctx, "alice", "expenses", saved); err != nil {
		t.Fatalf("SaveLayout() error = %v", err)
	}

	sections, err = repo.LoadLayout(ctx, "alice", "expenses")
	if err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}
	if !layout.Equal(sections, saved) {
		t.Errorf("LoadLayout() = %+v, want %+v", sections, saved)
	}

	// Saves mark the row dirty for the sync worker.
	dirty, err := repo.ListDirtyLayouts(ctx, 10)
	if err != nil {
		t.Fatalf("ListDirtyLayouts() error = %v", err)
	}
	if len(dirty) != 1 || dirty[0].OwnerID != "alice" || dirty[0].ReportType != "expenses" {
		t.Fatalf("ListDirtyLayouts() = %+v, want one dirty row for alice/expenses", dirty)
	}

	if err := repo.MarkLayoutSynced(ctx, "alice", "expenses"); err != nil {
		t.Fatalf("MarkLayoutSynced() error = %v", err)
	}
	dirty, err = repo.ListDirtyLayouts(ctx, 10)
	if err != nil {
		t.Fatalf("ListDirtyLayouts() error = %v", err)
	}
	if len(dirty) != 0 {
		t.Errorf("ListDirtyLayouts() after sync = %+v, want empty", dirty)
	}

	// Re-saving dirties it again.
	if err := repo.SaveLayout(ctx, "alice", "expenses", saved); err != nil {
		t.Fatalf("SaveLayout() error = %v", err)
	}
	dirty, _ = repo.ListDirtyLayouts(ctx, 10)
	if len(dirty) != 1 {
		t.Errorf("ListDirtyLayouts() after re-save = %d rows, want 1", len(dirty))
	}

	if err := repo.DeleteLayout(ctx, "alice", "expenses"); err != nil {
		t.Fatalf("DeleteLayout() error = %v", err)
	}
	sections, err = repo.LoadLayout(ctx, "alice", "expenses")
	if err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}
	if sections != nil {
		t.Errorf("LoadLayout() after delete = %+v, want nil", sections)
	}
}

func TestSQLiteRepository_ExportQueue(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	e := core.Expense{
		OwnerID:     "alice",
		Date:        core.NewDate(2025, 4, 2),
		Description: "Taxi",
		Amount:      core.Money{Cents: 1800},
		Category:    "Transport",
		Flow:        core.FlowExpense,
	}
	saved, err := repo.CreateExpense(ctx, e)
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	pending, err := repo.GetPendingExportExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingExportExpenses() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != saved.ID {
		t.Fatalf("GetPendingExportExpenses() = %+v, want new expense pending", pending)
	}

	if err := repo.MarkExported(ctx, saved.ID); err != nil {
		t.Fatalf("MarkExported() error = %v", err)
	}
	pending, _ = repo.GetPendingExportExpenses(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("GetPendingExportExpenses() after export = %+v, want empty", pending)
	}

	if err := repo.MarkExportError(ctx, saved.ID); err != nil {
		t.Fatalf("MarkExportError() error = %v", err)
	}
}
