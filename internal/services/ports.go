package services

import (
	"context"

	"spendshare/internal/core"
)

// ExpenseStore is the persistence surface the expense and report services
// consume. Both the SQLite repository and the memory store satisfy it.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error)
	ReadMonthOverview(ctx context.Context, ownerID string, year, month int) (core.MonthOverview, error)
}

// RelationshipStore resolves and mutates sharing relationships.
type RelationshipStore interface {
	GetRelationshipBetween(ctx context.Context, viewerID, targetID string) (*core.Relationship, error)
	ListRelationships(ctx context.Context, partyID string) ([]core.Relationship, error)
	SaveRelationship(ctx context.Context, rel core.Relationship) error
}

// SyncPublisher enqueues background work for the sync worker. Publishing is
// best effort: local writes never fail because the broker is down.
type SyncPublisher interface {
	PublishLayoutSync(ctx context.Context, ownerID, reportType string) error
	PublishExpenseExport(ctx context.Context, id, version int64) error
}
