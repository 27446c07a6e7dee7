package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendshare/internal/core"
)

// ErrInvalidExpense marks rejections that are the caller's fault rather
// than a storage failure.
var ErrInvalidExpense = errors.New("invalid expense")

// ExpenseService orchestrates expense writes: local persistence first, then
// best-effort export publication. The local write is the source of truth; a
// dead broker never fails the request.
type ExpenseService struct {
	store     ExpenseStore
	access    *AccessService
	publisher SyncPublisher
	reports   *ReportService
}

func NewExpenseService(store ExpenseStore, access *AccessService, publisher SyncPublisher, reports *ReportService) *ExpenseService {
	return &ExpenseService{
		store:     store,
		access:    access,
		publisher: publisher,
		reports:   reports,
	}
}

// CreateExpense saves an expense locally and publishes an export message.
// Writing into another user's data requires write-level access.
func (s *ExpenseService) CreateExpense(ctx context.Context, viewerID string, e core.Expense) (core.Expense, error) {
	if e.OwnerID == "" {
		e.OwnerID = viewerID
	}
	if e.Flow == "" {
		e.Flow = core.FlowExpense
	}

	resolution, err := s.access.Resolve(ctx, viewerID, e.OwnerID)
	if err != nil {
		return core.Expense{}, err
	}
	if !resolution.CanWrite {
		return core.Expense{}, fmt.Errorf("%w: viewer %s cannot write data of %s", ErrAccessDenied, viewerID, e.OwnerID)
	}

	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %v", ErrInvalidExpense, err)
	}

	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if s.reports != nil {
		s.reports.Invalidate()
	}

	// Publish async export message (non-blocking, version 1 for new expense)
	if s.publisher != nil {
		if err := s.publisher.PublishExpenseExport(ctx, saved.ID, 1); err != nil {
			slog.ErrorContext(ctx, "Failed to publish export message",
				"id", saved.ID, "error", err)
			// Don't fail the request - expense is saved locally
		}
	}

	return saved, nil
}
