package http

import (
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"spendshare/internal/core"
	"spendshare/internal/services"
)

// handleCreateExpense records a new expense. Writing to another user's
// ledger requires a write-level grant; the owner defaults to the viewer.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}

	var expense core.Expense
	if err := DecodeJSON(w, r, &expense); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	expense.Description = sanitizeInput(expense.Description)
	expense.Category = sanitizeInput(expense.Category)
	expense.Subcategory = sanitizeInput(expense.Subcategory)

	saved, err := s.expenses.CreateExpense(r.Context(), viewer, expense)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccessDenied):
			ForbiddenError("access denied").Write(w)
		case errors.Is(err, services.ErrInvalidExpense):
			UnprocessableEntityError(err.Error()).Write(w)
		default:
			slog.ErrorContext(r.Context(), "Expense creation failed",
				"viewer_id", viewer, "error", err)
			InternalServerError("could not save expense").Write(w)
		}
		return
	}

	atomic.AddInt64(&s.metrics.totalExpenses, 1)

	NewJSONResponse().Status(http.StatusCreated).Body(saved).Write(w)
}
