package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendshare/internal/services"
)

// handleExpenseReport answers a filtered, paginated expense report query.
// The owner defaults to the viewer; reading another user's rows requires a
// matching access grant.
func (s *Server) handleExpenseReport(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}

	q, err := ParseReportQuery(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	page, err := s.reports.GetExpenses(r.Context(), viewer, q)
	if err != nil {
		if errors.Is(err, services.ErrAccessDenied) {
			ForbiddenError("access denied").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Expense report failed",
			"viewer_id", viewer, "error", err)
		InternalServerError("could not build report").Write(w)
		return
	}

	NewJSONResponse().Body(page).Write(w)
}

// handleOverview returns one month's category totals for the requested
// owner, defaulting to the current month and the viewer's own data.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}

	query := r.URL.Query()
	ownerID := sanitizeInput(query.Get("ownerId"))

	now := time.Now()
	year := now.Year()
	month := int(now.Month())
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			BadRequestError("invalid year: " + v).Write(w)
			return
		}
		year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			BadRequestError("invalid month: " + v).Write(w)
			return
		}
		month = m
	}

	overview, err := s.reports.GetOverview(r.Context(), viewer, ownerID, year, month)
	if err != nil {
		if errors.Is(err, services.ErrAccessDenied) {
			ForbiddenError("access denied").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Month overview failed",
			"viewer_id", viewer, "owner_id", ownerID,
			"year", year, "month", month, "error", err)
		InternalServerError("could not build overview").Write(w)
		return
	}

	NewJSONResponse().Body(overview).Write(w)
}
