package http

import (
	"errors"
	"log/slog"
	"net/http"

	"spendshare/internal/core"
	"spendshare/internal/services"
)

// handleResolveAccess reports the caller's effective access against a target
// user. An absent or self target resolves to full own-data access.
func (s *Server) handleResolveAccess(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}

	target := sanitizeInput(r.URL.Query().Get("target"))

	resolution, err := s.access.Resolve(r.Context(), viewer, target)
	if err != nil {
		slog.ErrorContext(r.Context(), "Access resolution failed",
			"viewer_id", viewer, "target_id", target, "error", err)
		InternalServerError("could not resolve access").Write(w)
		return
	}

	NewJSONResponse().Body(resolution).Write(w)
}

// handleListGrants returns every sharing relationship the caller is part of.
func (s *Server) handleListGrants(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}

	grants, err := s.access.ListGrants(r.Context(), viewer)
	if err != nil {
		slog.ErrorContext(r.Context(), "Grant listing failed",
			"viewer_id", viewer, "error", err)
		InternalServerError("could not list grants").Write(w)
		return
	}
	if grants == nil {
		grants = []core.Relationship{}
	}

	NewJSONResponse().Body(map[string]any{"grants": grants}).Write(w)
}

// handleSaveGrant creates or updates a sharing relationship the caller is
// part of.
func (s *Server) handleSaveGrant(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}

	var rel core.Relationship
	if err := DecodeJSON(w, r, &rel); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.access.SaveGrant(r.Context(), viewer, rel); err != nil {
		if errors.Is(err, services.ErrAccessDenied) {
			ForbiddenError("viewer is not a party of the relationship").Write(w)
			return
		}
		slog.WarnContext(r.Context(), "Grant save rejected",
			"viewer_id", viewer, "error", err)
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
