package http

import (
	"errors"
	"log/slog"
	"net/http"

	"spendshare/internal/layout"
	"spendshare/internal/services"
)

type layoutResponse struct {
	ReportType string           `json:"reportType"`
	Sections   []layout.Section `json:"sections"`
}

// handleGetLayout returns the caller's effective section layout for one
// report type: template shape with local and remote preferences merged in.
func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}
	reportType := r.PathValue("reportType")

	sections, err := s.layouts.Get(r.Context(), viewer, reportType)
	if err != nil {
		s.writeLayoutError(w, r, err, viewer, reportType)
		return
	}

	NewJSONResponse().Body(layoutResponse{ReportType: reportType, Sections: sections}).Write(w)
}

// handleLayoutTemplate returns the pristine template for a report type.
func (s *Server) handleLayoutTemplate(w http.ResponseWriter, r *http.Request) {
	reportType := r.PathValue("reportType")

	sections, err := s.layouts.Template(reportType)
	if err != nil {
		NotFoundError("unknown report type: " + reportType).Write(w)
		return
	}

	NewJSONResponse().Body(layoutResponse{ReportType: reportType, Sections: sections}).Write(w)
}

// handleSaveLayout replaces the caller's layout with the submitted sections.
// Unknown sections are dropped and template names and types restored before
// persisting.
func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}
	reportType := r.PathValue("reportType")

	var body struct {
		Sections []layout.Section `json:"sections"`
	}
	if err := DecodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	sections, err := s.layouts.Save(r.Context(), viewer, reportType, body.Sections)
	if err != nil {
		s.writeLayoutError(w, r, err, viewer, reportType)
		return
	}

	NewJSONResponse().Body(layoutResponse{ReportType: reportType, Sections: sections}).Write(w)
}

// handleToggleSection flips one section's visibility.
func (s *Server) handleToggleSection(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}
	reportType := r.PathValue("reportType")

	var body struct {
		SectionID string `json:"sectionId"`
	}
	if err := DecodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if body.SectionID == "" {
		BadRequestError("sectionId is required").Write(w)
		return
	}

	sections, err := s.layouts.ToggleVisibility(r.Context(), viewer, reportType, body.SectionID)
	if err != nil {
		s.writeLayoutError(w, r, err, viewer, reportType)
		return
	}

	NewJSONResponse().Body(layoutResponse{ReportType: reportType, Sections: sections}).Write(w)
}

// handleReorderSection moves a section from one position to another.
func (s *Server) handleReorderSection(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}
	reportType := r.PathValue("reportType")

	var body struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := DecodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	sections, err := s.layouts.Reorder(r.Context(), viewer, reportType, body.From, body.To)
	if err != nil {
		s.writeLayoutError(w, r, err, viewer, reportType)
		return
	}

	NewJSONResponse().Body(layoutResponse{ReportType: reportType, Sections: sections}).Write(w)
}

// handleResetLayout discards the caller's customizations for a report type.
func (s *Server) handleResetLayout(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerID(r)
	if viewer == "" {
		UnauthorizedError("missing X-User-ID header").Write(w)
		return
	}
	reportType := r.PathValue("reportType")

	sections, err := s.layouts.Reset(r.Context(), viewer, reportType)
	if err != nil {
		s.writeLayoutError(w, r, err, viewer, reportType)
		return
	}

	NewJSONResponse().Body(layoutResponse{ReportType: reportType, Sections: sections}).Write(w)
}

func (s *Server) writeLayoutError(w http.ResponseWriter, r *http.Request, err error, viewer, reportType string) {
	switch {
	case errors.Is(err, services.ErrUnknownReportType):
		NotFoundError("unknown report type: " + reportType).Write(w)
	case errors.Is(err, services.ErrUnknownSection):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, services.ErrBadPosition):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		slog.ErrorContext(r.Context(), "Layout operation failed",
			"viewer_id", viewer, "report_type", reportType, "error", err)
		InternalServerError("layout operation failed").Write(w)
	}
}
