package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"spendshare/internal/layout"
)

var (
	ErrUnknownReportType = errors.New("unknown report type")
	ErrUnknownSection    = errors.New("unknown section")
	ErrBadPosition       = errors.New("position out of range")
)

// DefaultTemplates returns the authoritative section templates per report
// type. Persisted layouts can reorder and toggle these sections but never
// change their names, types or id set.
func DefaultTemplates() map[string][]layout.Section {
	return map[string][]layout.Section{
		"expenses": {
			{ID: "summary", Name: "Summary", Visible: true, Type: layout.SectionFull},
			{ID: "monthly-trend", Name: "Monthly Trend", Visible: true, Type: layout.SectionHalf},
			{ID: "category-breakdown", Name: "Category Breakdown", Visible: true, Type: layout.SectionHalf},
			{ID: "recent-transactions", Name: "Recent Transactions", Visible: true, Type: layout.SectionBottom},
			{ID: "shared-with-me", Name: "Shared With Me", Visible: false, Type: layout.SectionBottom},
		},
		"incomes": {
			{ID: "summary", Name: "Summary", Visible: true, Type: layout.SectionFull},
			{ID: "sources", Name: "Income Sources", Visible: true, Type: layout.SectionHalf},
			{ID: "monthly-trend", Name: "Monthly Trend", Visible: true, Type: layout.SectionHalf},
			{ID: "recent-transactions", Name: "Recent Transactions", Visible: true, Type: layout.SectionBottom},
		},
		"overview": {
			{ID: "balance", Name: "Balance", Visible: true, Type: layout.SectionFull},
			{ID: "top-categories", Name: "Top Categories", Visible: true, Type: layout.SectionHalf},
			{ID: "cashflow", Name: "Cash Flow", Visible: true, Type: layout.SectionHalf},
		},
	}
}

// LayoutService manages per-user report layouts with local-first writes.
// Reads merge the default template with whatever the local and remote stores
// hold; writes land locally and are synced to the remote by the worker via
// the publish queue. A slow or dead remote never blocks a user mutation.
type LayoutService struct {
	templates map[string][]layout.Section
	local     layout.LocalStore
	remote    layout.RemoteStore
	publisher SyncPublisher
}

func NewLayoutService(local layout.LocalStore, remote layout.RemoteStore, publisher SyncPublisher) *LayoutService {
	return &LayoutService{
		templates: DefaultTemplates(),
		local:     local,
		remote:    remote,
		publisher: publisher,
	}
}

// Template returns a copy of the default template for a report type.
func (s *LayoutService) Template(reportType string) ([]layout.Section, error) {
	tmpl, ok := s.templates[reportType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReportType, reportType)
	}
	return layout.Clone(tmpl), nil
}

// Get resolves the effective layout for one owner and report type. Local and
// remote state are fetched concurrently; a remote failure degrades to
// local-plus-template rather than failing the read.
func (s *LayoutService) Get(ctx context.Context, ownerID, reportType string) ([]layout.Section, error) {
	tmpl, ok := s.templates[reportType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReportType, reportType)
	}

	var local, remote []layout.Section
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sections, err := s.local.LoadLayout(gctx, ownerID, reportType)
		if err != nil {
			return fmt.Errorf("load local layout: %w", err)
		}
		local = sections
		return nil
	})
	g.Go(func() error {
		if s.remote == nil {
			return nil
		}
		sections, err := s.remote.FetchLayout(gctx, ownerID, reportType)
		if err != nil {
			slog.WarnContext(gctx, "Remote layout fetch failed, using local state",
				"owner_id", ownerID,
				"report_type", reportType,
				"error", err)
			return nil
		}
		remote = sections
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return layout.Merge(tmpl, local, remote), nil
}

// Save persists a full section list for one owner and report type. The list
// is sanitized against the template first so clients cannot invent sections.
func (s *LayoutService) Save(ctx context.Context, ownerID, reportType string, sections []layout.Section) ([]layout.Section, error) {
	tmpl, ok := s.templates[reportType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReportType, reportType)
	}

	sanitized := layout.Sanitize(tmpl, sections)
	if err := s.persist(ctx, ownerID, reportType, sanitized); err != nil {
		return nil, err
	}
	return sanitized, nil
}

// ToggleVisibility flips one section's visibility and persists the result.
func (s *LayoutService) ToggleVisibility(ctx context.Context, ownerID, reportType, sectionID string) ([]layout.Section, error) {
	current, err := s.Get(ctx, ownerID, reportType)
	if err != nil {
		return nil, err
	}

	toggled, found := layout.Toggle(current, sectionID)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}

	if err := s.persist(ctx, ownerID, reportType, toggled); err != nil {
		return nil, err
	}
	return toggled, nil
}

// Reorder moves a section from one position to another and persists the
// result. Out-of-range positions are rejected without touching stored state.
func (s *LayoutService) Reorder(ctx context.Context, ownerID, reportType string, from, to int) ([]layout.Section, error) {
	current, err := s.Get(ctx, ownerID, reportType)
	if err != nil {
		return nil, err
	}

	reordered, ok := layout.Reorder(current, from, to)
	if !ok {
		return nil, fmt.Errorf("%w: from=%d to=%d len=%d", ErrBadPosition, from, to, len(current))
	}

	if err := s.persist(ctx, ownerID, reportType, reordered); err != nil {
		return nil, err
	}
	return reordered, nil
}

// Reset restores the default template. The default is persisted explicitly so
// the remote store converges on it through the same sync path as any other
// save.
func (s *LayoutService) Reset(ctx context.Context, ownerID, reportType string) ([]layout.Section, error) {
	tmpl, err := s.Template(reportType)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, ownerID, reportType, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// persist writes locally, then enqueues the remote sync. The publish is best
// effort: the dirty flag set by the local save lets the worker's periodic
// sweep pick the layout up even if the message never lands.
func (s *LayoutService) persist(ctx context.Context, ownerID, reportType string, sections []layout.Section) error {
	if err := s.local.SaveLayout(ctx, ownerID, reportType, sections); err != nil {
		return fmt.Errorf("save layout: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLayoutSync(ctx, ownerID, reportType); err != nil {
			slog.ErrorContext(ctx, "Failed to publish layout sync message",
				"owner_id", ownerID,
				"report_type", reportType,
				"error", err)
			// Don't fail the request - layout is saved locally
		}
	}
	return nil
}
