// Package memory is an in-process store with the same surface as the SQLite
// repository. It backs tests and the memory data backend; nothing here
// survives a restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"spendshare/internal/core"
	"spendshare/internal/layout"
	"spendshare/internal/storage"
)

type layoutKey struct {
	ownerID    string
	reportType string
}

type layoutRow struct {
	sections  []layout.Section
	dirty     bool
	updatedAt time.Time
}

type expenseRow struct {
	expense   core.Expense
	exported  bool
	exportErr bool
	version   int64
	createdAt time.Time
}

type Store struct {
	mu       sync.Mutex
	nextID   int64
	expenses []expenseRow
	rels     map[string]core.Relationship
	layouts  map[layoutKey]layoutRow
}

func New() *Store {
	return &Store{
		rels:    make(map[string]core.Relationship),
		layouts: make(map[layoutKey]layoutRow),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.expenses = append(s.expenses, expenseRow{
		expense:   e,
		version:   1,
		createdAt: time.Now(),
	})
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.expenses {
		if row.expense.ID == id {
			return row.expense, nil
		}
	}
	return core.Expense{}, fmt.Errorf("expense %d not found", id)
}

func (s *Store) ListExpenses(_ context.Context, ownerID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	// Newest first, matching the SQLite ordering.
	for i := len(s.expenses) - 1; i >= 0; i-- {
		if s.expenses[i].expense.OwnerID == ownerID {
			out = append(out, s.expenses[i].expense)
		}
	}
	return out, nil
}

func (s *Store) ReadMonthOverview(_ context.Context, ownerID string, year, month int) (core.MonthOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	overview := core.MonthOverview{OwnerID: ownerID, Year: year, Month: month}
	byCategory := make(map[string]int64)
	var order []string

	for _, row := range s.expenses {
		e := row.expense
		if e.OwnerID != ownerID || e.Flow != core.FlowExpense {
			continue
		}
		if e.Date.Year() != year || e.Date.Month() != month {
			continue
		}
		overview.Total.Cents += e.Amount.Cents
		if _, ok := byCategory[e.Category]; !ok {
			order = append(order, e.Category)
		}
		byCategory[e.Category] += e.Amount.Cents
	}

	for _, name := range order {
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: byCategory[name]},
		})
	}
	return overview, nil
}

func relKey(a, b string) string {
	if a < b {
		return a + "\x00" + b
	}
	return b + "\x00" + a
}

func (s *Store) GetRelationshipBetween(_ context.Context, viewerID, targetID string) (*core.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, ok := s.rels[relKey(viewerID, targetID)]
	if !ok {
		return nil, nil
	}
	out := rel
	return &out, nil
}

func (s *Store) ListRelationships(_ context.Context, partyID string) ([]core.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Relationship
	for _, rel := range s.rels {
		if rel.Requester.ID == partyID || rel.Recipient.ID == partyID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (s *Store) SaveRelationship(_ context.Context, rel core.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel.RequesterAccess = core.ParseAccessLevel(string(rel.RequesterAccess))
	rel.RecipientAccess = core.ParseAccessLevel(string(rel.RecipientAccess))
	s.rels[relKey(rel.Requester.ID, rel.Recipient.ID)] = rel
	return nil
}

func (s *Store) LoadLayout(_ context.Context, ownerID, reportType string) ([]layout.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.layouts[layoutKey{ownerID, reportType}]
	if !ok {
		return nil, nil
	}
	return layout.Clone(row.sections), nil
}

func (s *Store) SaveLayout(_ context.Context, ownerID, reportType string, sections []layout.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[layoutKey{ownerID, reportType}] = layoutRow{
		sections:  layout.Clone(sections),
		dirty:     true,
		updatedAt: time.Now(),
	}
	return nil
}

func (s *Store) DeleteLayout(_ context.Context, ownerID, reportType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layouts, layoutKey{ownerID, reportType})
	return nil
}

func (s *Store) ListDirtyLayouts(_ context.Context, limit int) ([]storage.DirtyLayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.DirtyLayout
	for key, row := range s.layouts {
		if !row.dirty {
			continue
		}
		out = append(out, storage.DirtyLayout{
			OwnerID:    key.ownerID,
			ReportType: key.reportType,
			Sections:   layout.Clone(row.sections),
			UpdatedAt:  row.updatedAt,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkLayoutSynced(_ context.Context, ownerID, reportType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := layoutKey{ownerID, reportType}
	if row, ok := s.layouts[key]; ok {
		row.dirty = false
		s.layouts[key] = row
	}
	return nil
}

func (s *Store) GetPendingExportExpenses(_ context.Context, limit int) ([]storage.PendingExportExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.PendingExportExpense
	for _, row := range s.expenses {
		if row.exported || row.exportErr {
			continue
		}
		out = append(out, storage.PendingExportExpense{
			ID:        row.expense.ID,
			Version:   row.version,
			CreatedAt: row.createdAt,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkExported(_ context.Context, id int64) error {
	return s.setExportState(id, true, false)
}

func (s *Store) MarkExportError(_ context.Context, id int64) error {
	return s.setExportState(id, false, true)
}

func (s *Store) setExportState(id int64, exported, exportErr bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].expense.ID == id {
			s.expenses[i].exported = exported
			s.expenses[i].exportErr = exportErr
			return nil
		}
	}
	return fmt.Errorf("expense %d not found", id)
}
