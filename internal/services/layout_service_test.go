package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"spendshare/internal/layout"
	"spendshare/internal/storage/memory"
)

type fakeRemote struct {
	mu      sync.Mutex
	layouts map[string][]layout.Section
	fail    bool
	fetches int
	pushes  int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{layouts: make(map[string][]layout.Section)}
}

func (f *fakeRemote) FetchLayout(_ context.Context, ownerID, reportType string) ([]layout.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fail {
		return nil, errors.New("remote unavailable")
	}
	return layout.Clone(f.layouts[ownerID+"/"+reportType]), nil
}

func (f *fakeRemote) PushLayout(_ context.Context, ownerID, reportType string, sections []layout.Section) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes++
	if f.fail {
		return errors.New("remote unavailable")
	}
	f.layouts[ownerID+"/"+reportType] = layout.Clone(sections)
	return nil
}

type fakePublisher struct {
	mu      sync.Mutex
	fail    bool
	layouts []string
	exports []int64
}

func (f *fakePublisher) PublishLayoutSync(_ context.Context, ownerID, reportType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker down")
	}
	f.layouts = append(f.layouts, ownerID+"/"+reportType)
	return nil
}

func (f *fakePublisher) PublishExpenseExport(_ context.Context, id, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker down")
	}
	f.exports = append(f.exports, id)
	return nil
}

func TestLayoutService_GetDefaultsToTemplate(t *testing.T) {
	svc := NewLayoutService(memory.New(), newFakeRemote(), &fakePublisher{})
	ctx := context.Background()

	got, err := svc.Get(ctx, "alice", "expenses")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	tmpl, _ := svc.Template("expenses")
	if !layout.Equal(got, tmpl) {
		t.Errorf("Get() with no persisted state = %+v, want template", got)
	}
}

func TestLayoutService_UnknownReportType(t *testing.T) {
	svc := NewLayoutService(memory.New(), nil, nil)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "alice", "mystery"); !errors.Is(err, ErrUnknownReportType) {
		t.Errorf("Get() error = %v, want ErrUnknownReportType", err)
	}
	if _, err := svc.Save(ctx, "alice", "mystery", nil); !errors.Is(err, ErrUnknownReportType) {
		t.Errorf("Save() error = %v, want ErrUnknownReportType", err)
	}
}

func TestLayoutService_RemotePrecedence(t *testing.T) {
	store := memory.New()
	remote := newFakeRemote()
	svc := NewLayoutService(store, remote, &fakePublisher{})
	ctx := context.Background()

	tmpl, _ := svc.Template("overview")

	// Local hides top-categories, remote hides cashflow and reorders.
	local := layout.Clone(tmpl)
	local[1].Visible = false
	store.SaveLayout(ctx, "alice", "overview", local)

	remoteSections := []layout.Section{
		{ID: "cashflow", Visible: false},
		{ID: "balance", Visible: true},
		{ID: "top-categories", Visible: true},
	}
	remote.layouts["alice/overview"] = remoteSections

	got, err := svc.Get(ctx, "alice", "overview")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got[0].ID != "cashflow" || got[1].ID != "balance" || got[2].ID != "top-categories" {
		t.Errorf("Get() order = %v, want remote order", sectionIDs(got))
	}
	// Remote visibility wins over local.
	if got[2].Visible != true {
		t.Error("Get() top-categories should be visible per remote, not hidden per local")
	}
	if got[0].Visible != false {
		t.Error("Get() cashflow should be hidden per remote")
	}
	// Name and type restored from the template.
	if got[1].Name != "Balance" || got[1].Type != layout.SectionFull {
		t.Errorf("Get() balance shape = %+v, want template name/type", got[1])
	}
}

func TestLayoutService_RemoteFailureDegradesToLocal(t *testing.T) {
	store := memory.New()
	remote := newFakeRemote()
	remote.fail = true
	svc := NewLayoutService(store, remote, &fakePublisher{})
	ctx := context.Background()

	tmpl, _ := svc.Template("expenses")
	local := layout.Clone(tmpl)
	local[0].Visible = false
	store.SaveLayout(ctx, "alice", "expenses", local)

	got, err := svc.Get(ctx, "alice", "expenses")
	if err != nil {
		t.Fatalf("Get() with failing remote error = %v", err)
	}
	if got[0].Visible {
		t.Error("Get() should keep local visibility when the remote fails")
	}
}

func TestLayoutService_ToggleVisibility(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewLayoutService(store, newFakeRemote(), pub)
	ctx := context.Background()

	got, err := svc.ToggleVisibility(ctx, "alice", "expenses", "summary")
	if err != nil {
		t.Fatalf("ToggleVisibility() error = %v", err)
	}
	if got[0].ID != "summary" || got[0].Visible {
		t.Errorf("ToggleVisibility() = %+v, want summary hidden", got[0])
	}

	// Persisted locally and sync enqueued.
	stored, _ := store.LoadLayout(ctx, "alice", "expenses")
	if !layout.Equal(stored, got) {
		t.Error("ToggleVisibility() did not persist the toggled layout")
	}
	if len(pub.layouts) != 1 || pub.layouts[0] != "alice/expenses" {
		t.Errorf("ToggleVisibility() published %v, want one alice/expenses sync", pub.layouts)
	}

	// Toggling twice restores the original state.
	got, err = svc.ToggleVisibility(ctx, "alice", "expenses", "summary")
	if err != nil {
		t.Fatalf("ToggleVisibility() error = %v", err)
	}
	if !got[0].Visible {
		t.Error("ToggleVisibility() twice should restore visibility")
	}

	if _, err := svc.ToggleVisibility(ctx, "alice", "expenses", "nope"); !errors.Is(err, ErrUnknownSection) {
		t.Errorf("ToggleVisibility() unknown id error = %v, want ErrUnknownSection", err)
	}
}

func TestLayoutService_Reorder(t *testing.T) {
	store := memory.New()
	svc := NewLayoutService(store, newFakeRemote(), &fakePublisher{})
	ctx := context.Background()

	got, err := svc.Reorder(ctx, "alice", "expenses", 0, 2)
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	if got[2].ID != "summary" {
		t.Errorf("Reorder(0, 2) = %v, want summary at index 2", sectionIDs(got))
	}

	// Out-of-range positions are rejected and nothing is persisted over the
	// previous state.
	if _, err := svc.Reorder(ctx, "alice", "expenses", 0, 99); !errors.Is(err, ErrBadPosition) {
		t.Errorf("Reorder() out of range error = %v, want ErrBadPosition", err)
	}
	stored, _ := store.LoadLayout(ctx, "alice", "expenses")
	if !layout.Equal(stored, got) {
		t.Error("rejected Reorder() must not change persisted state")
	}
}

func TestLayoutService_OptimisticWriteSurvivesBrokerOutage(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{fail: true}
	svc := NewLayoutService(store, newFakeRemote(), pub)
	ctx := context.Background()

	got, err := svc.ToggleVisibility(ctx, "alice", "expenses", "chart")
	if !errors.Is(err, ErrUnknownSection) {
		t.Fatalf("ToggleVisibility() unknown section error = %v", err)
	}

	got, err = svc.ToggleVisibility(ctx, "alice", "expenses", "summary")
	if err != nil {
		t.Fatalf("ToggleVisibility() with dead broker error = %v", err)
	}
	if got[0].Visible {
		t.Error("ToggleVisibility() should apply locally even when publish fails")
	}

	// The dirty flag keeps the layout queued for the periodic sweep.
	dirty, _ := store.ListDirtyLayouts(ctx, 10)
	if len(dirty) != 1 {
		t.Errorf("dirty layouts = %d, want 1 awaiting sync", len(dirty))
	}
}

func TestLayoutService_SaveSanitizes(t *testing.T) {
	store := memory.New()
	svc := NewLayoutService(store, newFakeRemote(), &fakePublisher{})
	ctx := context.Background()

	got, err := svc.Save(ctx, "alice", "overview", []layout.Section{
		{ID: "invented", Name: "Hacked", Visible: true, Type: layout.SectionFull},
		{ID: "cashflow", Name: "Renamed", Visible: false, Type: layout.SectionFull},
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	ids := sectionIDs(got)
	if ids[0] != "cashflow" {
		t.Errorf("Save() order = %v, want cashflow first", ids)
	}
	for _, s := range got {
		if s.ID == "invented" {
			t.Error("Save() must drop sections absent from the template")
		}
		if s.ID == "cashflow" {
			if s.Name != "Cash Flow" || s.Type != layout.SectionHalf {
				t.Errorf("Save() cashflow shape = %+v, want template name/type", s)
			}
			if s.Visible {
				t.Error("Save() should keep the client's visibility for known sections")
			}
		}
	}
	if len(got) != 3 {
		t.Errorf("Save() = %d sections, want all 3 template sections", len(got))
	}
}

func TestLayoutService_Reset(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewLayoutService(store, newFakeRemote(), pub)
	ctx := context.Background()

	if _, err := svc.ToggleVisibility(ctx, "alice", "expenses", "summary"); err != nil {
		t.Fatalf("ToggleVisibility() error = %v", err)
	}

	got, err := svc.Reset(ctx, "alice", "expenses")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	tmpl, _ := svc.Template("expenses")
	if !layout.Equal(got, tmpl) {
		t.Errorf("Reset() = %v, want template", sectionIDs(got))
	}

	after, err := svc.Get(ctx, "alice", "expenses")
	if err != nil {
		t.Fatalf("Get() after reset error = %v", err)
	}
	if !layout.Equal(after, tmpl) {
		t.Error("Get() after Reset() should return the default template")
	}
}

func sectionIDs(sections []layout.Section) []string {
	ids := make([]string, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	return ids
}
