// Package worker drains the sync queue: layouts dirty in the local database
// are pushed to the remote layout store, and newly created expenses are
// appended to the external spreadsheet. AMQP messages drive the fast path;
// periodic sweeps over dirty rows recover anything the broker lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendshare/internal/amqp"
	"spendshare/internal/core"
	"spendshare/internal/layout"
	"spendshare/internal/sheets"
	"spendshare/internal/storage"
)

// Store is the slice of the repository the worker needs.
type Store interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	GetPendingExportExpenses(ctx context.Context, limit int) ([]storage.PendingExportExpense, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error

	LoadLayout(ctx context.Context, ownerID, reportType string) ([]layout.Section, error)
	ListDirtyLayouts(ctx context.Context, limit int) ([]storage.DirtyLayout, error)
	MarkLayoutSynced(ctx context.Context, ownerID, reportType string) error
}

// SyncWorker applies queued sync work against the remote layout store and
// the spreadsheet exporter. Either target may be absent; missing targets
// skip their messages instead of failing them.
type SyncWorker struct {
	store     Store
	remote    layout.RemoteStore
	exporter  sheets.ExpenseWriter
	batchSize int
}

func NewSyncWorker(store Store, remote layout.RemoteStore, exporter sheets.ExpenseWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		remote:    remote,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// Handlers returns the AMQP dispatch table for this worker.
func (w *SyncWorker) Handlers() amqp.Handlers {
	return amqp.Handlers{
		LayoutSync:    w.HandleLayoutSync,
		ExpenseExport: w.HandleExpenseExport,
	}
}

// HandleLayoutSync pushes one owner's layout to the remote store. The message
// carries only coordinates; the sections come from the local database so the
// latest state wins even when messages arrive out of order.
func (w *SyncWorker) HandleLayoutSync(ctx context.Context, msg *amqp.LayoutSyncMessage) error {
	slog.InfoContext(ctx, "Processing layout sync message",
		"owner_id", msg.OwnerID,
		"report_type", msg.ReportType)

	if w.remote == nil {
		slog.WarnContext(ctx, "No remote layout store configured, skipping sync",
			"owner_id", msg.OwnerID,
			"report_type", msg.ReportType)
		return nil
	}

	sections, err := w.store.LoadLayout(ctx, msg.OwnerID, msg.ReportType)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	if sections == nil {
		// Deleted since the message was published; nothing to push.
		slog.InfoContext(ctx, "Layout no longer exists locally, skipping sync",
			"owner_id", msg.OwnerID,
			"report_type", msg.ReportType)
		return nil
	}

	return w.pushLayout(ctx, msg.OwnerID, msg.ReportType, sections)
}

// HandleExpenseExport appends one expense to the external spreadsheet.
func (w *SyncWorker) HandleExpenseExport(ctx context.Context, msg *amqp.ExpenseExportMessage) error {
	slog.InfoContext(ctx, "Processing expense export message",
		"id", msg.ID,
		"version", msg.Version)

	if w.exporter == nil {
		slog.WarnContext(ctx, "No spreadsheet exporter configured, skipping export",
			"id", msg.ID)
		return nil
	}

	expense, err := w.store.GetExpense(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	return w.exportExpense(ctx, expense)
}

// ProcessDirtyLayouts sweeps layouts the fast path missed. Errors on one
// layout never block the rest of the batch.
func (w *SyncWorker) ProcessDirtyLayouts(ctx context.Context) error {
	if w.remote == nil {
		return nil
	}

	dirty, err := w.store.ListDirtyLayouts(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list dirty layouts: %w", err)
	}
	if len(dirty) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing dirty layouts", "count", len(dirty))

	for _, d := range dirty {
		if err := w.pushLayout(ctx, d.OwnerID, d.ReportType, d.Sections); err != nil {
			slog.ErrorContext(ctx, "Failed to push layout",
				"owner_id", d.OwnerID,
				"report_type", d.ReportType,
				"error", err)
		}
	}
	return nil
}

// ProcessPendingExports sweeps expenses awaiting spreadsheet export. This is
// the backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingExports(ctx context.Context) error {
	if w.exporter == nil {
		return nil
	}

	pending, err := w.store.GetPendingExportExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, p := range pending {
		expense, err := w.store.GetExpense(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get expense", "id", p.ID, "error", err)
			if err := w.store.MarkExportError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark export error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.exportExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense", "id", p.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupCatchUp drains whatever accumulated while the worker was down,
// using a larger batch than the periodic sweeps.
func (w *SyncWorker) StartupCatchUp(ctx context.Context) error {
	synced := 0
	failed := 0

	if w.remote != nil {
		dirty, err := w.store.ListDirtyLayouts(ctx, w.batchSize*5)
		if err != nil {
			return fmt.Errorf("list dirty layouts for startup: %w", err)
		}
		for _, d := range dirty {
			if err := w.pushLayout(ctx, d.OwnerID, d.ReportType, d.Sections); err != nil {
				slog.ErrorContext(ctx, "Failed to push layout during startup",
					"owner_id", d.OwnerID,
					"report_type", d.ReportType,
					"error", err)
				failed++
				continue
			}
			synced++
		}
	}

	if w.exporter != nil {
		pending, err := w.store.GetPendingExportExpenses(ctx, w.batchSize*5)
		if err != nil {
			return fmt.Errorf("get pending exports for startup: %w", err)
		}
		for _, p := range pending {
			expense, err := w.store.GetExpense(ctx, p.ID)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to get expense for startup export",
					"id", p.ID, "error", err)
				failed++
				continue
			}
			if err := w.exportExpense(ctx, expense); err != nil {
				slog.ErrorContext(ctx, "Failed to export expense during startup",
					"id", p.ID, "error", err)
				failed++
				continue
			}
			synced++
		}
	}

	slog.InfoContext(ctx, "Startup catch-up completed",
		"synced", synced,
		"errors", failed)
	return nil
}

// RunPeriodicSweeps runs the backup sweeps on a fixed interval until ctx is
// cancelled.
func (w *SyncWorker) RunPeriodicSweeps(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic sweeps", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := w.ProcessDirtyLayouts(ctx); err != nil {
				slog.ErrorContext(ctx, "Dirty layout sweep failed", "error", err)
			}
			if err := w.ProcessPendingExports(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending export sweep failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) pushLayout(ctx context.Context, ownerID, reportType string, sections []layout.Section) error {
	if err := w.remote.PushLayout(ctx, ownerID, reportType, sections); err != nil {
		return fmt.Errorf("push layout to remote: %w", err)
	}

	if err := w.store.MarkLayoutSynced(ctx, ownerID, reportType); err != nil {
		slog.ErrorContext(ctx, "Failed to mark layout synced",
			"owner_id", ownerID,
			"report_type", reportType,
			"error", err)
		// Don't fail - the push actually worked
	}

	slog.InfoContext(ctx, "Layout pushed to remote store",
		"owner_id", ownerID,
		"report_type", reportType,
		"sections", len(sections))
	return nil
}

func (w *SyncWorker) exportExpense(ctx context.Context, expense core.Expense) error {
	// Timestamp the description so identical expenses stay distinguishable
	// on the spreadsheet.
	stamped := expense
	stamped.Description = fmt.Sprintf("%s [ts:%d]", expense.Description, time.Now().UnixMilli())

	ref, err := w.exporter.Append(ctx, stamped)
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", expense.ID, "error", markErr)
		}
		return fmt.Errorf("append to spreadsheet: %w", err)
	}

	if err := w.store.MarkExported(ctx, expense.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", expense.ID, "error", err)
		// Don't return error here - the export actually worked
	}

	slog.InfoContext(ctx, "Successfully exported expense",
		"id", expense.ID,
		"sheets_ref", ref,
		"amount_cents", expense.Amount.Cents)
	return nil
}
