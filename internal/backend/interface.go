package backend

import (
	"context"

	"spendshare/internal/layout"
	"spendshare/internal/services"
	"spendshare/internal/storage"
)

// Store is the full storage surface the application needs from a data
// backend: expenses, sharing relationships, layout preferences, and the
// sync queues the background worker drains.
type Store interface {
	services.ExpenseStore
	services.RelationshipStore
	layout.LocalStore

	ListDirtyLayouts(ctx context.Context, limit int) ([]storage.DirtyLayout, error)
	MarkLayoutSynced(ctx context.Context, ownerID, reportType string) error

	GetPendingExportExpenses(ctx context.Context, limit int) ([]storage.PendingExportExpense, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error

	Close() error
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// BackendResult contains the store instance and its cleanup function.
type BackendResult struct {
	Store   Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
