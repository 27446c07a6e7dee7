package backend

import (
	"context"
	"path/filepath"
	"testing"
)

func TestCreateBackend_Memory(t *testing.T) {
	factory := NewFactory(nil)

	result, err := factory.CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("create memory backend: %v", err)
	}
	if result.Store == nil {
		t.Fatal("expected a store")
	}
	if result.Cleanup != nil {
		t.Fatal("memory backend should not need cleanup")
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	factory := NewFactory(nil)
	dbPath := filepath.Join(t.TempDir(), "test.db")

	result, err := factory.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: dbPath,
	})
	if err != nil {
		t.Fatalf("create sqlite backend: %v", err)
	}
	defer result.Cleanup()

	if result.Store == nil {
		t.Fatal("expected a store")
	}
}

func TestCreateBackend_InvalidType(t *testing.T) {
	factory := NewFactory(nil)

	if _, err := factory.CreateBackend(context.Background(), Config{Type: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend type")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Fatal("expected error for sqlite without db path")
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Fatalf("memory config should validate, got %v", err)
	}
}
