package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/equipment-rental/internal/persistence"
	"github.com/example/equipment-rental/internal/persistence/sqlite"
)

// NewSQLiteBackend opens a SQLite backend in a temporary directory. The database is closed when
// the test finishes.
func NewSQLiteBackend(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "rentaldesk.db")
	storage, err := sqlite.Open(context.Background(), path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })
	return storage
}

// NewSQLiteServices wires services over a temporary SQLite backend seeded with mode.
func (f *ServiceFactory) NewSQLiteServices(tb testing.TB, mode persistence.SeedMode) *Services {
	tb.Helper()
	return f.NewServices(tb, NewSQLiteBackend(tb), mode)
}
