package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-rental/internal/persistence"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rentaldesk.db")
	storage, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS state")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	storage, err := New(context.Background(), NewConnectionPool(db))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage, mock
}

func TestStorage_ReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	_, err := storage.Read(ctx, "equipment")
	require.ErrorIs(t, err, persistence.ErrKeyNotFound)

	require.NoError(t, storage.Write(ctx, "equipment", []byte(`[{"id":"eq1"}]`)))
	require.NoError(t, storage.Write(ctx, "equipment", []byte(`[{"id":"eq2"}]`)))

	got, err := storage.Read(ctx, "equipment")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"eq2"}]`, string(got))

	require.NoError(t, storage.Delete(ctx, "equipment"))
	require.NoError(t, storage.Delete(ctx, "equipment"))
	_, err = storage.Read(ctx, "equipment")
	require.ErrorIs(t, err, persistence.ErrKeyNotFound)
}

func TestStorage_WriteBatch(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	require.NoError(t, storage.WriteBatch(ctx, map[string][]byte{
		"users":     []byte(`[]`),
		"equipment": []byte(`[]`),
	}))

	for _, key := range []string{"users", "equipment"} {
		payload, err := storage.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(payload))
	}
}

func TestStorage_ReopenKeepsState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rentaldesk.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	store := persistence.NewStore(first)
	seeded, err := store.Bootstrap(ctx, persistence.BootstrapOptions{Mode: persistence.SeedDemo})
	require.NoError(t, err)
	require.True(t, seeded)
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	reopened := persistence.NewStore(second)
	seeded, err = reopened.Bootstrap(ctx, persistence.BootstrapOptions{Mode: persistence.SeedDemo})
	require.NoError(t, err)
	assert.False(t, seeded)

	equipment, err := reopened.Equipment().List(ctx)
	require.NoError(t, err)
	assert.Len(t, equipment, 5)
}

func TestStorage_FailedWriteRollsBackAndKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	storage, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM state WHERE bucket = ?")).
		WithArgs("equipment").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`[{"id":"eq1","name":"Drill"}]`)))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO state(bucket, payload)")).
		WithArgs("equipment", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	store := persistence.NewStore(storage)
	_, err := store.Equipment().Create(ctx, persistence.Equipment{Name: "Saw"})

	var sErr *persistence.StorageError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "equipment", sErr.Key)

	items, err := store.Equipment().List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Drill", items[0].Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_LockedDatabaseIsReported(t *testing.T) {
	storage, mock := newMockStorage(t)
	mock.ExpectBegin().WillReturnError(errors.New("database is locked (5) (SQLITE_BUSY)"))

	err := storage.Write(context.Background(), "rentals", []byte(`[]`))
	require.ErrorIs(t, err, ErrDatabaseLocked)
	require.NoError(t, mock.ExpectationsWereMet())
}
