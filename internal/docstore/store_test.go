package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "documents.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(&DocumentRecord{}))

	store, err := NewGormStore(GormConfig{
		Database: database,
		Clock:    func() time.Time { return time.Unix(1700000000, 0) },
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)
	return store
}

func storesUnderTest(t *testing.T) map[string]Store {
	return map[string]Store{
		"gorm":   newGormStore(t),
		"memory": NewMemoryStore(),
	}
}

func TestStoreSetGetDelete(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := MustPath("users", "u1", "goals")

			_, err := store.Get(ctx, path)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, path, json.RawMessage(`{"calories":1800}`)))
			document, err := store.Get(ctx, path)
			require.NoError(t, err)
			require.JSONEq(t, `{"calories":1800}`, string(document.Value))
			require.Equal(t, path, document.Path)

			require.NoError(t, store.Set(ctx, path, json.RawMessage(`{"calories":2100}`)))
			document, err = store.Get(ctx, path)
			require.NoError(t, err)
			require.JSONEq(t, `{"calories":2100}`, string(document.Value))

			require.NoError(t, store.Delete(ctx, path))
			require.NoError(t, store.Delete(ctx, path))
			_, err = store.Get(ctx, path)
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreListReturnsDescendantsInPathOrder(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			paths := []Path{
				MustPath("users", "u1", "days", "Mar 2, 2025", "lunch", "b"),
				MustPath("users", "u1", "days", "Mar 1, 2025", "breakfast", "a"),
				MustPath("users", "U1", "days", "Mar 1, 2025", "breakfast", "other-user"),
				MustPath("users", "u10", "days", "Mar 1, 2025", "dinner", "prefix-neighbour"),
				MustPath("users", "u1", "goals"),
			}
			for _, path := range paths {
				require.NoError(t, store.Set(ctx, path, json.RawMessage(`{}`)))
			}

			documents, err := store.List(ctx, MustPath("users", "u1", "days"))
			require.NoError(t, err)
			require.Len(t, documents, 2)
			require.Equal(t, paths[1], documents[0].Path)
			require.Equal(t, paths[0], documents[1].Path)

			_, err = store.List(ctx, "")
			require.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}

func TestStoreRejectsInvalidJSON(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Set(context.Background(), MustPath("users", "u1", "goals"), json.RawMessage(`{broken`))
			require.Error(t, err)
			require.Equal(t, "docstore.set.invalid_value", ErrorCode(err))
		})
	}
}

func TestGormStoreWithoutDatabaseReportsCode(t *testing.T) {
	_, err := NewGormStore(GormConfig{})
	require.Error(t, err)
	require.Equal(t, "docstore.new.missing_database", ErrorCode(err))

	var store *GormStore
	_, err = store.Get(context.Background(), MustPath("users"))
	require.Equal(t, "docstore.get.missing_database", ErrorCode(err))
}

func TestMemoryStoreInjectedFailures(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	failure := errors.New("offline")

	store.FailWrites(failure)
	err := store.Set(ctx, MustPath("a"), json.RawMessage(`{}`))
	require.ErrorIs(t, err, failure)
	require.Equal(t, 0, store.Len())

	store.FailWrites(nil)
	require.NoError(t, store.Set(ctx, MustPath("a", "b"), json.RawMessage(`{}`)))

	store.FailReads(failure)
	_, err = store.List(ctx, MustPath("a"))
	require.ErrorIs(t, err, failure)
}

func TestNewPath(t *testing.T) {
	path, err := NewPath("users", " u1 ", "days", "Mar 5, 2025")
	require.NoError(t, err)
	require.Equal(t, Path("users/u1/days/Mar 5, 2025"), path)

	child, err := path.Child("lunch", "food-1")
	require.NoError(t, err)
	relative, ok := child.RelativeTo(path)
	require.True(t, ok)
	require.Equal(t, []string{"lunch", "food-1"}, relative)

	_, ok = MustPath("users", "u2").RelativeTo(path)
	require.False(t, ok)

	for _, segments := range [][]string{nil, {""}, {"a", "  "}, {"a/b"}} {
		_, err := NewPath(segments...)
		require.ErrorIs(t, err, ErrInvalidPath)
	}
}
