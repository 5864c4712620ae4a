package corpus

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a new on-disk corpus database and a Store for testing.
func setupTestStore(t *testing.T) (string, *Store) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "corpus.db")
	db, err := OpenDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, SetupSchema(db))
	require.NoError(t, SetupSchema(db), "SetupSchema must be idempotent")

	store, err := NewStore(db)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return dsn, store
}

func TestStoreImportAndEntries(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Import(ctx, "bot", []string{"一", "二", "三"}))
	require.NoError(t, store.Import(ctx, "other", []string{"x"}))

	entries, err := store.Entries(ctx, "bot")
	require.NoError(t, err)
	assert.Equal(t, []string{"一", "二", "三"}, entries)

	names, err := store.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bot", "other"}, names)
}

func TestStoreImportReplaces(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Import(ctx, "bot", []string{"old", "old", "old"}))
	require.NoError(t, store.Import(ctx, "bot", []string{"new"}))

	entries, err := store.Entries(ctx, "bot")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, entries)

	require.NoError(t, store.Import(ctx, "bot", nil))
	entries, err = store.Entries(ctx, "bot")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreRemove(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Import(ctx, "to_delete", []string{"a"}))
	require.NoError(t, store.Import(ctx, "to_keep", []string{"b"}))
	require.NoError(t, store.Remove(ctx, "to_delete"))
	require.NoError(t, store.Remove(ctx, "never_existed"))

	_, err := store.Entries(ctx, "to_delete")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	entries, err := store.Entries(ctx, "to_keep")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, entries)
}

func TestStoreImportRequiresName(t *testing.T) {
	_, store := setupTestStore(t)
	assert.Error(t, store.Import(context.Background(), "", []string{"a"}))
}

func TestSQLiteSource(t *testing.T) {
	dsn, store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Import(ctx, "bot", []string{"私は元気です", "元気？"}))

	entries, err := Load(ctx, "sqlite:"+dsn+"#bot")
	require.NoError(t, err)
	assert.Equal(t, []string{"私は元気です", "元気？"}, entries)

	_, err = Load(ctx, "sqlite:"+dsn+"#missing")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSQLiteSourceWithoutSchema(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "empty.db")
	_, err := NewSQLiteSource(dsn, "bot").Load(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
