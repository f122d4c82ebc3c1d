package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behaviour every SnapshotStore must share.
func runStoreContract(t *testing.T, store SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		data, err := store.Load(ctx, "@RocketShoes:cart:missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, data)
	})

	t.Run("save then load", func(t *testing.T) {
		snapshot := []byte(`[{"id":1,"amount":1,"image":"x.png","price":100,"title":"Shoe"}]`)
		require.NoError(t, store.Save(ctx, "@RocketShoes:cart", snapshot))

		data, err := store.Load(ctx, "@RocketShoes:cart")
		require.NoError(t, err)
		assert.Equal(t, string(snapshot), string(data))
	})

	t.Run("save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "overwrite", []byte(`[{"id":1,"amount":1}]`)))
		require.NoError(t, store.Save(ctx, "overwrite", []byte(`[]`)))

		data, err := store.Load(ctx, "overwrite")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("keys are isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "a", []byte(`[{"id":1,"amount":1}]`)))
		require.NoError(t, store.Save(ctx, "b", []byte(`[{"id":2,"amount":3}]`)))

		a, err := store.Load(ctx, "a")
		require.NoError(t, err)
		b, err := store.Load(ctx, "b")
		require.NoError(t, err)
		assert.Contains(t, string(a), `"id":1`)
		assert.Contains(t, string(b), `"id":2`)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	snapshot := []byte(`[]`)
	require.NoError(t, store.Save(ctx, "k", snapshot))
	snapshot[0] = 'x'

	data, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	runStoreContract(t, store)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "@RocketShoes:cart", []byte(`[{"id":3,"amount":2}]`)))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	data, err := second.Load(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":3,"amount":2}]`, string(data))
}

func TestFileStore_CancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Save(ctx, "k", []byte(`[]`)), context.Canceled)
	_, err = store.Load(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLStore_SQLite(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.RunMigrations())
	runStoreContract(t, store)
}

func TestSQLStore_MigrationsAreIdempotent(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.RunMigrations())
	require.NoError(t, store.RunMigrations())
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := &SQLStore{dialect: DialectPostgres}
	lite := &SQLStore{dialect: DialectSQLite}

	assert.Equal(t, "VALUES ($1, $2, $3)", pg.rebind("VALUES (?, ?, ?)"))
	assert.Equal(t, "VALUES (?, ?, ?)", lite.rebind("VALUES (?, ?, ?)"))
}
