package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenStore_SetGetClear(t *testing.T) {
	db := NewTestDB(t)
	store := NewTokenStore(db, "http://localhost:8000")
	ctx := context.Background()

	token, err := store.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, store.Set(ctx, "tok-1"))
	token, err = store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)

	// Set replaces the previous value.
	require.NoError(t, store.Set(ctx, "tok-2"))
	token, err = store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-2", token)

	require.NoError(t, store.Clear(ctx))
	token, err = store.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, token)

	// Clearing again is a no-op.
	require.NoError(t, store.Clear(ctx))
}

func TestTokenStore_ScopedByOrigin(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	prod := NewTokenStore(db, "https://impala.example.com")
	local := NewTokenStore(db, "http://localhost:8000")

	require.NoError(t, prod.Set(ctx, "prod-token"))

	token, err := local.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, token, "token must not leak across origins")

	require.NoError(t, local.Clear(ctx))
	token, err = prod.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "prod-token", token)
}

func TestTokenStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	store := NewTokenStore(db, "http://localhost:8000")
	require.NoError(t, store.Set(ctx, "persisted"))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	defer db.Close()

	store = NewTokenStore(db, "http://localhost:8000")
	token, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "persisted", token)
}
