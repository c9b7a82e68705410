package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelStoreSaveLoad(t *testing.T) {
	s, err := NewSQLiteModelStore(filepath.Join(t.TempDir(), "models.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "m1", []byte(`{"id":"m1"}`)))

	blob, err := s.Load(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"m1"}`), blob)

	_, err = s.Load(ctx, "missing")
	assert.Error(t, err)
}

func TestModelStoreLoadLatest(t *testing.T) {
	s, err := NewSQLiteModelStore(filepath.Join(t.TempDir(), "models.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, _, err = s.LoadLatest(ctx)
	assert.Error(t, err) // empty registry

	require.NoError(t, s.Save(ctx, "m1", []byte("a")))
	require.NoError(t, s.Save(ctx, "m2", []byte("b")))

	id, blob, err := s.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m2", id)
	assert.Equal(t, []byte("b"), blob)
}

func TestModelStoreUpsert(t *testing.T) {
	s, err := NewSQLiteModelStore(filepath.Join(t.TempDir(), "models.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "m1", []byte("v1")))
	require.NoError(t, s.Save(ctx, "m1", []byte("v2")))

	blob, err := s.Load(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), blob)
}
