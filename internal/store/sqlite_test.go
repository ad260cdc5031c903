package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"census-backend/internal/database"
	"census-backend/internal/store"
	"census-backend/migrations"
)

func newTestStore(t *testing.T) (*store.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, database.NewMigrator(s.DB(), migrations.FS).RunMigrations(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestPutGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Put("family:001", `{"id":"family:001"}`))

	value, found, err := s.Get("family:001")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"id":"family:001"}`, value)
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	s, _ := newTestStore(t)

	value, found, err := s.Get("family:missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestPutIsIdempotentUpsert(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Put("k", "v1"))
	require.NoError(t, s.Put("k", "v1"))
	require.NoError(t, s.Put("k", "v2"))

	value, found, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v2", value)

	keys, err := s.ListKeys("k")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestListKeysByPrefix(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Put("family:1", "a"))
	require.NoError(t, s.Put("family:2", "b"))
	require.NoError(t, s.Put("sync:pending", "true"))

	keys, err := s.ListKeys("family:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"family:1", "family:2"}, keys)
}

func TestListKeysEscapesLikeWildcards(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Put("a%b:1", "x"))
	require.NoError(t, s.Put("aXb:1", "y"))

	keys, err := s.ListKeys("a%b:")
	require.NoError(t, err)
	assert.Equal(t, []string{"a%b:1"}, keys)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Put("k", "v"))
	require.NoError(t, s.Delete("k"))
	require.NoError(t, s.Delete("k"))

	_, found, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "durable.db")

	s, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, database.NewMigrator(s.DB(), migrations.FS).RunMigrations(context.Background()))
	require.NoError(t, s.Put("family:1", "persisted"))
	require.NoError(t, s.Close())

	reopened, err := store.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get("family:1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "persisted", value)
}
