package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heirloom-app/heirloom/storage"
)

func TestPutGet(t *testing.T) {
	repo := NewRepository()

	require.NoError(t, repo.Put(storage.RecordTypeHeir, "h1", []byte(`{"name":"Alice"}`)))

	data, err := repo.Get(storage.RecordTypeHeir, "h1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"name":"Alice"}`), data)
}

func TestGet_NotFound(t *testing.T) {
	repo := NewRepository()

	_, err := repo.Get(storage.RecordTypeHeir, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPut_Overwrites(t *testing.T) {
	repo := NewRepository()

	require.NoError(t, repo.Put(storage.RecordTypeConfig, storage.RecordIDConfig, []byte("v1")))
	require.NoError(t, repo.Put(storage.RecordTypeConfig, storage.RecordIDConfig, []byte("v2")))

	data, err := repo.Get(storage.RecordTypeConfig, storage.RecordIDConfig)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestList_ScopedToRecordType(t *testing.T) {
	repo := NewRepository()

	require.NoError(t, repo.Put(storage.RecordTypeHeir, "b", []byte("1")))
	require.NoError(t, repo.Put(storage.RecordTypeHeir, "a", []byte("2")))
	require.NoError(t, repo.Put(storage.RecordTypeEntry, "e1", []byte("3")))

	ids, err := repo.List(storage.RecordTypeHeir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = repo.List(storage.RecordTypeLiveness)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDelete(t *testing.T) {
	repo := NewRepository()

	require.NoError(t, repo.Put(storage.RecordTypeHeir, "h1", []byte("x")))
	require.NoError(t, repo.Delete(storage.RecordTypeHeir, "h1"))

	_, err := repo.Get(storage.RecordTypeHeir, "h1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repo.Delete(storage.RecordTypeHeir, "h1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGet_ReturnsDefensiveCopy(t *testing.T) {
	repo := NewRepository()

	original := []byte("immutable")
	require.NoError(t, repo.Put(storage.RecordTypeEntry, "e1", original))
	original[0] = 'X'

	data, err := repo.Get(storage.RecordTypeEntry, "e1")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), data, "Put must copy its input")

	data[0] = 'Y'
	again, err := repo.Get(storage.RecordTypeEntry, "e1")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), again, "Get must return a copy")
}
