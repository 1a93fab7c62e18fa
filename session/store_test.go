package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	newRecord := func(id string) *Record {
		now := time.Now()
		return &Record{
			SessionID: id,
			AuthorID:  "author-" + id,
			Name:      "Author " + id,
			ExpireAt:  now.Add(time.Minute),
			DestroyAt: now.Add(time.Hour),
		}
	}

	t.Run("put-get", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		store := NewMemStore()
		rec := newRecord("s1")
		require.NoError(store.Put(ctx, "hash-1", rec))

		got, err := store.Get(ctx, "hash-1")
		require.NoError(err)
		assert.Equal(rec, got)
		assert.Equal(1, store.Len())
	})
	t.Run("get-absent", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		store := NewMemStore()
		got, err := store.Get(ctx, "no-such-hash")
		require.ErrorIs(err, ErrNoSession)
		assert.Nil(got)
	})
	t.Run("put-overwrites", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		store := NewMemStore()
		require.NoError(store.Put(ctx, "hash-1", newRecord("s1")))
		require.NoError(store.Put(ctx, "hash-1", newRecord("s2")))

		got, err := store.Get(ctx, "hash-1")
		require.NoError(err)
		assert.Equal("s2", got.SessionID)
		assert.Equal(1, store.Len())
	})
	t.Run("put-nil-record", func(t *testing.T) {
		require := require.New(t)
		store := NewMemStore()
		require.ErrorIs(store.Put(ctx, "hash-1", nil), ErrNilParameter)
	})
	t.Run("delete", func(t *testing.T) {
		require := require.New(t)
		store := NewMemStore()
		require.NoError(store.Put(ctx, "hash-1", newRecord("s1")))
		require.NoError(store.Delete(ctx, "hash-1"))
		_, err := store.Get(ctx, "hash-1")
		require.ErrorIs(err, ErrNoSession)

		// deleting an absent key is not an error
		require.NoError(store.Delete(ctx, "hash-1"))
	})
	t.Run("returned-record-is-a-copy", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		store := NewMemStore()
		require.NoError(store.Put(ctx, "hash-1", newRecord("s1")))

		got, err := store.Get(ctx, "hash-1")
		require.NoError(err)
		got.Name = "mutated"

		again, err := store.Get(ctx, "hash-1")
		require.NoError(err)
		assert.Equal("Author s1", again.Name)
	})
}
