package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Autilos/perfun-bot-new/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestOpen_FileSystem(t *testing.T) {
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WaitForReady(context.Background(), time.Second))
}

func TestPing_Closed(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	s.Close()

	assert.Error(t, s.Ping(context.Background()))
}

func TestGetSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "k", []byte("v1")))
	require.NoError(t, s.Set(ctx, "k", []byte("v2")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestSetMulti_Overwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "p:1", []byte("old")))
	require.NoError(t, s.SetMulti(ctx, []db.KVItem{
		{Key: "p:1", Value: []byte("new")},
		{Key: "p:2", Value: []byte("two")},
	}))

	got, err := s.Get(ctx, "p:1")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	ok, err := s.Exists(ctx, "p:2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.SetMulti(ctx, nil))
}

func TestIncrBy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IncrBy(ctx, "c", 5))
	require.NoError(t, s.IncrBy(ctx, "c", 7))

	got, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "12", string(got))

	require.NoError(t, s.Set(ctx, "text", []byte("abc")))
	assert.Error(t, s.IncrBy(ctx, "text", 1))
}

func TestExpire_NX(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Expire(ctx, "k", time.Hour, true))
	// Second NX call keeps the first TTL and must not fail.
	require.NoError(t, s.Expire(ctx, "k", time.Minute, true))
	// Missing keys are ignored.
	require.NoError(t, s.Expire(ctx, "nope", time.Minute, false))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestDelExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Del(ctx, "k"))

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetMulti(ctx, []db.KVItem{
		{Key: "perfun:product:1", Value: []byte("a")},
		{Key: "perfun:product:2", Value: []byte("b")},
		{Key: "perfun:product:https://x/y", Value: []byte("c")},
		{Key: "perfun:emb_cache:abc", Value: []byte("d")},
		{Key: "other:product:3", Value: []byte("e")},
	}))

	keys, err := s.Scan(ctx, "perfun:product:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"perfun:product:1", "perfun:product:2", "perfun:product:https://x/y"}, keys)

	keys, err = s.Scan(ctx, "perfun:product:?")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"perfun:product:1", "perfun:product:2"}, keys)
}
