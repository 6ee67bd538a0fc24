package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/ddbsession/codec"
	"github.com/unkn0wn-root/ddbsession/internal/util"
	"github.com/unkn0wn-root/ddbsession/store"
	"github.com/unkn0wn-root/ddbsession/store/redis"
)

var key = store.Key{Name: "id", Value: "sess-1"}

func setup(t *testing.T, opts ...redis.Option) (*miniredis.Miniredis, *redis.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s, err := redis.NewFromClient(client, opts...)
	require.NoError(t, err)
	return mr, s
}

func TestFetchMissing(t *testing.T) {
	_, s := setup(t)
	_, err := s.Fetch(context.Background(), key)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNilClient(t *testing.T) {
	_, err := redis.NewFromClient(nil)
	assert.ErrorIs(t, err, redis.ErrNilClient)
}

func TestSaveCreatesAndFetches(t *testing.T) {
	mr, s := setup(t, redis.WithPrefix("test"))
	ctx := context.Background()

	err := s.SavePartial(ctx, key, []store.Change{
		{Name: "a", Value: 1},
		{Name: "user", Value: map[string]any{"name": "ann"}},
	})
	require.NoError(t, err)

	rk := util.RecordKey("test", key)
	assert.True(t, mr.Exists(rk))
	assert.NotContains(t, rk, "sess-1", "raw ids must not leak into key names")

	it, err := s.Fetch(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", it["id"])
	assert.True(t, util.Equal(1, it["a"]))
	assert.True(t, util.Equal(map[string]any{"name": "ann"}, it["user"]))
}

func TestExpectationsHold(t *testing.T) {
	_, s := setup(t)
	ctx := context.Background()
	require.NoError(t, s.SavePartial(ctx, key, []store.Change{{Name: "a", Value: 1}, {Name: "b", Value: "x"}}))

	// int expectation against a msgpack-decoded value
	err := s.SavePartial(ctx, key, []store.Change{
		{Name: "a", Value: 2, Expected: 1.0, Existed: true},
		{Name: "b", Delete: true, Expected: "x", Existed: true},
	})
	require.NoError(t, err)

	it, err := s.Fetch(ctx, key)
	require.NoError(t, err)
	assert.True(t, util.Equal(2, it["a"]))
	assert.NotContains(t, it, "b")
}

func TestConflicts(t *testing.T) {
	_, s := setup(t)
	ctx := context.Background()
	require.NoError(t, s.SavePartial(ctx, key, []store.Change{{Name: "a", Value: 1}}))

	cases := map[string]store.Change{
		"stale value":     {Name: "a", Value: 3, Expected: 2, Existed: true},
		"expected absent": {Name: "a", Value: 3},
		"expected exists": {Name: "zz", Value: 3, Expected: 1, Existed: true},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := s.SavePartial(ctx, key, []store.Change{c})
			assert.ErrorIs(t, err, store.ErrConflict)
		})
	}

	it, err := s.Fetch(ctx, key)
	require.NoError(t, err)
	assert.True(t, util.Equal(1, it["a"]), "failed saves must not write")
}

func TestConflictIsAllOrNothing(t *testing.T) {
	_, s := setup(t)
	ctx := context.Background()
	require.NoError(t, s.SavePartial(ctx, key, []store.Change{{Name: "a", Value: 1}}))

	err := s.SavePartial(ctx, key, []store.Change{
		{Name: "a", Value: 2, Expected: 1, Existed: true},
		{Name: "b", Value: 2, Expected: 9, Existed: true},
	})
	require.ErrorIs(t, err, store.ErrConflict)

	it, err := s.Fetch(ctx, key)
	require.NoError(t, err)
	assert.True(t, util.Equal(1, it["a"]))
}

func TestDeleteAndTTL(t *testing.T) {
	mr, s := setup(t, redis.WithTTL(time.Minute), redis.WithCodec(codec.JSON[any]{}))
	ctx := context.Background()
	require.NoError(t, s.SavePartial(ctx, key, []store.Change{{Name: "a", Value: "v"}}))

	rk := util.RecordKey("ddbsession", key)
	assert.Equal(t, time.Minute, mr.TTL(rk))
	assert.Equal(t, `"v"`, mr.HGet(rk, "a"))

	mr.FastForward(2 * time.Minute)
	_, err := s.Fetch(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SavePartial(ctx, key, []store.Change{{Name: "a", Value: "v"}}))
	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "deleting a missing record is not an error")
	_, err = s.Fetch(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, s.Close(ctx))
}

func TestOwnedClientClose(t *testing.T) {
	mr := miniredis.RunT(t)
	s := redis.New(mr.Addr(), "", 0)
	ctx := context.Background()
	require.NoError(t, s.SavePartial(ctx, key, []store.Change{{Name: "a", Value: true}}))
	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))
}
