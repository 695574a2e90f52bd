package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetMissIsNilNil(t *testing.T) {
	s := NewMemoryStore()
	raw, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "users/u1/profile", map[string]string{"name": "A"}))
	raw, err := s.Get(ctx, "users/u1/profile")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"A"}`, string(raw))
}

func TestMemoryStoreUpdateMergesShallow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "doc", map[string]any{"a": 1, "b": 2}))
	require.NoError(t, s.Update(ctx, "doc", map[string]any{"b": 3, "c": 4}))

	var got map[string]int
	ok, err := GetJSON(ctx, s, "doc", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"a": 1, "b": 3, "c": 4}, got)
}

func TestMemoryStoreUpdateCreatesMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Update(ctx, "fresh", map[string]any{"x": true}))

	var got map[string]bool
	ok, err := GetJSON(ctx, s, "fresh", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got["x"])
}

func TestMemoryStorePushAndList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	k1, err := s.Push(ctx, "users/u1/events", map[string]string{"songId": "s1"})
	require.NoError(t, err)
	k2, err := s.Push(ctx, "users/u1/events", map[string]string{"songId": "s2"})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	children, err := s.List(ctx, "users/u1/events")
	require.NoError(t, err)
	assert.Len(t, children, 2)
	assert.Contains(t, children, k1)
	assert.Contains(t, children, k2)
}

func TestMemoryStoreListOnlyImmediateChildren(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "users/u1/liked_songs/s1", true))
	require.NoError(t, s.Set(ctx, "users/u1/liked_songs/s1/deep", true))
	require.NoError(t, s.Set(ctx, "users/u1/profile", map[string]string{}))

	children, err := s.List(ctx, "users/u1/liked_songs")
	require.NoError(t, err)
	assert.Len(t, children, 1)
	assert.Contains(t, children, "s1")
}

func TestMemoryStoreIncrByIsCumulative(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	n, err := s.IncrBy(ctx, "analytics/plays/s1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.IncrBy(ctx, "analytics/plays/s1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// 计数器以纯JSON数字落盘
	raw, err := s.Get(ctx, "analytics/plays/s1")
	require.NoError(t, err)
	assert.Equal(t, "3", string(raw))
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "doc", 1))
	require.NoError(t, s.Delete(ctx, "doc"))

	raw, err := s.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestGetJSONMalformedIsMiss(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.docs["bad"] = []byte("{not json")

	var out map[string]any
	ok, err := GetJSON(ctx, s, "bad", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreListEmpty(t *testing.T) {
	s := NewMemoryStore()
	children, err := s.List(context.Background(), "nothing/here")
	require.NoError(t, err)
	assert.Empty(t, children)
}
