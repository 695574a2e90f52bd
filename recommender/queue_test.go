package recommender

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EchoFM/model"
	"EchoFM/provider"
)

func TestBuildSmartQueueDefersAdjacentSameArtist(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{suggestions: map[string][]provider.RawSong{
		"seed": {
			rawSongWith("q1", "One", "ax", "Artist X", ""),
			rawSongWith("q2", "Two", "ax", "Artist X", ""),
			rawSongWith("q3", "Three", "ay", "Artist Y", ""),
		},
	}}
	engine, _, _ := newTestEngine(catalog)

	queue, err := engine.BuildSmartQueue(ctx, "u1", "seed", 10)
	require.NoError(t, err)
	// 相邻同艺术家被押后到队尾
	assert.Equal(t, []string{"q1", "q3", "q2"}, queueIDs(queue))
}

func queueIDs(queue []model.SlimSong) []string {
	ids := make([]string, len(queue))
	for i, song := range queue {
		ids[i] = song.ID
	}
	return ids
}

func TestBuildSmartQueueReturnsFullEntities(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{suggestions: map[string][]provider.RawSong{
		"seed": {rawSongWith("q1", "One", "ax", "Artist X", "english")},
	}}
	engine, _, _ := newTestEngine(catalog)

	queue, err := engine.BuildSmartQueue(ctx, "u1", "seed", 10)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	// 队列携带完整实体，而不仅是id
	assert.Equal(t, "One", queue[0].Title)
	assert.Equal(t, "Artist X", queue[0].Artist)
	assert.NotEmpty(t, queue[0].StreamURL)
}

func TestBuildSmartQueueAvoidsSeedAndRecent(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{suggestions: map[string][]provider.RawSong{
		"seed": {
			rawSongWith("seed", "Seed Itself", "a1", "A", ""),
			rawSongWith("recent", "Recent", "a2", "B", ""),
			rawSongWith("ok", "Fine", "a3", "C", ""),
		},
	}}
	engine, act, _ := newTestEngine(catalog)
	require.NoError(t, act.RecordPlay(ctx, "u1", "recent"))

	queue, err := engine.BuildSmartQueue(ctx, "u1", "seed", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, queueIDs(queue))
}

func TestBuildSmartQueueRespectsSize(t *testing.T) {
	ctx := context.Background()
	var suggestions []provider.RawSong
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("q%d", i)
		suggestions = append(suggestions, rawSongWith(id, "Song "+id, "a"+id, "Artist "+id, ""))
	}
	catalog := &fakeCatalog{suggestions: map[string][]provider.RawSong{"seed": suggestions}}
	engine, _, _ := newTestEngine(catalog)

	queue, err := engine.BuildSmartQueue(ctx, "u1", "seed", 3)
	require.NoError(t, err)
	assert.Len(t, queue, 3)
}

func TestBuildSmartQueueEmptyHistory(t *testing.T) {
	engine, _, _ := newTestEngine(&fakeCatalog{})
	queue, err := engine.BuildSmartQueue(context.Background(), "u1", "seed", 10)
	require.NoError(t, err)
	assert.Empty(t, queue)
}
