package cache

import (
	"context"
	"fmt"
	"sort"

	"EchoFM/model"
	"EchoFM/store"
)

const prefixIndexPath = "prefix_index/"

// minPrefixLen 单字符前缀扇出过大，刻意排除
const minPrefixLen = 2

// PrefixIndex 倒排索引：文本前缀（≥2字符）→ 歌曲id集合。由查询缓存和预索引
// 任务增量构建，只增不删，让见过的歌曲无需上游往返即可被即时搜到
type PrefixIndex struct {
	store store.Store
	songs *EntityCache
}

// NewPrefixIndex creates a prefix index backed by s, rehydrating through songs.
func NewPrefixIndex(s store.Store, songs *EntityCache) *PrefixIndex {
	return &PrefixIndex{store: s, songs: songs}
}

// Prefixes generates the index keys for text: every prefix (length ≥ 2) of
// every word, plus every prefix of the words concatenated into one phrase.
func Prefixes(text string) []string {
	words := tokenizeWords(text)
	if len(words) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		runes := []rune(s)
		for i := minPrefixLen; i <= len(runes); i++ {
			p := string(runes[:i])
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}

	phrase := ""
	for _, w := range words {
		add(w)
		phrase += w
	}
	if len(words) > 1 {
		add(phrase)
	}
	return out
}

// Index adds songID to the bucket of every prefix generated from the song's
// title and artist.
func (p *PrefixIndex) Index(ctx context.Context, songID, title, artist string) error {
	if songID == "" {
		return nil
	}
	member := map[string]any{songID: true}
	for _, prefix := range Prefixes(title + " " + artist) {
		if err := p.store.Update(ctx, prefixIndexPath+prefix, member); err != nil {
			return fmt.Errorf("failed to index prefix %q: %w", prefix, err)
		}
	}
	return nil
}

// Query resolves text to a single prefix bucket and rehydrates up to limit
// songs through the entity cache. Ids that fail to hydrate are dropped
// silently — the index only ever grows and may reference entities that were
// never fully cached.
func (p *PrefixIndex) Query(ctx context.Context, text string, limit int) ([]model.SlimSong, error) {
	key := normalizeAlnum(text)
	if len([]rune(key)) < minPrefixLen {
		return nil, nil
	}

	var bucket map[string]bool
	ok, err := store.GetJSON(ctx, p.store, prefixIndexPath+key, &bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to load prefix bucket %q: %w", key, err)
	}
	if !ok || len(bucket) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Strings(ids) // map遍历无序，排序保证结果稳定

	results := make([]model.SlimSong, 0, limit)
	for _, id := range ids {
		if len(results) >= limit {
			break
		}
		song, err := p.songs.PeekSong(ctx, id)
		if err != nil {
			return nil, err
		}
		if song != nil {
			results = append(results, *song)
		}
	}
	return results, nil
}
