// Package cache implements the caching and indexing layers on top of the
// key-value store: the durable per-id entity cache, the TTL-gated query and
// generic caches, and the prefix index for instant-match search. 全部只增不删，
// 不做淘汰回收
package cache

import "strings"

// maxKeyLen 归一化键的最大长度（按rune截断）
const maxKeyLen = 100

// NormalizeKey converts a raw query into a deterministic storage-safe key:
// lowercase, trimmed, path-unsafe characters replaced, capped length.
// Distinct raw queries may collide after normalization; collisions share a
// cache entry by design. The function is idempotent.
func NormalizeKey(q string) string {
	s := strings.ToLower(strings.TrimSpace(q))
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ".", "_")
	runes := []rune(s)
	if len(runes) > maxKeyLen {
		s = string(runes[:maxKeyLen])
	}
	return strings.TrimSpace(s)
}

// normalizeAlnum reduces text to its lowercase alphanumeric characters.
// Used for prefix index keys so "Blinding Lights!" and "blindinglights"
// resolve to the same bucket.
func normalizeAlnum(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tokenizeWords splits text into lowercase alphanumeric words.
func tokenizeWords(text string) []string {
	var words []string
	var cur strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}
