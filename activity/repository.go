// Package activity persists user listening signals: the append-only play
// history, liked songs, artist follows, language preferences and the global
// analytics counters the ranking pipeline reads.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"EchoFM/cache"
	"EchoFM/model"
	"EchoFM/store"
)

// Repository 用户行为数据访问层，所有状态都在KV存储里，本身无状态
type Repository struct {
	store store.Store
}

// NewRepository creates an activity repository backed by s.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

func userPath(userID, sub string) string {
	return "users/" + userID + "/" + sub
}

// RecordPlay appends a play event to the user's history and bumps the global
// play counter. The counter increment is atomic (store IncrBy), so concurrent
// plays of the same song never lose updates.
func (r *Repository) RecordPlay(ctx context.Context, userID, songID string) error {
	event := model.PlayEvent{SongID: songID, PlayedAt: time.Now().Unix()}
	if _, err := r.store.Push(ctx, userPath(userID, "recently_played"), event); err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	if _, err := r.store.IncrBy(ctx, "analytics/plays/"+songID, 1); err != nil {
		return fmt.Errorf("failed to bump play counter: %w", err)
	}
	return nil
}

// RecordLike marks songID as liked by the user.
func (r *Repository) RecordLike(ctx context.Context, userID, songID string) error {
	return r.store.Set(ctx, userPath(userID, "liked_songs/"+songID), true)
}

// Unlike removes a liked song.
func (r *Repository) Unlike(ctx context.Context, userID, songID string) error {
	return r.store.Delete(ctx, userPath(userID, "liked_songs/"+songID))
}

// RecordClick bumps the global click counter for an item.
func (r *Repository) RecordClick(ctx context.Context, itemID string) error {
	_, err := r.store.IncrBy(ctx, "analytics/clicks/"+itemID, 1)
	return err
}

// RecordSearch appends to the user's search history and bumps the global
// search counter for the normalized query.
func (r *Repository) RecordSearch(ctx context.Context, userID, query string) error {
	event := model.SearchEvent{Query: query, Timestamp: time.Now().Unix()}
	if _, err := r.store.Push(ctx, userPath(userID, "search_history"), event); err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	if _, err := r.store.IncrBy(ctx, "analytics/searches/"+cache.NormalizeKey(query), 1); err != nil {
		return fmt.Errorf("failed to bump search counter: %w", err)
	}
	return nil
}

// RecentlyPlayed returns up to limit song ids, most recent first.
func (r *Repository) RecentlyPlayed(ctx context.Context, userID string, limit int) ([]string, error) {
	children, err := r.store.List(ctx, userPath(userID, "recently_played"))
	if err != nil {
		return nil, fmt.Errorf("failed to load play history: %w", err)
	}
	events := make([]model.PlayEvent, 0, len(children))
	for _, raw := range children {
		var e model.PlayEvent
		if err := json.Unmarshal(raw, &e); err != nil || e.SongID == "" {
			continue // 形状不符的条目直接跳过
		}
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].PlayedAt > events[j].PlayedAt })

	ids := make([]string, 0, limit)
	for _, e := range events {
		if len(ids) >= limit {
			break
		}
		ids = append(ids, e.SongID)
	}
	return ids, nil
}

// LikedSongs returns the set of liked song ids.
func (r *Repository) LikedSongs(ctx context.Context, userID string) (map[string]bool, error) {
	children, err := r.store.List(ctx, userPath(userID, "liked_songs"))
	if err != nil {
		return nil, fmt.Errorf("failed to load liked songs: %w", err)
	}
	liked := make(map[string]bool, len(children))
	for id := range children {
		liked[id] = true
	}
	return liked, nil
}

// FollowArtist records a follow with metadata.
func (r *Repository) FollowArtist(ctx context.Context, userID, artistID, artistName string) error {
	meta := model.FollowedArtist{Name: artistName, FollowedAt: time.Now().Unix()}
	return r.store.Set(ctx, userPath(userID, "followed_artists/"+artistID), meta)
}

// FollowedArtists returns artistID → follow metadata.
func (r *Repository) FollowedArtists(ctx context.Context, userID string) (map[string]model.FollowedArtist, error) {
	children, err := r.store.List(ctx, userPath(userID, "followed_artists"))
	if err != nil {
		return nil, fmt.Errorf("failed to load followed artists: %w", err)
	}
	out := make(map[string]model.FollowedArtist, len(children))
	for id, raw := range children {
		var meta model.FollowedArtist
		if err := json.Unmarshal(raw, &meta); err != nil {
			continue
		}
		out[id] = meta
	}
	return out, nil
}

// SetLanguages stores the user's preferred languages, lowercased, and marks
// onboarding complete. An empty selection is a validation error surfaced to
// the caller.
func (r *Repository) SetLanguages(ctx context.Context, userID string, languages []string) error {
	if len(languages) == 0 {
		return fmt.Errorf("at least one language is required")
	}
	langs := make(map[string]bool, len(languages))
	for _, l := range languages {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" {
			langs[l] = true
		}
	}
	if err := r.store.Set(ctx, userPath(userID, "languages"), langs); err != nil {
		return fmt.Errorf("failed to store languages: %w", err)
	}
	return r.store.Update(ctx, userPath(userID, "profile"), map[string]any{"onboardingComplete": true})
}

// Languages returns the user's preferred languages as a lowercase set.
func (r *Repository) Languages(ctx context.Context, userID string) (map[string]bool, error) {
	var langs map[string]bool
	ok, err := store.GetJSON(ctx, r.store, userPath(userID, "languages"), &langs)
	if err != nil {
		return nil, fmt.Errorf("failed to load languages: %w", err)
	}
	if !ok {
		return map[string]bool{}, nil
	}
	return langs, nil
}

// Profile loads the user's profile node, nil when absent.
func (r *Repository) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	ok, err := store.GetJSON(ctx, r.store, userPath(userID, "profile"), &p)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetOrCreateProfile returns the profile, creating it lazily on the first
// authenticated request.
func (r *Repository) GetOrCreateProfile(ctx context.Context, userID string, defaults model.Profile) (*model.Profile, error) {
	p, err := r.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	fresh := model.Profile{
		Name:      defaults.Name,
		Email:     defaults.Email,
		Photo:     defaults.Photo,
		CreatedAt: time.Now().Unix(),
	}
	if fresh.Name == "" {
		fresh.Name = "User"
	}
	if err := r.store.Set(ctx, userPath(userID, "profile"), fresh); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return &fresh, nil
}

// PlayCount returns the global play counter for songID.
func (r *Repository) PlayCount(ctx context.Context, songID string) (int64, error) {
	raw, err := r.store.Get(ctx, "analytics/plays/"+songID)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	return parseCounter(raw), nil
}

// PlayCounters returns all global play counters keyed by song id.
func (r *Repository) PlayCounters(ctx context.Context) (map[string]int64, error) {
	children, err := r.store.List(ctx, "analytics/plays")
	if err != nil {
		return nil, fmt.Errorf("failed to load play counters: %w", err)
	}
	out := make(map[string]int64, len(children))
	for id, raw := range children {
		out[id] = parseCounter(raw)
	}
	return out, nil
}

// parseCounter 兼容两种历史形状：纯数字和 {"count": n}
func parseCounter(raw json.RawMessage) int64 {
	s := strings.TrimSpace(string(raw))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	var wrapped struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Count
	}
	return 0
}

// StoreRecommendations overwrites the user's recommendation snapshot wholesale.
func (r *Repository) StoreRecommendations(ctx context.Context, userID string, recs *model.StoredRecommendation) error {
	recs.UpdatedAt = time.Now().Unix()
	if err := r.store.Set(ctx, userPath(userID, "recommendations"), recs); err != nil {
		return fmt.Errorf("failed to store recommendations: %w", err)
	}
	return nil
}

// StoredRecommendations loads the user's snapshot, nil when absent or malformed.
func (r *Repository) StoredRecommendations(ctx context.Context, userID string) (*model.StoredRecommendation, error) {
	var recs model.StoredRecommendation
	ok, err := store.GetJSON(ctx, r.store, userPath(userID, "recommendations"), &recs)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendations: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &recs, nil
}
