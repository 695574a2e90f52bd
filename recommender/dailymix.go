package recommender

import (
	"context"

	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/provider"
)

const (
	dailyMixSeeds       = 5
	dailyMixPerSeed     = 4
	dailyMixMinSize     = 10
	dailyMixBackfill    = 2
	dailyMixPerBackfill = 5
	dailyMixCap         = 30
)

// BuildDailyMix assembles the daily playlist: suggestions from the five most
// recent plays, backfilled from favorite-artist searches when the history is
// too thin to fill the mix.
func (e *Engine) BuildDailyMix(ctx context.Context, userID string) ([]model.SlimSong, error) {
	history, err := e.activity.RecentlyPlayed(ctx, userID, 100)
	if err != nil {
		return nil, err
	}
	favArtists := e.favoriteArtists(ctx, history)

	seen := make(map[string]bool)
	var mix []model.SlimSong
	for _, seed := range firstN(history, dailyMixSeeds) {
		for _, song := range e.contentBased(ctx, seed, seen, dailyMixPerSeed) {
			seen[song.ID] = true
			mix = append(mix, song)
		}
	}

	if len(mix) < dailyMixMinSize {
		for _, name := range firstN(favArtists, dailyMixBackfill) {
			raw, err := e.catalog.SearchSongs(ctx, name, 1, dailyMixPerBackfill, "")
			if err != nil {
				logger.Debug("每日歌单补位搜索失败", logger.String("artist", name), logger.ErrorField(err))
				continue
			}
			for _, song := range provider.SlimSongs(raw, model.QualityMedium) {
				if song.ID == "" || seen[song.ID] {
					continue
				}
				seen[song.ID] = true
				mix = append(mix, song)
			}
		}
	}

	return firstN(mix, dailyMixCap), nil
}
