// Package trending recomputes the global popularity ranking from play-count
// analytics, decoupled from the request path by a fixed-interval scheduler.
package trending

import (
	"context"
	"sort"
	"sync"
	"time"

	"EchoFM/activity"
	"EchoFM/cache"
	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/provider"
)

const (
	// cacheTTL 趋势榜快照的新鲜度窗口
	cacheTTL = 30 * time.Minute

	// keepTop 快照保留的条目数
	keepTop = 50

	// fallbackScore 冷启动回退条目的固定占位分。与 count*2 的量纲不同，
	// 两种来源不做归一化，调用方知道回退分只用于排序占位
	fallbackScore = 1.0

	fallbackQuery = "trending hits"
)

// Catalog 趋势回退所需的目录服务能力
type Catalog interface {
	SearchSongs(ctx context.Context, query string, page, limit int, language string) ([]provider.RawSong, error)
}

// Aggregator computes and caches the ranked popularity list.
type Aggregator struct {
	activity *activity.Repository
	generic  *cache.GenericCache
	songs    *cache.EntityCache
	catalog  Catalog

	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewAggregator creates a trending aggregator.
func NewAggregator(act *activity.Repository, generic *cache.GenericCache, songs *cache.EntityCache, catalog Catalog, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = cacheTTL
	}
	return &Aggregator{
		activity: act,
		generic:  generic,
		songs:    songs,
		catalog:  catalog,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// GetTrending returns the top limit trending songs, serving the cached
// snapshot when fresh and recomputing otherwise.
func (a *Aggregator) GetTrending(ctx context.Context, limit int) ([]model.ScoredSong, error) {
	var cached []model.ScoredSong
	ok, err := a.generic.GetJSON(ctx, "trending", "global", cacheTTL, &cached)
	if err != nil {
		logger.Warn("读取趋势榜缓存失败", logger.ErrorField(err))
	}
	if ok {
		return top(cached, limit), nil
	}

	scored, err := a.Recompute(ctx)
	if err != nil {
		return nil, err
	}
	return top(scored, limit), nil
}

// Recompute rebuilds the snapshot from play counters: score = playCount * 2,
// sorted descending, top 50 kept. With no counters at all (cold start) it
// falls back to a provider search and synthesizes placeholder-scored entries.
func (a *Aggregator) Recompute(ctx context.Context) ([]model.ScoredSong, error) {
	counters, err := a.activity.PlayCounters(ctx)
	if err != nil {
		return nil, err
	}

	scored := make([]model.ScoredSong, 0, len(counters))
	for songID, count := range counters {
		entry := model.ScoredSong{
			SongID:    songID,
			Score:     float64(count) * 2,
			PlayCount: count,
		}
		// 命中深缓存时附带精简歌曲，供语言过滤与展示
		if song, err := a.songs.PeekSong(ctx, songID); err == nil && song != nil {
			entry.Song = song
		}
		scored = append(scored, entry)
	}

	if len(scored) == 0 {
		scored = a.fallback(ctx)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].SongID < scored[j].SongID
	})
	if len(scored) > keepTop {
		scored = scored[:keepTop]
	}

	if err := a.generic.Put(ctx, "trending", "global", scored); err != nil {
		logger.Warn("写入趋势榜缓存失败", logger.ErrorField(err))
	}
	logger.Info("趋势榜已重算", logger.Int("entries", len(scored)))
	return scored, nil
}

// fallback 冷启动：播放计数为空时用通用热门搜索合成榜单
func (a *Aggregator) fallback(ctx context.Context) []model.ScoredSong {
	raw, err := a.catalog.SearchSongs(ctx, fallbackQuery, 1, keepTop, "")
	if err != nil {
		logger.Warn("趋势回退搜索失败", logger.ErrorField(err))
		return nil
	}
	slim := provider.SlimSongs(raw, model.QualityMedium)
	scored := make([]model.ScoredSong, 0, len(slim))
	for i := range slim {
		scored = append(scored, model.ScoredSong{
			SongID: slim[i].ID,
			Score:  fallbackScore,
			Song:   &slim[i],
		})
	}
	return scored
}

// Start launches the periodic refresh loop. The snapshot is recomputed on a
// fixed interval regardless of request traffic, so cold caches are rare.
func (a *Aggregator) Start() {
	logger.Info("趋势榜刷新任务启动", logger.Duration("interval", a.interval))
	a.wg.Add(1)
	go a.loop()
}

// Stop shuts the refresh loop down and waits for it to exit.
func (a *Aggregator) Stop() {
	close(a.stopChan)
	a.wg.Wait()
	logger.Info("趋势榜刷新任务已停止")
}

func (a *Aggregator) loop() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopChan:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := a.Recompute(ctx); err != nil {
				logger.Error("趋势榜重算失败", logger.ErrorField(err))
			}
			cancel()
		}
	}
}

func top(scored []model.ScoredSong, limit int) []model.ScoredSong {
	if limit > 0 && len(scored) > limit {
		return scored[:limit]
	}
	return scored
}
