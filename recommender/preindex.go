package recommender

import (
	"context"
	"sync"
	"time"

	"EchoFM/cache"
	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/provider"
)

const preindexTaskTimeout = 30 * time.Second

// Preindexer warms the entity cache and the prefix index around songs a user
// just interacted with: provider suggestions plus the top songs of the
// primary artists. Work runs on a bounded pool; a full queue drops the task
// instead of blocking the caller.
type Preindexer struct {
	catalog Catalog
	songs   *cache.EntityCache
	index   *cache.PrefixIndex

	tasks    chan string
	workers  int
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu     sync.Mutex
	closed bool
}

// NewPreindexer creates a preindexer with the given pool size and queue depth.
func NewPreindexer(catalog Catalog, songs *cache.EntityCache, index *cache.PrefixIndex, workers, queueDepth int) *Preindexer {
	if workers <= 0 {
		workers = 4
	}
	if queueDepth <= 0 {
		queueDepth = 256
	}
	return &Preindexer{
		catalog: catalog,
		songs:   songs,
		index:   index,
		tasks:   make(chan string, queueDepth),
		workers: workers,
	}
}

// Start launches the worker pool.
func (p *Preindexer) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	logger.Info("预建索引工作池启动", logger.Int("workers", p.workers), logger.Int("queue", cap(p.tasks)))
}

// Stop closes the queue and waits for in-flight tasks to drain.
func (p *Preindexer) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.tasks)
		p.wg.Wait()
		logger.Info("预建索引工作池停止")
	})
}

// Enqueue submits a song for preindexing. Returns false when the pool is
// stopped or the queue is full; the task is dropped, never blocked on.
func (p *Preindexer) Enqueue(songID string) bool {
	if songID == "" {
		return false
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	select {
	case p.tasks <- songID:
		p.mu.Unlock()
		return true
	default:
		p.mu.Unlock()
		logger.Debug("预建索引队列已满，丢弃任务", logger.String("songId", songID))
		return false
	}
}

func (p *Preindexer) worker() {
	defer p.wg.Done()
	for songID := range p.tasks {
		p.preindex(songID)
	}
}

// preindex 单曲预建：相似歌曲 + 最多2位主唱各自的前10首。
// 任何一步失败只记日志，不影响其余步骤
func (p *Preindexer) preindex(songID string) {
	ctx, cancel := context.WithTimeout(context.Background(), preindexTaskTimeout)
	defer cancel()

	if raw, err := p.catalog.GetSuggestions(ctx, songID, 10); err != nil {
		logger.Debug("预建索引：相似歌曲获取失败", logger.String("songId", songID), logger.ErrorField(err))
	} else {
		p.absorb(ctx, provider.SlimSongs(raw, model.QualityMedium))
	}

	song, err := p.catalog.GetSong(ctx, songID)
	if err != nil || song == nil {
		logger.Debug("预建索引：歌曲详情获取失败", logger.String("songId", songID), logger.ErrorField(err))
		return
	}
	if song.Artists == nil {
		return
	}
	primaries := song.Artists.Primary
	if len(primaries) > 2 {
		primaries = primaries[:2]
	}
	for _, artist := range primaries {
		if artist.ID == "" {
			continue
		}
		raw, err := p.catalog.GetArtistSongs(ctx, string(artist.ID), 0)
		if err != nil {
			logger.Debug("预建索引：艺术家歌曲获取失败", logger.String("artistId", string(artist.ID)), logger.ErrorField(err))
			continue
		}
		if len(raw) > 10 {
			raw = raw[:10]
		}
		p.absorb(ctx, provider.SlimSongs(raw, model.QualityMedium))
	}
}

func (p *Preindexer) absorb(ctx context.Context, songs []model.SlimSong) {
	for _, song := range songs {
		if err := p.songs.PutSong(ctx, song); err != nil {
			logger.Debug("预建索引：写入歌曲失败", logger.String("songId", song.ID), logger.ErrorField(err))
			continue
		}
		if err := p.index.Index(ctx, song.ID, song.Title, song.Artist); err != nil {
			logger.Debug("预建索引：写入前缀失败", logger.String("songId", song.ID), logger.ErrorField(err))
		}
	}
}
