package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"EchoFM/activity"
	"EchoFM/cache"
	"EchoFM/config"
	"EchoFM/provider"
	"EchoFM/store"
	"EchoFM/trending"

	"github.com/spf13/cobra"
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "一次性重算趋势榜",
	Long:  `读取全部播放计数器，重算并缓存趋势榜，然后退出。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		kv, err := store.NewRedisStore(cfg)
		if err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		defer kv.Close()

		catalog := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderTimeout)
		songs := cache.NewEntityCache(kv)
		generic := cache.NewGenericCache(kv)
		act := activity.NewRepository(kv)
		agg := trending.NewAggregator(act, generic, songs, catalog, cfg.TrendingInterval)

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		entries, err := agg.Recompute(ctx)
		if err != nil {
			log.Fatalf("趋势榜重算失败: %v", err)
		}
		fmt.Printf("趋势榜重算完成，共 %d 条\n", len(entries))
		for i, e := range entries {
			if i >= 10 {
				break
			}
			title := e.SongID
			if e.Song != nil {
				title = e.Song.Title
			}
			fmt.Printf("%2d. %s (score %.1f)\n", i+1, title, e.Score)
		}
	},
}

func init() {
	rootCmd.AddCommand(trendingCmd)
}
