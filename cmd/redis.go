package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"EchoFM/config"
	"EchoFM/store"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试键值存储的Redis连接是否成功，并进行基本读写操作。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始测试Redis连接...")

		cfg := config.Load()
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		kv, err := store.NewRedisStore(cfg)
		if err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		defer kv.Close()
		fmt.Println("Redis连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := kv.Ping(ctx); err != nil {
			log.Fatalf("Redis读写测试失败: %v", err)
		}
		fmt.Println("Redis读写测试成功，连接已关闭。")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
