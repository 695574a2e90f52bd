package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"EchoFM/config"
	"EchoFM/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const opTimeout = 5 * time.Second

// RedisStore 基于Redis实现Store。每个路径映射为一个键，父路径维护一个
// children集合以支持List。计数器使用INCRBY，保证并发下不丢增量
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, prefix: cfg.StorePrefix}, nil
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping 测试连接和基本读写操作
func (s *RedisStore) Ping(ctx context.Context) error {
	probe := s.prefix + ":ping_probe"
	if err := s.client.Set(ctx, probe, "ok", time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set probe key: %w", err)
	}
	val, err := s.client.Get(ctx, probe).Result()
	if err != nil {
		return fmt.Errorf("failed to get probe key: %w", err)
	}
	if val != "ok" {
		return fmt.Errorf("unexpected probe value: %s", val)
	}
	if err := s.client.Del(ctx, probe).Err(); err != nil {
		return fmt.Errorf("failed to delete probe key: %w", err)
	}
	return nil
}

func (s *RedisStore) key(path string) string {
	return s.prefix + ":" + path
}

func (s *RedisStore) childrenKey(parent string) string {
	return s.prefix + ":children:" + parent
}

// splitPath returns the parent path and the final segment.
func splitPath(path string) (string, string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, opTimeout)
}

func (s *RedisStore) Get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	data, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", path, err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(path), data, 0)
	parent, child := splitPath(path)
	pipe.SAdd(ctx, s.childrenKey(parent), child)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, path string, fields map[string]any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// 读-改-写合并，非原子；本系统不要求跨写入方的强一致
	existing := make(map[string]any)
	raw, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to load %s for update: %w", path, err)
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &existing); err != nil {
			// 形状不符视为空文档重建
			logger.Warn("丢弃形状不符的存量文档", logger.String("path", path))
			existing = make(map[string]any)
		}
	}
	for k, v := range fields {
		existing[k] = v
	}
	return s.Set(ctx, path, existing)
}

func (s *RedisStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := uuid.NewString()
	if err := s.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(path))
	pipe.Del(ctx, s.childrenKey(path))
	parent, child := splitPath(path)
	pipe.SRem(ctx, s.childrenKey(parent), child)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	children, err := s.client.SMembers(ctx, s.childrenKey(path)).Result()
	if err != nil {
		if err == redis.Nil {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("failed to list children of %s: %w", path, err)
	}
	out := make(map[string]json.RawMessage, len(children))
	if len(children) == 0 {
		return out, nil
	}

	keys := make([]string, len(children))
	for i, c := range children {
		keys[i] = s.key(path + "/" + c)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load children of %s: %w", path, err)
	}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue // 子节点已被删除但集合未清理，跳过
		}
		out[children[i]] = json.RawMessage(str)
	}
	return out, nil
}

func (s *RedisStore) IncrBy(ctx context.Context, path string, delta int64) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	pipe := s.client.Pipeline()
	incr := pipe.IncrBy(ctx, s.key(path), delta)
	parent, child := splitPath(path)
	pipe.SAdd(ctx, s.childrenKey(parent), child)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", path, err)
	}
	return incr.Val(), nil
}
