package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore 内存实现，测试用
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[path]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = data
	return nil
}

func (s *MemoryStore) Update(_ context.Context, path string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make(map[string]any)
	if raw, ok := s.docs[path]; ok {
		if err := json.Unmarshal(raw, &existing); err != nil {
			existing = make(map[string]any)
		}
	}
	for k, v := range fields {
		existing[k] = v
	}
	data, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to marshal merged value for %s: %w", path, err)
	}
	s.docs[path] = data
	return nil
}

func (s *MemoryStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := uuid.NewString()
	if err := s.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

func (s *MemoryStore) List(_ context.Context, path string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage)
	prefix := path + "/"
	for k, v := range s.docs {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		child := k[len(prefix):]
		if strings.Contains(child, "/") {
			continue // 只返回直接子节点
		}
		raw := make([]byte, len(v))
		copy(raw, v)
		out[child] = json.RawMessage(raw)
	}
	return out, nil
}

func (s *MemoryStore) IncrBy(_ context.Context, path string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current int64
	if raw, ok := s.docs[path]; ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); err == nil {
			current = n
		}
	}
	current += delta
	s.docs[path] = []byte(strconv.FormatInt(current, 10))
	return current, nil
}
