package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"
)

// MemoryKV 进程内 KV，单实例部署和测试使用，过期键在读取时惰性清理.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例，config 被忽略.
func NewMemoryKV(_ context.Context, _ any) (KVStore, error) {
	return NewMemory(), nil
}

// NewMemory 直接返回具体类型，便于测试注入时钟.
func NewMemory() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte), now: time.Now}
}

// WithClock 替换时钟.
func (m *MemoryKV) WithClock(now func() time.Time) *MemoryKV {
	m.now = now
	return m
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	val, expired, err := unwrap(raw, m.now())
	if err != nil {
		return nil, err
	}

	if expired {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	out := make([]byte, len(val))
	copy(out, val)

	return out, nil
}

// Set 设置键的值，ttl<=0 表示不过期.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := wrap(value, ttl, m.now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.data[key] = encoded
	m.mu.Unlock()

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

// Exists 检查键是否存在且未过期.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Keys 返回匹配 glob 模式且未过期的键，空模式返回全部.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	keys := make([]string, 0, len(m.data))

	for k, raw := range m.data {
		if _, expired, _ := unwrap(raw, now); expired {
			continue
		}

		if pattern == "" || pattern == "*" {
			keys = append(keys, k)
			continue
		}

		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}

		if ok {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Close 内存实现无需释放资源.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
