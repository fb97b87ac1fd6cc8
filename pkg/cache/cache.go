// Package cache 在 KV 存储之上提供带命名空间的泛型缓存.
//
// 检索结果和近似重复候选都通过它缓存：值用 sonic 序列化，键按命名空间加前缀，
// 长输入先用 Key 压成 xxhash 摘要. 未命中返回 ErrMiss，底层错误原样包装返回.
//
// Example:
//
//	c := cache.New(kvClient, "search")
//	key := cache.Key(query, strconv.Itoa(version))
//	res, err := cache.GetOrSet(ctx, c, key, func() (Result, error) {
//		return engine.run(ctx, query)
//	}, time.Minute)
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/docvault/pkg/internal/storage/kv"
)

// ErrMiss 缓存未命中.
var ErrMiss = errors.New("cache: miss")

// Cache 基于 KV 存储的缓存，所有键都带 namespace 前缀.
type Cache struct {
	store     kv.KVStore
	namespace string
}

// New 创建缓存，namespace 为空时不加前缀.
func New(store kv.KVStore, namespace string) *Cache {
	return &Cache{store: store, namespace: namespace}
}

// Key 把若干片段拼接后做 xxhash，得到定长十六进制键.
func Key(parts ...string) string {
	d := xxhash.New()

	for i, p := range parts {
		if i > 0 {
			_, _ = d.WriteString("\x1f")
		}

		_, _ = d.WriteString(p)
	}

	return strconv.FormatUint(d.Sum64(), 16)
}

func (c *Cache) key(k string) string {
	if c.namespace == "" {
		return k
	}

	return c.namespace + ":" + k
}

// Get 读取并反序列化缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var value T

	data, err := c.store.Get(ctx, c.key(key))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return value, ErrMiss
		}

		return value, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := sonic.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 序列化并写入缓存值，ttl<=0 表示不过期.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.store.Set(ctx, c.key(key), data, ttl)
}

// GetOrSet 命中直接返回，否则调用 getter 并回填. 回填失败不影响返回值.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	value, err := getter()
	if err != nil {
		return value, err
	}

	_ = Set(ctx, c, key, value, ttl)

	return value, nil
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.store.Exists(ctx, c.key(key))
}

// Clear 删除命名空间下的全部键；没有命名空间时清空整个存储.
func (c *Cache) Clear(ctx context.Context) error {
	pattern := "*"
	if c.namespace != "" {
		pattern = c.namespace + ":*"
	}

	keys, err := c.store.Keys(ctx, pattern)
	if err != nil {
		return err
	}

	var errs []error

	for _, k := range keys {
		if c.namespace != "" && !strings.HasPrefix(k, c.namespace+":") {
			continue
		}

		if err := c.store.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
