// Package kv 缓存与幂等标记使用的键值存储.
//
// 实现：memory（默认，单进程）、redis、nats（JetStream KV）与 groupcache.
// 不支持原生过期的实现统一使用 ttl.go 中的信封编码.
package kv

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/yeisme/docvault/pkg/configs"
)

// ErrKeyNotFound 键不存在或已过期.
var ErrKeyNotFound = errors.New("kv: key not found")

// KVStore 键值存储. 不存在的键 Get 返回 ErrKeyNotFound；ttl<=0 表示不过期.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 按 glob 模式列出键，仅用于运维命令
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// pinger 有原生探活命令的实现.
type pinger interface {
	Ping(ctx context.Context) error
}

// KVType 实现名称，与配置 kv.type 对应.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// KVFactory 由对应的子配置创建实现.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[KVType]KVFactory{}
)

// RegisterKVFactory 在 init 中注册实现.
func RegisterKVFactory(t KVType, f KVFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// GetRegisteredKVTypes 已注册的实现（已排序）.
func GetRegisteredKVTypes() []KVType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	return slices.Sorted(maps.Keys(factories))
}

// Client 配置选中的存储.
type Client struct {
	KVStore
	Type KVType
}

// New 按 kv.type 选择子配置并创建存储，未配置时使用 memory.
func New(ctx context.Context, cfg *configs.KVConfig) (*Client, error) {
	t := KVType(cfg.Type)
	if t == "" {
		t = KVTypeMemory
	}

	var sub any

	switch t {
	case KVTypeRedis:
		sub = &cfg.Redis
	case KVTypeNATS:
		sub = &cfg.NATS
	case KVTypeGroupcache:
		sub = &cfg.Groupcache
	}

	factoriesMu.RLock()
	factory, ok := factories[t]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported kv type %q (have %v)", t, GetRegisteredKVTypes())
	}

	store, err := factory(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("open %s kv: %w", t, err)
	}

	return &Client{KVStore: store, Type: t}, nil
}

const (
	probeKey = "health:probe"
	probeTTL = 10 * time.Second
)

// Ping 探活：有原生命令时直接使用，否则写入并读回一个短期探测键.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.KVStore == nil {
		return errors.New("kv client not initialized")
	}

	if p, ok := c.KVStore.(pinger); ok {
		return p.Ping(ctx)
	}

	if err := c.Set(ctx, probeKey, []byte("1"), probeTTL); err != nil {
		return err
	}

	_, err := c.Get(ctx, probeKey)

	return err
}
