package kv

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/docvault/pkg/configs"
)

// GroupcacheKV 以 MemoryKV 为数据源、groupcache 为读缓存的 KV.
//
// groupcache 的条目不可变，所以每个键带一个写版本号：Set/Delete 递增版本，
// 旧版本的缓存条目自然失效. 过期判断仍由 MemoryKV 负责.
type GroupcacheKV struct {
	group *groupcache.Group
	pool  *groupcache.HTTPPool
	store *MemoryKV

	mu       sync.Mutex
	versions map[string]uint64
}

var (
	groupsMu sync.Mutex
	// groupcache.NewGroup 同名重复注册会 panic，按名称复用
	groups = map[string]*GroupcacheKV{}
)

// NewGroupcacheKV 创建 Groupcache KV 实例，同一进程内同名组只创建一次.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.GroupcacheKVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid groupcache kv config: %T", config)
	}

	groupsMu.Lock()
	defer groupsMu.Unlock()

	if g, ok := groups[cfg.Name]; ok {
		return g, nil
	}

	g := &GroupcacheKV{
		store:    NewMemory(),
		versions: make(map[string]uint64),
	}
	g.group = groupcache.NewGroup(cfg.Name, cfg.CacheBytes, groupcache.GetterFunc(g.load))

	if len(cfg.Peers) > 0 {
		g.pool = groupcache.NewHTTPPoolOpts(cfg.Self, &groupcache.HTTPPoolOptions{})
		g.pool.Set(cfg.Peers...)
	}

	groups[cfg.Name] = g

	return g, nil
}

// load groupcache 未命中时从 MemoryKV 读取，缓存键形如 "<version>/<key>".
func (g *GroupcacheKV) load(ctx context.Context, cacheKey string, dest groupcache.Sink) error {
	_, key, ok := strings.Cut(cacheKey, "/")
	if !ok {
		return fmt.Errorf("malformed cache key %q", cacheKey)
	}

	val, err := g.store.Get(ctx, key)
	if err != nil {
		return err
	}

	return dest.SetBytes(val)
}

func (g *GroupcacheKV) cacheKey(key string) string {
	g.mu.Lock()
	v := g.versions[key]
	g.mu.Unlock()

	return strconv.FormatUint(v, 10) + "/" + key
}

func (g *GroupcacheKV) bump(key string) {
	g.mu.Lock()
	g.versions[key]++
	g.mu.Unlock()
}

// Get 先确认键未过期，再经 groupcache 读取.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	ok, err := g.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	var data []byte
	if err := g.group.Get(ctx, g.cacheKey(key), groupcache.AllocatingByteSliceSink(&data)); err != nil {
		return nil, fmt.Errorf("groupcache get %s: %w", key, err)
	}

	return data, nil
}

// Set 写入数据源并使旧缓存失效.
func (g *GroupcacheKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := g.store.Set(ctx, key, value, ttl); err != nil {
		return err
	}

	g.bump(key)

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(ctx context.Context, key string) error {
	if err := g.store.Delete(ctx, key); err != nil {
		return err
	}

	g.bump(key)

	return nil
}

// Exists 检查键是否存在且未过期.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	return g.store.Exists(ctx, key)
}

// Keys 按 path.Match 语法列出键.
func (g *GroupcacheKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	return g.store.Keys(ctx, pattern)
}

// Close groupcache 没有需要释放的连接.
func (g *GroupcacheKV) Close() error { return nil }

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
