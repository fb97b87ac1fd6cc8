package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStore 进程内对象存储.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject

	// FailCopy 非空时 Copy 返回该错误，测试用来模拟存储故障
	FailCopy error
}

var _ ObjectStore = (*MemoryStore)(nil)

// NewMemoryStore 创建空的内存对象存储.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

// Put 写入对象.
func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}

	m.mu.Lock()
	m.objects[key] = memObject{data: data, contentType: contentType, modified: time.Now().UTC()}
	m.mu.Unlock()

	return nil
}

// Get 读取对象.
func (m *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Stat 获取对象元数据.
func (m *MemoryStore) Stat(_ context.Context, key string) (ObjectInfo, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()

	if !ok {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	return info(key, obj), nil
}

// List 按键排序列出前缀下的对象.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ObjectInfo

	for k, obj := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, info(k, obj))
		}
	}

	slices.SortFunc(out, func(a, b ObjectInfo) int { return strings.Compare(a.Key, b.Key) })

	return out, nil
}

// Copy 复制对象.
func (m *MemoryStore) Copy(_ context.Context, src, dst string) error {
	if m.FailCopy != nil {
		return m.FailCopy
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[src]
	if !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, src)
	}

	m.objects[dst] = memObject{data: slices.Clone(obj.data), contentType: obj.contentType, modified: time.Now().UTC()}

	return nil
}

// Remove 删除对象.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()

	return nil
}

// HealthCheck 内存实现总是健康.
func (m *MemoryStore) HealthCheck(context.Context) error { return nil }

// Keys 返回全部键（已排序），测试断言用.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

func info(key string, obj memObject) ObjectInfo {
	return ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		ETag:         fmt.Sprintf("%016x", xxhash.Sum64(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.modified,
	}
}
