// Package testkit 提供包测试共用的内存依赖：SQLite 内存库、内存对象存储与脚本化的提供方.
package testkit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/internal/storage/s3"
	"github.com/yeisme/docvault/pkg/queue"
)

var dbSeq atomic.Int64

// NewDB 打开一个测试私有的内存 SQLite 并完成迁移，测试结束时关闭.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}

		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	// 单连接避免共享缓存下的表锁冲突
	sqlDB.SetMaxOpenConns(1)

	if err := model.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// NewStore 返回空的内存对象存储.
func NewStore() *s3.MemoryStore {
	return s3.NewMemoryStore()
}

// PutObject 向内存存储写入对象.
func PutObject(t testing.TB, store s3.ObjectStore, key string, data []byte) {
	t.Helper()

	if err := store.Put(context.Background(), key, strings.NewReader(string(data)), int64(len(data)), "application/pdf"); err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

// InsertDocument 插入一行文档，ID 为空时自动生成.
func InsertDocument(t testing.TB, db *gorm.DB, doc *model.Document) *model.Document {
	t.Helper()

	if doc.ID == "" {
		doc.ID = model.NewID()
	}

	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("insert document: %v", err)
	}

	return doc
}

// Provider 脚本化的提供方，按调用顺序返回 Replies/Errs 中的值，用尽后重复最后一个.
type Provider struct {
	ID      string
	Replies []string
	Errs    []error

	mu       sync.Mutex
	requests []provider.Request
}

var _ provider.Provider = (*Provider)(nil)

// Reply 总是返回同一回复的提供方.
func Reply(name, reply string) *Provider {
	return &Provider{ID: name, Replies: []string{reply}}
}

// Fail 总是返回错误的提供方.
func Fail(name string, err error) *Provider {
	return &Provider{ID: name, Errs: []error{err}}
}

// Name 实现 provider.Provider.
func (p *Provider) Name() string { return p.ID }

// Complete 实现 provider.Provider.
func (p *Provider) Complete(_ context.Context, req provider.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.requests)
	p.requests = append(p.requests, req)

	if len(p.Errs) > 0 {
		if err := p.Errs[min(n, len(p.Errs)-1)]; err != nil {
			return "", err
		}
	}

	if len(p.Replies) == 0 {
		return "", provider.ErrEmptyResponse
	}

	return p.Replies[min(n, len(p.Replies)-1)], nil
}

// Calls 返回已收到的调用次数.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.requests)
}

// Requests 返回收到的请求副本.
func (p *Provider) Requests() []provider.Request {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]provider.Request(nil), p.requests...)
}

// Events 记录发布过的主题.
type Events struct {
	mu     sync.Mutex
	topics []string
}

// Publish 实现 queue.Publisher.
func (e *Events) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for range msgs {
		e.topics = append(e.topics, topic)
	}

	return nil
}

// Topics 返回按发布顺序排列的主题.
func (e *Events) Topics() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.topics...)
}

// Count 返回某主题发布的次数.
func (e *Events) Count(topic string) int {
	n := 0

	for _, t := range e.Topics() {
		if t == topic {
			n++
		}
	}

	return n
}

// NewEmitter 返回打开全部主题的发布器及其记录器.
func NewEmitter() (*queue.Emitter, *Events) {
	rec := &Events{}
	cfg := configs.EventsConfig{
		Enabled: true,
		Document: configs.DocumentEventsConfig{
			Ingested: true, Classified: true, ClassifyFailed: true, Archived: true,
			Deleted: true, Purged: true, RelocationFailed: true,
		},
	}

	return queue.NewEmitter(rec, cfg), rec
}
