// Package service 实现文档入库、分类、审核、检索与清理的业务流程.
//
// DocumentService 在启动时构造一次，持有提供方（含熔断与限速状态）、状态机、
// 重复检测器与检索引擎；HTTP 处理器、命令行与定时任务共用同一实例.
//
// Example:
//
//	svc := service.New(service.Deps{DB: db, Store: store, KV: kv, Events: emitter, Config: cfg})
//	res, err := svc.ClassifyBatch(ctx, []string{"01j9..."})
package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/classify"
	"github.com/yeisme/docvault/pkg/internal/dedup"
	"github.com/yeisme/docvault/pkg/internal/lifecycle"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/normalize"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/internal/search"
	"github.com/yeisme/docvault/pkg/internal/storage"
	"github.com/yeisme/docvault/pkg/internal/storage/kv"
	"github.com/yeisme/docvault/pkg/internal/storage/s3"
	"github.com/yeisme/docvault/pkg/queue"
)

var (
	// ErrNotFound 文档不存在，或批量请求中没有任何 ID 命中.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput 请求参数不合法.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState 文档当前状态不允许该操作.
	ErrInvalidState = errors.New("document is not in a valid state for this operation")
	// ErrUnauthorized webhook 密钥缺失或不匹配.
	ErrUnauthorized = errors.New("unauthorized")
)

// DuplicateError 审核通过时发现近似重复. Blocked 为 true 表示即使确认也不允许归档.
type DuplicateError struct {
	Candidates []dedup.Candidate
	Blocked    bool
}

func (e *DuplicateError) Error() string {
	if e.Blocked {
		return fmt.Sprintf("approval blocked by %d near-duplicate document(s)", len(e.Candidates))
	}

	return fmt.Sprintf("%d near-duplicate document(s) found, confirm to archive anyway", len(e.Candidates))
}

// Deps 构造 DocumentService 所需的依赖. Providers 为空时按 Config.AI 构造.
type Deps struct {
	DB        *gorm.DB
	Store     s3.ObjectStore
	KV        kv.KVStore
	Events    *queue.Emitter
	Providers []provider.Provider
	Config    *configs.AppConfig
}

// DocumentService 文档业务服务.
type DocumentService struct {
	db       *gorm.DB
	store    s3.ObjectStore
	machine  *lifecycle.Machine
	classify *classify.Orchestrator
	detector *dedup.Detector
	engine   *search.Engine
	events   *queue.Emitter
	schema   normalize.Schema
	cfg      *configs.AppConfig
}

// New 组装服务.
func New(d Deps) *DocumentService {
	cfg := d.Config
	if cfg == nil {
		def := configs.Defaults()
		cfg = &def
	}

	providers := d.Providers
	if providers == nil {
		providers = provider.Build(cfg.AI)
	}

	var searchCache, nearCache *cache.Cache
	if d.KV != nil {
		searchCache = cache.New(d.KV, "search")
		nearCache = cache.New(d.KV, "near")
	}

	schema := normalize.ParseSchema(cfg.AI.SchemaVersion)
	folders := lifecycle.NewFolders(cfg.S3.Folders)

	return &DocumentService{
		db:       d.DB,
		store:    d.Store,
		machine:  lifecycle.New(d.DB, d.Store, folders, d.Events),
		classify: classify.New(providers, schema),
		detector: dedup.New(d.DB, provider.Pick(providers, cfg.AI.Judge), nearCache, cfg.Review.NearDuplicate),
		engine:   search.New(provider.Pick(providers, cfg.AI.Ranker), cfg.Search, searchCache),
		events:   d.Events,
		schema:   schema,
		cfg:      cfg,
	}
}

// NewFromManager 用存储管理器中的客户端组装服务.
func NewFromManager(mgr *storage.Manager, cfg *configs.AppConfig) *DocumentService {
	d := Deps{
		DB:     mgr.GetDBClient().GetDB(),
		Store:  mgr.GetS3Client(),
		Config: cfg,
	}

	if kvc := mgr.GetKVClient(); kvc != nil {
		d.KV = kvc.KVStore
	}

	if mqc := mgr.GetMQClient(); mqc != nil {
		d.Events = queue.NewEmitter(mqc, cfg.Events)
	}

	return New(d)
}

// Providers 按优先级返回分类提供方.
func (s *DocumentService) Providers() []provider.Provider {
	return s.classify.Providers()
}

// load 按 ID 读取未删除的文档.
func (s *DocumentService) load(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document

	err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}

	return &doc, nil
}

// loadMany 按 ID 批量读取未删除的文档.
func (s *DocumentService) loadMany(ctx context.Context, ids []string) (map[string]*model.Document, error) {
	var rows []model.Document
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	out := make(map[string]*model.Document, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}

	return out, nil
}
