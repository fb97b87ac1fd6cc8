package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/rule"
)

const (
	defaultPageSize = 50
)

// Search 在已归档文档中检索，语义检索不可用时回退到关键词检索.
func (s *DocumentService) Search(ctx context.Context, query string) (types.SearchResponse, error) {
	start := time.Now()
	query = strings.TrimSpace(query)

	if len([]rune(query)) < s.cfg.Search.MinQueryLength {
		return types.SearchResponse{}, fmt.Errorf("%w: query must be at least %d characters", ErrInvalidInput, s.cfg.Search.MinQueryLength)
	}

	var corpus []model.Document
	if err := s.db.WithContext(ctx).
		Where("status = ?", model.StatusArchived).
		Order("created_at DESC").
		Limit(s.engine.CorpusCap()).
		Find(&corpus).Error; err != nil {
		return types.SearchResponse{}, fmt.Errorf("load archived documents: %w", err)
	}

	res := s.engine.Search(ctx, query, corpus)

	return types.SearchResponse{
		Results:    types.NewDocuments(res.Documents),
		Total:      len(res.Documents),
		Query:      query,
		SearchType: string(res.Strategy),
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}

// List 分页列出文档. status=deleted 时列出软删除、等待清理的文档.
func (s *DocumentService) List(ctx context.Context, req types.ListDocumentsRequest) (types.ListDocumentsResponse, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return types.ListDocumentsResponse{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if req.Page <= 0 {
		req.Page = 1
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}

	q := s.db.WithContext(ctx).Model(&model.Document{})
	if req.Status == string(model.StatusDeleted) {
		q = q.Unscoped()
	}

	q = filter(q, req)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return types.ListDocumentsResponse{}, fmt.Errorf("count documents: %w", err)
	}

	var docs []model.Document
	if err := q.Order("created_at DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&docs).Error; err != nil {
		return types.ListDocumentsResponse{}, fmt.Errorf("list documents: %w", err)
	}

	return types.ListDocumentsResponse{
		Documents: types.NewDocuments(docs),
		Total:     total,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}, nil
}

func filter(q *gorm.DB, req types.ListDocumentsRequest) *gorm.DB {
	if req.Status != "" {
		q = q.Where("status = ?", req.Status)
	}

	if req.Category != "" {
		q = q.Where("document_type_category = ?", req.Category)
	}

	if req.Source != "" {
		q = q.Where("source = ?", req.Source)
	}

	return q
}

// Get 读取单个文档.
func (s *DocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	return s.load(ctx, id)
}

// Stats 统计文档的状态与类别分布，deleted 为等待清理的数量.
func (s *DocumentService) Stats(ctx context.Context) (types.StatsResponse, error) {
	type row struct {
		Name  *string
		Count int64
	}

	out := types.StatsResponse{ByStatus: map[string]int64{}, ByCategory: map[string]int64{}}

	var byStatus []row
	if err := s.db.WithContext(ctx).Unscoped().Model(&model.Document{}).
		Select("status AS name, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return out, fmt.Errorf("count by status: %w", err)
	}

	for _, r := range byStatus {
		out.ByStatus[model.Deref(r.Name)] = r.Count
		out.Total += r.Count
	}

	var byCategory []row
	if err := s.db.WithContext(ctx).Unscoped().Model(&model.Document{}).
		Select("document_type_category AS name, COUNT(*) AS count").
		Group("document_type_category").
		Scan(&byCategory).Error; err != nil {
		return out, fmt.Errorf("count by category: %w", err)
	}

	for _, r := range byCategory {
		k := model.Deref(r.Name)
		if k == "" {
			k = "unclassified"
		}

		out.ByCategory[k] += r.Count
	}

	return out, nil
}

// Cleanup 清除所有软删除文档的对象与行. dryRun 只列出候选.
func (s *DocumentService) Cleanup(ctx context.Context, dryRun bool) (types.CleanupResponse, error) {
	res, err := s.machine.Sweep(ctx, dryRun)
	if err != nil {
		return types.CleanupResponse{}, err
	}

	out := types.CleanupResponse{
		DryRun:     res.DryRun,
		Candidates: make([]types.CleanupItem, 0, len(res.Candidates)),
		Purged:     res.Purged,
		Total:      len(res.Candidates),
	}

	for _, c := range res.Candidates {
		item := types.CleanupItem{ID: c.ID, FilePath: c.FilePath, ObjectError: c.ObjectError}
		if c.DeletedAt != nil {
			item.DeletedAt = c.DeletedAt.UTC().Format(time.RFC3339)
		}

		out.Candidates = append(out.Candidates, item)
	}

	return out, nil
}
