package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yeisme/docvault/pkg/internal/analysis"
	"github.com/yeisme/docvault/pkg/internal/dedup"
	"github.com/yeisme/docvault/pkg/internal/lifecycle"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/normalize"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/rule"
)

// 审核结果状态.
const (
	ApproveArchived          = "archived"
	ApproveNeedsConfirmation = "needs_confirmation"
	ApproveBlocked           = "blocked"
	ApproveError             = "error"
)

// Approve 审核通过并归档. 发现近似重复时未确认返回 DuplicateError，硬拦截时确认也无效.
func (s *DocumentService) Approve(ctx context.Context, id, reviewer string, confirm bool) (*model.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.approve(ctx, doc, reviewer, confirm); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *DocumentService) approve(ctx context.Context, doc *model.Document, reviewer string, confirm bool) error {
	if doc.Status != model.StatusPendingApproval {
		return fmt.Errorf("%w: status is %s", ErrInvalidState, doc.Status)
	}

	cands, err := s.detector.NearDuplicates(ctx, doc)
	if err != nil {
		return err
	}

	if len(cands) > 0 {
		if s.detector.Blocks(cands) {
			return &DuplicateError{Candidates: cands, Blocked: true}
		}

		if !confirm {
			return &DuplicateError{Candidates: cands}
		}
	}

	now := time.Now().UTC()
	columns := map[string]any{"reviewed_at": now}

	if reviewer != "" {
		columns["reviewed_by"] = reviewer
	}

	if err := s.machine.Advance(ctx, doc, model.StatusArchived, columns); err != nil {
		return s.stateErr(err)
	}

	doc.ReviewedAt = &now
	if reviewer != "" {
		doc.ReviewedBy = model.Ptr(reviewer)
	}

	return nil
}

// ApproveBatch 批量审核通过，逐个报告结果.
func (s *DocumentService) ApproveBatch(ctx context.Context, ids []string, reviewer string, confirm bool) (types.ApproveBatchResponse, error) {
	if len(ids) == 0 {
		return types.ApproveBatchResponse{}, fmt.Errorf("%w: ids is required", ErrInvalidInput)
	}

	docs, err := s.loadMany(ctx, ids)
	if err != nil {
		return types.ApproveBatchResponse{}, err
	}

	res := types.ApproveBatchResponse{Results: make([]types.ApproveResult, 0, len(ids)), Total: len(ids)}

	for _, id := range ids {
		r := types.ApproveResult{ID: id}

		doc, ok := docs[id]
		if !ok {
			r.Status, r.Error = ApproveError, ErrNotFound.Error()
			res.Failed++
			res.Results = append(res.Results, r)

			continue
		}

		err := s.approve(ctx, doc, reviewer, confirm)

		var dup *DuplicateError

		switch {
		case err == nil:
			r.Status, r.FilePath = ApproveArchived, doc.FilePath
			res.Archived++
		case errors.As(err, &dup):
			r.Status, r.Error, r.Duplicates = ApproveNeedsConfirmation, dup.Error(), dup.Candidates
			if dup.Blocked {
				r.Status = ApproveBlocked
			}

			res.Failed++
		default:
			r.Status, r.Error = ApproveError, err.Error()
			res.Failed++
		}

		res.Results = append(res.Results, r)
	}

	return res, nil
}

// Delete 软删除待审核或已归档的文档.
func (s *DocumentService) Delete(ctx context.Context, id, reviewer string) error {
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	return s.stateErr(s.machine.SoftDelete(ctx, doc, reviewer))
}

// DeleteBatch 批量软删除.
func (s *DocumentService) DeleteBatch(ctx context.Context, ids []string, reviewer string) (types.DeleteBatchResponse, error) {
	if len(ids) == 0 {
		return types.DeleteBatchResponse{}, fmt.Errorf("%w: ids is required", ErrInvalidInput)
	}

	docs, err := s.loadMany(ctx, ids)
	if err != nil {
		return types.DeleteBatchResponse{}, err
	}

	res := types.DeleteBatchResponse{Results: make([]types.DeleteResult, 0, len(ids)), Total: len(ids)}

	for _, id := range ids {
		r := types.DeleteResult{ID: id}

		if doc, ok := docs[id]; !ok {
			r.Error = ErrNotFound.Error()
		} else if err := s.stateErr(s.machine.SoftDelete(ctx, doc, reviewer)); err != nil {
			r.Error = err.Error()
		} else {
			r.Success = true
		}

		if r.Success {
			res.Deleted++
		} else {
			res.Failed++
		}

		res.Results = append(res.Results, r)
	}

	return res, nil
}

// Edit 审核员修改分类字段. 修改后的字段与分类结果走同一套规整规则.
func (s *DocumentService) Edit(ctx context.Context, id string, req types.EditRequest) (*model.Document, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.Status != model.StatusPendingApproval && doc.Status != model.StatusArchived {
		return nil, fmt.Errorf("%w: status is %s", ErrInvalidState, doc.Status)
	}

	a := analysisOf(doc)
	merge(a, req)

	if a.Category == "" {
		return nil, fmt.Errorf("%w: document_type_category is required", ErrInvalidInput)
	}

	u := normalize.Normalize(a, s.schema)

	res := s.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND status = ?", doc.ID, doc.Status).
		Updates(u.Columns())
	if res.Error != nil {
		return nil, fmt.Errorf("update document %s: %w", doc.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, doc.ID)
	}

	u.Apply(doc)

	return doc, nil
}

// Duplicates 预览归档前的近似重复检查结果.
func (s *DocumentService) Duplicates(ctx context.Context, id string) (types.DuplicatesResponse, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return types.DuplicatesResponse{}, err
	}

	cands, err := s.detector.NearDuplicates(ctx, doc)
	if err != nil {
		return types.DuplicatesResponse{}, err
	}

	if cands == nil {
		cands = []dedup.Candidate{}
	}

	return types.DuplicatesResponse{ID: doc.ID, Duplicates: cands, Blocking: s.detector.Blocks(cands)}, nil
}

// stateErr 把状态机的错误映射为服务层错误.
func (s *DocumentService) stateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrStatusChanged):
		return fmt.Errorf("%w: %s", ErrInvalidState, err.Error())
	default:
		return err
	}
}

// analysisOf 用文档当前字段还原抽取结果，作为编辑的基线.
func analysisOf(d *model.Document) *analysis.Analysis {
	a := &analysis.Analysis{
		Category:         d.Category(),
		Party:            model.Deref(d.Party),
		SubParty:         model.Deref(d.SubParty),
		DocumentType:     model.Deref(d.DocumentType),
		Notes:            model.Deref(d.Notes),
		Summary:          model.Deref(d.AISummary),
		DocumentDate:     normalize.EffectiveDate(d),
		ExecutedDate:     model.Deref(d.ExecutedDate),
		LetterDate:       model.Deref(d.LetterDate),
		PeriodEndDate:    model.Deref(d.PeriodEndDate),
		DueDate:          model.Deref(d.DueDate),
		DocumentCategory: model.Deref(d.DocumentCategory),
		ContractType:     model.Deref(d.ContractType),
		Confidence:       d.ConfidenceScore,
	}

	if d.Amount != nil {
		a.Amount = *d.Amount
	}

	return a
}

func merge(a *analysis.Analysis, req types.EditRequest) {
	if req.DocumentTypeCategory != nil {
		a.Category, _ = model.ParseCategory(*req.DocumentTypeCategory)
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}

	set(&a.Party, req.Party)
	set(&a.SubParty, req.SubParty)
	set(&a.DocumentType, req.DocumentType)
	set(&a.Notes, req.Notes)
	set(&a.Summary, req.AISummary)
	set(&a.DocumentCategory, req.DocumentCategory)
	set(&a.ContractType, req.ContractType)
	set(&a.DueDate, req.DueDate)

	if req.DocumentDate != nil {
		a.DocumentDate = strings.TrimSpace(*req.DocumentDate)
		// 显式给出的日期优先于旧字段
		a.ExecutedDate, a.LetterDate, a.PeriodEndDate = "", "", ""
	}

	if req.Amount != nil {
		a.Amount = req.Amount
	}
}
