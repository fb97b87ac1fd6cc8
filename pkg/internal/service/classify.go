package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/yeisme/docvault/pkg/internal/classify"
	"github.com/yeisme/docvault/pkg/internal/dedup"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/normalize"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/queue"
)

// ClassifyBatch 依次分类 uploaded 状态的文档并把成功的推进到 pending_approval.
// 单个文档失败不影响其余文档；调用方断开后已开始的批次会继续执行完.
func (s *DocumentService) ClassifyBatch(ctx context.Context, ids []string) (types.ClassifyResponse, error) {
	if len(ids) == 0 {
		return types.ClassifyResponse{}, fmt.Errorf("%w: ids is required", ErrInvalidInput)
	}

	start := time.Now()
	ctx = context.WithoutCancel(ctx)

	docs, err := s.loadMany(ctx, ids)
	if err != nil {
		return types.ClassifyResponse{}, err
	}

	if len(docs) == 0 {
		return types.ClassifyResponse{}, fmt.Errorf("%w: none of the %d ids matched", ErrNotFound, len(ids))
	}

	res := types.ClassifyResponse{Results: make([]types.ClassifyResult, 0, len(ids))}

	for _, id := range ids {
		r := types.ClassifyResult{ID: id}

		doc, ok := docs[id]
		if !ok {
			r.Error = ErrNotFound.Error()
		} else if err := s.classifyOne(ctx, doc); err != nil {
			r.Error = err.Error()
		} else {
			r.Success = true
			r.AIModelUsed = model.Deref(doc.AIModelUsed)
			r.ConfidenceScore = doc.ConfidenceScore
		}

		if r.Success {
			res.Processed++
		} else {
			res.Failed++
		}

		res.Results = append(res.Results, r)
	}

	res.DurationMS = time.Since(start).Milliseconds()

	log.Component("classify").Info().Int("processed", res.Processed).Int("failed", res.Failed).Int64("duration_ms", res.DurationMS).Msg("classify batch finished")

	return res, nil
}

func (s *DocumentService) classifyOne(ctx context.Context, doc *model.Document) error {
	if doc.Status != model.StatusUploaded {
		return fmt.Errorf("%w: status is %s", ErrInvalidState, doc.Status)
	}

	data, err := s.read(ctx, doc.FilePath)
	if err != nil {
		return fmt.Errorf("read object %s: %w", doc.FilePath, err)
	}

	// webhook 登记时对象可能还不可读，此处补齐哈希并保持活跃行哈希唯一
	var hash string
	var size int64

	if doc.ContentHash == "" {
		hash, size, _ = dedup.Hash(bytes.NewReader(data))

		existing, err := s.detector.FindLive(ctx, hash)
		if err != nil {
			return err
		}

		if existing != nil && existing.ID != doc.ID {
			err := fmt.Errorf("%w: content duplicates document %s", ErrInvalidState, existing.ID)
			s.markFailed(ctx, doc, err)

			return err
		}
	}

	text := doc.ContentText
	if text == "" {
		text = s.excerpt(data)
	}

	a, err := s.classify.Classify(ctx, classify.Input{
		ID:       doc.ID,
		Filename: doc.Filename(),
		MimeType: "application/pdf",
		Content:  data,
		Text:     text,
	})
	if err != nil {
		s.markFailed(ctx, doc, err)

		if errors.Is(err, classify.ErrUnclassified) {
			return classify.ErrUnclassified
		}

		return err
	}

	u := normalize.Normalize(a, s.schema)
	now := time.Now().UTC()

	columns := u.Columns()
	columns["ai_model_used"] = a.Provider
	columns["processed_at"] = now
	columns["classify_error"] = nil
	columns["content_text"] = text

	if a.Raw != "" {
		columns["raw_response"] = datatypes.JSON(a.Raw)
	}

	if hash != "" {
		columns["content_hash"] = hash
		columns["file_size"] = size
	}

	if err := s.machine.Advance(ctx, doc, model.StatusPendingApproval, columns); err != nil {
		return err
	}

	u.Apply(doc)
	doc.AIModelUsed = model.Ptr(a.Provider)
	doc.ProcessedAt = &now
	doc.ClassifyError = nil
	doc.ContentText = text

	if hash != "" {
		doc.ContentHash, doc.FileSize = hash, size
	}

	return nil
}

// markFailed 记录失败原因，文档保持 uploaded 等待重试.
func (s *DocumentService) markFailed(ctx context.Context, doc *model.Document, cause error) {
	err := s.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND status = ?", doc.ID, model.StatusUploaded).
		Update("classify_error", cause.Error()).Error
	if err != nil {
		log.Component("classify").Warn().Err(err).Str("document_id", doc.ID).Msg("record classify error failed")
	}

	s.events.Emit(ctx, queue.TopicDocumentClassifyFailed, queue.DocumentEvent{
		ID: doc.ID, Status: string(doc.Status), FilePath: doc.FilePath, Source: string(doc.Source), Error: cause.Error(),
	})
}
