package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/queue"
	"github.com/yeisme/docvault/pkg/tracing"
)

// SweepItem 一个待清理（或已清理）的软删除文档.
type SweepItem struct {
	ID        string     `json:"id"`
	FilePath  string     `json:"file_path"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	// ObjectError 删除对象失败的原因，行仍然会被硬删除
	ObjectError string `json:"object_error,omitempty"`
}

// SweepResult 清理结果.
type SweepResult struct {
	DryRun     bool        `json:"dry_run"`
	Candidates []SweepItem `json:"candidates"`
	Purged     int         `json:"purged"`
}

// Sweep 清理所有软删除文档：尽力删除对象，然后硬删除行. 重复执行是安全的.
// dryRun 只列出候选.
func (m *Machine) Sweep(ctx context.Context, dryRun bool) (SweepResult, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.sweep")
	defer span.End()

	logger := log.Component("lifecycle")

	var rows []model.Document
	if err := m.db.WithContext(ctx).Unscoped().
		Where("status = ?", model.StatusDeleted).
		Order("deleted_at").
		Find(&rows).Error; err != nil {
		return SweepResult{}, fmt.Errorf("list deleted documents: %w", err)
	}

	res := SweepResult{DryRun: dryRun, Candidates: make([]SweepItem, 0, len(rows))}

	for i := range rows {
		doc := &rows[i]
		item := SweepItem{ID: doc.ID, FilePath: doc.FilePath}

		if doc.DeletedAt.Valid {
			t := doc.DeletedAt.Time
			item.DeletedAt = &t
		}

		if dryRun {
			res.Candidates = append(res.Candidates, item)
			continue
		}

		if doc.FilePath != "" {
			if err := m.store.Remove(ctx, doc.FilePath); err != nil {
				item.ObjectError = err.Error()
				logger.Warn().Err(err).Str("document_id", doc.ID).Str("key", doc.FilePath).Msg("remove object failed, purging row anyway")
			}
		}

		tx := m.db.WithContext(ctx).Unscoped().
			Where("id = ? AND status = ?", doc.ID, model.StatusDeleted).
			Delete(&model.Document{})
		if tx.Error != nil {
			return res, fmt.Errorf("purge %s: %w", doc.ID, tx.Error)
		}

		res.Candidates = append(res.Candidates, item)

		if tx.RowsAffected == 0 {
			continue
		}

		res.Purged++
		metrics.Purged.Inc()

		m.events.Emit(ctx, queue.TopicDocumentPurged, queue.DocumentEvent{
			ID: doc.ID, Status: "purged", FromStatus: string(model.StatusDeleted), FilePath: doc.FilePath,
		})
	}

	if !dryRun {
		logger.Info().Int("candidates", len(rows)).Int("purged", res.Purged).Msg("cleanup sweep finished")
	}

	return res, nil
}
