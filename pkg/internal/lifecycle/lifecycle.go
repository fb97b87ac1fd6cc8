// Package lifecycle 管理文档状态迁移及其在对象存储中的目录位置.
//
// 状态只能单向前进：
//
//	uploaded -> pending_approval -> archived
//	                 |                  |
//	                 +----> deleted <---+
//
// 每次前进分两步：先把对象从旧目录复制到新目录（目标键被其他文档占用时改用 "<id>-<文件名>"）并删除旧对象，再用
// UPDATE ... WHERE id = ? AND status = ? 更新行. 两步各自幂等，迁移失败只记录日志，
// 状态照常前进而路径保持旧值.
//
// Example:
//
//	m := lifecycle.New(db, store, lifecycle.NewFolders(cfg.S3.Folders), emitter)
//	if err := m.Advance(ctx, doc, model.StatusArchived, map[string]any{"reviewed_by": user}); err != nil {
//		if errors.Is(err, lifecycle.ErrStatusChanged) {
//			// 并发审核，行已被别人处理
//		}
//	}
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/storage/s3"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/queue"
	"github.com/yeisme/docvault/pkg/tracing"
)

var (
	// ErrInvalidTransition 状态迁移不在允许表中.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStatusChanged 条件更新没有命中行，说明状态已被并发修改或行已不存在.
	ErrStatusChanged = errors.New("document status changed concurrently")
)

var transitions = map[model.DocumentStatus][]model.DocumentStatus{
	model.StatusUploaded:        {model.StatusPendingApproval},
	model.StatusPendingApproval: {model.StatusArchived, model.StatusDeleted},
	model.StatusArchived:        {model.StatusDeleted},
}

// CanTransition 判断 from -> to 是否允许. 自迁移一律拒绝.
func CanTransition(from, to model.DocumentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}

	return false
}

// Folders 状态到目录前缀的映射.
type Folders struct {
	Import  string
	Review  string
	Archive string
}

// NewFolders 从配置构造目录映射，前缀统一以 "/" 结尾.
func NewFolders(cfg configs.FoldersConfig) Folders {
	n := cfg.Normalized()

	return Folders{Import: n.Import, Review: n.Review, Archive: n.Archive}
}

// DefaultFolders import/、review/、archive/.
func DefaultFolders() Folders {
	return NewFolders(configs.FoldersConfig{})
}

// Prefix 返回状态对应的目录前缀. deleted 没有目录，保持原路径.
func (f Folders) Prefix(s model.DocumentStatus) (string, bool) {
	switch s {
	case model.StatusUploaded:
		return f.Import, true
	case model.StatusPendingApproval:
		return f.Review, true
	case model.StatusArchived:
		return f.Archive, true
	default:
		return "", false
	}
}

// Relocated 把 key 中已知的目录前缀替换为目标状态的前缀；没有已知前缀时直接加上目标前缀.
func (f Folders) Relocated(key string, to model.DocumentStatus) string {
	prefix, ok := f.Prefix(to)
	if !ok {
		return key
	}

	rest := key
	for _, p := range []string{f.Import, f.Review, f.Archive} {
		if strings.HasPrefix(key, p) {
			rest = strings.TrimPrefix(key, p)
			break
		}
	}

	return prefix + strings.TrimLeft(rest, "/")
}

// Unique 在文件名前加上文档 ID，用于目标键已被其他文档占用的情况.
func (f Folders) Unique(key, id string) string {
	dir, name := path.Split(key)
	if strings.HasPrefix(name, id+"-") {
		return key
	}

	return dir + id + "-" + name
}

// ImportKey 新文档在收件目录下的对象键.
func (f Folders) ImportKey(filename string) string {
	return f.Import + path.Base(strings.ReplaceAll(filename, "\\", "/"))
}

// Machine 执行状态迁移.
type Machine struct {
	db      *gorm.DB
	store   s3.ObjectStore
	folders Folders
	events  *queue.Emitter
	now     func() time.Time
}

// New 创建状态机. events 可以为 nil.
func New(db *gorm.DB, store s3.ObjectStore, folders Folders, events *queue.Emitter) *Machine {
	return &Machine{db: db, store: store, folders: folders, events: events, now: time.Now}
}

// Folders 返回目录映射.
func (m *Machine) Folders() Folders { return m.folders }

// Advance 把文档前进到 to，columns 为同一条 UPDATE 中一并写入的其他列.
// 成功后 doc 的 Status 与 FilePath 会被更新.
func (m *Machine) Advance(ctx context.Context, doc *model.Document, to model.DocumentStatus, columns map[string]any) error {
	from := doc.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	if to == model.StatusDeleted {
		return m.softDelete(ctx, doc, model.Deref(asString(columns["reviewed_by"])))
	}

	ctx, span := tracing.StartSpan(ctx, "lifecycle.advance", trace.WithAttributes(
		attribute.String("document.id", doc.ID),
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	))
	defer span.End()

	logger := log.Logger().With().Str("component", "lifecycle").Str("document_id", doc.ID).Logger()

	prev := doc.FilePath
	newPath := prev

	if dst := m.folders.Relocated(prev, to); dst != prev && prev != "" {
		moved, err := m.relocate(ctx, doc, prev, dst)
		if err != nil {
			logger.Warn().Err(err).Str("from", prev).Str("to", dst).Msg("relocation failed, path left stale")
			metrics.Relocations.WithLabelValues(string(to), "failed").Inc()
			span.RecordError(err)

			m.events.Emit(ctx, queue.TopicDocumentRelocationFailed, queue.DocumentEvent{
				ID: doc.ID, Status: string(to), FromStatus: string(from), FilePath: prev, PrevPath: prev, Error: err.Error(),
			})
		} else {
			newPath = moved
			metrics.Relocations.WithLabelValues(string(to), "ok").Inc()
		}
	}

	updates := maps.Clone(columns)
	if updates == nil {
		updates = map[string]any{}
	}

	updates["status"] = to
	updates["file_path"] = newPath

	res := m.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND status = ?", doc.ID, from).
		Updates(updates)
	if res.Error != nil {
		span.SetStatus(codes.Error, res.Error.Error())
		return fmt.Errorf("update document %s: %w", doc.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		span.SetStatus(codes.Error, ErrStatusChanged.Error())
		return fmt.Errorf("%w: %s", ErrStatusChanged, doc.ID)
	}

	doc.Status = to
	doc.FilePath = newPath

	logger.Info().Str("from", string(from)).Str("to", string(to)).Str("path", newPath).Msg("document advanced")

	ev := queue.DocumentEvent{
		ID: doc.ID, Status: string(to), FromStatus: string(from), FilePath: newPath, Source: string(doc.Source),
		Category: model.Deref(asString(updates["document_type_category"])),
		Provider: model.Deref(asString(updates["ai_model_used"])),
		Reviewer: model.Deref(asString(updates["reviewed_by"])),
	}
	if newPath != prev {
		ev.PrevPath = prev
	}

	switch to {
	case model.StatusPendingApproval:
		m.events.Emit(ctx, queue.TopicDocumentClassified, ev)
	case model.StatusArchived:
		m.events.Emit(ctx, queue.TopicDocumentArchived, ev)
	}

	return nil
}

// SoftDelete 标记删除，不动对象存储. 行随后对默认查询不可见，由 Sweep 清理.
func (m *Machine) SoftDelete(ctx context.Context, doc *model.Document, reviewer string) error {
	if !CanTransition(doc.Status, model.StatusDeleted) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, doc.Status, model.StatusDeleted)
	}

	return m.softDelete(ctx, doc, reviewer)
}

func (m *Machine) softDelete(ctx context.Context, doc *model.Document, reviewer string) error {
	now := m.now().UTC()
	from := doc.Status

	updates := map[string]any{
		"status":      model.StatusDeleted,
		"deleted_at":  now,
		"reviewed_at": now,
	}
	if reviewer != "" {
		updates["reviewed_by"] = reviewer
	}

	res := m.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND status = ?", doc.ID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("soft delete %s: %w", doc.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrStatusChanged, doc.ID)
	}

	doc.Status = model.StatusDeleted
	doc.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}

	m.events.Emit(ctx, queue.TopicDocumentDeleted, queue.DocumentEvent{
		ID: doc.ID, Status: string(model.StatusDeleted), FromStatus: string(from), FilePath: doc.FilePath, Reviewer: reviewer,
	})

	return nil
}

// relocate 复制后删除源对象，返回实际使用的目标键.
// 目标已被其他文档占用时改用 Unique 键；源不存在且目标属于本文档时视为已经迁移过.
func (m *Machine) relocate(ctx context.Context, doc *model.Document, src, dst string) (string, error) {
	srcInfo, err := m.store.Stat(ctx, src)
	if err != nil {
		if !errors.Is(err, s3.ErrObjectNotFound) {
			return "", err
		}

		for _, key := range []string{dst, m.folders.Unique(dst, doc.ID)} {
			if info, statErr := m.store.Stat(ctx, key); statErr == nil && m.owns(ctx, doc, key, info.Size, doc.FileSize) {
				return key, nil
			}
		}

		return "", err
	}

	if info, statErr := m.store.Stat(ctx, dst); statErr == nil && !m.owns(ctx, doc, dst, info.Size, srcInfo.Size) {
		dst = m.folders.Unique(dst, doc.ID)
	}

	if err := m.store.Copy(ctx, src, dst); err != nil {
		return "", err
	}

	if err := m.store.Remove(ctx, src); err != nil {
		log.Logger().Warn().Err(err).Str("component", "lifecycle").Str("key", src).Msg("remove source after copy failed")
	}

	return dst, nil
}

// owns 判断已存在的对象能否归属于 doc：没有其他行（含已删除）引用它，且大小一致（size 未知时不比较）.
func (m *Machine) owns(ctx context.Context, doc *model.Document, key string, have, size int64) bool {
	if size > 0 && have != size {
		return false
	}

	var count int64
	if err := m.db.WithContext(ctx).Unscoped().Model(&model.Document{}).
		Where("file_path = ? AND id <> ?", key, doc.ID).
		Count(&count).Error; err != nil {
		return false
	}

	return count == 0
}

func asString(v any) *string {
	switch s := v.(type) {
	case string:
		return &s
	case *string:
		return s
	case model.Category:
		str := string(s)
		return &str
	default:
		return nil
	}
}
