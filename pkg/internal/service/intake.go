package service

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"

	"github.com/yeisme/docvault/pkg/internal/dedup"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/pdftext"
	"github.com/yeisme/docvault/pkg/rule"
	"github.com/yeisme/docvault/pkg/internal/storage/s3"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/queue"
)

const (
	StatusCreated       = "created"
	StatusExists        = "exists"
	StatusAlreadyExists = "already_exists"
	StatusDuplicate     = "duplicate"
	StatusError         = "error"
)

// Upload 接收上传的文件：按内容哈希去重，写入收件目录并创建 uploaded 行.
func (s *DocumentService) Upload(ctx context.Context, filename string, r io.Reader) (types.UploadResponse, error) {
	filename = path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if filename == "" || filename == "." || filename == "/" {
		return types.UploadResponse{}, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}

	if !s.allowedExt(filename) {
		return types.UploadResponse{}, fmt.Errorf("%w: file type %q is not allowed", ErrInvalidInput, path.Ext(filename))
	}

	limit := s.cfg.Intake.MaxUploadBytes

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return types.UploadResponse{}, fmt.Errorf("read upload: %w", err)
	}

	if int64(len(data)) > limit {
		return types.UploadResponse{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, limit)
	}

	if len(data) == 0 {
		return types.UploadResponse{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	if strings.EqualFold(path.Ext(filename), ".pdf") && !pdftext.IsPDF(data) {
		return types.UploadResponse{}, fmt.Errorf("%w: file is not a valid PDF", ErrInvalidInput)
	}

	hash, size, _ := dedup.Hash(bytes.NewReader(data))

	existing, err := s.detector.FindLive(ctx, hash)
	if err != nil {
		return types.UploadResponse{}, err
	}

	if existing != nil {
		metrics.Ingested.WithLabelValues(string(model.SourceUpload), StatusExists).Inc()
		return types.UploadResponse{Status: StatusExists, ID: existing.ID, FilePath: existing.FilePath}, nil
	}

	doc := &model.Document{
		ID:               model.NewID(),
		Status:           model.StatusUploaded,
		Source:           model.SourceUpload,
		OriginalFilename: filename,
		FileSize:         size,
		ContentHash:      hash,
		ContentText:      s.excerpt(data),
	}
	doc.FilePath = s.freeImportKey(ctx, doc.ID, filename)

	if err := s.store.Put(ctx, doc.FilePath, bytes.NewReader(data), size, "application/pdf"); err != nil {
		metrics.Ingested.WithLabelValues(string(model.SourceUpload), StatusError).Inc()
		return types.UploadResponse{}, fmt.Errorf("store upload: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		_ = s.store.Remove(ctx, doc.FilePath)
		metrics.Ingested.WithLabelValues(string(model.SourceUpload), StatusError).Inc()

		return types.UploadResponse{}, fmt.Errorf("create document: %w", err)
	}

	s.ingested(ctx, doc)

	return types.UploadResponse{Status: StatusCreated, ID: doc.ID, FilePath: doc.FilePath}, nil
}

// CheckWebhookToken 用常量时间比较校验 Bearer 密钥. 未配置密钥时拒绝所有请求.
func (s *DocumentService) CheckWebhookToken(authorization string) error {
	secret := s.cfg.Intake.WebhookSecret
	token, ok := strings.CutPrefix(strings.TrimSpace(authorization), "Bearer ")

	if secret == "" || !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(secret)) != 1 {
		return ErrUnauthorized
	}

	return nil
}

// Webhook 登记上游自动化已写入存储桶的文档. 按 ID 幂等.
func (s *DocumentService) Webhook(ctx context.Context, req types.WebhookRequest) (types.WebhookResponse, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return types.WebhookResponse{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	src := model.SourceEmail
	if req.Source != "" {
		src, _ = model.ParseSource(req.Source)
	}

	var count int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&model.Document{}).Where("id = ?", req.ID).Count(&count).Error; err != nil {
		return types.WebhookResponse{}, fmt.Errorf("check document %s: %w", req.ID, err)
	}

	if count > 0 {
		metrics.Ingested.WithLabelValues(string(src), StatusExists).Inc()
		return types.WebhookResponse{Status: StatusAlreadyExists, ID: req.ID}, nil
	}

	doc := &model.Document{
		ID:               req.ID,
		FilePath:         strings.TrimLeft(req.FilePath, "/"),
		Status:           model.StatusUploaded,
		Source:           src,
		OriginalFilename: req.Filename,
		FileSize:         req.FileSize,
	}

	if req.SourceEmailFrom != "" {
		doc.EmailFrom = model.Ptr(req.SourceEmailFrom)
	}

	if req.SourceEmailSubject != "" {
		doc.EmailSubject = model.Ptr(req.SourceEmailSubject)
	}

	if len(req.EmailHeaders) > 0 {
		if raw, err := sonic.Marshal(req.EmailHeaders); err == nil {
			doc.EmailHeaders = datatypes.JSON(raw)
		}
	}

	// 对象可读时补充哈希与文本；读不到不影响登记，分类时会再次读取
	if data, err := s.read(ctx, doc.FilePath); err == nil {
		hash, size, _ := dedup.Hash(bytes.NewReader(data))

		existing, err := s.detector.FindLive(ctx, hash)
		if err != nil {
			return types.WebhookResponse{}, err
		}

		if existing != nil {
			metrics.Ingested.WithLabelValues(string(src), StatusExists).Inc()
			log.Component("intake").Info().Str("id", req.ID).Str("existing_id", existing.ID).Msg("webhook document duplicates a live document")

			return types.WebhookResponse{Status: StatusDuplicate, ID: existing.ID}, nil
		}

		doc.ContentHash = hash
		doc.FileSize = size
		doc.ContentText = s.excerpt(data)
	} else {
		log.Component("intake").Warn().Err(err).Str("id", req.ID).Str("key", doc.FilePath).Msg("webhook object not readable yet")
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return types.WebhookResponse{}, fmt.Errorf("create document: %w", err)
	}

	s.ingested(ctx, doc)

	return types.WebhookResponse{Status: StatusCreated, ID: doc.ID}, nil
}

// ScanBucket 登记收件目录中尚未入库的对象. dryRun 只报告分类结果，不做任何修改.
func (s *DocumentService) ScanBucket(ctx context.Context, dryRun bool) (types.ScanResponse, error) {
	prefix := s.machine.Folders().Import

	objects, err := s.store.List(ctx, prefix)
	if err != nil {
		return types.ScanResponse{}, fmt.Errorf("list %s: %w", prefix, err)
	}

	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}

	known, err := s.knownPaths(ctx, keys)
	if err != nil {
		return types.ScanResponse{}, err
	}

	res := types.ScanResponse{DryRun: dryRun, Results: make([]types.ScanItem, 0, len(objects))}
	// 同一次扫描中先出现的对象占用哈希，后出现的视为重复
	pending := map[string]string{}

	for _, o := range objects {
		if !s.allowedExt(o.Key) {
			continue
		}

		item := s.scanOne(ctx, o, known, pending, dryRun)

		switch item.Status {
		case StatusCreated:
			res.Created++
		case StatusExists:
			res.Exists++
		default:
			res.Errors++
		}

		if !dryRun && item.Status != StatusCreated {
			metrics.Ingested.WithLabelValues(string(model.SourceBucketScan), item.Status).Inc()
		}

		res.Results = append(res.Results, item)
	}

	res.Total = len(res.Results)

	log.Component("intake").Info().Bool("dry_run", dryRun).Int("created", res.Created).Int("exists", res.Exists).Int("errors", res.Errors).Msg("bucket scan finished")

	return res, nil
}

func (s *DocumentService) scanOne(ctx context.Context, o s3.ObjectInfo, known map[string]string, pending map[string]string, dryRun bool) types.ScanItem {
	item := types.ScanItem{Key: o.Key}

	if id, ok := known[o.Key]; ok {
		item.Status, item.ID = StatusExists, id
		return item
	}

	data, err := s.read(ctx, o.Key)
	if err != nil {
		item.Status, item.Error = StatusError, err.Error()
		return item
	}

	hash, size, _ := dedup.Hash(bytes.NewReader(data))

	existing, err := s.detector.FindLive(ctx, hash)
	if err != nil {
		item.Status, item.Error = StatusError, err.Error()
		return item
	}

	dupID, dup := pending[hash]
	if existing != nil {
		dupID, dup = existing.ID, true
	}

	if dup {
		item.Status, item.ID = StatusExists, dupID

		if s.cfg.Intake.RemoveDuplicates && !dryRun {
			if err := s.store.Remove(ctx, o.Key); err != nil {
				log.Component("intake").Warn().Err(err).Str("key", o.Key).Msg("remove duplicate object failed")
			}
		}

		return item
	}

	item.Status = StatusCreated

	if dryRun {
		pending[hash] = ""
		return item
	}

	doc := &model.Document{
		ID:               model.NewID(),
		FilePath:         o.Key,
		Status:           model.StatusUploaded,
		Source:           model.SourceBucketScan,
		OriginalFilename: path.Base(o.Key),
		FileSize:         size,
		ContentHash:      hash,
		ContentText:      s.excerpt(data),
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		item.Status, item.Error = StatusError, err.Error()
		return item
	}

	pending[hash] = doc.ID
	item.ID = doc.ID
	s.ingested(ctx, doc)

	return item
}

// knownPaths 返回已登记（未删除）的对象键到文档 ID 的映射.
func (s *DocumentService) knownPaths(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))

	for chunk := range slices.Chunk(keys, 500) {
		var rows []model.Document
		if err := s.db.WithContext(ctx).Select("id", "file_path").Where("file_path IN ?", chunk).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("load known paths: %w", err)
		}

		for _, r := range rows {
			out[r.FilePath] = r.ID
		}
	}

	return out, nil
}

func (s *DocumentService) ingested(ctx context.Context, doc *model.Document) {
	metrics.Ingested.WithLabelValues(string(doc.Source), StatusCreated).Inc()
	log.Component("intake").Info().Str("document_id", doc.ID).Str("source", string(doc.Source)).Str("key", doc.FilePath).Msg("document ingested")

	s.events.Emit(ctx, queue.TopicDocumentIngested, queue.DocumentEvent{
		ID: doc.ID, Status: string(doc.Status), FilePath: doc.FilePath, Source: string(doc.Source),
	})
}

// freeImportKey 返回收件目录下未被占用的对象键，冲突时在文件名前加上文档 ID.
func (s *DocumentService) freeImportKey(ctx context.Context, id, filename string) string {
	key := s.machine.Folders().ImportKey(filename)

	if _, err := s.store.Stat(ctx, key); errors.Is(err, s3.ErrObjectNotFound) {
		return key
	}

	return s.machine.Folders().ImportKey(id + "-" + filename)
}

// read 读取完整对象，超过 max_upload_bytes 时返回 ErrInvalidInput.
func (s *DocumentService) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	limit := s.cfg.Intake.MaxUploadBytes

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}

	// 截断后的内容哈希不可信，超限对象一律拒绝
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, limit)
	}

	return data, nil
}

func (s *DocumentService) excerpt(data []byte) string {
	if s.cfg.Intake.TextExcerptBytes <= 0 {
		return ""
	}

	text, err := pdftext.Extract(data, s.cfg.Intake.TextExcerptBytes)
	if err != nil {
		log.Logger().Debug().Err(err).Msg("no text layer extracted")
		return ""
	}

	return text
}

func (s *DocumentService) allowedExt(name string) bool {
	if len(s.cfg.Intake.AllowedExtensions) == 0 {
		return true
	}

	ext := strings.ToLower(path.Ext(name))

	return slices.ContainsFunc(s.cfg.Intake.AllowedExtensions, func(a string) bool {
		return strings.ToLower(a) == ext
	})
}
