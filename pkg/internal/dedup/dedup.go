// Package dedup 识别重复文档.
//
// 精确重复在入库时按内容 SHA-256 判断，同一哈希在未删除的行中只能出现一次.
// 近似重复在归档前检查：先用签名（同一当事方，或同类型同日期）在已归档文档中圈出候选，
// 有判定提供方时再由它挑出真正相似的文档并给出理由.
//
// Example:
//
//	hash, size, err := dedup.Hash(file)
//	if existing, _ := detector.FindLive(ctx, hash); existing != nil {
//		return existing.ID // 已存在
//	}
//	dups, _ := detector.NearDuplicates(ctx, doc)
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/normalize"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/log"
)

// Hash 计算整个流的十六进制 SHA-256 及其字节数.
func Hash(r io.Reader) (string, int64, error) {
	h := sha256.New()

	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("hash content: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Candidate 近似重复候选.
type Candidate struct {
	ID           string `json:"id"`
	FilePath     string `json:"file_path"`
	Party        string `json:"party,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	DocumentDate string `json:"document_date,omitempty"`
	Reason       string `json:"reason"`
}

// Detector 重复检测器.
type Detector struct {
	db    *gorm.DB
	judge provider.Provider
	cache *cache.Cache
	cfg   configs.NearDuplicateConfig
}

// New 创建检测器. judge 与 c 都可以为 nil.
func New(db *gorm.DB, judge provider.Provider, c *cache.Cache, cfg configs.NearDuplicateConfig) *Detector {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 20
	}

	return &Detector{db: db, judge: judge, cache: c, cfg: cfg}
}

// Config 返回近似重复配置.
func (d *Detector) Config() configs.NearDuplicateConfig { return d.cfg }

// FindLive 返回与 hash 相同且未删除的文档，不存在时返回 nil, nil.
func (d *Detector) FindLive(ctx context.Context, hash string) (*model.Document, error) {
	if hash == "" {
		return nil, nil
	}

	var doc model.Document

	err := d.db.WithContext(ctx).
		Where("content_hash = ? AND status <> ?", hash, model.StatusDeleted).
		Order("created_at").
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("find by hash: %w", err)
	}

	return &doc, nil
}

// Blocks 判断候选数是否达到强制拦截阈值.
func (d *Detector) Blocks(candidates []Candidate) bool {
	return d.cfg.HardBlock && len(candidates) >= max(d.cfg.Threshold, 1)
}

// NearDuplicates 返回与 doc 近似重复的已归档文档.
func (d *Detector) NearDuplicates(ctx context.Context, doc *model.Document) ([]Candidate, error) {
	if !d.cfg.Enabled {
		return nil, nil
	}

	sig := signatureOf(doc)
	if sig.empty() {
		return nil, nil
	}

	if d.cache == nil {
		return d.find(ctx, doc, sig)
	}

	key := cache.Key(doc.ID, sig.party, sig.docType, sig.date)

	return cache.GetOrSet(ctx, d.cache, key, func() ([]Candidate, error) {
		return d.find(ctx, doc, sig)
	}, d.cfg.CacheTTL)
}

type signature struct {
	party   string
	docType string
	date    string
}

func signatureOf(doc *model.Document) signature {
	return signature{
		party:   strings.ToLower(normalize.Party(model.Deref(doc.Party))),
		docType: strings.ToLower(strings.TrimSpace(model.Deref(doc.DocumentType))),
		date:    normalize.EffectiveDate(doc),
	}
}

func (s signature) empty() bool {
	return s.party == "" && (s.docType == "" || s.date == "")
}

func (s signature) reason(other signature) string {
	switch {
	case s.party != "" && s.party == other.party && s.docType != "" && s.docType == other.docType:
		return "same party and document type"
	case s.party != "" && s.party == other.party:
		return "same party"
	case s.docType != "" && s.docType == other.docType && s.date != "" && s.date == other.date:
		return "same document type and date"
	default:
		return ""
	}
}

func (d *Detector) find(ctx context.Context, doc *model.Document, sig signature) ([]Candidate, error) {
	q := d.db.WithContext(ctx).Model(&model.Document{}).
		Where("status = ? AND id <> ?", model.StatusArchived, doc.ID)

	switch {
	case sig.party != "" && sig.docType != "":
		q = q.Where("(LOWER(party) = ? OR LOWER(document_type) = ?)", sig.party, sig.docType)
	case sig.party != "":
		q = q.Where("LOWER(party) = ?", sig.party)
	default:
		q = q.Where("LOWER(document_type) = ?", sig.docType)
	}

	var rows []model.Document
	if err := q.Order("created_at DESC").Limit(d.cfg.MaxCandidates * 4).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query near duplicates: %w", err)
	}

	matches := make([]Candidate, 0, len(rows))

	for i := range rows {
		r := &rows[i]

		reason := sig.reason(signatureOf(r))
		if reason == "" {
			continue
		}

		matches = append(matches, Candidate{
			ID:           r.ID,
			FilePath:     r.FilePath,
			Party:        model.Deref(r.Party),
			DocumentType: model.Deref(r.DocumentType),
			DocumentDate: normalize.EffectiveDate(r),
			Reason:       reason,
		})

		if len(matches) == d.cfg.MaxCandidates {
			break
		}
	}

	if len(matches) == 0 || d.judge == nil {
		return matches, nil
	}

	judged, ok := d.ask(ctx, doc, matches)
	if !ok {
		return matches, nil
	}

	return judged, nil
}

// ask 让判定提供方从签名候选中挑出真正的重复. 提供方不可用时返回 false，调用方退回签名结果.
func (d *Detector) ask(ctx context.Context, doc *model.Document, matches []Candidate) ([]Candidate, bool) {
	res, ok := provider.Extract(ctx, d.judge, provider.Request{Prompt: judgePrompt(doc, matches)})
	if !ok {
		return nil, false
	}

	raw, ok := res.Fields["duplicates"].([]any)
	if !ok {
		log.Logger().Warn().Str("component", "dedup").Str("provider", res.Provider).Msg("judge reply missing duplicates array")
		return nil, false
	}

	seen := make(map[int]bool, len(raw))
	out := make([]Candidate, 0, len(raw))

	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		f, ok := obj["index"].(float64)
		idx := int(f)

		if !ok || f != float64(idx) || idx < 0 || idx >= len(matches) || seen[idx] {
			continue
		}

		seen[idx] = true
		c := matches[idx]

		if reason, _ := obj["reason"].(string); strings.TrimSpace(reason) != "" {
			c.Reason = strings.TrimSpace(reason)
		}

		out = append(out, c)
	}

	return out, true
}
