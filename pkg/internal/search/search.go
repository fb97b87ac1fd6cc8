// Package search 在已归档文档中检索.
//
// 优先使用排序提供方做语义检索：把最近归档文档的摘要编号后交给模型，模型返回
// {"indices":[...]}. 提供方不可用、回复无法解析或没有命中时退回关键词检索.
// 结果中的 Strategy 告诉调用方实际使用了哪种方式.
//
// Example:
//
//	engine := search.New(ranker, cfg.Search, cache.New(kvClient, "search"))
//	res := engine.Search(ctx, "acme invoice", archived)
//	fmt.Println(res.Strategy, len(res.Documents))
package search

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
)

// Strategy 实际使用的检索方式.
type Strategy string

const (
	StrategyAI   Strategy = "ai"
	StrategyText Strategy = "text"
)

// Result 检索结果.
type Result struct {
	Documents []model.Document
	Strategy  Strategy
}

// Engine 检索引擎.
type Engine struct {
	ranker provider.Provider
	cfg    configs.SearchConfig
	cache  *cache.Cache
	group  singleflight.Group
}

// New 创建检索引擎. ranker 为 nil 或关闭语义检索时只做关键词检索.
func New(ranker provider.Provider, cfg configs.SearchConfig, c *cache.Cache) *Engine {
	if cfg.CorpusCap <= 0 {
		cfg.CorpusCap = configs.DefaultSearchCorpusCap
	}

	if cfg.MaxResults <= 0 {
		cfg.MaxResults = configs.DefaultSearchMaxResults
	}

	return &Engine{ranker: ranker, cfg: cfg, cache: c}
}

// CorpusCap 语义检索使用的最大文档数，调用方据此加载语料.
func (e *Engine) CorpusCap() int { return e.cfg.CorpusCap }

type hit struct {
	IDs      []string `json:"ids"`
	Strategy Strategy `json:"strategy"`
}

// Search 在 corpus（按时间倒序的归档文档）中检索 query.
func (e *Engine) Search(ctx context.Context, query string, corpus []model.Document) Result {
	query = strings.TrimSpace(query)
	if len(corpus) > e.cfg.CorpusCap {
		corpus = corpus[:e.cfg.CorpusCap]
	}

	key := cacheKey(query, corpus)

	v, _, _ := e.group.Do(key, func() (any, error) {
		if e.cache != nil {
			if h, err := cache.Get[hit](ctx, e.cache, key); err == nil {
				return h, nil
			}
		}

		h := e.run(ctx, query, corpus)

		// 排序提供方失败时的回退结果不缓存，提供方恢复后同一查询立即回到语义检索
		if e.cache != nil && e.cfg.CacheTTL > 0 && (h.Strategy == StrategyAI || !e.semanticEnabled(corpus)) {
			_ = cache.Set(ctx, e.cache, key, h, e.cfg.CacheTTL)
		}

		return h, nil
	})

	h := v.(hit)
	metrics.SearchRequests.WithLabelValues(string(h.Strategy)).Inc()

	return Result{Documents: pick(corpus, h.IDs), Strategy: h.Strategy}
}

func (e *Engine) run(ctx context.Context, query string, corpus []model.Document) hit {
	if e.semanticEnabled(corpus) {
		if idx, ok := e.semantic(ctx, query, corpus); ok {
			ids := make([]string, 0, len(idx))
			for _, i := range idx {
				ids = append(ids, corpus[i].ID)
			}

			return hit{IDs: ids, Strategy: StrategyAI}
		}
	}

	ranked := Lexical(query, corpus, e.cfg.MaxResults)

	ids := make([]string, 0, len(ranked))
	for i := range ranked {
		ids = append(ids, ranked[i].ID)
	}

	return hit{IDs: ids, Strategy: StrategyText}
}

func (e *Engine) semanticEnabled(corpus []model.Document) bool {
	return e.cfg.Semantic && e.ranker != nil && len(corpus) > 0
}

// semantic 请求排序提供方，返回去重且在范围内的下标.
func (e *Engine) semantic(ctx context.Context, query string, corpus []model.Document) ([]int, bool) {
	logger := log.Logger().With().Str("component", "search").Str("provider", e.ranker.Name()).Logger()

	res, ok := provider.Extract(ctx, e.ranker, provider.Request{Prompt: rankPrompt(query, corpus)})
	if !ok {
		return nil, false
	}

	raw, ok := res.Fields["indices"].([]any)
	if !ok {
		logger.Warn().Msg("ranker reply missing indices")
		return nil, false
	}

	seen := make(map[int]bool, len(raw))
	out := make([]int, 0, len(raw))

	for _, v := range raw {
		f, ok := v.(float64)
		i := int(f)

		if !ok || f != float64(i) || i < 0 || i >= len(corpus) || seen[i] {
			continue
		}

		seen[i] = true
		out = append(out, i)

		if len(out) == e.cfg.MaxResults {
			break
		}
	}

	if len(out) == 0 {
		logger.Debug().Int("indices", len(raw)).Msg("ranker returned no usable index, falling back to text search")
		return nil, false
	}

	return out, true
}

func pick(corpus []model.Document, ids []string) []model.Document {
	byID := make(map[string]*model.Document, len(corpus))
	for i := range corpus {
		byID[corpus[i].ID] = &corpus[i]
	}

	out := make([]model.Document, 0, len(ids))

	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, *d)
		}
	}

	return out
}

func cacheKey(query string, corpus []model.Document) string {
	parts := make([]string, 0, len(corpus)+1)
	parts = append(parts, strings.ToLower(query))

	for i := range corpus {
		parts = append(parts, corpus[i].ID+"@"+corpus[i].UpdatedAt.UTC().Format("20060102150405.000"))
	}

	return cache.Key(parts...)
}
