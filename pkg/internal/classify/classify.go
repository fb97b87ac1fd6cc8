// Package classify 按优先级依次调用提供方完成文档分类.
//
// 第一个返回结构合法结果的提供方胜出，不做合并或投票；
// 全部失败时返回 ErrUnclassified，文档保持 uploaded 状态等待下一次处理.
package classify

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/yeisme/docvault/pkg/internal/analysis"
	"github.com/yeisme/docvault/pkg/internal/normalize"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
)

// ErrUnclassified 所有提供方均未给出可用结果.
var ErrUnclassified = errors.New("AI analysis failed")

// Input 待分类的文档.
type Input struct {
	ID       string
	Filename string
	MimeType string
	Content  []byte
	// Text 本地提取的文本，可为空
	Text string
}

// Orchestrator 分类编排器.
type Orchestrator struct {
	providers []provider.Provider
	prompt    string
}

// New 创建编排器，providers 的顺序即优先级.
func New(providers []provider.Provider, schema normalize.Schema) *Orchestrator {
	return &Orchestrator{providers: providers, prompt: Prompt(schema)}
}

// Providers 返回按优先级排列的提供方.
func (o *Orchestrator) Providers() []provider.Provider {
	return o.providers
}

// Classify 依次尝试提供方，返回第一个结构合法的结果，并标记产出它的提供方.
func (o *Orchestrator) Classify(ctx context.Context, in Input) (*analysis.Analysis, error) {
	logger := log.Logger().With().Str("component", "classify").Str("document_id", in.ID).Logger()

	req := provider.Request{
		Prompt:   o.prompt,
		Document: base64.StdEncoding.EncodeToString(in.Content),
		MimeType: in.MimeType,
		Filename: in.Filename,
		TextHint: in.Text,
	}

	for _, p := range o.providers {
		res, ok := provider.Extract(ctx, p, req)
		if !ok {
			continue
		}

		a, err := analysis.FromMap(res.Fields)
		if err != nil {
			logger.Warn().Err(err).Str("provider", p.Name()).Msg("provider result rejected")
			metrics.ClassifyResults.WithLabelValues(p.Name(), "invalid").Inc()

			continue
		}

		a.Provider = res.Provider
		a.Raw = res.Raw

		metrics.ClassifyResults.WithLabelValues(p.Name(), "success").Inc()
		logger.Info().Str("provider", p.Name()).Str("category", string(a.Category)).Msg("document classified")

		return a, nil
	}

	metrics.ClassifyResults.WithLabelValues("none", "failed").Inc()
	logger.Warn().Int("providers", len(o.providers)).Msg("all providers failed")

	return nil, ErrUnclassified
}
