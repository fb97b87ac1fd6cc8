// Package provider 封装外部大模型抽取服务.
//
// 每个提供方只需要实现 Complete：把提示词和 base64 文档发给厂商接口并返回回复文本.
// Extract 是对外的边界：所有失败（缺少密钥、限流、非 2xx、空回复、传输错误、JSON 解析失败）
// 都折叠为 "无结果"，调用方据此切换到下一个提供方.
//
// Example:
//
//	providers := provider.Build(configs.GetConfig().AI)
//	for _, p := range providers {
//		res, ok := provider.Extract(ctx, p, provider.Request{Prompt: prompt, Document: b64})
//		if ok {
//			fmt.Println(res.Provider, res.Fields["document_type_category"])
//			break
//		}
//	}
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/tracing"
)

var (
	// ErrUnavailable 提供方暂时不可用，调用方应尝试下一个.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrNoCredential 未配置密钥.
	ErrNoCredential = fmt.Errorf("%w: missing credential", ErrUnavailable)
	// ErrRateLimited 配额或速率限制.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrUnavailable)
	// ErrEmptyResponse 回复为空或缺少文本.
	ErrEmptyResponse = fmt.Errorf("%w: empty response", ErrUnavailable)
	// ErrNoJSON 回复中没有完整的 JSON 对象.
	ErrNoJSON = errors.New("no JSON object in response")
)

// Request 单次抽取请求.
type Request struct {
	Prompt string
	// Document base64 编码的文档内容，为空时只发送文本
	Document string
	MimeType string
	Filename string
	// TextHint 本地提取的文档文本，供不支持文件输入的模型参考
	TextHint string
}

// Provider 外部大模型服务.
type Provider interface {
	// Name 提供方标识，会记录在 ai_model_used 中.
	Name() string
	// Complete 返回模型回复的原始文本.
	Complete(ctx context.Context, req Request) (string, error)
}

// Result 解析成功的抽取结果.
type Result struct {
	Provider string
	Fields   map[string]any
	// Raw 回复中第一个完整的 JSON 对象文本
	Raw string
}

// Extract 调用提供方并解析回复中的第一个 JSON 对象.
// 任何失败都只返回 false，不向上传播错误.
func Extract(ctx context.Context, p Provider, req Request) (res Result, ok bool) {
	name := p.Name()
	logger := log.Logger().With().Str("component", "provider").Str("provider", name).Logger()

	ctx, span := tracing.StartSpan(ctx, "provider.complete", trace.WithAttributes(attribute.String("provider", name)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("provider panicked")
			metrics.ProviderRequests.WithLabelValues(name, "error").Inc()
			span.SetStatus(codes.Error, "panic")

			res, ok = Result{}, false
		}
	}()

	start := time.Now()
	text, err := p.Complete(ctx, req)
	metrics.ProviderDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("provider returned no result")
		metrics.ProviderRequests.WithLabelValues(name, "unavailable").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return Result{}, false
	}

	raw, found := FirstJSONObject(text)
	if !found {
		logger.Warn().Err(ErrNoJSON).Int("reply_len", len(text)).Msg("provider reply has no JSON object")
		metrics.ProviderRequests.WithLabelValues(name, "malformed").Inc()
		span.SetStatus(codes.Error, ErrNoJSON.Error())

		return Result{}, false
	}

	var fields map[string]any
	if err := sonic.UnmarshalString(raw, &fields); err != nil {
		logger.Warn().Err(err).Msg("provider reply is not valid JSON")
		metrics.ProviderRequests.WithLabelValues(name, "malformed").Inc()
		span.SetStatus(codes.Error, err.Error())

		return Result{}, false
	}

	metrics.ProviderRequests.WithLabelValues(name, "ok").Inc()
	span.SetStatus(codes.Ok, "")

	return Result{Provider: name, Fields: fields, Raw: raw}, true
}

// FirstJSONObject 找到文本中第一个括号平衡的 {...} 块.
// 字符串字面量中的括号和转义字符不参与计数；某个起点无法闭合时从下一个 "{" 重新开始.
func FirstJSONObject(s string) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}

		if end, ok := matchBrace(s, start); ok {
			return s[start : end+1], true
		}
	}

	return "", false
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}
