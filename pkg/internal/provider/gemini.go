package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/yeisme/docvault/pkg/configs"
)

// Gemini generateContent 协议的多模态提供方，文档以 inline_data 发送.
type Gemini struct {
	name    string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type (
	geminiBlob struct {
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	}

	geminiPart struct {
		Text       string      `json:"text,omitempty"`
		InlineData *geminiBlob `json:"inline_data,omitempty"`
	}

	geminiContent struct {
		Role  string       `json:"role,omitempty"`
		Parts []geminiPart `json:"parts"`
	}

	geminiGenerationConfig struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"responseMimeType,omitempty"`
	}

	geminiRequest struct {
		Contents         []geminiContent        `json:"contents"`
		GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	}

	geminiResponse struct {
		Candidates []struct {
			Content      geminiContent `json:"content"`
			FinishReason string        `json:"finishReason"`
		} `json:"candidates"`
	}
)

// NewGemini 根据配置创建 Gemini 提供方.
func NewGemini(cfg configs.ProviderConfig) *Gemini {
	return &Gemini{
		name:    cfg.Name,
		apiKey:  cfg.Credential(),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.GetTimeout()},
	}
}

// Name 返回提供方标识.
func (g *Gemini) Name() string { return g.name }

// Complete 调用 generateContent 并拼接第一个候选的全部文本片段.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		return "", ErrNoCredential
	}

	parts := []geminiPart{{Text: req.Prompt}}
	if req.Document != "" {
		mimeType := req.MimeType
		if mimeType == "" {
			mimeType = "application/pdf"
		}

		parts = append(parts, geminiPart{InlineData: &geminiBlob{MimeType: mimeType, Data: req.Document}})
	} else if req.TextHint != "" {
		parts = append(parts, geminiPart{Text: req.TextHint})
	}

	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.1,
			ResponseMimeType: "application/json",
		},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))

	var out geminiResponse
	if err := postJSON(ctx, g.client, g.name, endpoint, map[string]string{"x-goog-api-key": g.apiKey}, body, &out); err != nil {
		return "", err
	}

	if len(out.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}

	return b.String(), nil
}
