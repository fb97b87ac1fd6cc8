package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/yeisme/docvault/pkg/configs"
)

// OpenAI chat/completions 兼容协议的通用提供方.
// 文档以 base64 file 片段发送，本地提取的文本作为额外提示.
type OpenAI struct {
	name    string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type (
	openaiFile struct {
		Filename string `json:"filename,omitempty"`
		FileData string `json:"file_data"`
	}

	openaiPart struct {
		Type string      `json:"type"`
		Text string      `json:"text,omitempty"`
		File *openaiFile `json:"file,omitempty"`
	}

	openaiMessage struct {
		Role    string       `json:"role"`
		Content []openaiPart `json:"content"`
	}

	openaiRequest struct {
		Model       string          `json:"model"`
		Messages    []openaiMessage `json:"messages"`
		Temperature float64         `json:"temperature"`
	}

	openaiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
)

// NewOpenAI 根据配置创建 OpenAI 兼容提供方.
func NewOpenAI(cfg configs.ProviderConfig) *OpenAI {
	return &OpenAI{
		name:    cfg.Name,
		apiKey:  cfg.Credential(),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.GetTimeout()},
	}
}

// Name 返回提供方标识.
func (o *OpenAI) Name() string { return o.name }

// Complete 调用 chat/completions 并返回第一条回复.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if o.apiKey == "" {
		return "", ErrNoCredential
	}

	parts := []openaiPart{{Type: "text", Text: req.Prompt}}
	if req.TextHint != "" {
		parts = append(parts, openaiPart{Type: "text", Text: "Extracted document text:\n" + req.TextHint})
	}

	if req.Document != "" {
		parts = append(parts, openaiPart{
			Type: "file",
			File: &openaiFile{Filename: req.Filename, FileData: dataURL(req.MimeType, req.Document)},
		})
	}

	body := openaiRequest{
		Model:       o.model,
		Messages:    []openaiMessage{{Role: "user", Content: parts}},
		Temperature: 0.1,
	}

	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var out openaiResponse
	if err := postJSON(ctx, o.client, o.name, o.baseURL+"/v1/chat/completions", headers, body, &out); err != nil {
		return "", err
	}

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	return out.Choices[0].Message.Content, nil
}
