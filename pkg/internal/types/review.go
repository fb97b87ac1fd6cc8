package types

import "github.com/yeisme/docvault/pkg/internal/dedup"

// IDsRequest 批量操作的文档 ID 列表.
type IDsRequest struct {
	IDs []string `json:"ids" rule:"required,min=1,max=500,dive,required,docid"`
}

// ClassifyResult 单个文档的分类结果.
type ClassifyResult struct {
	ID              string   `json:"id"`
	Success         bool     `json:"success"`
	Error           string   `json:"error,omitempty"`
	AIModelUsed     string   `json:"ai_model_used,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

// ClassifyResponse 批量分类结果.
type ClassifyResponse struct {
	Processed  int              `json:"processed"`
	Failed     int              `json:"failed"`
	DurationMS int64            `json:"duration_ms"`
	Results    []ClassifyResult `json:"results"`
}

// ApproveRequest 单个审核通过请求. Confirm 表示已确认近似重复提示.
type ApproveRequest struct {
	Confirm bool `json:"confirm"`
}

// ApproveBatchRequest 批量审核通过请求.
type ApproveBatchRequest struct {
	IDs     []string `json:"ids"     rule:"required,min=1,max=500,dive,required,docid"`
	Confirm bool     `json:"confirm"`
}

// ApproveResult 审核结果. Status: archived / needs_confirmation / blocked / error.
type ApproveResult struct {
	ID         string            `json:"id"`
	Status     string            `json:"status"`
	FilePath   string            `json:"file_path,omitempty"`
	Error      string            `json:"error,omitempty"`
	Duplicates []dedup.Candidate `json:"duplicates,omitempty"`
}

// ApproveBatchResponse 批量审核结果.
type ApproveBatchResponse struct {
	Results  []ApproveResult `json:"results"`
	Archived int             `json:"archived"`
	Failed   int             `json:"failed"`
	Total    int             `json:"total"`
}

// DeleteResult 单个软删除结果.
type DeleteResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DeleteBatchResponse 批量软删除结果.
type DeleteBatchResponse struct {
	Results []DeleteResult `json:"results"`
	Deleted int            `json:"deleted"`
	Failed  int            `json:"failed"`
	Total   int            `json:"total"`
}

// DuplicatesResponse 近似重复预览.
type DuplicatesResponse struct {
	ID         string            `json:"id"`
	Duplicates []dedup.Candidate `json:"duplicates"`
	Blocking   bool              `json:"blocking"`
}

// EditRequest 审核时修改分类字段，未提供的字段保持原值.
type EditRequest struct {
	DocumentTypeCategory *string `json:"document_type_category" rule:"omitempty,oneof=contract document invoice"`
	Party                *string `json:"party"                  rule:"omitempty,max=255"`
	SubParty             *string `json:"sub_party"              rule:"omitempty,max=255"`
	DocumentType         *string `json:"document_type"          rule:"omitempty,max=255"`
	DocumentDate         *string `json:"document_date"          rule:"omitempty,max=32"`
	Notes                *string `json:"notes"`
	AISummary            *string `json:"ai_summary"`
	DocumentCategory     *string `json:"document_category"      rule:"omitempty,max=128"`
	ContractType         *string `json:"contract_type"          rule:"omitempty,max=128"`
	// Amount 接受数字或带货币符号的字符串
	Amount  any     `json:"amount"`
	DueDate *string `json:"due_date"               rule:"omitempty,max=32"`
}
