package types

import (
	"time"

	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/normalize"
)

// Document 对外返回的文档视图，附带解析后的有效日期.
type Document struct {
	ID                   string     `json:"id"`
	FilePath             string     `json:"file_path"`
	Status               string     `json:"status"`
	DocumentTypeCategory *string    `json:"document_type_category"`
	Party                *string    `json:"party"`
	SubParty             *string    `json:"sub_party"`
	DocumentType         *string    `json:"document_type"`
	DocumentDate         *string    `json:"document_date"`
	EffectiveDate        string     `json:"effective_date,omitempty"`
	Notes                *string    `json:"notes"`
	AISummary            *string    `json:"ai_summary"`
	DocumentCategory     *string    `json:"document_category"`
	ContractType         *string    `json:"contract_type"`
	Amount               *float64   `json:"amount"`
	DueDate              *string    `json:"due_date"`
	IsContract           bool       `json:"is_contract"`
	AIModelUsed          *string    `json:"ai_model_used"`
	ConfidenceScore      *float64   `json:"confidence_score"`
	ProcessedAt          *time.Time `json:"processed_at"`
	ClassifyError        *string    `json:"classify_error,omitempty"`
	Source               string     `json:"source"`
	OriginalFilename     string     `json:"original_filename"`
	FileSize             int64      `json:"file_size"`
	ContentHash          string     `json:"content_hash"`
	SourceEmailFrom      *string    `json:"source_email_from,omitempty"`
	SourceEmailSubject   *string    `json:"source_email_subject,omitempty"`
	ReviewedBy           *string    `json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time `json:"reviewed_at,omitempty"`
	DeletedAt            *time.Time `json:"deleted_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewDocument 从模型构造视图.
func NewDocument(d *model.Document) Document {
	out := Document{
		ID:                   d.ID,
		FilePath:             d.FilePath,
		Status:               string(d.Status),
		DocumentTypeCategory: d.DocumentTypeCategory,
		Party:                d.Party,
		SubParty:             d.SubParty,
		DocumentType:         d.DocumentType,
		DocumentDate:         d.DocumentDate,
		EffectiveDate:        normalize.EffectiveDate(d),
		Notes:                d.Notes,
		AISummary:            d.AISummary,
		DocumentCategory:     d.DocumentCategory,
		ContractType:         d.ContractType,
		Amount:               d.Amount,
		DueDate:              d.DueDate,
		IsContract:           d.IsContract,
		AIModelUsed:          d.AIModelUsed,
		ConfidenceScore:      d.ConfidenceScore,
		ProcessedAt:          d.ProcessedAt,
		ClassifyError:        d.ClassifyError,
		Source:               string(d.Source),
		OriginalFilename:     d.OriginalFilename,
		FileSize:             d.FileSize,
		ContentHash:          d.ContentHash,
		SourceEmailFrom:      d.EmailFrom,
		SourceEmailSubject:   d.EmailSubject,
		ReviewedBy:           d.ReviewedBy,
		ReviewedAt:           d.ReviewedAt,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}

	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		out.DeletedAt = &t
	}

	return out
}

// NewDocuments 批量构造视图.
func NewDocuments(docs []model.Document) []Document {
	out := make([]Document, 0, len(docs))
	for i := range docs {
		out = append(out, NewDocument(&docs[i]))
	}

	return out
}

// ListDocumentsRequest 文档列表查询.
type ListDocumentsRequest struct {
	Status   string `form:"status"    rule:"omitempty,oneof=uploaded pending_approval archived deleted"`
	Category string `form:"category"  rule:"omitempty,oneof=contract document invoice"`
	Source   string `form:"source"    rule:"omitempty,oneof=email upload bucket-scan"`
	Page     int    `form:"page"      rule:"omitempty,min=1"`
	PageSize int    `form:"page_size" rule:"omitempty,min=1,max=200"`
}

// ListDocumentsResponse 文档列表.
type ListDocumentsResponse struct {
	Documents []Document `json:"documents"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}

// StatsResponse 按状态与类别聚合的文档数量.
type StatsResponse struct {
	ByStatus   map[string]int64 `json:"by_status"`
	ByCategory map[string]int64 `json:"by_category"`
	Total      int64            `json:"total"`
}
