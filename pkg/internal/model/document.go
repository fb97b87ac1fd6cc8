// Package model 定义持久化到关系库的数据模型.
package model

import (
	crand "crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentStatus 文档生命周期状态.
type DocumentStatus string

const (
	StatusUploaded        DocumentStatus = "uploaded"
	StatusPendingApproval DocumentStatus = "pending_approval"
	StatusArchived        DocumentStatus = "archived"
	StatusDeleted         DocumentStatus = "deleted"
)

// Category 文档类别，决定哪些扩展字段有效.
type Category string

const (
	CategoryContract Category = "contract"
	CategoryDocument Category = "document"
	CategoryInvoice  Category = "invoice"
)

// ParseCategory 解析类别字符串（忽略大小写与首尾空白）.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryContract, CategoryDocument, CategoryInvoice:
		return c, true
	default:
		return "", false
	}
}

// Source 文档来源渠道.
type Source string

const (
	SourceEmail      Source = "email"
	SourceUpload     Source = "upload"
	SourceBucketScan Source = "bucket-scan"
)

// ParseSource 解析来源渠道，未知值返回 false.
func ParseSource(s string) (Source, bool) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceEmail, SourceUpload, SourceBucketScan:
		return src, true
	default:
		return "", false
	}
}

// Document 入库文档及其分类元数据.
// 类别相关字段只在对应类别下有值；旧版按类别拆分的日期字段保留用于回退读取.
type Document struct {
	ID       string         `gorm:"primaryKey;size:64" json:"id"`
	FilePath string         `gorm:"size:1024;index"    json:"file_path"`
	Status   DocumentStatus `gorm:"size:32;index"      json:"status"`

	DocumentTypeCategory *string `gorm:"size:32;index"                 json:"document_type_category"`
	Party                *string `gorm:"size:255;index"                json:"party"`
	SubParty             *string `gorm:"size:255"                      json:"sub_party"`
	DocumentType         *string `gorm:"size:255"                      json:"document_type"`
	DocumentDate         *string `gorm:"size:32"                       json:"document_date"`
	Notes                *string `gorm:"type:text"                     json:"notes"`
	AISummary            *string `gorm:"column:ai_summary;type:text"   json:"ai_summary"`

	// contract
	DocumentCategory *string `gorm:"size:128" json:"document_category"`
	ContractType     *string `gorm:"size:128" json:"contract_type"`
	// invoice
	Amount  *float64 `json:"amount"`
	DueDate *string  `gorm:"size:32" json:"due_date"`
	// 旧版日期字段
	ExecutedDate  *string `gorm:"size:32" json:"executed_date"`
	LetterDate    *string `gorm:"size:32" json:"letter_date"`
	PeriodEndDate *string `gorm:"size:32" json:"period_end_date"`

	IsContract bool `gorm:"index" json:"is_contract"`

	AIModelUsed     *string        `gorm:"column:ai_model_used;size:64" json:"ai_model_used"`
	ConfidenceScore *float64       `json:"confidence_score"`
	RawResponse     datatypes.JSON `json:"raw_response,omitempty"`
	ProcessedAt     *time.Time     `json:"processed_at"`
	ClassifyError   *string        `gorm:"type:text" json:"classify_error,omitempty"`

	Source           Source         `gorm:"size:32;index" json:"source"`
	OriginalFilename string         `gorm:"size:512"      json:"original_filename"`
	FileSize         int64          `json:"file_size"`
	ContentHash      string         `gorm:"size:64;index" json:"content_hash"`
	EmailFrom        *string        `gorm:"size:512"      json:"source_email_from,omitempty"`
	EmailSubject     *string        `gorm:"size:1024"     json:"source_email_subject,omitempty"`
	EmailHeaders     datatypes.JSON `json:"email_headers,omitempty"`
	ContentText      string         `gorm:"type:text"     json:"-"`

	ReviewedBy *string    `gorm:"size:255" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 固定表名.
func (Document) TableName() string { return "documents" }

// Category 返回已解析的类别，未分类时返回空串.
func (d *Document) Category() Category {
	if d.DocumentTypeCategory == nil {
		return ""
	}

	c, _ := ParseCategory(*d.DocumentTypeCategory)

	return c
}

// Filename 返回对象键的最后一段.
func (d *Document) Filename() string {
	if i := strings.LastIndex(d.FilePath, "/"); i >= 0 {
		return d.FilePath[i+1:]
	}

	return d.FilePath
}

// Migrate 创建或更新文档表结构.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Document{})
}

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(crand.Reader, 0)
)

// NewID 生成小写 ULID 作为文档 ID.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()

	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String())
}

// Deref 返回指针指向的字符串，nil 返回空串.
func Deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

// Ptr 返回值的指针.
func Ptr[T any](v T) *T { return &v }
