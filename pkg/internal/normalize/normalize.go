// Package normalize 把提供方返回的 Analysis 规整为可直接写库的字段更新.
//
// 规则:
//   - 金额字符串去掉除数字、"." 和 "-" 以外的字符后解析，无法解析则不写入（不是 0）
//   - 日期优先 document_date，否则按类别回退到旧字段
//   - 只保留与类别匹配的扩展字段，其它类别的字段强制为 null
//   - is_contract 总是由类别推导
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/yeisme/docvault/pkg/internal/analysis"
	"github.com/yeisme/docvault/pkg/internal/model"
)

// Schema 目标存储字段形态.
type Schema string

const (
	// SchemaUnified 只写统一的 document_date，旧日期字段置空.
	SchemaUnified Schema = "unified"
	// SchemaLegacy 同时写入类别对应的旧日期字段，兼容旧读取方.
	SchemaLegacy Schema = "legacy"
)

// ParseSchema 解析配置中的字段形态，未知值按 unified 处理.
func ParseSchema(s string) Schema {
	if Schema(strings.ToLower(strings.TrimSpace(s))) == SchemaLegacy {
		return SchemaLegacy
	}

	return SchemaUnified
}

// Update 规整后的行更新，nil 表示写入 null.
type Update struct {
	Category     model.Category
	Party        *string
	SubParty     *string
	DocumentType *string
	Notes        *string
	Summary      *string
	DocumentDate *string

	ExecutedDate  *string
	LetterDate    *string
	PeriodEndDate *string

	DocumentCategory *string
	ContractType     *string
	Amount           *float64
	DueDate          *string

	IsContract bool
	Confidence *float64
}

// Normalize 按目标字段形态规整抽取结果.
func Normalize(a *analysis.Analysis, schema Schema) Update {
	u := Update{
		Category:     a.Category,
		Party:        optional(Party(a.Party)),
		SubParty:     optional(Party(a.SubParty)),
		DocumentType: optional(strings.TrimSpace(a.DocumentType)),
		Notes:        optional(strings.TrimSpace(a.Notes)),
		Summary:      optional(strings.TrimSpace(a.Summary)),
		IsContract:   a.Category == model.CategoryContract,
		Confidence:   a.Confidence,
	}

	u.DocumentDate = optional(ResolveDate(a.Category, Dates{
		Document:  a.DocumentDate,
		Executed:  a.ExecutedDate,
		Due:       a.DueDate,
		Letter:    a.LetterDate,
		PeriodEnd: a.PeriodEndDate,
	}))

	switch a.Category {
	case model.CategoryContract:
		u.DocumentCategory = optional(strings.TrimSpace(a.DocumentCategory))
		u.ContractType = optional(strings.TrimSpace(a.ContractType))

		if schema == SchemaLegacy {
			u.ExecutedDate = firstDate(a.ExecutedDate, model.Deref(u.DocumentDate))
		}
	case model.CategoryInvoice:
		if amt, ok := ParseAmount(a.Amount); ok {
			u.Amount = &amt
		}

		u.DueDate = optional(Date(a.DueDate))
	case model.CategoryDocument:
		if schema == SchemaLegacy {
			u.LetterDate = firstDate(a.LetterDate, model.Deref(u.DocumentDate))
			u.PeriodEndDate = optional(Date(a.PeriodEndDate))
		}
	}

	return u
}

// Columns 返回 gorm Updates 使用的列映射，被裁剪的字段显式写 null.
func (u Update) Columns() map[string]any {
	var category *string
	if u.Category != "" {
		category = model.Ptr(string(u.Category))
	}

	return map[string]any{
		"document_type_category": category,
		"party":                  u.Party,
		"sub_party":              u.SubParty,
		"document_type":          u.DocumentType,
		"document_date":          u.DocumentDate,
		"notes":                  u.Notes,
		"ai_summary":             u.Summary,
		"document_category":      u.DocumentCategory,
		"contract_type":          u.ContractType,
		"amount":                 u.Amount,
		"due_date":               u.DueDate,
		"executed_date":          u.ExecutedDate,
		"letter_date":            u.LetterDate,
		"period_end_date":        u.PeriodEndDate,
		"is_contract":            u.IsContract,
		"confidence_score":       u.Confidence,
	}
}

// Apply 把更新写到内存中的文档上，与 Columns 保持一致.
func (u Update) Apply(d *model.Document) {
	if u.Category != "" {
		d.DocumentTypeCategory = model.Ptr(string(u.Category))
	} else {
		d.DocumentTypeCategory = nil
	}

	d.Party = u.Party
	d.SubParty = u.SubParty
	d.DocumentType = u.DocumentType
	d.DocumentDate = u.DocumentDate
	d.Notes = u.Notes
	d.AISummary = u.Summary
	d.DocumentCategory = u.DocumentCategory
	d.ContractType = u.ContractType
	d.Amount = u.Amount
	d.DueDate = u.DueDate
	d.ExecutedDate = u.ExecutedDate
	d.LetterDate = u.LetterDate
	d.PeriodEndDate = u.PeriodEndDate
	d.IsContract = u.IsContract
	d.ConfidenceScore = u.Confidence
}

var spaces = regexp.MustCompile(`\s+`)

// Party 折叠多余空白.
func Party(s string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(s), " ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func firstDate(values ...string) *string {
	for _, v := range values {
		if d := Date(v); d != "" {
			return &d
		}
	}

	return nil
}

// dateLayouts 可识别的日期格式，命中后统一输出 YYYY-MM-DD.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02-Jan-2006",
}

// Date 规整日期字符串，无法识别的格式原样保留（去掉首尾空白）.
func Date(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}

	return s
}
