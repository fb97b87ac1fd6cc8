// Package analysis 定义大模型抽取结果的类型化表示.
//
// Analysis 是以 document_type_category 为判别字段的标签联合：
// contract 携带 DocumentCategory/ContractType，invoice 携带 Amount/DueDate，
// 其余类别相关字段即使提供方返回了也只原样保留，由 normalize 包裁剪.
//
// Example:
//
//	a, err := analysis.FromMap(map[string]any{
//		"document_type_category": "invoice",
//		"party":                  "Acme Co",
//		"amount":                 "$2,340.00",
//	})
//	if err != nil {
//		// 结构不合法，换下一个提供方
//	}
package analysis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yeisme/docvault/pkg/internal/model"
)

// ErrInvalidShape 返回结果缺少合法的类别判别字段.
var ErrInvalidShape = errors.New("analysis: missing or unknown document_type_category")

// Analysis 单次分类的抽取结果.
type Analysis struct {
	Category     model.Category
	Party        string
	SubParty     string
	DocumentType string
	Notes        string
	Summary      string

	// DocumentDate 新版统一日期，其余为旧版按类别拆分的日期字段
	DocumentDate  string
	ExecutedDate  string
	LetterDate    string
	PeriodEndDate string
	DueDate       string

	DocumentCategory string
	ContractType     string
	// Amount 保留提供方返回的原始值（字符串或数字）
	Amount any

	Confidence *float64

	// Provider 产出该结果的提供方名称
	Provider string
	// Raw 提供方返回的原始 JSON 文本
	Raw string
}

// FromMap 从提供方返回的 JSON 对象构造 Analysis，同时兼容新旧两种字段形态.
func FromMap(m map[string]any) (*Analysis, error) {
	if m == nil {
		return nil, ErrInvalidShape
	}

	cat, ok := model.ParseCategory(str(m, "document_type_category", "category"))
	if !ok {
		return nil, ErrInvalidShape
	}

	a := &Analysis{
		Category:         cat,
		Party:            str(m, "party"),
		SubParty:         str(m, "sub_party"),
		DocumentType:     str(m, "document_type"),
		Notes:            str(m, "notes"),
		Summary:          str(m, "ai_summary", "summary"),
		DocumentDate:     str(m, "document_date"),
		ExecutedDate:     str(m, "executed_date"),
		LetterDate:       str(m, "letter_date"),
		PeriodEndDate:    str(m, "period_end_date"),
		DueDate:          str(m, "due_date"),
		DocumentCategory: str(m, "document_category"),
		ContractType:     str(m, "contract_type"),
		Amount:           m["amount"],
	}

	if c, ok := confidence(m); ok {
		a.Confidence = &c
	}

	return a, nil
}

// str 返回第一个非空的字符串字段，"null"/"n/a" 视为空.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}

		var s string

		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			continue
		default:
			s = fmt.Sprint(t)
		}

		s = strings.TrimSpace(s)
		switch strings.ToLower(s) {
		case "", "null", "none", "n/a":
			continue
		}

		return s
	}

	return ""
}

// confidence 读取 0~1 的置信度，百分数形式会被换算.
func confidence(m map[string]any) (float64, bool) {
	for _, k := range []string{"confidence_score", "confidence"} {
		var (
			f   float64
			err error
		)

		switch t := m[k].(type) {
		case float64:
			f = t
		case string:
			f, err = strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
			if err != nil {
				continue
			}
		default:
			continue
		}

		if f > 1 && f <= 100 {
			f /= 100
		}

		if f < 0 || f > 1 {
			continue
		}

		return f, true
	}

	return 0, false
}
