package normalize

import "github.com/yeisme/docvault/pkg/internal/model"

// Dates 新旧两种形态的日期字段.
type Dates struct {
	Document  string
	Executed  string
	Due       string
	Letter    string
	PeriodEnd string
}

// ResolveDate 解析有效日期: 先取 document_date，否则按类别依次回退
// contract → executed_date，invoice → due_date，document → letter_date、period_end_date.
// 第一个非空值胜出.
func ResolveDate(cat model.Category, d Dates) string {
	order := []string{d.Document}

	switch cat {
	case model.CategoryContract:
		order = append(order, d.Executed)
	case model.CategoryInvoice:
		order = append(order, d.Due)
	case model.CategoryDocument:
		order = append(order, d.Letter, d.PeriodEnd)
	}

	for _, v := range order {
		if s := Date(v); s != "" {
			return s
		}
	}

	return ""
}

// EffectiveDate 读取已入库文档的有效日期，兼容只写了旧字段的行.
func EffectiveDate(doc *model.Document) string {
	return ResolveDate(doc.Category(), Dates{
		Document:  model.Deref(doc.DocumentDate),
		Executed:  model.Deref(doc.ExecutedDate),
		Due:       model.Deref(doc.DueDate),
		Letter:    model.Deref(doc.LetterDate),
		PeriodEnd: model.Deref(doc.PeriodEndDate),
	})
}
