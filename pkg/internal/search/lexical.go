package search

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/normalize"
)

// WholeWordBonus 查询词作为完整单词出现时的额外得分.
const WholeWordBonus = 3

// Lexical 关键词检索：每个查询词在可检索文本中的出现次数之和，加上每次完整单词命中的奖励分.
// 只保留得分大于 0 的文档，按得分降序稳定排序，最多返回 limit 条.
func Lexical(query string, corpus []model.Document, limit int) []model.Document {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	type scored struct {
		doc   model.Document
		score int
	}

	var hits []scored

	for i := range corpus {
		if s := Score(terms, Searchable(&corpus[i])); s > 0 {
			hits = append(hits, scored{doc: corpus[i], score: s})
		}
	}

	slices.SortStableFunc(hits, func(a, b scored) int { return b.score - a.score })

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]model.Document, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.doc)
	}

	return out
}

// Score 计算小写文本对查询词的得分.
func Score(terms []string, text string) int {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '-'
	})

	score := 0

	for _, t := range terms {
		score += strings.Count(text, t)

		for _, w := range words {
			if w == t || strings.Trim(w, ".-") == t {
				score += WholeWordBonus
			}
		}
	}

	return score
}

// Searchable 拼接文档的可检索字段并转小写.
func Searchable(d *model.Document) string {
	fields := []string{
		d.Filename(),
		d.OriginalFilename,
		model.Deref(d.DocumentTypeCategory),
		model.Deref(d.Party),
		model.Deref(d.SubParty),
		model.Deref(d.DocumentType),
		model.Deref(d.DocumentCategory),
		model.Deref(d.ContractType),
		normalize.EffectiveDate(d),
		model.Deref(d.DueDate),
		model.Deref(d.Notes),
		model.Deref(d.AISummary),
		model.Deref(d.EmailSubject),
		d.ContentText,
	}

	if d.Amount != nil {
		fields = append(fields, strconv.FormatFloat(*d.Amount, 'f', 2, 64))
	}

	return strings.ToLower(strings.Join(fields, " "))
}
