package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/normalize"
)

const rankInstructions = `You are a search engine over archived business documents.
Return the indices of the documents relevant to the query, most relevant first.
Reply with JSON only: {"indices": [<index>, ...]}. Return an empty array when nothing matches.`

// Digest 单个文档交给排序模型的一行摘要.
func Digest(d *model.Document) string {
	parts := []string{"file=" + d.Filename()}

	add := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, k+"="+v)
		}
	}

	add("category", model.Deref(d.DocumentTypeCategory))
	add("party", model.Deref(d.Party))
	add("type", model.Deref(d.DocumentType))

	if d.Amount != nil {
		add("amount", strconv.FormatFloat(*d.Amount, 'f', 2, 64))
	}

	add("date", normalize.EffectiveDate(d))
	add("due", model.Deref(d.DueDate))
	add("summary", model.Deref(d.AISummary))
	add("notes", model.Deref(d.Notes))

	return strings.Join(parts, "; ")
}

func rankPrompt(query string, corpus []model.Document) string {
	var b strings.Builder

	b.WriteString(rankInstructions)
	fmt.Fprintf(&b, "\n\nQUERY: %s\n\nDOCUMENTS:\n", query)

	for i := range corpus {
		fmt.Fprintf(&b, "[%d] %s\n", i, Digest(&corpus[i]))
	}

	return b.String()
}
