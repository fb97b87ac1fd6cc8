package dedup

import (
	"fmt"
	"strings"

	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/normalize"
)

const judgeInstructions = `You are reviewing a document before it is archived.
Decide which of the archived candidates describe the same real-world document as the new one
(a re-scan, a resend, or a copy). Different periods, amounts or counterparties mean different documents.

Reply with JSON only:
{"duplicates": [{"index": <candidate index>, "reason": "<short reason>"}]}
Return an empty array when none of the candidates is a duplicate.`

func judgePrompt(doc *model.Document, matches []Candidate) string {
	var b strings.Builder

	b.WriteString(judgeInstructions)
	b.WriteString("\n\nNEW DOCUMENT:\n")
	b.WriteString(describe(doc.Filename(), model.Deref(doc.Party), model.Deref(doc.DocumentType),
		normalize.EffectiveDate(doc), model.Deref(doc.AISummary)))
	b.WriteString("\n\nARCHIVED CANDIDATES:\n")

	for i, c := range matches {
		fmt.Fprintf(&b, "[%d] %s\n", i, describe(fileName(c.FilePath), c.Party, c.DocumentType, c.DocumentDate, ""))
	}

	return b.String()
}

func describe(name, party, docType, date, summary string) string {
	parts := []string{"file=" + name}

	for _, kv := range [][2]string{{"party", party}, {"type", docType}, {"date", date}, {"summary", summary}} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}

	return strings.Join(parts, "; ")
}

func fileName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}

	return key
}
