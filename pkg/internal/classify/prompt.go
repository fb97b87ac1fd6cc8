package classify

import (
	"strings"

	"github.com/yeisme/docvault/pkg/internal/normalize"
)

const promptHeader = `You are a records clerk for a professional services firm. Read the attached document and return ONLY a JSON object, no prose.

Classify the document into exactly one document_type_category:
- "contract": agreements, amendments, statements of work, NDAs, engagement letters
- "invoice": bills, invoices, payment requests, statements of account
- "document": everything else (correspondence, notices, filings, reports)

Party naming rules:
- "party" is the counter-party, never the firm itself, except for internal documents where the firm is the only party.
- When a contractor operates as an entity, put the company name in "party" and the individual as "Last, First" in "sub_party".
- Use the legal name as printed on the document, without trailing punctuation.

Fields:
`

const commonFields = `  "document_type_category": "contract" | "invoice" | "document",
  "party": string,
  "sub_party": string | null,
  "document_type": short human label such as "Master Services Agreement" or "Utility Bill",
  "notes": string | null, anything a reviewer should know,
  "ai_summary": one or two sentence summary,
  "confidence_score": number between 0 and 1,
`

const unifiedFields = `  "document_date": "YYYY-MM-DD", the execution date for contracts, the issue date for invoices, the letter or period end date otherwise,
  "document_category": string | null (contracts only),
  "contract_type": string | null (contracts only),
  "amount": number | null (invoices only, total due without currency symbols),
  "due_date": "YYYY-MM-DD" | null (invoices only)
`

const legacyFields = `  "executed_date": "YYYY-MM-DD" | null (contracts only),
  "document_category": string | null (contracts only),
  "contract_type": string | null (contracts only),
  "amount": number | null (invoices only),
  "due_date": "YYYY-MM-DD" | null (invoices only),
  "letter_date": "YYYY-MM-DD" | null (documents only),
  "period_end_date": "YYYY-MM-DD" | null (documents only)
`

// Prompt 生成分类提示词. 两种字段形态共用同一套类别与当事方规则.
func Prompt(schema normalize.Schema) string {
	var b strings.Builder

	b.WriteString(promptHeader)
	b.WriteString("{\n")
	b.WriteString(commonFields)

	if schema == normalize.SchemaLegacy {
		b.WriteString(legacyFields)
	} else {
		b.WriteString(unifiedFields)
	}

	b.WriteString("}\n\nUse null for unknown values. Do not invent amounts or dates.")

	return b.String()
}
