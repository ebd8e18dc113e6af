package ai

import (
	"encoding/json"
	"strings"
)

// maxPromptText caps how much invoice text goes into a prompt. GST invoices
// carry all statutory fields on the first page; anything past this is line
// items.
const maxPromptText = 6000

func buildSystemPrompt() string {
	parts := []string{
		"You correct and complete data extracted from an Indian GST invoice.",
		"A rule-based system already attempted extraction but its confidence was low.",
		"The raw invoice text is the source of truth; fill fields the rules missed and fix obvious mistakes (e.g. a phone number mistaken for an invoice number).",
		"Ensure taxableAmount + cgstAmount + sgstAmount + igstAmount equals totalInvoiceValue.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Amounts are plain numbers, no currency symbols or thousands separators.",
		"If a content hash is provided, copy it into 'hash' unchanged.",
		"Return ONLY JSON matching the provided schema. No commentary.",
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(req Request) string {
	text := req.Text
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}

	var b strings.Builder
	b.WriteString("Invoice text:\n")
	b.WriteString(text)

	if req.Partial != nil {
		b.WriteString("\n\nPartial data from the rule-based system:\n")
		if partial, err := json.Marshal(req.Partial); err == nil {
			b.Write(partial)
		}
	}
	if req.ContentHashHex != "" {
		b.WriteString("\n\nContent hash: ")
		b.WriteString(req.ContentHashHex)
	}
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
