package ai

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. Passed to OpenAI as a structured-output constraint and used
// locally to validate every provider's response before it is trusted.
func BuildInvoiceJSONSchema() map[string]any {
	props := map[string]any{
		"invoiceType":       map[string]any{"type": "string", "enum": []string{InvoiceTypeService, InvoiceTypeSpares}},
		"invoiceDate":       map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"invoiceNumber":     map[string]any{"type": "string", "minLength": 1},
		"vendorName":        map[string]any{"type": "string"},
		"vendorGstin":       map[string]any{"type": "string"},
		"taxableAmount":     amountProp(),
		"cgstAmount":        amountProp(),
		"sgstAmount":        amountProp(),
		"igstAmount":        amountProp(),
		"totalInvoiceValue": amountProp(),
		"hash":              map[string]any{"type": "string"},
	}
	required := []string{
		"invoiceType", "invoiceDate", "invoiceNumber",
		"vendorName", "vendorGstin",
		"taxableAmount", "cgstAmount", "sgstAmount", "igstAmount",
		"totalInvoiceValue",
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func amountProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0}
}
