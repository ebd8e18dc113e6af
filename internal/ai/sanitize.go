package ai

import (
	"encoding/json"
	"strconv"
	"strings"
)

var moneyKeys = []string{
	"taxableAmount", "cgstAmount", "sgstAmount", "igstAmount", "totalInvoiceValue",
}

// SanitizeResult normalizes a model response that is close to, but not
// exactly, schema-conformant: amounts returned as strings become numbers,
// nulls become zero, the GSTIN is uppercased, the invoice type label gets
// canonical casing, and an empty hash is dropped. Returns the cleaned JSON
// plus the list of keys touched; callers re-validate afterwards.
func SanitizeResult(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var changed []string

	for _, k := range moneyKeys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			m[k] = 0.0
			changed = append(changed, k)
		case string:
			s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				m[k] = f
			} else {
				m[k] = 0.0
			}
			changed = append(changed, k)
		}
	}

	if v, ok := m["vendorGstin"].(string); ok {
		s := strings.ToUpper(strings.TrimSpace(v))
		if s != v {
			changed = append(changed, "vendorGstin")
		}
		m["vendorGstin"] = s
	}

	if v, ok := m["invoiceType"].(string); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "service", "services":
			m["invoiceType"] = InvoiceTypeService
		case "spares", "spare":
			m["invoiceType"] = InvoiceTypeSpares
		}
		if m["invoiceType"] != v {
			changed = append(changed, "invoiceType")
		}
	}

	if v, ok := m["hash"]; ok {
		if s, isStr := v.(string); !isStr || strings.TrimSpace(s) == "" {
			delete(m, "hash")
			changed = append(changed, "hash")
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, changed, nil
}
