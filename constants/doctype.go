package constants

import "strings"

// DocType is one of the closed set of document types the classifier may return.
type DocType string

const (
	Invoice      DocType = "invoice"
	MedicalBill  DocType = "medical_bill"
	Prescription DocType = "prescription"
)

// DocumentTypes is ordered; the first entry is the fallback when a label is unknown.
var DocumentTypes = []DocType{Invoice, MedicalBill, Prescription}

// DefaultDocType is used when auto-detection is off and the caller names no type.
const DefaultDocType = Invoice

// DefaultFields maps a document type to the fields extracted when the caller supplies none.
var DefaultFields = map[DocType][]string{
	Invoice: {
		"vendor_name", "vendor_address", "invoice_number", "invoice_date",
		"due_date", "total_amount", "tax_amount", "line_items",
	},
	MedicalBill: {
		"patient_name", "patient_dob", "provider_name", "provider_address",
		"service_date", "total_charges", "insurance_name", "claim_number",
	},
	Prescription: {
		"patient_name", "patient_dob", "prescriber_name", "prescriber_license",
		"medication", "dosage", "quantity", "refills", "issue_date",
	},
}

// FieldsFor returns a copy of the default field list for t, or nil for an unknown type.
func FieldsFor(t DocType) []string {
	fields, ok := DefaultFields[t]
	if !ok {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// AsStringSlice returns the known document types as plain strings.
func AsStringSlice() []string {
	result := make([]string, len(DocumentTypes))
	for i, t := range DocumentTypes {
		result[i] = string(t)
	}
	return result
}

// Canonicalize maps a free-form classifier answer onto a known type. The first
// known type contained in the lower-cased answer wins; otherwise the first entry
// of DocumentTypes is returned with ok=false.
func Canonicalize(input string) (DocType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DocumentTypes[0], false
	}
	for _, t := range DocumentTypes {
		if strings.Contains(normalized, string(t)) {
			return t, true
		}
	}
	return DocumentTypes[0], false
}

// ParseDocType accepts only an exact (case-insensitive) known type name.
func ParseDocType(s string) (DocType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range DocumentTypes {
		if s == string(t) {
			return t, true
		}
	}
	return "", false
}
