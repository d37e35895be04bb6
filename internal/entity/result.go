package entity

// Source locates a field value inside the document.
type Source struct {
	Page int  `json:"page"`
	BBox BBox `json:"bbox"`
}

// DefaultSource is used when a value cannot be located on any page.
func DefaultSource() Source {
	return Source{Page: 1}
}

// FieldValue is a raw name/value pair before scoring. Order is significant.
type FieldValue struct {
	Name  string
	Value string
}

// ExtractedField is a scored field. It is not modified after creation.
type ExtractedField struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// QAReport lists rule identifiers in the order the checks ran.
type QAReport struct {
	PassedRules []string `json:"passed_rules"`
	FailedRules []string `json:"failed_rules"`
	Notes       string   `json:"notes"`
}

// NewQAReport returns a report whose rule lists serialize as [] rather than null.
func NewQAReport() QAReport {
	return QAReport{PassedRules: []string{}, FailedRules: []string{}}
}

// Pass records a passed rule.
func (r *QAReport) Pass(rule string) { r.PassedRules = append(r.PassedRules, rule) }

// Fail records a failed rule.
func (r *QAReport) Fail(rule string) { r.FailedRules = append(r.FailedRules, rule) }

// ExtractionResult is the terminal artifact for one document.
type ExtractionResult struct {
	DocType           string           `json:"doc_type"`
	Fields            []ExtractedField `json:"fields"`
	OverallConfidence float64          `json:"overall_confidence"`
	QA                QAReport         `json:"qa"`
}
