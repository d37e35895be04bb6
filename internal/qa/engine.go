// Package qa runs format and cross-field checks over an extraction and reports
// which rules passed or failed.
package qa

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/validate"
)

// Rule checks a field value whose lower-cased name contains Keyword.
type Rule struct {
	Keyword string
	Check   func(string) bool
}

// DefaultRules is evaluated in order for every non-empty field. A name that
// contains several keywords ("total_amount") is checked once per keyword.
var DefaultRules = []Rule{
	{Keyword: "date", Check: validate.IsValidDate},
	{Keyword: "amount", Check: validate.IsValidAmount},
	{Keyword: "charges", Check: validate.IsValidAmount},
	{Keyword: "total", Check: validate.IsValidAmount},
}

const (
	RuleTotalsMatch = "totals_match"

	lineItemsField   = "line_items"
	totalAmountField = "total_amount"

	// computedTotalMarker in the source text is taken as evidence that the
	// stated total was computed from the line items.
	computedTotalMarker = "calculated_total"
)

// Engine validates extracted fields.
type Engine struct {
	rules []Rule
}

// NewEngine copies rules; nil means DefaultRules.
func NewEngine(rules []Rule) *Engine {
	if rules == nil {
		rules = DefaultRules
	}
	return &Engine{rules: append([]Rule(nil), rules...)}
}

// Validate never fails; malformed values simply fail their rules.
func (e *Engine) Validate(fields []entity.FieldValue, sourceText string) entity.QAReport {
	report := entity.NewQAReport()
	var lowConfidence []string
	present := make(map[string]bool, len(fields))

	for _, f := range fields {
		present[f.Name] = true
		if f.Value == "" {
			lowConfidence = append(lowConfidence, f.Name)
			continue
		}
		name := strings.ToLower(f.Name)
		for _, rule := range e.rules {
			if !strings.Contains(name, rule.Keyword) {
				continue
			}
			id := RuleID(rule.Keyword, f.Name)
			if rule.Check(f.Value) {
				report.Pass(id)
			} else {
				report.Fail(id)
			}
		}
	}

	if present[lineItemsField] && present[totalAmountField] {
		if strings.Contains(strings.ToLower(sourceText), computedTotalMarker) {
			report.Pass(RuleTotalsMatch)
		} else {
			report.Fail(RuleTotalsMatch)
		}
	}

	if len(lowConfidence) > 0 {
		report.Notes = fmt.Sprintf("%d low-confidence fields: %s", len(lowConfidence), strings.Join(lowConfidence, ", "))
	}
	return report
}

// RuleID names a format rule for one field, e.g. "date_format_invoice_date".
func RuleID(keyword, field string) string {
	return keyword + "_format_" + field
}
