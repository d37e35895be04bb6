// Package confidence turns presence, length, OCR and format signals into
// per-field and per-document confidence scores in [0, 1].
package confidence

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/docextract/internal/validate"
)

const (
	presentScore = 1.0
	missingScore = 0.2

	// values of this many characters or more get the full length score
	saturationLength = 20

	presenceWeight = 0.4
	lengthWeight   = 0.3
	ocrWeight      = 0.3

	typeBoost = 1.2
)

// Estimator scores single fields. The zero value is ready to use.
type Estimator struct{}

// NewEstimator returns a field confidence estimator.
func NewEstimator() *Estimator { return &Estimator{} }

// FieldConfidence scores one field value against the document-level OCR signal.
//
// Name matching for the type boost is literal substring containment and is not
// case-folded: "invoice_date" is boosted for a valid date, "Invoice_Date" is not.
func (e *Estimator) FieldConfidence(name, value string, ocrScore float64) float64 {
	presence := missingScore
	if value != "" {
		presence = presentScore
	}
	length := math.Min(1.0, float64(utf8.RuneCountInString(value))/saturationLength)
	base := presence*presenceWeight + length*lengthWeight + ocrScore*ocrWeight
	return clamp(base * boostFor(name, value))
}

func boostFor(name, value string) float64 {
	if strings.Contains(name, "date") && validate.IsValidDate(value) {
		return typeBoost
	}
	if (strings.Contains(name, "amount") || strings.Contains(name, "total")) && validate.IsValidAmount(value) {
		return typeBoost
	}
	return 1.0
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(1.0, v)
}
