package confidence

import (
	"maps"
	"math"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

const (
	// DefaultWeight applies to any field name missing from the weight table.
	DefaultWeight = 1.0

	failurePenalty = 0.1
	minFactor      = 0.7
)

// DefaultWeights ranks fields by importance, keyed by exact field name.
var DefaultWeights = map[string]float64{
	"total_amount":   1.5,
	"total_charges":  1.5,
	"invoice_number": 1.3,
	"claim_number":   1.3,
	"patient_name":   1.4,
	"medication":     1.4,
	"date":           1.2,
}

// Aggregator combines field confidences and QA outcomes into one document score.
type Aggregator struct {
	weights map[string]float64
}

// NewAggregator copies weights; nil means DefaultWeights.
func NewAggregator(weights map[string]float64) *Aggregator {
	if weights == nil {
		weights = DefaultWeights
	}
	return &Aggregator{weights: maps.Clone(weights)}
}

// Weight returns the importance weight for a field name.
func (a *Aggregator) Weight(name string) float64 {
	if w, ok := a.weights[name]; ok {
		return w
	}
	return DefaultWeight
}

// OverallConfidence is the weighted mean of field confidences scaled by the
// validation factor: each failed rule costs 10%, never below 0.7.
// An empty field list scores 0.
func (a *Aggregator) OverallConfidence(fields []entity.ExtractedField, qa entity.QAReport) float64 {
	var weightedSum, totalWeight float64
	for _, f := range fields {
		w := a.Weight(f.Name)
		weightedSum += f.Confidence * w
		totalWeight += w
	}
	var base float64
	if totalWeight > 0 {
		base = weightedSum / totalWeight
	}
	return clamp(base * ValidationFactor(len(qa.FailedRules)))
}

// ValidationFactor is the multiplicative penalty for failed QA rules.
func ValidationFactor(failed int) float64 {
	if failed <= 0 {
		return 1.0
	}
	return math.Max(minFactor, 1.0-failurePenalty*float64(failed))
}
