package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordConfidence(t *testing.T) {
	var empty ProcessedDocument
	assert.Equal(t, DefaultWordConfidence, empty.WordConfidence())

	var nilDoc *ProcessedDocument
	assert.Equal(t, DefaultWordConfidence, nilDoc.WordConfidence())

	doc := ProcessedDocument{OCRConfidences: []float64{0.5, 1.0}}
	assert.InDelta(t, 0.75, doc.WordConfidence(), 1e-9)
}

func TestExtractionResultJSONShape(t *testing.T) {
	res := ExtractionResult{
		DocType: "invoice",
		Fields: []ExtractedField{
			{Name: "total_amount", Value: "$10.00", Confidence: 0.5, Source: DefaultSource()},
		},
		OverallConfidence: 0.5,
		QA:                NewQAReport(),
	}
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"doc_type": "invoice",
		"fields": [{"name": "total_amount", "value": "$10.00", "confidence": 0.5,
			"source": {"page": 1, "bbox": [0, 0, 0, 0]}}],
		"overall_confidence": 0.5,
		"qa": {"passed_rules": [], "failed_rules": [], "notes": ""}
	}`, string(b))
}
