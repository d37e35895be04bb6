package pipeline

import (
	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// score builds the final result. Field order follows the requested list.
func (p *Processor) score(doc *entity.ProcessedDocument, docType constants.DocType, fields []string, values map[string]string) *entity.ExtractionResult {
	pairs := make([]entity.FieldValue, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, entity.FieldValue{Name: f, Value: values[f]})
	}

	report := p.QA.Validate(pairs, doc.Text)

	ocrScore := doc.WordConfidence()
	out := make([]entity.ExtractedField, 0, len(pairs))
	for _, fv := range pairs {
		out = append(out, entity.ExtractedField{
			Name:       fv.Name,
			Value:      fv.Value,
			Confidence: p.Estimator.FieldConfidence(fv.Name, fv.Value, ocrScore),
			Source:     Locate(doc, fv.Value),
		})
	}

	// overall confidence needs every field score and the QA report
	return &entity.ExtractionResult{
		DocType:           string(docType),
		Fields:            out,
		OverallConfidence: p.Aggregator.OverallConfidence(out, report),
		QA:                report,
	}
}
