package entity

// DefaultWordConfidence stands in for the OCR signal when no words were recognized.
const DefaultWordConfidence = 0.8

// BBox is [x0, y0, x1, y1] in page pixel coordinates.
type BBox [4]float64

// OCRWord is one recognized word on one page.
type OCRWord struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// Page is the OCR output for one rasterized page (1-based Number).
type Page struct {
	Number int       `json:"page"`
	Text   string    `json:"text"`
	Words  []OCRWord `json:"words"`
}

// ProcessedDocument is what ingestion + OCR hand to the extraction pipeline.
type ProcessedDocument struct {
	Text           string    `json:"text"`
	Pages          []Page    `json:"pages"`
	OCRConfidences []float64 `json:"ocr_confidences"`
}

// WordConfidence is the document-level OCR signal: the mean word confidence,
// or DefaultWordConfidence when nothing was recognized.
func (d *ProcessedDocument) WordConfidence() float64 {
	if d == nil || len(d.OCRConfidences) == 0 {
		return DefaultWordConfidence
	}
	var sum float64
	for _, c := range d.OCRConfidences {
		sum += c
	}
	return sum / float64(len(d.OCRConfidences))
}
