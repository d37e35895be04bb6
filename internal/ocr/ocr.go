// Package ocr defines the text recognition contract and provider-agnostic
// wrappers (rate limiting, page cache) around it.
package ocr

import (
	"context"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Result is what a provider recognized on one page image.
type Result struct {
	Text  string           `json:"text"`
	Words []entity.OCRWord `json:"words"`
}

// Recognizer performs OCR on a single JPEG page image.
//
// Network, timeout, 429 and 5xx failures wrap common.ErrTransient. A service
// that reports it could not parse the image wraps common.ErrProcessing.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Result, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, image []byte) (Result, error)

func (f RecognizerFunc) Recognize(ctx context.Context, image []byte) (Result, error) {
	return f(ctx, image)
}
