//go:build !tesseract

// Package tesseract recognizes page images locally with Tesseract.
//
// This is the stub used when the "tesseract" build tag is not set. New
// returns ErrNotEnabled. Rebuild with:
//
//	go build -tags tesseract
package tesseract

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/ocr"
)

// Enabled reports whether Tesseract support was compiled in.
const Enabled = false

// ErrNotEnabled is returned when Tesseract support was not compiled in.
var ErrNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags tesseract")

type Config struct {
	Language    string
	TessdataDir string
}

type Client struct{}

var _ ocr.Recognizer = (*Client)(nil)

func New(Config, *slog.Logger) (*Client, error) {
	return nil, common.Kind(common.ErrConfiguration, "OCR_TESSERACT", "tesseract provider unavailable", ErrNotEnabled)
}

func (*Client) Close() error { return nil }

func (*Client) Recognize(context.Context, []byte) (ocr.Result, error) {
	return ocr.Result{}, common.Kind(common.ErrConfiguration, "OCR_TESSERACT", "tesseract provider unavailable", ErrNotEnabled)
}
