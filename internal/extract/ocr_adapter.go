package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/ocr"
)

// PageSeparator joins page texts in the document text.
const PageSeparator = "\n\n"

// OCRAdapter runs every page of a file through a Recognizer.
type OCRAdapter struct {
	loader     PageLoader
	recognizer ocr.Recognizer
	timeout    time.Duration
	logger     *slog.Logger
}

var _ TextExtractor = (*OCRAdapter)(nil)

// NewOCRAdapter bounds each page call by timeout (0 = caller's deadline only).
func NewOCRAdapter(loader PageLoader, recognizer ocr.Recognizer, timeout time.Duration, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{loader: loader, recognizer: recognizer, timeout: timeout, logger: logger}
}

// Extract fails the whole document on the first page error; no partial
// document is returned.
func (a *OCRAdapter) Extract(ctx context.Context, path string) (*entity.ProcessedDocument, error) {
	start := time.Now()
	reqID := common.RequestIDFromContext(ctx)

	images, err := a.loader.Load(ctx, path)
	if err != nil {
		a.logger.Error("ocr.load.failed", "req_id", reqID, "path", path, "error", err)
		return nil, err
	}

	doc := &entity.ProcessedDocument{Pages: make([]entity.Page, 0, len(images))}
	texts := make([]string, 0, len(images))
	for _, img := range images {
		res, err := a.recognize(ctx, img.Data)
		if err != nil {
			a.logger.Error("ocr.page.failed", "req_id", reqID, "page", img.Number, "error", err)
			return nil, err
		}
		text := ocr.Normalize(res.Text)
		doc.Pages = append(doc.Pages, entity.Page{Number: img.Number, Text: text, Words: res.Words})
		for _, w := range res.Words {
			doc.OCRConfidences = append(doc.OCRConfidences, w.Confidence)
		}
		texts = append(texts, text)
		a.logger.Debug("ocr.page.ok", "req_id", reqID, "page", img.Number, "words", len(res.Words), "chars", len(text))
	}
	doc.Text = strings.Join(texts, PageSeparator)

	a.logger.Info("ocr.document.ok",
		"req_id", reqID,
		"pages", len(doc.Pages),
		"words", len(doc.OCRConfidences),
		"word_confidence", doc.WordConfidence(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

func (a *OCRAdapter) recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	res, err := a.recognizer.Recognize(ctx, image)
	if err == nil {
		return res, nil
	}
	// providers classify their own failures; bare context errors still count as transient
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, common.ErrTransient) {
		return ocr.Result{}, common.Kind(common.ErrTransient, "OCR_TIMEOUT", fmt.Sprintf("ocr exceeded %s", a.timeout), err)
	}
	return ocr.Result{}, err
}
