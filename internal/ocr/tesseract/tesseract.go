//go:build tesseract

// Package tesseract recognizes page images locally with Tesseract via
// gosseract. Build with -tags tesseract; requires libtesseract.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/ocr"
)

// Enabled reports whether Tesseract support was compiled in.
const Enabled = true

type Config struct {
	Language    string // default "eng"
	TessdataDir string
}

// Client serializes access to a single Tesseract handle.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
	logger *slog.Logger
}

var _ ocr.Recognizer = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.Language); err != nil {
		_ = client.Close()
		return nil, common.Kind(common.ErrConfiguration, "OCR_TESSERACT", "set language", err)
	}
	if cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataDir); err != nil {
			_ = client.Close()
			return nil, common.Kind(common.ErrConfiguration, "OCR_TESSERACT", "set tessdata dir", err)
		}
	}
	return &Client{client: client, logger: logger}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *Client) Recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, common.Kind(common.ErrTransient, "OCR_TESSERACT", "cancelled", err)
	}
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(image); err != nil {
		return ocr.Result{}, common.Kind(common.ErrProcessing, "OCR_TESSERACT", "failed to set image", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return ocr.Result{}, common.Kind(common.ErrProcessing, "OCR_TESSERACT", "recognition failed", err)
	}
	boxes, err := c.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return ocr.Result{}, common.Kind(common.ErrProcessing, "OCR_TESSERACT", fmt.Sprintf("word boxes: %v", err), nil)
	}

	res := ocr.Result{Text: text, Words: make([]entity.OCRWord, 0, len(boxes))}
	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		res.Words = append(res.Words, entity.OCRWord{
			Text:       b.Word,
			Confidence: b.Confidence / 100,
			BBox: entity.BBox{
				float64(b.Box.Min.X), float64(b.Box.Min.Y),
				float64(b.Box.Max.X), float64(b.Box.Max.Y),
			},
		})
	}
	c.logger.Info("ocr.tesseract.ok", "words", len(res.Words), "elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}
