// Package azure recognizes page images with Azure Computer Vision OCR.
package azure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/ocr"
)

// WordConfidence is assigned to every word; the OCR endpoint reports none.
const WordConfidence = 0.9

type Config struct {
	Endpoint string
	APIKey   string
}

type Client struct {
	client computervision.BaseClient
	logger *slog.Logger
}

var _ ocr.Recognizer = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	client := computervision.New(cfg.Endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(cfg.APIKey)
	return &Client{client: client, logger: logger}
}

func (c *Client) Recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	rid := uuid.NewString()
	start := time.Now()

	result, err := c.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(image)),
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		c.logger.Error("ocr.azure.error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return ocr.Result{}, classifyError(err)
	}

	res := toResult(result)
	c.logger.Info("ocr.azure.ok",
		"req_id", rid,
		"words", len(res.Words),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// toResult flattens regions into text: one line per OCR line, regions
// separated by a blank line.
func toResult(r computervision.OcrResult) ocr.Result {
	var res ocr.Result
	if r.Regions == nil {
		return res
	}
	var blocks []string
	for _, region := range *r.Regions {
		if region.Lines == nil {
			continue
		}
		var lines []string
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			var words []string
			for _, w := range *line.Words {
				if w.Text == nil || strings.TrimSpace(*w.Text) == "" {
					continue
				}
				text := strings.TrimSpace(*w.Text)
				words = append(words, text)
				res.Words = append(res.Words, entity.OCRWord{
					Text:       text,
					Confidence: WordConfidence,
					BBox:       parseBBox(w.BoundingBox),
				})
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
		if len(lines) > 0 {
			blocks = append(blocks, strings.Join(lines, "\n"))
		}
	}
	res.Text = strings.Join(blocks, "\n\n")
	return res
}

// parseBBox converts "x,y,w,h" into corner coordinates.
func parseBBox(s *string) entity.BBox {
	if s == nil {
		return entity.BBox{}
	}
	parts := strings.Split(*s, ",")
	if len(parts) != 4 {
		return entity.BBox{}
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return entity.BBox{}
		}
		v[i] = f
	}
	return entity.BBox{v[0], v[1], v[0] + v[2], v[1] + v[3]}
}

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.Kind(common.ErrTransient, "OCR_HTTP", "azure ocr interrupted", err)
	}
	var de autorest.DetailedError
	if !errors.As(err, &de) {
		return common.Kind(common.ErrTransient, "OCR_HTTP", "azure ocr request failed", err)
	}
	code, _ := de.StatusCode.(int)
	switch {
	case code == 0, code == http.StatusTooManyRequests, code >= 500:
		return common.Kind(common.ErrTransient, "OCR_HTTP", fmt.Sprintf("azure ocr status %d", code), err)
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return common.Kind(common.ErrConfiguration, "OCR_AUTH", "azure rejected the subscription key", err)
	default:
		return common.Kind(common.ErrProcessing, "OCR_PROCESSING", fmt.Sprintf("azure could not read the image (status %d)", code), err)
	}
}
