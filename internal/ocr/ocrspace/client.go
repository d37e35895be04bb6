// Package ocrspace recognizes page images with the OCR.space parse API.
package ocrspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/ocr"
)

const (
	DefaultEndpoint = "https://api.ocr.space/parse/image"

	// The API reports no per-word confidence.
	WordConfidence = 0.9
)

// Config for the OCR.space client.
type Config struct {
	APIKey   string
	Endpoint string        // default DefaultEndpoint
	Language string        // default "eng"
	Engine   string        // OCREngine, default "2"
	Timeout  time.Duration // http client timeout, default 60s
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

var _ ocr.Recognizer = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Engine == "" {
		cfg.Engine = "2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type parseResponse struct {
	ParsedResults []struct {
		ParsedText  string `json:"ParsedText"`
		TextOverlay struct {
			Lines []struct {
				Words []struct {
					WordText string  `json:"WordText"`
					Left     float64 `json:"Left"`
					Top      float64 `json:"Top"`
					Width    float64 `json:"Width"`
					Height   float64 `json:"Height"`
				} `json:"Words"`
			} `json:"Lines"`
		} `json:"TextOverlay"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

func (c *Client) Recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	rid := uuid.NewString()
	start := time.Now()

	body, contentType, err := c.form(image)
	if err != nil {
		return ocr.Result{}, common.WrapError(err, "build ocr.space form")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, body)
	if err != nil {
		return ocr.Result{}, common.WrapError(err, "build ocr.space request")
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("ocr.space.request", "req_id", rid, "image_bytes", len(image))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("ocr.space.send_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return ocr.Result{}, common.Kind(common.ErrTransient, "OCR_HTTP", "ocr.space request failed", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("ocr.space.response_body_close_error", "req_id", rid, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ocr.Result{}, common.Kind(common.ErrTransient, "OCR_HTTP", "read ocr.space response", err)
	}

	c.logger.Info("ocr.space.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if err := classifyStatus(resp.StatusCode, raw); err != nil {
		return ocr.Result{}, err
	}

	var pr parseResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return ocr.Result{}, common.Kind(common.ErrProcessing, "OCR_DECODE", "decode ocr.space response", err)
	}
	if pr.IsErroredOnProcessing {
		msg := errorMessage(pr.ErrorMessage)
		c.logger.Error("ocr.space.processing_error", "req_id", rid, "message", msg)
		return ocr.Result{}, common.Kind(common.ErrProcessing, "OCR_PROCESSING", msg, nil)
	}

	var res ocr.Result
	if len(pr.ParsedResults) == 0 {
		return res, nil
	}
	first := pr.ParsedResults[0]
	res.Text = first.ParsedText
	for _, line := range first.TextOverlay.Lines {
		for _, w := range line.Words {
			text := strings.TrimSpace(w.WordText)
			if text == "" {
				continue
			}
			res.Words = append(res.Words, entity.OCRWord{
				Text:       text,
				Confidence: WordConfidence,
				BBox:       entity.BBox{w.Left, w.Top, w.Left + w.Width, w.Top + w.Height},
			})
		}
	}
	return res, nil
}

func (c *Client) form(image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"language", c.cfg.Language},
		{"isOverlayRequired", "true"},
		{"detectOrientation", "true"},
		{"isTable", "true"},
		{"OCREngine", c.cfg.Engine},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	part, err := mw.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func classifyStatus(code int, raw []byte) error {
	switch {
	case code/100 == 2:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return common.Kind(common.ErrTransient, "OCR_HTTP", fmt.Sprintf("ocr.space status %d", code), nil)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return common.Kind(common.ErrConfiguration, "OCR_AUTH", fmt.Sprintf("ocr.space rejected the api key (status %d)", code), nil)
	default:
		return common.Kind(common.ErrProcessing, "OCR_HTTP", fmt.Sprintf("ocr.space status %d: %s", code, snippet(raw)), nil)
	}
}

// errorMessage accepts either a string or an array of strings.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown OCR error"
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return one
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	return "unknown OCR error"
}

func snippet(raw []byte) string {
	const max = 200
	s := strings.TrimSpace(string(raw))
	if len(s) > max {
		return s[:max]
	}
	return s
}

