// Package gemini implements classification and field extraction on Google
// Gemini through langchaingo.
package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

type Config struct {
	APIKey      string
	Model       string // default "gemini-2.0-flash"
	Temperature float64
}

type Client struct {
	cfg    Config
	model  llms.Model
	logger *slog.Logger
}

var (
	_ llm.Classifier     = (*Client)(nil)
	_ llm.FieldExtractor = (*Client)(nil)
)

// New dials the Gemini API.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, common.Kind(common.ErrConfiguration, "LLM_INIT", "create gemini client", err)
	}
	return NewWithModel(model, cfg, logger), nil
}

// NewWithModel wraps any langchaingo model.
func NewWithModel(model llms.Model, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, model: model, logger: logger}
}

func (c *Client) Classify(ctx context.Context, text string) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	prompt := llm.ClassifySystemPrompt() + "\n\n" + llm.BuildClassifyPrompt(text)
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithTemperature(0))
	if err != nil {
		err = classify(err)
		c.logger.Error("llm.classify.error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	label := strings.TrimSpace(out)
	c.logger.Info("llm.classify.ok", "req_id", rid, "label", label, "elapsed_ms", time.Since(start).Milliseconds())
	return label, nil
}

func (c *Client) ExtractFields(ctx context.Context, text string, fields []string) (map[string]string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()
	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
		"fields", len(fields),
	)

	prompt := llm.BuildExtractSystemPrompt(fields) + "\n\n" + llm.BuildExtractUserPrompt(text)
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithTemperature(c.cfg.Temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		err = classify(err)
		c.logger.Error("llm.extract.error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	values, err := llm.ParseFields(out, fields, c.logger)
	if err != nil {
		c.logger.Warn("llm.extract.degraded", "req_id", rid, "error", err, "content", llm.Head(out, 500))
		return nil, err
	}
	c.logger.Info("llm.extract.ok", "req_id", rid, "fields", len(values), "elapsed_ms", time.Since(start).Milliseconds())
	return values, nil
}

// classify maps SDK errors onto error kinds. Blocked or empty candidates are
// degraded output; gRPC status codes decide the rest.
func classify(err error) error {
	if errors.Is(err, googleai.ErrNoContentInResponse) {
		return common.Kind(common.ErrDegraded, "LLM_EMPTY", "gemini returned no content", err)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return common.Kind(common.ErrConfiguration, "LLM_AUTH", "gemini rejected the api key", err)
		case codes.InvalidArgument, codes.FailedPrecondition:
			return common.Kind(common.ErrDegraded, "LLM_REJECTED", "gemini rejected the request", err)
		}
	}
	return llm.ClassifyCallError(err)
}
