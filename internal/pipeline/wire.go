package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/confidence"
	"github.com/joseph-ayodele/docextract/internal/extract"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/llm/gemini"
	"github.com/joseph-ayodele/docextract/internal/llm/openai"
	"github.com/joseph-ayodele/docextract/internal/ocr"
	"github.com/joseph-ayodele/docextract/internal/ocr/azure"
	"github.com/joseph-ayodele/docextract/internal/ocr/ocrspace"
	"github.com/joseph-ayodele/docextract/internal/ocr/tesseract"
	"github.com/joseph-ayodele/docextract/internal/qa"
	repo "github.com/joseph-ayodele/docextract/internal/repository"
)

// NewFromConfig builds a Processor with the providers selected in cfg. The
// returned closer releases the OCR cache and local OCR engine.
func NewFromConfig(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Processor, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	recognizer, closeOCR, err := newRecognizer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if closeOCR != nil {
		closers = append(closers, closeOCR)
	}

	// local OCR is free; only remote providers are throttled
	if cfg.OCR.Provider != common.OCRProviderTesseract {
		recognizer = ocr.NewLimited(recognizer, cfg.OCR.RatePerSecond, 1)
	}
	if cfg.OCR.CacheDSN != "" {
		cache, err := repo.OpenCache(ctx, repo.Config{
			DSN:              cfg.OCR.CacheDSN,
			MaxConns:         cfg.OCR.CacheMaxConns,
			StatementTimeout: cfg.OCR.CacheStmtLimit,
		}, logger)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, cache.Close)
		recognizer = ocr.NewCached(recognizer, cache, cfg.OCR.Provider, logger)
	}

	loader := ingest.NewLoader(ingest.Config{
		PDFToPPM:    cfg.Ingest.PDFToPPM,
		DPI:         cfg.Ingest.DPI,
		MaxPages:    cfg.Ingest.MaxPages,
		JPEGQuality: cfg.Ingest.JPEGQuality,
		Enhance:     cfg.OCR.Enhance,
	}, nil, logger)
	text := extract.NewOCRAdapter(loader, recognizer, cfg.OCR.Timeout, logger)

	classifier, extractor, err := newLLM(ctx, cfg, logger)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}

	defaults, err := mergeDefaultFields(cfg.Scoring.DefaultFields)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	weights := maps.Clone(confidence.DefaultWeights)
	maps.Copy(weights, cfg.Scoring.Weights)

	p := NewProcessor(logger, Config{
		Attempts:      cfg.LLM.Attempts,
		LLMTimeout:    cfg.LLM.Timeout,
		DefaultFields: defaults,
	}, text, classifier, extractor, qa.NewEngine(nil), confidence.NewAggregator(weights))
	return p, closeAll, nil
}

func newRecognizer(cfg *common.Config, logger *slog.Logger) (ocr.Recognizer, func() error, error) {
	switch cfg.OCR.Provider {
	case common.OCRProviderOCRSpace:
		return ocrspace.NewClient(ocrspace.Config{
			APIKey:   cfg.OCR.APIKey,
			Endpoint: cfg.OCR.Endpoint,
			Timeout:  cfg.OCR.Timeout,
		}, logger), nil, nil
	case common.OCRProviderAzure:
		return azure.NewClient(azure.Config{Endpoint: cfg.OCR.AzureEndpoint, APIKey: cfg.OCR.AzureKey}, logger), nil, nil
	case common.OCRProviderTesseract:
		c, err := tesseract.New(tesseract.Config{TessdataDir: cfg.OCR.TessdataDir}, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown OCR_PROVIDER %q", cfg.OCR.Provider), common.ErrConfiguration)
	}
}

func newLLM(ctx context.Context, cfg *common.Config, logger *slog.Logger) (llm.Classifier, llm.FieldExtractor, error) {
	switch cfg.LLM.Provider {
	case common.LLMProviderOpenAI:
		c := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		return c, c, nil
	case common.LLMProviderGemini:
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.LLM.GoogleAPIKey,
			Model:       cfg.LLM.GeminiModel,
			Temperature: float64(cfg.LLM.Temperature),
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	default:
		return nil, nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM_PROVIDER %q", cfg.LLM.Provider), common.ErrConfiguration)
	}
}

// mergeDefaultFields overlays per-type field lists from the scoring file.
func mergeDefaultFields(overrides map[string][]string) (map[constants.DocType][]string, error) {
	out := maps.Clone(constants.DefaultFields)
	for name, fields := range overrides {
		t, ok := constants.ParseDocType(name)
		if !ok {
			return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("scoring file: unknown document type %q", name), common.ErrConfiguration)
		}
		if err := common.NewValidator().Field("fields."+name, fields, common.Required, common.FieldNames).Err(); err != nil {
			return nil, common.NewAppError("CONFIG_ERROR", err.Error(), common.ErrConfiguration)
		}
		out[t] = append([]string(nil), fields...)
	}
	return out, nil
}
