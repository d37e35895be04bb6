// Package pipeline orchestrates one document through OCR, classification,
// repeated field extraction, QA and confidence scoring.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/confidence"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/extract"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/qa"
)

// Request describes one extraction. Fields empty means the document type's
// default list. DocType is used only when AutoDetect is false; empty means
// invoice.
type Request struct {
	Path       string
	Fields     []string
	AutoDetect bool
	DocType    string
}

// Validate rejects malformed requests with common.ErrInvalidInput.
func (r Request) Validate() error {
	return common.NewValidator().
		Field("path", r.Path, common.Required).
		Field("doc_type", r.DocType, common.OneOf(constants.AsStringSlice()...)).
		Field("fields", r.Fields, common.FieldNames).
		Err()
}

// Config holds extraction behavior.
type Config struct {
	Attempts      int           // extraction attempts per document, default 3
	LLMTimeout    time.Duration // per LLM call, 0 = caller's deadline only
	DefaultFields map[constants.DocType][]string
}

// Processor is safe for concurrent use; it holds no per-document state.
type Processor struct {
	Logger     *slog.Logger
	Cfg        Config
	Text       extract.TextExtractor
	Classifier llm.Classifier
	Extractor  llm.FieldExtractor
	QA         *qa.Engine
	Estimator  *confidence.Estimator
	Aggregator *confidence.Aggregator
}

func NewProcessor(
	logger *slog.Logger,
	cfg Config,
	text extract.TextExtractor,
	classifier llm.Classifier,
	extractor llm.FieldExtractor,
	engine *qa.Engine,
	aggregator *confidence.Aggregator,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.DefaultFields == nil {
		cfg.DefaultFields = constants.DefaultFields
	}
	if engine == nil {
		engine = qa.NewEngine(nil)
	}
	if aggregator == nil {
		aggregator = confidence.NewAggregator(nil)
	}
	return &Processor{
		Logger:     logger,
		Cfg:        cfg,
		Text:       text,
		Classifier: classifier,
		Extractor:  extractor,
		QA:         engine,
		Estimator:  confidence.NewEstimator(),
		Aggregator: aggregator,
	}
}

// ProcessDocument runs the full pipeline for one file. It returns either a
// complete result or an error, never a partial result.
func (p *Processor) ProcessDocument(ctx context.Context, req Request) (*entity.ExtractionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()
	p.Logger.Info("processor.start", "req_id", rid, "path", req.Path, "auto_detect", req.AutoDetect, "fields", len(req.Fields))

	// 1) OCR every page
	doc, err := p.Text.Extract(ctx, req.Path)
	if err != nil {
		p.Logger.Error("processor.ocr.failed", "req_id", rid, "error", err)
		return nil, err
	}

	// 2) document type
	docType, err := p.resolveDocType(ctx, req, doc.Text)
	if err != nil {
		p.Logger.Error("processor.classify.failed", "req_id", rid, "error", err)
		return nil, err
	}

	// 3) fields to extract
	fields := req.Fields
	if len(fields) == 0 {
		fields = p.defaultFields(docType)
	}

	// 4) extraction with majority vote
	values, err := p.extract(ctx, doc.Text, fields)
	if err != nil {
		p.Logger.Error("processor.extract.failed", "req_id", rid, "error", err)
		return nil, err
	}

	// 5) QA, per-field and overall confidence
	result := p.score(doc, docType, fields, values)

	p.Logger.Info("processor.ok",
		"req_id", rid,
		"doc_type", result.DocType,
		"fields", len(result.Fields),
		"failed_rules", len(result.QA.FailedRules),
		"overall_confidence", result.OverallConfidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (p *Processor) defaultFields(t constants.DocType) []string {
	if fields, ok := p.Cfg.DefaultFields[t]; ok && len(fields) > 0 {
		return append([]string(nil), fields...)
	}
	return constants.FieldsFor(t)
}

func (p *Processor) withLLMTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Cfg.LLMTimeout > 0 {
		return context.WithTimeout(ctx, p.Cfg.LLMTimeout)
	}
	return context.WithCancel(ctx)
}
