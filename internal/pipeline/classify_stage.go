package pipeline

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

// resolveDocType classifies when asked to, otherwise honors the requested
// type. A degraded classifier answer falls back to the default type; any
// other classifier failure aborts the document.
func (p *Processor) resolveDocType(ctx context.Context, req Request, text string) (constants.DocType, error) {
	rid := common.RequestIDFromContext(ctx)
	if !req.AutoDetect {
		if t, ok := constants.ParseDocType(req.DocType); ok {
			return t, nil
		}
		return constants.DefaultDocType, nil
	}

	cctx, cancel := p.withLLMTimeout(ctx)
	defer cancel()
	label, err := p.Classifier.Classify(cctx, text)
	if err != nil {
		if errors.Is(err, common.ErrDegraded) {
			p.Logger.Warn("processor.classify.degraded", "req_id", rid, "error", err, "fallback", constants.DefaultDocType)
			return constants.DefaultDocType, nil
		}
		return "", llm.ClassifyCallError(err)
	}
	t := llm.ResolveDocType(label)
	p.Logger.Info("processor.classify.ok", "req_id", rid, "label", label, "doc_type", t)
	return t, nil
}
