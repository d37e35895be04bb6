package pipeline

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

// extract runs Cfg.Attempts independent extractions and votes. Degraded
// attempts are dropped; if all degrade every field is "". Any other error
// aborts the document.
func (p *Processor) extract(ctx context.Context, text string, fields []string) (map[string]string, error) {
	rid := common.RequestIDFromContext(ctx)
	attempts := make([]map[string]string, 0, p.Cfg.Attempts)
	degraded := 0

	for i := range p.Cfg.Attempts {
		values, err := p.extractOnce(ctx, text, fields)
		if err != nil {
			if errors.Is(err, common.ErrDegraded) {
				degraded++
				p.Logger.Warn("processor.extract.attempt_degraded", "req_id", rid, "attempt", i+1, "error", err)
				continue
			}
			return nil, llm.ClassifyCallError(err)
		}
		attempts = append(attempts, values)
	}

	if len(attempts) == 0 {
		p.Logger.Warn("processor.extract.all_degraded", "req_id", rid, "attempts", p.Cfg.Attempts)
	}
	p.Logger.Debug("processor.extract.vote", "req_id", rid, "usable", len(attempts), "degraded", degraded)
	return llm.Vote(attempts, fields), nil
}

func (p *Processor) extractOnce(ctx context.Context, text string, fields []string) (map[string]string, error) {
	ectx, cancel := p.withLLMTimeout(ctx)
	defer cancel()
	return p.Extractor.ExtractFields(ectx, text, fields)
}
