package ocr

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// Limited throttles calls to a paid OCR API. It is safe for concurrent use.
type Limited struct {
	next    Recognizer
	limiter *rate.Limiter
}

// NewLimited allows perSecond calls with the given burst. perSecond <= 0
// disables limiting.
func NewLimited(next Recognizer, perSecond float64, burst int) *Limited {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (l *Limited) Recognize(ctx context.Context, image []byte) (Result, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return Result{}, common.Kind(common.ErrTransient, "OCR_RATE_LIMIT", "waiting for rate limiter", err)
	}
	return l.next.Recognize(ctx, image)
}
