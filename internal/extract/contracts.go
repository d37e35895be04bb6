package extract

import (
	"context"

	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/ingest"
)

// TextExtractor is Stage 1: file -> OCR'd document.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (*entity.ProcessedDocument, error)
}

// PageLoader renders a file into page images. *ingest.Loader implements it.
type PageLoader interface {
	Load(ctx context.Context, path string) ([]ingest.PageImage, error)
}
