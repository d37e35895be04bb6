package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/ocr"
)

type fakeLoader struct {
	pages []ingest.PageImage
	err   error
}

func (f fakeLoader) Load(context.Context, string) ([]ingest.PageImage, error) {
	return f.pages, f.err
}

func pagesOf(data ...string) []ingest.PageImage {
	out := make([]ingest.PageImage, len(data))
	for i, d := range data {
		out[i] = ingest.PageImage{Number: i + 1, Data: []byte(d)}
	}
	return out
}

func TestExtract_JoinsPages(t *testing.T) {
	rec := ocr.RecognizerFunc(func(_ context.Context, img []byte) (ocr.Result, error) {
		switch string(img) {
		case "p1":
			return ocr.Result{Text: "Invoice  #1\r\n", Words: []entity.OCRWord{{Text: "Invoice", Confidence: 0.9}, {Text: "#1", Confidence: 0.7}}}, nil
		default:
			return ocr.Result{Text: "Total $5.00", Words: []entity.OCRWord{{Text: "Total", Confidence: 0.5}}}, nil
		}
	})
	a := NewOCRAdapter(fakeLoader{pages: pagesOf("p1", "p2")}, rec, time.Second, nil)

	doc, err := a.Extract(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Invoice #1\n\nTotal $5.00", doc.Text)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 2, doc.Pages[1].Number)
	assert.Equal(t, []float64{0.9, 0.7, 0.5}, doc.OCRConfidences)
	assert.InDelta(t, 0.7, doc.WordConfidence(), 1e-9)
}

func TestExtract_NoWordsUsesDefaultConfidence(t *testing.T) {
	rec := ocr.RecognizerFunc(func(context.Context, []byte) (ocr.Result, error) { return ocr.Result{}, nil })
	doc, err := NewOCRAdapter(fakeLoader{pages: pagesOf("blank")}, rec, 0, nil).Extract(context.Background(), "x.png")
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultWordConfidence, doc.WordConfidence())
	assert.Empty(t, doc.Text)
}

func TestExtract_Errors(t *testing.T) {
	ingestErr := common.Kind(common.ErrIngestion, "INGEST", "corrupt", nil)
	_, err := NewOCRAdapter(fakeLoader{err: ingestErr}, nil, 0, nil).Extract(context.Background(), "x.pdf")
	assert.ErrorIs(t, err, common.ErrIngestion)

	calls := 0
	failing := ocr.RecognizerFunc(func(context.Context, []byte) (ocr.Result, error) {
		calls++
		return ocr.Result{}, common.Kind(common.ErrProcessing, "OCR", "unreadable", nil)
	})
	doc, err := NewOCRAdapter(fakeLoader{pages: pagesOf("a", "b")}, failing, 0, nil).Extract(context.Background(), "x.pdf")
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, common.ErrProcessing)
	assert.Equal(t, 1, calls)
}

func TestExtract_PageTimeoutIsTransient(t *testing.T) {
	slow := ocr.RecognizerFunc(func(ctx context.Context, _ []byte) (ocr.Result, error) {
		<-ctx.Done()
		return ocr.Result{}, ctx.Err()
	})
	_, err := NewOCRAdapter(fakeLoader{pages: pagesOf("a")}, slow, 10*time.Millisecond, nil).Extract(context.Background(), "x.png")
	assert.ErrorIs(t, err, common.ErrTransient)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
