package ocrspace

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

const okBody = `{
  "ParsedResults": [{
    "ParsedText": "ACME Corp\r\nTotal $12.50",
    "TextOverlay": {"Lines": [
      {"Words": [{"WordText": "ACME", "Left": 10, "Top": 20, "Width": 30, "Height": 8},
                 {"WordText": " ", "Left": 0, "Top": 0, "Width": 0, "Height": 0}]},
      {"Words": [{"WordText": "$12.50", "Left": 50, "Top": 60, "Width": 25, "Height": 9}]}
    ]}
  }],
  "IsErroredOnProcessing": false
}`

func TestRecognize_ParsesOverlay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "2", r.FormValue("OCREngine"))
		assert.Equal(t, "true", r.FormValue("isOverlayRequired"))
		assert.Equal(t, "eng", r.FormValue("language"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "image.jpg", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, []byte("jpeg-bytes"), data)

		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "secret", Endpoint: srv.URL}, nil)
	res, err := c.Recognize(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "ACME Corp\r\nTotal $12.50", res.Text)
	require.Len(t, res.Words, 2)
	assert.Equal(t, entity.OCRWord{Text: "ACME", Confidence: 0.9, BBox: entity.BBox{10, 20, 40, 28}}, res.Words[0])
	assert.Equal(t, entity.BBox{50, 60, 75, 69}, res.Words[1].BBox)
}

func TestRecognize_ProcessingError(t *testing.T) {
	for _, msg := range []string{`"Unable to recognize the file type"`, `["E301: bad image", "retry later"]`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"IsErroredOnProcessing": true, "ErrorMessage": `+msg+`}`)
		}))
		c := NewClient(Config{APIKey: "k", Endpoint: srv.URL}, nil)
		_, err := c.Recognize(context.Background(), []byte("x"))
		srv.Close()

		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrProcessing)
		assert.NotErrorIs(t, err, common.ErrTransient)
	}
}

func TestRecognize_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, common.ErrTransient},
		{http.StatusBadGateway, common.ErrTransient},
		{http.StatusForbidden, common.ErrConfiguration},
		{http.StatusBadRequest, common.ErrProcessing},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		c := NewClient(Config{APIKey: "k", Endpoint: srv.URL}, nil)
		_, err := c.Recognize(context.Background(), []byte("x"))
		srv.Close()
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestRecognize_TimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", Endpoint: srv.URL, Timeout: 20 * time.Millisecond}, nil)
	_, err := c.Recognize(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, common.ErrTransient)
}

func TestRecognize_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ParsedResults": [], "IsErroredOnProcessing": false}`)
	}))
	defer srv.Close()

	res, err := NewClient(Config{APIKey: "k", Endpoint: srv.URL}, nil).Recognize(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Empty(t, res.Words)
}
