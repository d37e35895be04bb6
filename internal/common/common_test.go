package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OCR_PROVIDER", "")
	t.Setenv("LLM_ATTEMPTS", "")
	t.Setenv("PDF_DPI", "")
	t.Setenv("SCORING_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, OCRProviderOCRSpace, cfg.OCR.Provider)
	assert.Equal(t, 3, cfg.LLM.Attempts)
	assert.Equal(t, 300, cfg.Ingest.DPI)
	assert.Equal(t, 85, cfg.Ingest.JPEGQuality)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LLM_ATTEMPTS=5\n"), 0o600))
	t.Setenv("SCORING_FILE", "")
	// godotenv never overrides variables that are already set
	t.Setenv("LLM_ATTEMPTS", "")
	require.NoError(t, os.Unsetenv("LLM_ATTEMPTS"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.LLM.Attempts)
}

func TestLoadConfig_ScoringFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "scoring.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[weights]
vendor_name = 2.0

[fields]
invoice = ["vendor_name", "total_amount"]
`), 0o600))
	t.Setenv("SCORING_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Scoring.Weights["vendor_name"])
	assert.Equal(t, []string{"vendor_name", "total_amount"}, cfg.Scoring.DefaultFields["invoice"])
}

func TestScoringConfig_RejectsNonPositiveWeight(t *testing.T) {
	s := &ScoringConfig{}
	err := s.decode([]byte("[weights]\ntotal_amount = 0.0\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			OCR:    OCRConfig{Provider: OCRProviderOCRSpace, APIKey: "k"},
			LLM:    LLMConfig{Provider: LLMProviderOpenAI, APIKey: "k", Attempts: 3},
			Ingest: IngestConfig{MaxPages: 10},
		}
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing ocr key", func(c *Config) { c.OCR.APIKey = "" }},
		{"azure without endpoint", func(c *Config) { c.OCR.Provider = OCRProviderAzure; c.OCR.AzureKey = "k" }},
		{"unknown ocr provider", func(c *Config) { c.OCR.Provider = "paper" }},
		{"missing llm key", func(c *Config) { c.LLM.APIKey = "" }},
		{"gemini without key", func(c *Config) { c.LLM.Provider = LLMProviderGemini }},
		{"zero attempts", func(c *Config) { c.LLM.Attempts = 0 }},
		{"zero pages", func(c *Config) { c.Ingest.MaxPages = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}

	c := base()
	c.OCR.Provider = OCRProviderTesseract
	c.OCR.APIKey = ""
	assert.NoError(t, c.Validate())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		http int
		code codes.Code
	}{
		{Kind(ErrIngestion, "INGEST", "bad pdf", errors.New("eof")), http.StatusBadRequest, codes.InvalidArgument},
		{Kind(ErrTransient, "OCR", "timeout", nil), http.StatusServiceUnavailable, codes.Unavailable},
		{fmt.Errorf("llm: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, codes.Unavailable},
		{Kind(ErrProcessing, "OCR", "unreadable", nil), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Kind(ErrConfiguration, "CONFIG", "missing key", nil), http.StatusInternalServerError, codes.FailedPrecondition},
		{NewValidator().Field("path", "", Required).Err(), http.StatusBadRequest, codes.InvalidArgument},
		{errors.New("boom"), http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.http, HTTPStatus(tt.err), tt.err.Error())
		st, ok := status.FromError(GRPCStatus(tt.err))
		require.True(t, ok)
		assert.Equal(t, tt.code, st.Code(), tt.err.Error())
	}
	assert.Nil(t, GRPCStatus(nil))
}

func TestKind_PreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Kind(ErrTransient, "OCR_HTTP", "post", cause)
	assert.ErrorIs(t, err, ErrTransient)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "OCR_HTTP")
}

func TestValidatorRules(t *testing.T) {
	v := NewValidator().
		Field("doc_type", "Invoice", OneOf("invoice", "receipt")).
		Field("fields", []string{"vendor_name", "total_amount"}, FieldNames)
	assert.False(t, v.HasErrors())

	v = NewValidator().
		Field("path", " ", Required).
		Field("doc_type", "memo", OneOf("invoice")).
		Field("fields", []string{"a", "a"}, FieldNames).
		Field("fields", []string{"bad-name"}, FieldNames)
	require.Len(t, v.Errors(), 4)
	assert.ErrorIs(t, v.Err(), ErrInvalidInput)
	assert.Contains(t, v.ErrorMessage(), "is duplicated")
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, RequestIDFromContext(ctx))

	ctx2, id2 := EnsureRequestID(ctx)
	assert.Equal(t, id, id2)
	assert.Equal(t, ctx, ctx2)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", slog.String("k", "v"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
}
