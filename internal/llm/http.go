package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// SendJSON sends a JSON request to a full URL with optional headers and returns the raw response body.
// It does not assume any provider. Callers decide the URL and headers.
// Failures are classified: no response, 429 and 5xx wrap common.ErrTransient,
// 401/403 wrap common.ErrConfiguration, other non-2xx wrap common.ErrDegraded.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		logger.Error("llm.http.encode_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		logger.Error("llm.http.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	// Default headers; allow caller overrides.
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("llm.http.request",
		"req_id", reqID,
		"url", url,
		"content_length", len(bs),
	)

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("llm.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, common.Kind(common.ErrTransient, "LLM_HTTP", "llm request failed", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logger.Warn("llm.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, common.Kind(common.ErrTransient, "LLM_HTTP", "read llm response", err)
	}

	logger.Info("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if err := StatusError(resp.StatusCode, raw); err != nil {
		return raw, resp.StatusCode, err
	}
	return raw, resp.StatusCode, nil
}

// StatusError classifies a non-2xx HTTP status; nil for 2xx.
func StatusError(code int, raw []byte) error {
	if code/100 == 2 {
		return nil
	}
	msg := fmt.Sprintf("non-2xx status: %d: %s", code, Head(string(raw), 300))
	switch {
	case code == http.StatusTooManyRequests || code >= 500 || code == http.StatusRequestTimeout:
		return common.Kind(common.ErrTransient, "LLM_HTTP", msg, nil)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return common.Kind(common.ErrConfiguration, "LLM_AUTH", msg, nil)
	default:
		return common.Kind(common.ErrDegraded, "LLM_HTTP", msg, nil)
	}
}

// ClassifyCallError normalizes a provider SDK error. Context deadlines are
// transient; errors already carrying a kind pass through; anything else is
// treated as transient.
func ClassifyCallError(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{common.ErrTransient, common.ErrDegraded, common.ErrConfiguration} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return common.Kind(common.ErrTransient, "LLM_CALL", "llm call failed", err)
}
