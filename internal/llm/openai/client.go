package openai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

var (
	_ llm.Classifier     = (*Client)(nil)
	_ llm.FieldExtractor = (*Client)(nil)
)

// Classify implements llm.Classifier using chat/completions.
func (c *Client) Classify(ctx context.Context, text string) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": 0,
		"messages": []map[string]any{
			{"role": "system", "content": llm.ClassifySystemPrompt()},
			{"role": "user", "content": llm.BuildClassifyPrompt(text)},
		},
	}
	content, err := c.complete(ctx, body)
	if err != nil {
		c.logger.Error("llm.classify.error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	c.logger.Info("llm.classify.ok", "req_id", rid, "label", content, "elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

// ExtractFields implements llm.FieldExtractor using text-only chat/completions
// in JSON mode.
func (c *Client) ExtractFields(ctx context.Context, text string, fields []string) (map[string]string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
		"fields", len(fields),
	)

	schema := llm.BuildFieldsJSONSchema(fields)
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildExtractSystemPrompt(fields)},
			{"role": "user", "content": llm.BuildExtractUserPrompt(text)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	out, err := llm.ParseFields(content, fields, c.logger)
	if err != nil {
		c.logger.Warn("llm.extract.degraded",
			"req_id", rid, "error", err, "content", llm.Head(content, 500),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"fields", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// complete posts to chat/completions and returns the first choice's content.
func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			FinishReason string `json:"finish_reason"`
			Message      struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", common.Kind(common.ErrDegraded, "LLM_DECODE", "decode openai response", err)
	}
	if len(cc.Choices) == 0 {
		return "", common.Kind(common.ErrDegraded, "LLM_EMPTY", "no choices in openai response", nil)
	}
	msg := cc.Choices[0].Message
	if msg.Refusal != "" {
		return "", common.Kind(common.ErrDegraded, "LLM_REFUSED", msg.Refusal, nil)
	}
	return strings.TrimSpace(msg.Content), nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
