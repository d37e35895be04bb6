package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/common"
)

var reFence = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := reFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// SanitizeFieldsJSON coerces the requested fields to strings so a loosely
// typed answer can still validate:
//   - numbers and booleans are formatted
//   - null becomes ""
//   - arrays and objects are compacted to JSON, or joined by newline when
//     every element is a string
//
// Keys not in fields are dropped. Returns the changed keys.
func SanitizeFieldsJSON(raw []byte, fields []string, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	out := make(map[string]any, len(fields))
	var changed []string
	for _, f := range fields {
		v, ok := m[f]
		if !ok {
			continue
		}
		s, coerced := coerceString(v)
		if coerced {
			changed = append(changed, f)
		}
		out[f] = s
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Debug("llm.extract.sanitize", "coerced", changed)
	}
	return b, changed, nil
}

func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), false
	case nil:
		return "", true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case []any:
		lines := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				b, _ := json.Marshal(t)
				return string(b), true
			}
			lines = append(lines, strings.TrimSpace(s))
		}
		return strings.Join(lines, "\n"), true
	default:
		b, _ := json.Marshal(t)
		return string(b), true
	}
}

// ParseFields turns raw model output into a value per requested field. Any
// failure wraps common.ErrDegraded.
func ParseFields(content string, fields []string, logger *slog.Logger) (map[string]string, error) {
	body := StripCodeFence(content)
	if body == "" {
		return nil, common.Kind(common.ErrDegraded, "LLM_EMPTY", "model returned no content", nil)
	}
	cleaned, _, err := SanitizeFieldsJSON([]byte(body), fields, logger)
	if err != nil {
		return nil, common.Kind(common.ErrDegraded, "LLM_MALFORMED", "output is not a JSON object", err)
	}
	if err := ValidateJSONAgainstSchema(BuildFieldsJSONSchema(fields), cleaned); err != nil {
		return nil, common.Kind(common.ErrDegraded, "LLM_SCHEMA", "output does not match field schema", err)
	}
	var out map[string]string
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return nil, common.Kind(common.ErrDegraded, "LLM_MALFORMED", "unmarshal fields", err)
	}
	return out, nil
}
