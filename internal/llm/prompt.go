package llm

import (
	"strings"

	"github.com/joseph-ayodele/docextract/constants"
)

// ClassifyWindow is how many leading characters of the document the
// classifier sees.
const ClassifyWindow = 2000

// ClassifySystemPrompt lists the closed set of labels.
func ClassifySystemPrompt() string {
	return "You are an expert document classifier. Classify the document as one of: " +
		strings.Join(constants.AsStringSlice(), ", ") + ". Answer with the label only."
}

// BuildClassifyPrompt frames the first ClassifyWindow characters of text.
func BuildClassifyPrompt(text string) string {
	return "Document content:\n" + Head(text, ClassifyWindow) + "\n\nClassification:"
}

// BuildExtractSystemPrompt asks for a flat JSON object with exactly fields.
func BuildExtractSystemPrompt(fields []string) string {
	parts := []string{
		"You extract structured key-value data from OCR text of scanned documents.",
		"Return ONLY a JSON object with exactly these keys: " + strings.Join(fields, ", ") + ".",
		"Every value must be a string copied from the document as written.",
		"Use an empty string when a value is not present. Never output null.",
		"For list-like fields (e.g. line_items) return a single string with one item per line.",
	}
	return strings.Join(parts, " ")
}

// BuildExtractUserPrompt wraps the OCR text.
func BuildExtractUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("OCR text:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn ONLY JSON that matches the provided schema.")
	return b.String()
}

// Head returns the first n characters of s.
func Head(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
