// Package llm holds the classification and field extraction contracts, the
// prompts and output checks shared by every provider, and the vote that
// reconciles repeated extraction attempts.
package llm

import "context"

// Classifier labels a document. The raw label is free text; ResolveDocType
// maps it onto the supported set.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// FieldExtractor returns one string value per requested field.
//
// Errors wrap common.ErrTransient for network, timeout, 429 and 5xx failures,
// and common.ErrDegraded when the model answered with something unusable.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string, fields []string) (map[string]string, error)
}
