package pipeline

import (
	"strings"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Locate finds where value appears in the OCR output. A run of consecutive
// words matching the value's tokens yields that page and the union of their
// boxes; a plain text match yields the page with a zero box; otherwise the
// default source (page 1) is returned.
func Locate(doc *entity.ProcessedDocument, value string) entity.Source {
	tokens := strings.Fields(strings.ToLower(value))
	if doc == nil || len(tokens) == 0 {
		return entity.DefaultSource()
	}

	for _, page := range doc.Pages {
		if box, ok := matchRun(page.Words, tokens); ok {
			return entity.Source{Page: page.Number, BBox: box}
		}
	}
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, page := range doc.Pages {
		if strings.Contains(strings.ToLower(page.Text), needle) {
			return entity.Source{Page: page.Number}
		}
	}
	return entity.DefaultSource()
}

func matchRun(words []entity.OCRWord, tokens []string) (entity.BBox, bool) {
	for i := 0; i+len(tokens) <= len(words); i++ {
		matched := true
		for j, tok := range tokens {
			if strings.ToLower(words[i+j].Text) != tok {
				matched = false
				break
			}
		}
		if matched {
			return union(words[i : i+len(tokens)]), true
		}
	}
	return entity.BBox{}, false
}

func union(words []entity.OCRWord) entity.BBox {
	box := words[0].BBox
	for _, w := range words[1:] {
		box[0] = min(box[0], w.BBox[0])
		box[1] = min(box[1], w.BBox[1])
		box[2] = max(box[2], w.BBox[2])
		box[3] = max(box[3], w.BBox[3])
	}
	return box
}
