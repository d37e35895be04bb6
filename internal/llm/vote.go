package llm

import "github.com/joseph-ayodele/docextract/constants"

// Vote reconciles extraction attempts field by field: the most frequent
// non-empty value wins, ties go to the value seen first. Fields with no
// non-empty value in any attempt get "".
func Vote(attempts []map[string]string, fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		counts := make(map[string]int)
		var order []string
		for _, a := range attempts {
			v := a[f]
			if v == "" {
				continue
			}
			if counts[v] == 0 {
				order = append(order, v)
			}
			counts[v]++
		}
		best, bestN := "", 0
		for _, v := range order {
			if counts[v] > bestN {
				best, bestN = v, counts[v]
			}
		}
		out[f] = best
	}
	return out
}

// ResolveDocType maps a free-text classifier label onto a supported type,
// falling back to the first one.
func ResolveDocType(label string) constants.DocType {
	t, _ := constants.Canonicalize(label)
	return t
}
