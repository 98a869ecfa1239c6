package knowledge

import "strings"

// Quality filter thresholds. Crawled documentation contains redirect stubs
// and navigation-only fragments that embed well but answer nothing; they are
// dropped before the context reaches the model.
const (
	// MinContentLength is the minimum chunk size considered substantive.
	MinContentLength = 100

	// maxNavLines is how many "Skip to" navigation lines a chunk may
	// contain before it is treated as boilerplate.
	maxNavLines = 2

	// MaxContextDocuments caps how many chunks feed one answer.
	MaxContextDocuments = 5
)

// IsSubstantive reports whether a chunk carries real documentation content.
func IsSubstantive(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < MinContentLength {
		return false
	}
	if strings.Contains(trimmed, "Redirecting") {
		return false
	}

	navLines := 0
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.Contains(line, "Skip to") {
			navLines++
			if navLines > maxNavLines {
				return false
			}
		}
	}
	return true
}

// FilterResults drops low-quality hits and caps the remainder at
// MaxContextDocuments, preserving similarity order.
func FilterResults(results []Result) []Result {
	filtered := make([]Result, 0, MaxContextDocuments)
	for _, r := range results {
		if !IsSubstantive(r.Document.Content) {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) == MaxContextDocuments {
			break
		}
	}
	return filtered
}
