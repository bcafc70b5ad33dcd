package engine

import (
	"strings"
	"unicode"
)

// Completion size limits, in bytes.
const (
	maxProfileChars = 4000
	maxSnippetChars = 800
)

// noneSentinel marks an empty context block and is what the model replies
// when it has nothing to extract.
const noneSentinel = "none"

// isNone reports whether a completion is the "none" sentinel, tolerating
// quotes, trailing punctuation and case.
func isNone(s string) bool {
	return strings.EqualFold(strings.TrimRight(cleanCompletion(s, 0), ".!"), noneSentinel)
}

// cleanCompletion trims whitespace and wrapping quotes from a single-value
// completion and caps its length. maxLen <= 0 means no cap.
func cleanCompletion(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	if maxLen > 0 {
		s = truncateClean(s, maxLen)
	}
	return s
}

// truncateClean truncates a string to maxLen, cutting at the last word boundary
// to avoid mid-word breaks.
func truncateClean(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	// Back up to last space
	truncated := s[:maxLen]
	if idx := strings.LastIndexFunc(truncated, unicode.IsSpace); idx > maxLen-200 {
		truncated = truncated[:idx]
	}
	return strings.TrimSpace(truncated)
}

// orNone substitutes the sentinel for blank text.
func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return noneSentinel
	}
	return s
}
