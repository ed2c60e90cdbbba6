package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var spamMarkers = []string{"http://", "https://", "buy now", "free $$$", "click here", "www."}

const (
	minTextLength      = 3
	maxRepeatedRunes   = 6
	capsCheckMinLength = 10
	maxUppercaseRatio  = 0.7
)

// DetectSpam flags very short texts, links and promotions, long runs of one
// character and shouting.
func DetectSpam(text string) bool {
	length := utf8.RuneCountInString(text)
	if length < minTextLength {
		return true
	}

	if containsAny(strings.ToLower(text), spamMarkers) {
		return true
	}

	if hasRepeatedRun(text, maxRepeatedRunes) {
		return true
	}

	if length > capsCheckMinLength {
		upper := 0

		for _, r := range text {
			if unicode.IsUpper(r) {
				upper++
			}
		}

		if float64(upper)/float64(length) > maxUppercaseRatio {
			return true
		}
	}

	return false
}

// hasRepeatedRun reports whether some rune occurs n or more times in a row.
func hasRepeatedRun(text string, n int) bool {
	var prev rune

	run := 0

	for i, r := range []rune(text) {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}

		if run >= n {
			return true
		}

		prev = r
	}

	return false
}
