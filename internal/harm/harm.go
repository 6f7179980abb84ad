// Package harm flags user text that mentions a fixed list of trigger words.
//
// Matching is a lower-cased substring test and nothing more: no stemming, no
// Unicode folding, no word boundaries. It over-triggers on purpose ("harmless"
// contains "harm") and misses paraphrases and other languages. Changing the
// normalisation changes the false positive rate, so keep it exactly as is.
package harm

import "strings"

var triggers = []string{
	"threat",
	"dox",
	"harm",
	"self-harm",
	"suicide",
	"abuse",
	"illegal",
	"weapon",
	"exploit",
	"kill",
	"murder",
	"attack",
}

// DetectTriggers reports whether text contains any trigger word, ignoring case.
func DetectTriggers(text string) bool {
	lower := strings.ToLower(text)
	for _, t := range triggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// MatchedTriggers lists the trigger words found in text, in list order.
func MatchedTriggers(text string) []string {
	return matchAny(strings.ToLower(text))
}

// MatchedFormTriggers is MatchedTriggers over every string-valued field. Each
// trigger appears once.
func MatchedFormTriggers(fields map[string]any) []string {
	return matchAny(formText(fields)...)
}

func matchAny(lowered ...string) []string {
	var matched []string
	for _, t := range triggers {
		for _, text := range lowered {
			if strings.Contains(text, t) {
				matched = append(matched, t)
				break
			}
		}
	}
	return matched
}

func formText(fields map[string]any) []string {
	var out []string
	for _, v := range fields {
		if s, ok := v.(string); ok {
			out = append(out, strings.ToLower(s))
		}
	}
	return out
}

// ScanForm reports whether any string-valued field triggers. Values of any
// other type never trigger.
func ScanForm(fields map[string]any) bool {
	for _, v := range fields {
		if s, ok := v.(string); ok && DetectTriggers(s) {
			return true
		}
	}
	return false
}
