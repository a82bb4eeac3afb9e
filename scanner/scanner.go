// Package scanner flags comments that need a human moderator's eyes. It is a
// pure pre-check: it never blocks or changes how the comment is routed.
package scanner

import (
	"regexp"
	"strings"
)

// modSupportPhrases is the ordered list of patterns that warrant moderator
// attention when they show up in a volunteer's reply.
var modSupportPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)fuck`),
	regexp.MustCompile(`(?i)unclaim`),
	regexp.MustCompile(`(?i)undo`),
	regexp.MustCompile(`(?i)(?:good|bad) bot`),
}

// Scan returns every matched phrase from the moderator-attention list, in
// pattern order. An empty result means nothing needs intervention.
func Scan(commentBody string) []string {
	var phrases []string
	for _, re := range modSupportPhrases {
		match := re.FindString(commentBody)
		if match == "" {
			continue
		}
		phrases = append(phrases, match)
	}
	return phrases
}

// FormatPhrases wraps each matched phrase in double quotes and joins them
// with commas, the shape the moderation channel expects.
func FormatPhrases(phrases []string) string {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = `"` + p + `"`
	}
	return strings.Join(quoted, ", ")
}
