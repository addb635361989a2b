package utils

import (
	"regexp"
	"strings"
)

// CountTokens estimates the number of tokens in the given text at roughly
// four characters per token.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	// Ensure at least 1 token for any non-empty text
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

var sectionMarker = regexp.MustCompile(`(?m)^\[([A-Z][A-Z \-]*)\]`)

// TokenBreakdown estimates tokens per "[SECTION]" block of a prompt, in order of
// appearance. Text before the first marker is reported under "preamble".
func TokenBreakdown(prompt string) []SectionTokens {
	locs := sectionMarker.FindAllStringSubmatchIndex(prompt, -1)
	var out []SectionTokens
	if len(locs) == 0 || locs[0][0] > 0 {
		end := len(prompt)
		if len(locs) > 0 {
			end = locs[0][0]
		}
		if pre := strings.TrimSpace(prompt[:end]); pre != "" {
			out = append(out, SectionTokens{Name: "preamble", Tokens: CountTokens(pre)})
		}
	}
	for i, l := range locs {
		end := len(prompt)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, SectionTokens{Name: prompt[l[2]:l[3]], Tokens: CountTokens(prompt[l[0]:end])})
	}
	return out
}

// SectionTokens is one entry of TokenBreakdown.
type SectionTokens struct {
	Name   string
	Tokens int
}
