// Package response splits free-form generated analysis text into summary,
// insight, trend and recommendation buckets. Parsing is heuristic and never fails.
package response

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxSectionBullets caps every section's bullet list.
	MaxSectionBullets = 8
	// FallbackBullets is the number of bullets pulled from the whole text when no insights section is found.
	FallbackBullets = 15
)

// fallback split of the bullets: [0,8) insights, [8,14) trends, rest recommendations
const (
	fallbackInsights = 8
	fallbackTrends   = 14
)

// ParsedAnalysis is the bucketed view of one generated response.
// An empty Summary means no summary section was found; nil Recommendations means none were found.
type ParsedAnalysis struct {
	Summary         string   `json:"summary,omitempty"`
	KeyInsights     []string `json:"keyInsights"`
	Trends          []string `json:"trends"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// section locates content after a heading. Content ends at the first stop match,
// or at the end of the text when untilEnd is set.
type section struct {
	heading  *regexp.Regexp
	stop     *regexp.Regexp
	untilEnd bool
}

var (
	summarySection = section{
		heading: regexp.MustCompile(`(?i)(?:Executive Summary|Summary)[:\s]*\n`),
		stop:    regexp.MustCompile(`(?i)\n\s*(?:\d+\.|\*\*(?:Key Insights|Insights|Trends|Performance|Financial|Recommendations))`),
	}
	insightsSection = section{
		heading: regexp.MustCompile(`(?i)(?:Key Insights|Insights)[:\s]*\n`),
		stop:    regexp.MustCompile(`(?i)\n\s*(?:\d+\.|\*\*(?:Trends|Performance|Financial|Recommendations))`),
	}
	// the heading runs lazily to the first newline after the keyword
	trendsSection = section{
		heading:  regexp.MustCompile(`(?i)(?:Trends|Patterns|Performance Assessment|Financial Analysis)[^\n]*\n`),
		stop:     regexp.MustCompile(`(?i)\n\s*(?:\d+\.|\*\*(?:Strategic|Recommendations))`),
		untilEnd: true,
	}
	recommendationsSection = section{
		heading:  regexp.MustCompile(`(?i)(?:Strategic Recommendations|Recommendations)[:\s]*\n`),
		untilEnd: true,
	}
)

// find returns the content of the first heading occurrence that has a valid end.
//
// A heading such as "Summary:\n\n" can end at any of the newlines in its trailing
// whitespace; every candidate is tried from the longest to the shortest, and the
// content is taken up to the nearest stop boundary.
func (s section) find(text string) (string, bool) {
	for offset := 0; offset <= len(text); {
		loc := s.heading.FindStringIndex(text[offset:])
		if loc == nil {
			return "", false
		}
		start, end := offset+loc[0], offset+loc[1]
		for _, cut := range headingEnds(text, start, end) {
			rest := text[cut:]
			if s.stop != nil {
				if m := s.stop.FindStringIndex(rest); m != nil {
					return rest[:m[0]], true
				}
			}
			if s.untilEnd {
				return rest, true
			}
		}
		// retry from the next position after this heading's start
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + max(size, 1)
	}
	return "", false
}

// headingEnds lists the positions just after each newline inside the heading's
// trailing whitespace run, longest match first. The heading regexps always end in '\n'.
func headingEnds(text string, start, end int) []int {
	ends := []int{end}
	for i := end - 2; i > start; i-- {
		c := text[i]
		if c == '\n' {
			ends = append(ends, i+1)
			continue
		}
		if c != ' ' && c != '\t' && c != '\r' && c != '\f' && c != '\v' && c != ':' {
			break
		}
	}
	return ends
}

// Parse buckets text into sections. Headings are matched case-insensitively and
// each section ends at the next recognised heading.
func Parse(text string) ParsedAnalysis {
	var out ParsedAnalysis
	if body, ok := summarySection.find(text); ok {
		out.Summary = strings.TrimSpace(body)
	}
	if body, ok := insightsSection.find(text); ok {
		out.KeyInsights = ExtractBullets(body, MaxSectionBullets)
	}
	if body, ok := trendsSection.find(text); ok {
		out.Trends = ExtractBullets(body, MaxSectionBullets)
	}
	if body, ok := recommendationsSection.find(text); ok {
		out.Recommendations = ExtractBullets(body, MaxSectionBullets)
	}

	if len(out.KeyInsights) == 0 {
		all := ExtractBullets(text, FallbackBullets)
		i, t := min(len(all), fallbackInsights), min(len(all), fallbackTrends)
		out.KeyInsights = all[:i:i]
		out.Trends = all[i:t:t]
		if len(all) > fallbackTrends {
			out.Recommendations = all[fallbackTrends:]
		}
	}
	return out
}

var (
	bulletMarker = regexp.MustCompile(`^[-•*+→▶]\s*`)
	numberMarker = regexp.MustCompile(`^\d+\.\s*`)
	letterMarker = regexp.MustCompile(`^[a-zA-Z]\.\s*`)
	boldLine     = regexp.MustCompile(`^\*\*.*\*\*$`)
	mdHeading    = regexp.MustCompile(`^#{1,6}\s`)
)

const (
	minBulletRunes = 15 // exclusive
	maxBulletRunes = 500
)

// ExtractBullets returns up to max bullet-like lines from text, in order.
// Leading markers ("-", "•", "1.", "a.") are stripped; headings, bold-only lines
// and lines outside 16..499 characters are dropped.
func ExtractBullets(text string, max int) []string {
	if text == "" || max <= 0 {
		return []string{}
	}
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = bulletMarker.ReplaceAllString(line, "")
		line = numberMarker.ReplaceAllString(line, "")
		line = letterMarker.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)

		n := utf8.RuneCountInString(line)
		if n <= minBulletRunes || n >= maxBulletRunes {
			continue
		}
		if boldLine.MatchString(line) || mdHeading.MatchString(line) || strings.Contains(line, "**") {
			continue
		}
		line = strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
		if utf8.RuneCountInString(line) <= minBulletRunes {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}
