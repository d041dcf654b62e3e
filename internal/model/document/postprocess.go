package document

import "strings"

// CompletionThresholds tunes the incompleteness heuristic.
type CompletionThresholds struct {
	// MinLines is the minimum total line count below which the artifact is
	// considered truncated.
	MinLines int
	// DanglingHeadingMaxLen is the length under which a final heading line
	// counts as a dangling section start.
	DanglingHeadingMaxLen int
}

// danglingEndings are trailing words that indicate a sentence was cut off.
var danglingEndings = []string{"and", "or", "but", "the", "a", "an"}

// closingIndicators are terms whose absence anywhere in the artifact suggests
// it never reached its closing sections.
var closingIndicators = []string{"signature", "executed", "agreed", "concluded", "effective date"}

// Incomplete reports whether streamed output looks truncated. The artifact is
// judged incomplete if any indicator fires: a dangling last line, a short
// final heading, too few lines overall, or no closing-indicator term at all.
func Incomplete(text string, th CompletionThresholds) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	lines := strings.Split(trimmed, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])

	if strings.HasSuffix(last, "...") || strings.HasSuffix(last, "…") || strings.HasSuffix(last, ",") {
		return true
	}
	if endsWithDanglingWord(last) {
		return true
	}
	if strings.HasPrefix(last, "#") && len(last) < th.DanglingHeadingMaxLen {
		return true
	}
	if len(strings.Split(text, "\n")) < th.MinLines {
		return true
	}
	if !containsClosingIndicator(text) {
		return true
	}

	return false
}

func endsWithDanglingWord(line string) bool {
	words := strings.Fields(strings.ToLower(line))
	if len(words) == 0 {
		return false
	}
	last := strings.Trim(words[len(words)-1], `"'`)
	for _, word := range danglingEndings {
		if last == word {
			return true
		}
	}
	return false
}

func containsClosingIndicator(text string) bool {
	lowered := strings.ToLower(text)
	for _, indicator := range closingIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}

// PaginationRules tunes where page-break markers are inserted.
type PaginationRules struct {
	// LinesPerPage is the hard cap of substantive lines per page.
	LinesPerPage int
	// H1Threshold is the substantive-line count after which a top-level
	// heading forces a break.
	H1Threshold int
	// H2Threshold is the same for second-level headings.
	H2Threshold int
	// SignatureThreshold is the count after which a signature-block line
	// forces a break.
	SignatureThreshold int
	// Marker is the sentinel line inserted at each page boundary.
	Marker string
}

// Paginate re-segments final text into page-bounded units by inserting marker
// lines. Content lines are never reordered, altered, or dropped; the marker is
// excluded from the substantive-line count it resets.
func Paginate(text string, rules PaginationRules) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines)+len(lines)/rules.LinesPerPage+1)
	count := 0

	for _, line := range lines {
		breakHere := false
		switch {
		case strings.HasPrefix(line, "# ") && count > rules.H1Threshold:
			breakHere = true
		case strings.HasPrefix(line, "## ") && count > rules.H2Threshold:
			breakHere = true
		case count >= rules.LinesPerPage:
			breakHere = true
		case strings.Contains(strings.ToLower(line), "signature") && count > rules.SignatureThreshold:
			breakHere = true
		}

		if breakHere && count > 0 {
			out = append(out, rules.Marker)
			count = 0
		}

		out = append(out, line)
		if strings.TrimSpace(line) != "" && line != rules.Marker {
			count++
		}
	}

	return strings.Join(out, "\n")
}
