package summarize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const emptyContentSummary = "No content available to summarize."

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// fallbackSummary builds a deterministic extractive summary from the article
// content: the leading sentences that fit the length budget. Used whenever the
// external summarizer is unavailable or keeps failing.
func fallbackSummary(content string, maxLength int) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return emptyContentSummary
	}

	sentences := sentencePattern.FindAllString(content, 5)
	if len(sentences) == 0 {
		return truncate(content, maxLength)
	}

	var summary strings.Builder
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if summary.Len() > 0 && utf8.RuneCountInString(summary.String()+" "+sentence) > maxLength {
			break
		}
		if summary.Len() > 0 {
			summary.WriteByte(' ')
		}
		summary.WriteString(sentence)
	}

	if summary.Len() == 0 {
		// First sentence alone blows the budget.
		return truncate(sentences[0], maxLength)
	}
	return truncate(summary.String(), maxLength)
}

// truncate cuts text to at most maxLength runes, preferring a word boundary.
func truncate(text string, maxLength int) string {
	text = strings.TrimSpace(text)
	if maxLength <= 0 || utf8.RuneCountInString(text) <= maxLength {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:maxLength])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
